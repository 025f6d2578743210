/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package estatestore

import (
	"io"
	"log/slog"
	"sync"

	"github.com/suparena/estatestore/auth"
	"github.com/suparena/estatestore/blobstore"
	"github.com/suparena/estatestore/datastore"
	"github.com/suparena/estatestore/storagemodels"
)

// Facade validates calls and delegates them to a document store, a blob store and
// an identity session. It holds no state of its own apart from the signed-in
// session and the live subscriptions.
type Facade struct {
	store   datastore.DocumentStore
	blobs   blobstore.BlobStore
	session *auth.Session
	logger  *slog.Logger

	watchOpts     []storagemodels.WatchOption
	maxUploadSize int64

	mu      sync.Mutex
	subs    map[uint64]func()
	nextSub uint64
}

// Option configures a Facade.
type Option func(*Facade)

// WithLogger sets the facade logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Facade) {
		if logger != nil {
			f.logger = logger.With("component", "estatestore")
		}
	}
}

// WithWatchOptions sets the options every subscription passes to the store.
func WithWatchOptions(opts ...storagemodels.WatchOption) Option {
	return func(f *Facade) {
		f.watchOpts = append(f.watchOpts, opts...)
	}
}

// WithMaxUploadSize rejects uploads larger than n bytes. Zero means no limit.
func WithMaxUploadSize(n int64) Option {
	return func(f *Facade) {
		f.maxUploadSize = n
	}
}

// New builds a facade over the given backends.
func New(store datastore.DocumentStore, blobs blobstore.BlobStore, provider auth.Provider, opts ...Option) *Facade {
	f := &Facade{
		store:   store,
		blobs:   blobs,
		session: auth.NewSession(provider),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		subs:    make(map[uint64]func()),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Store returns the underlying document store.
func (f *Facade) Store() datastore.DocumentStore {
	return f.store
}

// Session returns the identity session.
func (f *Facade) Session() *auth.Session {
	return f.session
}

// track registers a live subscription's closer and returns the function that
// forgets it again.
func (f *Facade) track(closer func()) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextSub++
	id := f.nextSub
	f.subs[id] = closer
	return func() {
		f.mu.Lock()
		delete(f.subs, id)
		f.mu.Unlock()
	}
}

// ActiveSubscriptions returns the number of subscriptions not yet disposed.
func (f *Facade) ActiveSubscriptions() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// Close disposes every live subscription and closes the document store.
func (f *Facade) Close() error {
	f.mu.Lock()
	closers := make([]func(), 0, len(f.subs))
	for _, c := range f.subs {
		closers = append(closers, c)
	}
	f.mu.Unlock()

	for _, c := range closers {
		c()
	}
	return f.store.Close()
}
