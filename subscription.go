/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package estatestore

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/suparena/estatestore/errors"
	"github.com/suparena/estatestore/storagemodels"
)

// Subscription delivers the current value of a live query on Updates, followed by
// a new value after every change. Failures arrive on Errors and do not end the
// subscription. Both channels are closed once the subscription has stopped.
type Subscription[T any] struct {
	updates chan T
	errs    chan error
	stop    chan struct{}
	done    chan struct{}

	cancel  context.CancelFunc
	release func()
	once    sync.Once
}

// Updates returns the value channel.
func (s *Subscription[T]) Updates() <-chan T {
	return s.updates
}

// Errors returns the error channel. Every error is a StoreError.
func (s *Subscription[T]) Errors() <-chan error {
	return s.errs
}

// Done is closed when the subscription has stopped delivering.
func (s *Subscription[T]) Done() <-chan struct{} {
	return s.done
}

// Close stops the subscription. A value already being handed over may still be
// received; nothing is delivered after that. Close is idempotent.
func (s *Subscription[T]) Close() {
	s.once.Do(func() {
		close(s.stop)
		s.cancel()
		s.release()
	})
}

func (s *Subscription[T]) deliver(v T) bool {
	select {
	case <-s.stop:
		return false
	default:
	}
	select {
	case s.updates <- v:
		return true
	case <-s.stop:
		return false
	}
}

func (s *Subscription[T]) fail(err error) bool {
	select {
	case <-s.stop:
		return false
	default:
	}
	select {
	case s.errs <- err:
		return true
	case <-s.stop:
		return false
	}
}

// subscribe starts a subscription that converts every snapshot from open with
// convert. open receives the context the watch must run under.
func subscribe[T any](
	f *Facade,
	ctx context.Context,
	op string,
	open func(ctx context.Context) <-chan storagemodels.Snapshot,
	convert func([]storagemodels.Record) (T, error),
) *Subscription[T] {
	watchCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription[T]{
		updates: make(chan T),
		errs:    make(chan error),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		cancel:  cancel,
	}
	sub.release = f.track(sub.Close)

	snaps := open(watchCtx)
	go func() {
		defer close(sub.done)
		defer close(sub.errs)
		defer close(sub.updates)

		for {
			var snap storagemodels.Snapshot
			var ok bool
			select {
			case <-sub.stop:
				return
			case snap, ok = <-snaps:
			}
			if !ok {
				// the store stopped the watch, for instance because ctx ended
				sub.Close()
				return
			}

			if snap.Err != nil {
				f.logger.Warn("subscription error", "op", op, "error", snap.Err)
				if !sub.fail(errors.NewStoreError(op, snap.Err)) {
					return
				}
				continue
			}
			v, err := convert(snap.Records)
			if err != nil {
				if !sub.fail(errors.NewStoreError(op, err)) {
					return
				}
				continue
			}
			if !sub.deliver(v) {
				return
			}
		}
	}()
	return sub
}

func recordsOf(records []storagemodels.Record) ([]storagemodels.Record, error) {
	if records == nil {
		return []storagemodels.Record{}, nil
	}
	return records, nil
}

func firstRecord(records []storagemodels.Record) (storagemodels.Record, error) {
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

func validateWatchQuery(q storagemodels.Query) (*storagemodels.Query, error) {
	if q.Cursor != nil {
		return nil, errors.NewValidationError("cursor", "subscriptions do not take a cursor")
	}
	return validateQuery(q)
}

// WatchCollection subscribes to the full result set of q. The query takes
// conditions, orders and a page size but no cursor.
func (f *Facade) WatchCollection(ctx context.Context, q storagemodels.Query) (*Subscription[[]storagemodels.Record], error) {
	query, err := validateWatchQuery(q)
	if err != nil {
		return nil, err
	}
	return subscribe(f, ctx, "subscribeToCollection", func(ctx context.Context) <-chan storagemodels.Snapshot {
		return f.store.Watch(ctx, query, f.watchOpts...)
	}, recordsOf), nil
}

// WatchDocument subscribes to one record. A missing or deleted record is
// delivered as nil.
func (f *Facade) WatchDocument(ctx context.Context, collection, id string) (*Subscription[storagemodels.Record], error) {
	if err := validateRef(collection, id); err != nil {
		return nil, err
	}
	return subscribe(f, ctx, "subscribeToDocument", func(ctx context.Context) <-chan storagemodels.Snapshot {
		return f.store.WatchDocument(ctx, ref(collection, id), f.watchOpts...)
	}, firstRecord), nil
}

// listen drives callbacks from a subscription until it is disposed. The returned
// function disposes it; after it returns, no callback starts.
func listen[T any](sub *Subscription[T], onData func(T), onError func(error)) func() {
	var disposed atomic.Bool
	go func() {
		updates, errs := sub.Updates(), sub.Errors()
		for {
			select {
			case v, ok := <-updates:
				if !ok {
					return
				}
				if !disposed.Load() {
					onData(v)
				}
			case err, ok := <-errs:
				if !ok {
					return
				}
				if onError != nil && !disposed.Load() {
					onError(err)
				}
			}
		}
	}()
	return func() {
		disposed.Store(true)
		sub.Close()
	}
}

// SubscribeToCollection calls onData with the full result set of q now and after
// every change, and onError with every failure. onError may be nil. It returns
// the function that ends the subscription.
func (f *Facade) SubscribeToCollection(ctx context.Context, q storagemodels.Query, onData func([]storagemodels.Record), onError func(error)) (func(), error) {
	if onData == nil {
		return nil, errors.NewValidationError("onData", "callback is required")
	}
	sub, err := f.WatchCollection(ctx, q)
	if err != nil {
		return nil, err
	}
	return listen(sub, onData, onError), nil
}

// SubscribeToDocument calls onData with the record, or nil when it does not
// exist, now and after every change.
func (f *Facade) SubscribeToDocument(ctx context.Context, collection, id string, onData func(storagemodels.Record), onError func(error)) (func(), error) {
	if onData == nil {
		return nil, errors.NewValidationError("onData", "callback is required")
	}
	sub, err := f.WatchDocument(ctx, collection, id)
	if err != nil {
		return nil, err
	}
	return listen(sub, onData, onError), nil
}
