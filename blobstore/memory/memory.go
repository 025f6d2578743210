/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package memory provides an in-memory BlobStore for tests and local runs.
package memory

import (
	"bytes"
	"context"
	"sync"

	"github.com/suparena/estatestore/blobstore"
	"github.com/suparena/estatestore/errors"
)

// Store keeps payloads in a map and serves memory:// URLs.
type Store struct {
	mu       sync.RWMutex
	bucket   string
	blobs    map[string][]byte
	failures map[string]error
}

var _ blobstore.BlobStore = (*Store)(nil)

// New creates an empty store. bucket becomes the URL host.
func New(bucket string) *Store {
	if bucket == "" {
		bucket = "default"
	}
	return &Store{
		bucket:   bucket,
		blobs:    make(map[string][]byte),
		failures: make(map[string]error),
	}
}

// WithFailure makes op ("put", "url" or "delete") fail with err. A nil err clears it.
func (s *Store) WithFailure(op string, err error) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
	} else {
		s.failures[op] = err
	}
	return s
}

func (s *Store) failure(op string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.failures[op]
}

func (s *Store) Put(ctx context.Context, path string, data []byte, onProgress func(blobstore.Progress)) error {
	key, err := blobstore.CleanPath(path)
	if err != nil {
		return err
	}
	if err := s.failure("put"); err != nil {
		return err
	}

	var buf bytes.Buffer
	buf.Grow(len(data))
	if err := blobstore.Transfer(ctx, &buf, data, onProgress); err != nil {
		return err
	}

	s.mu.Lock()
	s.blobs[key] = buf.Bytes()
	s.mu.Unlock()
	return nil
}

func (s *Store) URL(ctx context.Context, path string) (string, error) {
	key, err := blobstore.CleanPath(path)
	if err != nil {
		return "", err
	}
	if err := s.failure("url"); err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.blobs[key]; !ok {
		return "", errors.NewNotFoundError("blob", key)
	}
	return "memory://" + s.bucket + "/" + key, nil
}

func (s *Store) Delete(ctx context.Context, path string) error {
	key, err := blobstore.CleanPath(path)
	if err != nil {
		return err
	}
	if err := s.failure("delete"); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[key]; !ok {
		return errors.NewNotFoundError("blob", key)
	}
	delete(s.blobs, key)
	return nil
}

// Get returns a copy of the payload at path
func (s *Store) Get(path string) ([]byte, bool) {
	key, err := blobstore.CleanPath(path)
	if err != nil {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[key]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), data...), true
}

// Count returns the number of stored payloads
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
