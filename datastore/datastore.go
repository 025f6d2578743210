/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"

	"github.com/suparena/estatestore/storagemodels"
)

// DocumentStore is the contract every document backend implements.
type DocumentStore interface {
	// Get returns the record at ref, or nil with no error when it does not exist.
	Get(ctx context.Context, ref storagemodels.DocumentRef) (storagemodels.Record, error)

	List(ctx context.Context, collection string) ([]storagemodels.Record, error)

	// Create stores fields under a store-assigned id and returns it.
	Create(ctx context.Context, collection string, fields map[string]any) (string, error)

	// Set replaces the record at ref, or shallow-merges into it when merge is true.
	Set(ctx context.Context, ref storagemodels.DocumentRef, fields map[string]any, merge bool) error

	// Update replaces top-level fields of an existing record. It returns a
	// NotFoundError when the record does not exist.
	Update(ctx context.Context, ref storagemodels.DocumentRef, fields map[string]any) error

	// Delete removes the record at ref. Deleting a missing record succeeds.
	Delete(ctx context.Context, ref storagemodels.DocumentRef) error

	Query(ctx context.Context, q *storagemodels.Query) (*storagemodels.QueryResult, error)

	// Watch delivers the full result set of q whenever it changes, starting with the
	// current one. The channel is closed when ctx is done.
	Watch(ctx context.Context, q *storagemodels.Query, opts ...storagemodels.WatchOption) <-chan storagemodels.Snapshot

	WatchDocument(ctx context.Context, ref storagemodels.DocumentRef, opts ...storagemodels.WatchOption) <-chan storagemodels.Snapshot

	// Commit applies every write or none of them.
	Commit(ctx context.Context, writes []storagemodels.Write) error

	// RunTransaction runs fn with a transaction handle, retrying it when a
	// concurrent write conflicts with what fn read.
	RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	Close() error
}

// Tx is the handle passed to a transaction function. All reads must happen before
// the first write.
type Tx interface {
	Get(ref storagemodels.DocumentRef) (storagemodels.Record, error)
	Set(ref storagemodels.DocumentRef, fields map[string]any, merge bool) error
	Update(ref storagemodels.DocumentRef, fields map[string]any) error
	Delete(ref storagemodels.DocumentRef) error
}
