/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package estatestore

import (
	"context"
	"fmt"

	"github.com/suparena/estatestore/errors"
	"github.com/suparena/estatestore/registry"
	"github.com/suparena/estatestore/storagemodels"
)

// Collection gives typed access to one named collection. T is a struct whose json
// tags name the record fields; its id field, if any, is filled on reads.
type Collection[T any] struct {
	f    *Facade
	name string
}

// NewCollection binds T to the collection name on f.
func NewCollection[T any](f *Facade, name string) *Collection[T] {
	return &Collection[T]{f: f, name: name}
}

// For returns the typed collection T was registered for with
// registry.RegisterCollection.
func For[T any](f *Facade) (*Collection[T], error) {
	name, ok := registry.CollectionOf[T]()
	if !ok {
		var zero T
		return nil, errors.NewValidationError("collection", fmt.Sprintf("no collection registered for %T", zero))
	}
	return NewCollection[T](f, name), nil
}

// Name returns the collection name.
func (c *Collection[T]) Name() string {
	return c.name
}

func (c *Collection[T]) decode(rec storagemodels.Record) (*T, error) {
	var v T
	if err := Decode(rec, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *Collection[T]) decodeAll(records []storagemodels.Record) ([]T, error) {
	out := make([]T, 0, len(records))
	for _, rec := range records {
		v, err := c.decode(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, nil
}

func (c *Collection[T]) encode(v T) (map[string]any, error) {
	fields, err := Encode(v)
	if err != nil {
		return nil, errors.NewValidationError("data", err.Error())
	}
	return fields, nil
}

// Add stores v under a new id.
func (c *Collection[T]) Add(ctx context.Context, v T) (string, error) {
	fields, err := c.encode(v)
	if err != nil {
		return "", err
	}
	return c.f.AddDocument(ctx, c.name, fields)
}

// Set creates or replaces the record at id, or merges v into it.
func (c *Collection[T]) Set(ctx context.Context, id string, v T, merge bool) (string, error) {
	fields, err := c.encode(v)
	if err != nil {
		return "", err
	}
	return c.f.SetDocument(ctx, c.name, id, fields, merge)
}

// Get returns the record at id, or nil when it does not exist.
func (c *Collection[T]) Get(ctx context.Context, id string) (*T, error) {
	rec, err := c.f.GetDocumentByID(ctx, c.name, id)
	if err != nil || rec == nil {
		return nil, err
	}
	v, err := c.decode(rec)
	if err != nil {
		return nil, errors.NewStoreError("getDocumentById", err)
	}
	return v, nil
}

func (c *Collection[T]) List(ctx context.Context) ([]T, error) {
	records, err := c.f.GetCollection(ctx, c.name)
	if err != nil {
		return nil, err
	}
	out, err := c.decodeAll(records)
	if err != nil {
		return nil, errors.NewStoreError("getCollection", err)
	}
	return out, nil
}

// Update replaces the given top-level fields of an existing record.
func (c *Collection[T]) Update(ctx context.Context, id string, fields map[string]any) (string, error) {
	return c.f.UpdateDocument(ctx, c.name, id, fields)
}

func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	return c.f.DeleteDocumentByID(ctx, c.name, id)
}

// Query runs q against this collection; q.Collection is ignored.
func (c *Collection[T]) Query(ctx context.Context, q storagemodels.Query) ([]T, *storagemodels.Cursor, error) {
	q.Collection = c.name
	res, err := c.f.QueryCollection(ctx, q)
	if err != nil {
		return nil, nil, err
	}
	out, err := c.decodeAll(res.Records)
	if err != nil {
		return nil, nil, errors.NewStoreError("queryCollection", err)
	}
	return out, res.NextCursor, nil
}

// Watch subscribes to the typed result set of q. A record that fails to decode
// is reported on Errors instead of a value.
func (c *Collection[T]) Watch(ctx context.Context, q storagemodels.Query) (*Subscription[[]T], error) {
	q.Collection = c.name
	query, err := validateWatchQuery(q)
	if err != nil {
		return nil, err
	}
	f := c.f
	return subscribe(f, ctx, "subscribeToCollection", func(ctx context.Context) <-chan storagemodels.Snapshot {
		return f.store.Watch(ctx, query, f.watchOpts...)
	}, c.decodeAll), nil
}
