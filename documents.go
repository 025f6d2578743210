/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package estatestore

import (
	"context"

	"github.com/suparena/estatestore/errors"
	"github.com/suparena/estatestore/storagemodels"
)

// withoutID copies the top-level fields of data, dropping any caller-supplied id.
func withoutID(data map[string]any) map[string]any {
	out := make(map[string]any, len(data)+2)
	for k, v := range data {
		if k != storagemodels.FieldID {
			out[k] = v
		}
	}
	return out
}

func stampCreate(data map[string]any) map[string]any {
	fields := withoutID(data)
	fields[storagemodels.FieldCreatedAt] = storagemodels.ServerTimestamp
	fields[storagemodels.FieldUpdatedAt] = storagemodels.ServerTimestamp
	return fields
}

// stampSet re-stamps updatedAt. A caller-supplied createdAt always wins; otherwise
// a merge keeps the stored one and a replace stamps a fresh one.
func stampSet(data map[string]any, merge bool) map[string]any {
	fields := withoutID(data)
	fields[storagemodels.FieldUpdatedAt] = storagemodels.ServerTimestamp
	if v, ok := fields[storagemodels.FieldCreatedAt]; ok && v != nil {
		return fields
	}
	if merge {
		fields[storagemodels.FieldCreatedAt] = storagemodels.CreateTimestamp
	} else {
		fields[storagemodels.FieldCreatedAt] = storagemodels.ServerTimestamp
	}
	return fields
}

func stampUpdate(data map[string]any) map[string]any {
	fields := withoutID(data)
	fields[storagemodels.FieldUpdatedAt] = storagemodels.ServerTimestamp
	return fields
}

func ref(collection, id string) storagemodels.DocumentRef {
	return storagemodels.DocumentRef{Collection: collection, ID: id}
}

// AddDocument stores data under a new id and returns it. createdAt and updatedAt
// are stamped by the store.
func (f *Facade) AddDocument(ctx context.Context, collection string, data map[string]any) (string, error) {
	if err := requireString("collection", collection); err != nil {
		return "", err
	}
	if err := validateData(data); err != nil {
		return "", err
	}

	id, err := f.store.Create(ctx, collection, stampCreate(data))
	if err != nil {
		return "", errors.NewStoreError("addDocument", err)
	}
	f.logger.Debug("document added", "collection", collection, "id", id)
	return id, nil
}

// SetDocument creates or replaces the record at id. With merge it shallow-merges
// data into the stored record and keeps its createdAt.
func (f *Facade) SetDocument(ctx context.Context, collection, id string, data map[string]any, merge bool) (string, error) {
	if err := validateRef(collection, id); err != nil {
		return "", err
	}
	if err := validateData(data); err != nil {
		return "", err
	}

	if err := f.store.Set(ctx, ref(collection, id), stampSet(data, merge), merge); err != nil {
		return "", errors.NewStoreError("setDocument", err)
	}
	return id, nil
}

// GetDocumentByID returns the record with its id attached, or nil when it does
// not exist.
func (f *Facade) GetDocumentByID(ctx context.Context, collection, id string) (storagemodels.Record, error) {
	if err := validateRef(collection, id); err != nil {
		return nil, err
	}
	rec, err := f.store.Get(ctx, ref(collection, id))
	if err != nil {
		return nil, errors.NewStoreError("getDocumentById", err)
	}
	return rec, nil
}

// GetCollection returns every record of the collection. The order is up to the
// store.
func (f *Facade) GetCollection(ctx context.Context, collection string) ([]storagemodels.Record, error) {
	if err := requireString("collection", collection); err != nil {
		return nil, err
	}
	records, err := f.store.List(ctx, collection)
	if err != nil {
		return nil, errors.NewStoreError("getCollection", err)
	}
	return records, nil
}

// UpdateDocument replaces top-level fields of an existing record. A missing record
// fails with a StoreError wrapping a NotFoundError.
func (f *Facade) UpdateDocument(ctx context.Context, collection, id string, data map[string]any) (string, error) {
	if err := validateRef(collection, id); err != nil {
		return "", err
	}
	if err := validateData(data); err != nil {
		return "", err
	}

	if err := f.store.Update(ctx, ref(collection, id), stampUpdate(data)); err != nil {
		return "", errors.NewStoreError("updateDocument", err)
	}
	return id, nil
}

// DeleteDocumentByID removes the record. Deleting a missing record succeeds.
func (f *Facade) DeleteDocumentByID(ctx context.Context, collection, id string) error {
	if err := validateRef(collection, id); err != nil {
		return err
	}
	if err := f.store.Delete(ctx, ref(collection, id)); err != nil {
		return errors.NewStoreError("deleteDocumentById", err)
	}
	return nil
}

// QueryCollection runs a filtered, ordered, paginated read. Conditions, orders,
// page size and cursor apply in that order; NextCursor is nil on the last page.
func (f *Facade) QueryCollection(ctx context.Context, q storagemodels.Query) (*storagemodels.QueryResult, error) {
	query, err := validateQuery(q)
	if err != nil {
		return nil, err
	}
	res, err := f.store.Query(ctx, query)
	if err != nil {
		return nil, errors.NewStoreError("queryCollection", err)
	}
	return res, nil
}
