/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package estatestore

import (
	"context"
	"fmt"

	"github.com/suparena/estatestore/datastore"
	"github.com/suparena/estatestore/errors"
	"github.com/suparena/estatestore/storagemodels"
)

// OpType is the kind of a batch operation.
type OpType string

const (
	// OpSet creates or replaces a record, or merges into it when Merge is set.
	OpSet OpType = "set"
	// OpUpdate changes top-level fields of an existing record, like UpdateDocument.
	OpUpdate OpType = "update"
	// OpDelete removes a record.
	OpDelete OpType = "delete"
)

// BatchOperation is one write of a batch.
type BatchOperation struct {
	Type       OpType
	Collection string
	ID         string
	Data       map[string]any
	Merge      bool
}

func (op BatchOperation) write() (storagemodels.Write, error) {
	if err := validateRef(op.Collection, op.ID); err != nil {
		return storagemodels.Write{}, err
	}
	w := storagemodels.Write{Ref: ref(op.Collection, op.ID)}

	switch op.Type {
	case OpSet:
		if err := validateData(op.Data); err != nil {
			return w, err
		}
		w.Kind, w.Data, w.Merge = storagemodels.WriteSet, stampSet(op.Data, op.Merge), op.Merge
	case OpUpdate:
		if err := validateData(op.Data); err != nil {
			return w, err
		}
		w.Kind, w.Data = storagemodels.WriteUpdate, stampUpdate(op.Data)
	case OpDelete:
		w.Kind = storagemodels.WriteDelete
	default:
		return w, errors.NewValidationError("type", fmt.Sprintf("unsupported operation type %q", op.Type))
	}
	return w, nil
}

// RunBatch validates every operation, then commits them all or none.
func (f *Facade) RunBatch(ctx context.Context, ops []BatchOperation) error {
	if len(ops) == 0 {
		return errors.NewValidationError("operations", "must be a non-empty list")
	}
	writes := make([]storagemodels.Write, len(ops))
	for i, op := range ops {
		w, err := op.write()
		if err != nil {
			return errors.NewValidationError(fmt.Sprintf("operations[%d]", i), err.Error())
		}
		writes[i] = w
	}

	if err := f.store.Commit(ctx, writes); err != nil {
		return errors.NewStoreError("runBatch", err)
	}
	f.logger.Debug("batch committed", "writes", len(writes))
	return nil
}

// Transaction is the handle passed to a transaction function. Every read must
// come before the first write. Writes are stamped like their standalone
// counterparts.
type Transaction struct {
	tx datastore.Tx
}

// Get returns the record, or nil when it does not exist.
func (t *Transaction) Get(collection, id string) (storagemodels.Record, error) {
	if err := validateRef(collection, id); err != nil {
		return nil, err
	}
	return t.tx.Get(ref(collection, id))
}

func (t *Transaction) Set(collection, id string, data map[string]any, merge bool) error {
	if err := validateRef(collection, id); err != nil {
		return err
	}
	if err := validateData(data); err != nil {
		return err
	}
	return t.tx.Set(ref(collection, id), stampSet(data, merge), merge)
}

func (t *Transaction) Update(collection, id string, data map[string]any) error {
	if err := validateRef(collection, id); err != nil {
		return err
	}
	if err := validateData(data); err != nil {
		return err
	}
	return t.tx.Update(ref(collection, id), stampUpdate(data))
}

func (t *Transaction) Delete(collection, id string) error {
	if err := validateRef(collection, id); err != nil {
		return err
	}
	return t.tx.Delete(ref(collection, id))
}

// RunTransaction runs fn atomically. The store runs fn again from scratch when a
// concurrent write conflicts with its reads, up to its retry limit. A failing fn
// or an exhausted retry limit yields a TransactionError.
func (f *Facade) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx *Transaction) error) error {
	if fn == nil {
		return errors.NewValidationError("transactionFn", "a transaction function is required")
	}
	err := f.store.RunTransaction(ctx, func(ctx context.Context, tx datastore.Tx) error {
		return fn(ctx, &Transaction{tx: tx})
	})
	if err != nil {
		return errors.NewTransactionError("runTransaction", err)
	}
	return nil
}
