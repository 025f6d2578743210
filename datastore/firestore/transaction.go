/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package firestore

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	fs "cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/suparena/estatestore/datastore"
	"github.com/suparena/estatestore/errors"
	"github.com/suparena/estatestore/storagemodels"
)

// txn buffers writes until fn returns, because a Firestore transaction cannot
// read after it has written.
type txn struct {
	store  *Store
	tx     *fs.Transaction
	reads  map[string]map[string]any
	seen   map[string]bool
	writes []storagemodels.Write
}

var _ datastore.Tx = (*txn)(nil)

func (t *txn) load(refs []storagemodels.DocumentRef) error {
	var pending []*fs.DocumentRef
	for _, ref := range refs {
		if !t.seen[ref.String()] {
			pending = append(pending, t.store.doc(ref))
		}
	}
	if len(pending) == 0 {
		return nil
	}
	snaps, err := t.tx.GetAll(pending)
	if err != nil {
		return err
	}
	for _, snap := range snaps {
		key := snap.Ref.Parent.ID + "/" + snap.Ref.ID
		t.seen[key] = true
		if snap.Exists() {
			t.reads[key] = snap.Data()
		}
	}
	return nil
}

func (t *txn) Get(ref storagemodels.DocumentRef) (storagemodels.Record, error) {
	if len(t.writes) > 0 {
		return nil, errors.NewValidationError("transaction", "reads must happen before writes")
	}
	if err := t.load([]storagemodels.DocumentRef{ref}); err != nil {
		return nil, err
	}
	fields := t.reads[ref.String()]
	if fields == nil {
		return nil, nil
	}
	rec := storagemodels.Record(storagemodels.CopyFields(fields))
	rec[storagemodels.FieldID] = ref.ID
	return rec, nil
}

func (t *txn) Set(ref storagemodels.DocumentRef, fields map[string]any, merge bool) error {
	t.writes = append(t.writes, storagemodels.Write{Kind: storagemodels.WriteSet, Ref: ref, Data: fields, Merge: merge})
	return nil
}

func (t *txn) Update(ref storagemodels.DocumentRef, fields map[string]any) error {
	t.writes = append(t.writes, storagemodels.Write{Kind: storagemodels.WriteUpdate, Ref: ref, Data: fields})
	return nil
}

func (t *txn) Delete(ref storagemodels.DocumentRef) error {
	t.writes = append(t.writes, storagemodels.Write{Kind: storagemodels.WriteDelete, Ref: ref})
	return nil
}

// flush reads every written record the function did not read, checks the writes
// against that state, and hands them to the native transaction.
func (t *txn) flush() error {
	if len(t.writes) == 0 {
		return nil
	}
	refs := make([]storagemodels.DocumentRef, 0, len(t.writes))
	for _, w := range t.writes {
		refs = append(refs, w.Ref)
	}
	if err := t.load(refs); err != nil {
		return err
	}
	if _, _, err := storagemodels.Fold(t.reads, t.writes, time.Now()); err != nil {
		return err
	}

	for _, w := range t.writes {
		existing := t.reads[w.Ref.String()]
		dr := t.store.doc(w.Ref)
		var err error
		switch w.Kind {
		case storagemodels.WriteSet:
			var opts []fs.SetOption
			if w.Merge {
				opts = append(opts, fs.MergeAll)
			}
			err = t.tx.Set(dr, toData(w.Data, existing, w.Merge), opts...)
		case storagemodels.WriteUpdate:
			updates := toUpdates(w.Data, existing)
			if len(updates) > 0 {
				err = t.tx.Update(dr, updates)
			}
		case storagemodels.WriteDelete:
			err = t.tx.Delete(dr)
		default:
			err = errors.NewValidationError("kind", fmt.Sprintf("unsupported write kind %q", w.Kind))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// RunTransaction runs fn inside a Firestore transaction. Firestore retries on
// contention; running out of attempts is reported as ErrRetryLimit.
func (s *Store) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx datastore.Tx) error) error {
	var fnErr error
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *fs.Transaction) error {
		t := &txn{store: s, tx: tx, reads: make(map[string]map[string]any), seen: make(map[string]bool)}
		if fnErr = fn(ctx, t); fnErr != nil {
			return fnErr
		}
		return t.flush()
	}, fs.MaxAttempts(s.maxAttempts))

	switch {
	case err == nil:
		return nil
	case fnErr != nil && stderrors.Is(err, fnErr):
		return fnErr
	case status.Code(err) == codes.Aborted:
		return fmt.Errorf("%w after %d attempts: %v", errors.ErrRetryLimit, s.maxAttempts, err)
	case isNotFound(err):
		return errors.NewConditionFailedError("transaction", err.Error())
	}
	return err
}

// Commit applies writes all-or-nothing as a transaction without reads.
func (s *Store) Commit(ctx context.Context, writes []storagemodels.Write) error {
	return s.RunTransaction(ctx, func(ctx context.Context, tx datastore.Tx) error {
		for _, w := range writes {
			var err error
			switch w.Kind {
			case storagemodels.WriteSet:
				err = tx.Set(w.Ref, w.Data, w.Merge)
			case storagemodels.WriteUpdate:
				err = tx.Update(w.Ref, w.Data)
			case storagemodels.WriteDelete:
				err = tx.Delete(w.Ref)
			default:
				err = errors.NewValidationError("kind", fmt.Sprintf("unsupported write kind %q", w.Kind))
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}
