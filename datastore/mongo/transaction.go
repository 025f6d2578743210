/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mongo

import (
	"context"
	stderrors "errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/suparena/estatestore/datastore"
	"github.com/suparena/estatestore/errors"
	"github.com/suparena/estatestore/storagemodels"
)

// Error labels attached by the server to retryable transaction failures.
const (
	labelTransient     = "TransientTransactionError"
	labelUnknownCommit = "UnknownTransactionCommitResult"
)

const maxCommitRetries = 3

func hasLabel(err error, label string) bool {
	var se mongo.ServerError
	return stderrors.As(err, &se) && se.HasErrorLabel(label)
}

type txn struct {
	ctx     context.Context
	store   *Store
	reads   map[string]*readState
	written map[string]bool
}

type readState struct {
	ref    storagemodels.DocumentRef
	exists bool
}

var _ datastore.Tx = (*txn)(nil)

func (t *txn) Get(ref storagemodels.DocumentRef) (storagemodels.Record, error) {
	if len(t.written) > 0 {
		return nil, errors.NewValidationError("transaction", "reads must happen before writes")
	}
	rec, err := t.store.get(t.ctx, ref)
	if err != nil {
		return nil, err
	}
	t.reads[ref.String()] = &readState{ref: ref, exists: rec != nil}
	return rec, nil
}

func (t *txn) Set(ref storagemodels.DocumentRef, fields map[string]any, merge bool) error {
	t.written[ref.String()] = true
	return t.store.set(t.ctx, ref, fields, merge)
}

func (t *txn) Update(ref storagemodels.DocumentRef, fields map[string]any) error {
	t.written[ref.String()] = true
	return t.store.update(t.ctx, ref, fields)
}

func (t *txn) Delete(ref storagemodels.DocumentRef) error {
	t.written[ref.String()] = true
	return t.store.Delete(t.ctx, ref)
}

// guardReads rewrites the revision of every record that was read but not written,
// so a concurrent writer to one of them conflicts with this transaction. Records
// read as absent are not guarded.
func (t *txn) guardReads() error {
	for key, rs := range t.reads {
		if t.written[key] || !rs.exists {
			continue
		}
		pipeline := mongo.Pipeline{{{Key: "$set", Value: bson.D{{Key: fieldRev, Value: bson.D{{Key: "$literal", Value: t.store.newID()}}}}}}}
		if _, err := t.store.coll(rs.ref.Collection).UpdateOne(t.ctx, byID(rs.ref.ID), pipeline); err != nil {
			return err
		}
	}
	return nil
}

// RunTransaction runs fn in a multi-document transaction. Transient failures,
// write conflicts included, run fn again up to MaxAttempts. Transactions need a
// replica set or a sharded cluster.
func (s *Store) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx datastore.Tx) error) error {
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(context.Background())

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := s.runOnce(ctx, session, fn)
		if err == nil {
			return nil
		}
		if !hasLabel(err, labelTransient) {
			return err
		}
		s.logger.Debug("transaction conflict, retrying", "attempt", attempt, "error", err)
	}
	return fmt.Errorf("%w after %d attempts", errors.ErrRetryLimit, s.maxAttempts)
}

func (s *Store) runOnce(ctx context.Context, session mongo.Session, fn func(ctx context.Context, tx datastore.Tx) error) error {
	if err := session.StartTransaction(); err != nil {
		return err
	}
	sc := mongo.NewSessionContext(ctx, session)
	tx := &txn{ctx: sc, store: s, reads: make(map[string]*readState), written: make(map[string]bool)}

	err := fn(sc, tx)
	if err == nil {
		err = tx.guardReads()
	}
	if err != nil {
		if abortErr := session.AbortTransaction(context.Background()); abortErr != nil {
			s.logger.Warn("failed to abort transaction", "error", abortErr)
		}
		return err
	}

	for i := 0; ; i++ {
		err = session.CommitTransaction(sc)
		if err == nil || !hasLabel(err, labelUnknownCommit) || i >= maxCommitRetries {
			return err
		}
	}
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
