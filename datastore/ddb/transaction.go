/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/estatestore/datastore"
	storeerrors "github.com/suparena/estatestore/errors"
	"github.com/suparena/estatestore/storagemodels"
)

// maxTransactItems is the TransactWriteItems limit per request.
const maxTransactItems = 100

// errConflict marks a cancelled transaction that is worth running again.
var errConflict = errors.New("transaction conflict")

// readState is a record observed by a transaction: its fields (nil when absent) and
// the revision they carried.
type readState struct {
	ref    storagemodels.DocumentRef
	fields map[string]any
	rev    string
}

func (rs *readState) exists() bool {
	return rs.fields != nil
}

type txn struct {
	ctx    context.Context
	store  *Store
	reads  map[string]*readState
	writes []storagemodels.Write
}

var _ datastore.Tx = (*txn)(nil)

func (t *txn) read(ref storagemodels.DocumentRef) (*readState, error) {
	if rs, ok := t.reads[ref.String()]; ok {
		return rs, nil
	}
	rec, rev, err := t.store.getItem(t.ctx, ref, true)
	if err != nil {
		return nil, err
	}
	rs := &readState{ref: ref, fields: fieldsOf(rec), rev: rev}
	t.reads[ref.String()] = rs
	return rs, nil
}

func (t *txn) Get(ref storagemodels.DocumentRef) (storagemodels.Record, error) {
	if len(t.writes) > 0 {
		return nil, storeerrors.NewValidationError("transaction", "reads must happen before writes")
	}
	rs, err := t.read(ref)
	if err != nil || rs.fields == nil {
		return nil, err
	}
	rec := storagemodels.Record(storagemodels.CopyFields(rs.fields))
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

// RunTransaction runs fn and commits its writes with TransactWriteItems. Every
// record the transaction read or wrote is guarded by a revision condition, so a
// concurrent write cancels the commit and fn runs again.
func (s *Store) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx datastore.Tx) error) error {
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		tx := &txn{ctx: ctx, store: s, reads: make(map[string]*readState)}
		if err := fn(ctx, tx); err != nil {
			return err
		}
		err := s.commitTx(ctx, tx)
		if err == nil {
			return nil
		}
		if !errors.Is(err, errConflict) {
			return err
		}
		s.logger.Debug("transaction conflict, retrying", "attempt", attempt)
	}
	return fmt.Errorf("%w after %d attempts", storeerrors.ErrRetryLimit, s.maxAttempts)
}

// Commit applies writes all-or-nothing. It runs as a transaction without reads.
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
				err = storeerrors.NewValidationError("kind", fmt.Sprintf("unsupported write kind %q", w.Kind))
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) commitTx(ctx context.Context, tx *txn) error {
	loaded := make(map[string]map[string]any, len(tx.writes))
	for _, w := range tx.writes {
		rs, err := tx.read(w.Ref)
		if err != nil {
			return err
		}
		if rs.fields != nil {
			loaded[w.Ref.String()] = rs.fields
		}
	}

	final, order, err := storagemodels.Fold(loaded, tx.writes, s.clock())
	if err != nil {
		return err
	}

	items, err := s.transactItems(tx, final, order)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	if len(items) > maxTransactItems {
		return storeerrors.NewValidationError("writes", fmt.Sprintf("a transaction touches at most %d records, got %d", maxTransactItems, len(items)))
	}

	_, err = s.client.TransactWriteItems(ctx, &sdk.TransactWriteItemsInput{TransactItems: items})
	if err != nil {
		var tce *types.TransactionCanceledException
		if errors.As(err, &tce) && isConflict(tce) {
			return fmt.Errorf("%w: %v", errConflict, err)
		}
		var tcx *types.TransactionConflictException
		if errors.As(err, &tcx) {
			return fmt.Errorf("%w: %v", errConflict, err)
		}
		return fmt.Errorf("TransactWriteItems failed: %w", err)
	}
	return nil
}

// isConflict reports whether a cancellation was caused by a revision check or a
// competing transaction.
func isConflict(tce *types.TransactionCanceledException) bool {
	for _, reason := range tce.CancellationReasons {
		switch aws.ToString(reason.Code) {
		case "ConditionalCheckFailed", "TransactionConflict":
			return true
		}
	}
	return false
}

// revisionCondition guards a record against changes since it was read. Items
// written outside this package may carry no revision at all.
func revisionCondition(rs *readState) (string, map[string]string, map[string]types.AttributeValue) {
	switch {
	case !rs.exists():
		return "attribute_not_exists(#pk)", map[string]string{"#pk": attrPK}, nil
	case rs.rev == "":
		return "attribute_exists(#pk) AND attribute_not_exists(#rev)", map[string]string{"#pk": attrPK, "#rev": attrRev}, nil
	}
	return "#rev = :rev",
		map[string]string{"#rev": attrRev},
		map[string]types.AttributeValue{":rev": &types.AttributeValueMemberS{Value: rs.rev}}
}

func (s *Store) transactItems(tx *txn, final map[string]map[string]any, order []storagemodels.DocumentRef) ([]types.TransactWriteItem, error) {
	items := make([]types.TransactWriteItem, 0, len(tx.reads))
	written := make(map[string]bool, len(order))

	for _, ref := range order {
		key := ref.String()
		written[key] = true
		rs := tx.reads[key]
		cond, names, values := revisionCondition(rs)
		next := final[key]

		switch {
		case next != nil:
			item, err := toItem(ref, next, s.newID())
			if err != nil {
				return nil, err
			}
			items = append(items, types.TransactWriteItem{Put: &types.Put{
				TableName:                 &s.tableName,
				Item:                      item,
				ConditionExpression:       aws.String(cond),
				ExpressionAttributeNames:  names,
				ExpressionAttributeValues: values,
			}})
		case rs.exists():
			items = append(items, types.TransactWriteItem{Delete: &types.Delete{
				TableName:                 &s.tableName,
				Key:                       keyOf(ref),
				ConditionExpression:       aws.String(cond),
				ExpressionAttributeNames:  names,
				ExpressionAttributeValues: values,
			}})
		default:
			// deleting a record that never existed still has to stay absent
			items = append(items, conditionCheck(s.tableName, ref, cond, names, values))
		}
	}

	for key, rs := range tx.reads {
		if written[key] {
			continue
		}
		cond, names, values := revisionCondition(rs)
		items = append(items, conditionCheck(s.tableName, rs.ref, cond, names, values))
	}
	return items, nil
}

func conditionCheck(table string, ref storagemodels.DocumentRef, cond string, names map[string]string, values map[string]types.AttributeValue) types.TransactWriteItem {
	return types.TransactWriteItem{ConditionCheck: &types.ConditionCheck{
		TableName:                 aws.String(table),
		Key:                       keyOf(ref),
		ConditionExpression:       aws.String(cond),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	}}
}
