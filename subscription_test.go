/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package estatestore_test

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/suparena/estatestore/errors"
	"github.com/suparena/estatestore/storagemodels"
)

const waitTimeout = 2 * time.Second

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed")
		}
		return v
	case <-time.After(waitTimeout):
		t.Fatalf("timed out waiting for a value")
	}
	var zero T
	return zero
}

func TestWatchCollection(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	sub, err := fx.facade.WatchCollection(ctx, storagemodels.Query{
		Collection: "Contrats",
		Conditions: []storagemodels.Condition{{Field: "statut", Op: storagemodels.OpEqual, Value: "actif"}},
	})
	if err != nil {
		t.Fatalf("WatchCollection failed: %v", err)
	}

	if initial := receive(t, sub.Updates()); len(initial) != 0 {
		t.Fatalf("expected an empty initial set, got %v", initial)
	}

	if _, err := fx.facade.AddDocument(ctx, "Contrats", map[string]any{"statut": "actif"}); err != nil {
		t.Fatalf("AddDocument failed: %v", err)
	}
	if next := receive(t, sub.Updates()); len(next) != 1 {
		t.Fatalf("expected the full set of one record, got %v", next)
	}

	if _, err := fx.facade.AddDocument(ctx, "Contrats", map[string]any{"statut": "actif"}); err != nil {
		t.Fatalf("AddDocument failed: %v", err)
	}
	if next := receive(t, sub.Updates()); len(next) != 2 {
		t.Fatalf("expected the full set of two records, got %v", next)
	}

	if fx.facade.ActiveSubscriptions() != 1 {
		t.Fatalf("expected one active subscription")
	}
	sub.Close()
	sub.Close()

	select {
	case <-sub.Done():
	case <-time.After(waitTimeout):
		t.Fatalf("subscription did not stop")
	}
	if fx.facade.ActiveSubscriptions() != 0 {
		t.Fatalf("expected no active subscription after Close")
	}
	if _, ok := <-sub.Updates(); ok {
		t.Fatalf("expected the update channel to be closed")
	}
}

func TestWatchCollectionRejectsCursor(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.facade.WatchCollection(context.Background(), storagemodels.Query{
		Collection: "Users",
		Cursor:     storagemodels.NewCursor("u1", nil, nil),
	})
	if !errors.IsValidationError(err) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestWatchDocument(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	sub, err := fx.facade.WatchDocument(ctx, "Users", "u1")
	if err != nil {
		t.Fatalf("WatchDocument failed: %v", err)
	}
	defer sub.Close()

	if rec := receive(t, sub.Updates()); rec != nil {
		t.Fatalf("expected nil for a missing record, got %v", rec)
	}
	if _, err := fx.facade.SetDocument(ctx, "Users", "u1", map[string]any{"nom": "Dupont"}, true); err != nil {
		t.Fatalf("SetDocument failed: %v", err)
	}
	if rec := receive(t, sub.Updates()); rec == nil || rec["nom"] != "Dupont" {
		t.Fatalf("expected the record, got %v", rec)
	}
	if err := fx.facade.DeleteDocumentByID(ctx, "Users", "u1"); err != nil {
		t.Fatalf("DeleteDocumentByID failed: %v", err)
	}
	if rec := receive(t, sub.Updates()); rec != nil {
		t.Fatalf("expected nil after delete, got %v", rec)
	}
}

func TestSubscribeToCollection(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	boom := stderrors.New("listener dropped")
	fx.store.WithFailure("watch", boom)

	data := make(chan []storagemodels.Record, 8)
	errs := make(chan error, 8)
	unsubscribe, err := fx.facade.SubscribeToCollection(ctx, storagemodels.Query{Collection: "Users"},
		func(records []storagemodels.Record) { data <- records },
		func(err error) { errs <- err })
	if err != nil {
		t.Fatalf("SubscribeToCollection failed: %v", err)
	}

	got := receive(t, errs)
	if !errors.IsStoreError(got) || !stderrors.Is(got, boom) {
		t.Fatalf("expected a StoreError wrapping the watch error, got %v", got)
	}

	// an error does not end the subscription
	fx.store.WithFailure("watch", nil)
	if _, err := fx.facade.AddDocument(ctx, "Users", map[string]any{"nom": "Dupont"}); err != nil {
		t.Fatalf("AddDocument failed: %v", err)
	}
	if records := receive(t, data); len(records) != 1 {
		t.Fatalf("expected one record, got %v", records)
	}

	unsubscribe()
	unsubscribe()
	if _, err := fx.facade.AddDocument(ctx, "Users", map[string]any{"nom": "Martin"}); err != nil {
		t.Fatalf("AddDocument failed: %v", err)
	}
	select {
	case records := <-data:
		t.Fatalf("no callback expected after unsubscribe, got %v", records)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSubscribeToDocument(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	data := make(chan storagemodels.Record, 8)
	unsubscribe, err := fx.facade.SubscribeToDocument(ctx, "Users", "u1",
		func(rec storagemodels.Record) { data <- rec }, nil)
	if err != nil {
		t.Fatalf("SubscribeToDocument failed: %v", err)
	}
	defer unsubscribe()

	if rec := receive(t, data); rec != nil {
		t.Fatalf("expected nil, got %v", rec)
	}
	if _, err := fx.facade.SetDocument(ctx, "Users", "u1", map[string]any{"nom": "Dupont"}, false); err != nil {
		t.Fatalf("SetDocument failed: %v", err)
	}
	if rec := receive(t, data); rec.ID() != "u1" {
		t.Fatalf("expected u1, got %v", rec)
	}
}

func TestCloseDisposesSubscriptions(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	first, _ := fx.facade.WatchCollection(ctx, storagemodels.Query{Collection: "Users"})
	second, _ := fx.facade.WatchDocument(ctx, "Users", "u1")
	if fx.facade.ActiveSubscriptions() != 2 {
		t.Fatalf("expected two active subscriptions")
	}

	if err := fx.facade.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	for _, done := range []<-chan struct{}{first.Done(), second.Done()} {
		select {
		case <-done:
		case <-time.After(waitTimeout):
			t.Fatalf("subscription still running after Close")
		}
	}
}

func TestSubscriptionEndsWithContext(t *testing.T) {
	fx := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	sub, err := fx.facade.WatchCollection(ctx, storagemodels.Query{Collection: "Users"})
	if err != nil {
		t.Fatalf("WatchCollection failed: %v", err)
	}
	receive(t, sub.Updates())
	cancel()

	select {
	case <-sub.Done():
	case <-time.After(waitTimeout):
		t.Fatalf("subscription did not stop with its context")
	}
	if fx.facade.ActiveSubscriptions() != 0 {
		t.Fatalf("expected the subscription to be released")
	}
}
