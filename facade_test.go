/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package estatestore_test

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/suparena/estatestore"
	authmemory "github.com/suparena/estatestore/auth/memory"
	blobmemory "github.com/suparena/estatestore/blobstore/memory"
	"github.com/suparena/estatestore/datastore/memory"
	"github.com/suparena/estatestore/errors"
	"github.com/suparena/estatestore/storagemodels"
)

type fixture struct {
	facade *estatestore.Facade
	store  *memory.Store
	blobs  *blobmemory.Store
	auth   *authmemory.Provider
}

func newFixture(t *testing.T, opts ...estatestore.Option) *fixture {
	t.Helper()
	fx := &fixture{
		store: memory.New(),
		blobs: blobmemory.New("estate"),
		auth:  authmemory.New().WithCost(bcrypt.MinCost),
	}
	opts = append([]estatestore.Option{estatestore.WithWatchOptions(storagemodels.WithBufferSize(4))}, opts...)
	fx.facade = estatestore.New(fx.store, fx.blobs, fx.auth, opts...)
	t.Cleanup(func() { _ = fx.facade.Close() })
	return fx
}

func TestAddDocument(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	id, err := fx.facade.AddDocument(ctx, "Users", map[string]any{"nom": "Dupont", "prenom": "Jean"})
	if err != nil {
		t.Fatalf("AddDocument failed: %v", err)
	}
	if id == "" {
		t.Fatalf("expected an id")
	}

	rec, err := fx.facade.GetDocumentByID(ctx, "Users", id)
	if err != nil {
		t.Fatalf("GetDocumentByID failed: %v", err)
	}
	if rec == nil {
		t.Fatalf("expected the record")
	}
	if len(rec) != 5 {
		t.Fatalf("expected id, nom, prenom, createdAt and updatedAt, got %v", rec)
	}
	if rec.ID() != id || rec["nom"] != "Dupont" || rec["prenom"] != "Jean" {
		t.Fatalf("unexpected record %v", rec)
	}
	created, ok := rec["createdAt"].(time.Time)
	if !ok {
		t.Fatalf("createdAt is %T", rec["createdAt"])
	}
	if updated, _ := rec["updatedAt"].(time.Time); !updated.Equal(created) {
		t.Fatalf("expected createdAt == updatedAt, got %v and %v", created, updated)
	}

	t.Run("CallerIDIgnored", func(t *testing.T) {
		id, err := fx.facade.AddDocument(ctx, "Users", map[string]any{"id": "forged", "nom": "Martin"})
		if err != nil {
			t.Fatalf("AddDocument failed: %v", err)
		}
		if id == "forged" {
			t.Fatalf("caller id must not be used")
		}
	})
}

func TestGetMissingDocument(t *testing.T) {
	fx := newFixture(t)
	rec, err := fx.facade.GetDocumentByID(context.Background(), "Users", "nobody")
	if err != nil || rec != nil {
		t.Fatalf("expected nil, nil, got %v, %v", rec, err)
	}
}

func TestSetDocument(t *testing.T) {
	ctx := context.Background()

	t.Run("MergeUnion", func(t *testing.T) {
		fx := newFixture(t)
		if _, err := fx.facade.SetDocument(ctx, "Users", "u1", map[string]any{"nom": "Dupont"}, true); err != nil {
			t.Fatalf("first set failed: %v", err)
		}
		first, _ := fx.facade.GetDocumentByID(ctx, "Users", "u1")

		if _, err := fx.facade.SetDocument(ctx, "Users", "u1", map[string]any{"ville": "Dakar"}, true); err != nil {
			t.Fatalf("second set failed: %v", err)
		}
		rec, _ := fx.facade.GetDocumentByID(ctx, "Users", "u1")
		if rec["nom"] != "Dupont" || rec["ville"] != "Dakar" {
			t.Fatalf("expected the union of both field sets, got %v", rec)
		}
		if !storagemodels.Equal(rec["createdAt"], first["createdAt"]) {
			t.Fatalf("merge must keep createdAt: %v vs %v", rec["createdAt"], first["createdAt"])
		}
	})

	t.Run("Replace", func(t *testing.T) {
		fx := newFixture(t)
		if _, err := fx.facade.SetDocument(ctx, "Users", "u1", map[string]any{"nom": "Dupont"}, false); err != nil {
			t.Fatalf("first set failed: %v", err)
		}
		if _, err := fx.facade.SetDocument(ctx, "Users", "u1", map[string]any{"ville": "Dakar"}, false); err != nil {
			t.Fatalf("second set failed: %v", err)
		}
		rec, _ := fx.facade.GetDocumentByID(ctx, "Users", "u1")
		if _, ok := rec["nom"]; ok {
			t.Fatalf("replace must drop earlier fields, got %v", rec)
		}
		for _, field := range []string{"id", "ville", "createdAt", "updatedAt"} {
			if _, ok := rec[field]; !ok {
				t.Fatalf("missing %s in %v", field, rec)
			}
		}
	})

	t.Run("ReplaceKeepsSuppliedCreatedAt", func(t *testing.T) {
		fx := newFixture(t)
		created := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
		if _, err := fx.facade.SetDocument(ctx, "Users", "u1", map[string]any{"createdAt": created}, false); err != nil {
			t.Fatalf("set failed: %v", err)
		}
		rec, _ := fx.facade.GetDocumentByID(ctx, "Users", "u1")
		if got, _ := rec["createdAt"].(time.Time); !got.Equal(created) {
			t.Fatalf("expected createdAt %v, got %v", created, rec["createdAt"])
		}
	})
}

func TestUpdateDocument(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	_, err := fx.facade.UpdateDocument(ctx, "Users", "missing", map[string]any{"nom": "X"})
	if !errors.IsStoreError(err) || !errors.IsNotFound(err) {
		t.Fatalf("expected a StoreError wrapping not found, got %v", err)
	}

	id, _ := fx.facade.AddDocument(ctx, "Users", map[string]any{"nom": "Dupont", "prenom": "Jean"})
	if _, err := fx.facade.UpdateDocument(ctx, "Users", id, map[string]any{"prenom": "Paul"}); err != nil {
		t.Fatalf("UpdateDocument failed: %v", err)
	}
	rec, _ := fx.facade.GetDocumentByID(ctx, "Users", id)
	if rec["nom"] != "Dupont" || rec["prenom"] != "Paul" {
		t.Fatalf("unexpected record %v", rec)
	}
}

func TestDeleteDocumentIsIdempotent(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	id, _ := fx.facade.AddDocument(ctx, "Users", map[string]any{"nom": "Dupont"})

	for i := 0; i < 2; i++ {
		if err := fx.facade.DeleteDocumentByID(ctx, "Users", id); err != nil {
			t.Fatalf("delete %d failed: %v", i+1, err)
		}
	}
	if fx.store.Count("Users") != 0 {
		t.Fatalf("expected an empty collection")
	}
}

func TestBackendErrorsAreWrapped(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	boom := stderrors.New("unavailable")
	fx.store.WithFailure("create", boom).WithFailure("list", boom).WithFailure("query", boom)

	_, err := fx.facade.AddDocument(ctx, "Users", map[string]any{})
	if !errors.IsStoreError(err) || !stderrors.Is(err, boom) {
		t.Fatalf("expected a StoreError wrapping the backend error, got %v", err)
	}
	if err.Error() != "addDocument failed: unavailable" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if _, err := fx.facade.GetCollection(ctx, "Users"); !errors.IsStoreError(err) {
		t.Fatalf("expected a StoreError, got %v", err)
	}
	if _, err := fx.facade.QueryCollection(ctx, storagemodels.Query{Collection: "Users"}); !errors.IsStoreError(err) {
		t.Fatalf("expected a StoreError, got %v", err)
	}
}

// TestValidationBeforeBackend makes every backend call fail, so any call that
// reaches the store would surface a StoreError instead of invalid input.
func TestValidationBeforeBackend(t *testing.T) {
	fx := newFixture(t)
	boom := stderrors.New("backend reached")
	for _, op := range []string{"get", "list", "create", "set", "update", "delete", "query", "commit", "transaction", "watch"} {
		fx.store.WithFailure(op, boom)
	}
	fx.blobs.WithFailure("put", boom).WithFailure("url", boom).WithFailure("delete", boom)
	f := fx.facade
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
	}{
		{"AddEmptyCollection", func() error { _, err := f.AddDocument(ctx, " ", map[string]any{}); return err }},
		{"AddNilData", func() error { _, err := f.AddDocument(ctx, "Users", nil); return err }},
		{"SetEmptyID", func() error { _, err := f.SetDocument(ctx, "Users", "", map[string]any{}, true); return err }},
		{"GetEmptyID", func() error { _, err := f.GetDocumentByID(ctx, "Users", ""); return err }},
		{"ListEmptyCollection", func() error { _, err := f.GetCollection(ctx, ""); return err }},
		{"UpdateNilData", func() error { _, err := f.UpdateDocument(ctx, "Users", "u1", nil); return err }},
		{"DeleteEmptyCollection", func() error { return f.DeleteDocumentByID(ctx, "", "u1") }},
		{"QueryBadOperator", func() error {
			_, err := f.QueryCollection(ctx, storagemodels.Query{Collection: "Users",
				Conditions: []storagemodels.Condition{{Field: "age", Op: "~=", Value: 1}}})
			return err
		}},
		{"QueryEmptyField", func() error {
			_, err := f.QueryCollection(ctx, storagemodels.Query{Collection: "Users",
				Conditions: []storagemodels.Condition{{Op: storagemodels.OpEqual, Value: 1}}})
			return err
		}},
		{"QueryInWithoutList", func() error {
			_, err := f.QueryCollection(ctx, storagemodels.Query{Collection: "Users",
				Conditions: []storagemodels.Condition{{Field: "role", Op: storagemodels.OpIn, Value: "agent"}}})
			return err
		}},
		{"QueryBadDirection", func() error {
			_, err := f.QueryCollection(ctx, storagemodels.Query{Collection: "Users",
				Orders: []storagemodels.Order{{Field: "nom", Direction: "up"}}})
			return err
		}},
		{"QueryNegativePageSize", func() error {
			_, err := f.QueryCollection(ctx, storagemodels.Query{Collection: "Users", PageSize: -1})
			return err
		}},
		{"WatchEmptyCollection", func() error { _, err := f.WatchCollection(ctx, storagemodels.Query{}); return err }},
		{"SubscribeNilCallback", func() error {
			_, err := f.SubscribeToCollection(ctx, storagemodels.Query{Collection: "Users"}, nil, nil)
			return err
		}},
		{"SubscribeDocumentEmptyID", func() error {
			_, err := f.SubscribeToDocument(ctx, "Users", "", func(storagemodels.Record) {}, nil)
			return err
		}},
		{"EmptyBatch", func() error { return f.RunBatch(ctx, nil) }},
		{"NilTransaction", func() error { return f.RunTransaction(ctx, nil) }},
		{"UploadEmptyPath", func() error { _, err := f.UploadFile(ctx, "", []byte("x")); return err }},
		{"UploadTraversal", func() error { _, err := f.UploadFile(ctx, "../etc/passwd", []byte("x")); return err }},
		{"UploadNilData", func() error { _, err := f.UploadFile(ctx, "a.txt", nil); return err }},
		{"URLEmptyPath", func() error { _, err := f.GetFileURL(ctx, ""); return err }},
		{"DeleteFileEmptyPath", func() error { return f.DeleteFile(ctx, " ") }},
		{"SignUpBadEmail", func() error { _, err := f.SignUpWithEmail(ctx, "jean.dupont", "secret1", ""); return err }},
		{"SignUpEmptyPassword", func() error { _, err := f.SignUpWithEmail(ctx, "jean@example.com", "", ""); return err }},
		{"SignInBadEmail", func() error { _, err := f.SignInWithEmail(ctx, "a@b", "secret1"); return err }},
		{"GoogleEmptyToken", func() error { _, err := f.SignInWithGoogle(ctx, ""); return err }},
		{"ResetBadEmail", func() error { return f.SendPasswordReset(ctx, "not an email") }},
		{"NilAuthCallback", func() error { _, err := f.OnAuthChanged(nil); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			if !errors.IsValidationError(err) {
				t.Fatalf("expected invalid input, got %v", err)
			}
			if stderrors.Is(err, boom) {
				t.Fatalf("the backend must not be reached")
			}
		})
	}
}

func seedProperties(t *testing.T, fx *fixture) {
	t.Helper()
	prices := map[string]int{"p1": 250000, "p2": 90000, "p3": 180000, "p4": 120000, "p5": 300000}
	data := make(map[string]map[string]any, len(prices)+1)
	for id, price := range prices {
		data[id] = map[string]any{"statut": 0, "prix": price}
	}
	data["p6"] = map[string]any{"statut": 1, "prix": 50000}
	fx.store.SetData("Proprietes", data)
}

func TestQueryCollection(t *testing.T) {
	fx := newFixture(t)
	seedProperties(t, fx)
	ctx := context.Background()

	q := storagemodels.Query{
		Collection: "Proprietes",
		Conditions: []storagemodels.Condition{{Field: "statut", Op: storagemodels.OpEqual, Value: 0}},
		Orders:     []storagemodels.Order{{Field: "prix", Direction: storagemodels.Asc}},
		PageSize:   2,
	}

	res, err := fx.facade.QueryCollection(ctx, q)
	if err != nil {
		t.Fatalf("QueryCollection failed: %v", err)
	}
	if len(res.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(res.Records))
	}
	if res.Records[0]["prix"] != 90000 || res.Records[1]["prix"] != 120000 {
		t.Fatalf("expected ascending prices, got %v and %v", res.Records[0]["prix"], res.Records[1]["prix"])
	}
	if res.NextCursor == nil {
		t.Fatalf("expected a next cursor")
	}

	t.Run("PagesAreDisjointAndComplete", func(t *testing.T) {
		seen := map[string]bool{}
		var order []int
		q := q
		for page := 0; page < 5; page++ {
			res, err := fx.facade.QueryCollection(ctx, q)
			if err != nil {
				t.Fatalf("page %d failed: %v", page, err)
			}
			for _, rec := range res.Records {
				if seen[rec.ID()] {
					t.Fatalf("%s appears on two pages", rec.ID())
				}
				seen[rec.ID()] = true
				order = append(order, rec["prix"].(int))
			}
			if res.NextCursor == nil {
				break
			}
			q.Cursor = res.NextCursor
		}
		if len(seen) != 5 {
			t.Fatalf("expected all 5 matching records, got %d", len(seen))
		}
		if !sort.IntsAreSorted(order) {
			t.Fatalf("expected ascending prices across pages, got %v", order)
		}
	})

	t.Run("CursorWithOtherOrders", func(t *testing.T) {
		bad := q
		bad.Orders = nil
		bad.Cursor = res.NextCursor
		if _, err := fx.facade.QueryCollection(ctx, bad); !errors.IsValidationError(err) {
			t.Fatalf("expected invalid input, got %v", err)
		}
	})
}

func TestRunBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("InvalidOperationWritesNothing", func(t *testing.T) {
		fx := newFixture(t)
		fx.store.SetData("Users", map[string]map[string]any{"u1": {"nom": "Dupont"}})

		err := fx.facade.RunBatch(ctx, []estatestore.BatchOperation{
			{Type: estatestore.OpSet, Collection: "Users", ID: "u2", Data: map[string]any{"nom": "Martin"}},
			{Type: estatestore.OpDelete, Collection: "Users", ID: "u1"},
			{Type: "upsert", Collection: "Users", ID: "u3", Data: map[string]any{}},
		})
		if !errors.IsValidationError(err) {
			t.Fatalf("expected invalid input, got %v", err)
		}
		data := fx.store.GetData("Users")
		if len(data) != 1 || data["u1"]["nom"] != "Dupont" {
			t.Fatalf("expected no write, got %v", data)
		}
	})

	t.Run("AllOrNothing", func(t *testing.T) {
		fx := newFixture(t)
		fx.store.SetData("Users", map[string]map[string]any{"u1": {"nom": "Dupont"}})

		err := fx.facade.RunBatch(ctx, []estatestore.BatchOperation{
			{Type: estatestore.OpDelete, Collection: "Users", ID: "u1"},
			{Type: estatestore.OpUpdate, Collection: "Users", ID: "missing", Data: map[string]any{"nom": "X"}},
		})
		if !errors.IsStoreError(err) {
			t.Fatalf("expected a StoreError, got %v", err)
		}
		if fx.store.Count("Users") != 1 {
			t.Fatalf("a failed batch must leave the store unchanged")
		}
	})

	t.Run("Commit", func(t *testing.T) {
		fx := newFixture(t)
		fx.store.SetData("Users", map[string]map[string]any{
			"u1": {"nom": "Dupont", "ville": "Dakar"},
			"u2": {"nom": "Martin"},
		})

		err := fx.facade.RunBatch(ctx, []estatestore.BatchOperation{
			{Type: estatestore.OpSet, Collection: "Users", ID: "u3", Data: map[string]any{"nom": "Diallo"}},
			{Type: estatestore.OpUpdate, Collection: "Users", ID: "u1", Data: map[string]any{"ville": "Thies"}},
			{Type: estatestore.OpDelete, Collection: "Users", ID: "u2"},
		})
		if err != nil {
			t.Fatalf("RunBatch failed: %v", err)
		}
		data := fx.store.GetData("Users")
		if len(data) != 2 || data["u3"]["nom"] != "Diallo" {
			t.Fatalf("unexpected state %v", data)
		}
		if data["u1"]["nom"] != "Dupont" || data["u1"]["ville"] != "Thies" {
			t.Fatalf("update must merge top-level fields, got %v", data["u1"])
		}
		if _, ok := data["u3"]["createdAt"]; !ok {
			t.Fatalf("batch set must stamp timestamps, got %v", data["u3"])
		}
	})
}

func TestRunTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("ReadThenWrite", func(t *testing.T) {
		fx := newFixture(t)
		fx.store.SetData("Proprietes", map[string]map[string]any{"p1": {"vues": 1}})

		err := fx.facade.RunTransaction(ctx, func(ctx context.Context, tx *estatestore.Transaction) error {
			rec, err := tx.Get("Proprietes", "p1")
			if err != nil {
				return err
			}
			views, _ := rec["vues"].(int)
			return tx.Update("Proprietes", "p1", map[string]any{"vues": views + 1})
		})
		if err != nil {
			t.Fatalf("RunTransaction failed: %v", err)
		}
		if got := fx.store.GetData("Proprietes")["p1"]["vues"]; got != 2 {
			t.Fatalf("expected 2 views, got %v", got)
		}
	})

	t.Run("FailingFunction", func(t *testing.T) {
		fx := newFixture(t)
		reason := stderrors.New("contract already signed")

		err := fx.facade.RunTransaction(ctx, func(ctx context.Context, tx *estatestore.Transaction) error {
			if err := tx.Set("Contrats", "c1", map[string]any{"statut": "actif"}, false); err != nil {
				return err
			}
			return reason
		})
		if !errors.IsTransactionError(err) || !stderrors.Is(err, reason) {
			t.Fatalf("expected a TransactionError wrapping the reason, got %v", err)
		}
		if fx.store.Count("Contrats") != 0 {
			t.Fatalf("a failed transaction must not write")
		}
	})

	t.Run("InvalidHandleCall", func(t *testing.T) {
		fx := newFixture(t)
		err := fx.facade.RunTransaction(ctx, func(ctx context.Context, tx *estatestore.Transaction) error {
			_, err := tx.Get("", "p1")
			return err
		})
		if !errors.IsTransactionError(err) || !errors.IsValidationError(err) {
			t.Fatalf("expected a TransactionError wrapping invalid input, got %v", err)
		}
	})
}

func TestVersionInfo(t *testing.T) {
	info := estatestore.GetVersionInfo()
	if info.Version == "" || info.GoVersion == "" {
		t.Fatalf("incomplete version info %+v", info)
	}
}

func ExampleFacade_AddDocument() {
	f := estatestore.New(memory.New(), blobmemory.New("files"), authmemory.New())
	defer f.Close()

	ctx := context.Background()
	id, _ := f.AddDocument(ctx, "Users", map[string]any{"nom": "Dupont", "prenom": "Jean"})
	rec, _ := f.GetDocumentByID(ctx, "Users", id)
	fmt.Println(rec["nom"], rec["prenom"])
	// Output: Dupont Jean
}
