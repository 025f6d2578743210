/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"context"
	"reflect"
	"testing"

	"github.com/suparena/estatestore"
	authmemory "github.com/suparena/estatestore/auth/memory"
	blobmemory "github.com/suparena/estatestore/blobstore/memory"
	"github.com/suparena/estatestore/datastore/memory"
	"github.com/suparena/estatestore/models"
	"github.com/suparena/estatestore/storagemodels"
)

func TestParseQuery(t *testing.T) {
	q, err := parseQuery("query", []string{
		"Proprietes",
		"-where", "ville == Paris",
		"-where", "prix >= 1000",
		"-where", "statut in [\"libre\",\"reserve\"]",
		"-order", "prix:desc",
		"-limit", "5",
	})
	if err != nil {
		t.Fatalf("parseQuery failed: %v", err)
	}
	want := storagemodels.Query{
		Collection: "Proprietes",
		Conditions: []storagemodels.Condition{
			{Field: "ville", Op: storagemodels.OpEqual, Value: "Paris"},
			{Field: "prix", Op: storagemodels.OpGreaterOrEqual, Value: float64(1000)},
			{Field: "statut", Op: storagemodels.OpIn, Value: []any{"libre", "reserve"}},
		},
		Orders:   []storagemodels.Order{{Field: "prix", Direction: storagemodels.Desc}},
		PageSize: 5,
	}
	if !reflect.DeepEqual(q, want) {
		t.Fatalf("parseQuery = %+v, want %+v", q, want)
	}

	t.Run("ValueWithSpaces", func(t *testing.T) {
		c, err := parseCondition("title == Appartement Centre Paris")
		if err != nil || c.Value != "Appartement Centre Paris" {
			t.Fatalf("parseCondition = %+v, %v", c, err)
		}
	})

	t.Run("MissingCollection", func(t *testing.T) {
		if _, err := parseQuery("query", []string{"-limit", "5"}); err == nil {
			t.Fatalf("expected a usage error")
		}
	})

	t.Run("Cursor", func(t *testing.T) {
		q, err := parseQuery("query", []string{"Users", "-order", "nom", "-after", "12", "-after-values", `["Diop"]`})
		if err != nil {
			t.Fatalf("parseQuery failed: %v", err)
		}
		if q.Cursor == nil || q.Cursor.ID() != "12" || !reflect.DeepEqual(q.Cursor.Values(), []any{"Diop"}) {
			t.Fatalf("unexpected cursor %+v", q.Cursor)
		}
	})
}

func TestSeedDataset(t *testing.T) {
	store := memory.New()
	f := estatestore.New(store, blobmemory.New("estate"), authmemory.New())
	defer f.Close()
	ctx := context.Background()

	counts, err := seedDataset(ctx, f, 3)
	if err != nil {
		t.Fatalf("seedDataset failed: %v", err)
	}
	if len(counts) != 6 {
		t.Fatalf("expected six collections, got %v", counts)
	}
	if n := store.Count(models.CollectionChats); n != models.SeedMessages {
		t.Fatalf("expected %d messages, got %d", models.SeedMessages, n)
	}

	// Seeding again replaces the same records.
	if _, err := seedDataset(ctx, f, 3); err != nil {
		t.Fatalf("second seedDataset failed: %v", err)
	}
	if n := store.Count(models.CollectionUsers); n != models.SeedUsers {
		t.Fatalf("expected %d users, got %d", models.SeedUsers, n)
	}

	rec, err := f.GetDocumentByID(ctx, models.CollectionProperties, "1")
	if err != nil || rec == nil {
		t.Fatalf("GetDocumentByID returned %v, %v", rec, err)
	}
	p, ok := typed(models.CollectionProperties, rec).(*models.Property)
	if !ok || p.Title != "Appartement Centre Paris" || p.Statut != models.PropertyFree {
		t.Fatalf("unexpected typed record %#v", typed(models.CollectionProperties, rec))
	}
	if _, ok := typed("Conseils", rec).(storagemodels.Record); !ok {
		t.Fatalf("unregistered collections should print as stored")
	}
}
