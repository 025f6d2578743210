/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package estatestore_test

import (
	"context"
	"testing"
	"time"

	"github.com/suparena/estatestore"
	"github.com/suparena/estatestore/errors"
	"github.com/suparena/estatestore/models"
	"github.com/suparena/estatestore/storagemodels"
)

func TestCollectionRoundTrip(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	props, err := estatestore.For[models.Property](fx.facade)
	if err != nil {
		t.Fatalf("For failed: %v", err)
	}
	if props.Name() != models.CollectionProperties {
		t.Fatalf("unexpected collection %q", props.Name())
	}

	id, err := props.Add(ctx, models.Property{
		ID:       "ignored",
		Title:    "Villa Almadies",
		Statut:   models.PropertyFree,
		Usage:    models.UsageResidential,
		Prix:     450000,
		Position: &models.GeoPoint{Lat: 14.7453, Lng: -17.5133},
		Images:   []string{"a.jpg", "b.jpg"},
	})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if id == "ignored" {
		t.Fatalf("the id field must not be stored")
	}

	raw := fx.store.GetData(models.CollectionProperties)[id]
	if raw["statut"] != "libre" {
		t.Fatalf("enums should be stored by name, got %#v", raw["statut"])
	}
	if _, ok := raw["description"]; ok {
		t.Fatalf("empty fields should be omitted, got %v", raw)
	}

	got, err := props.Get(ctx, id)
	if err != nil || got == nil {
		t.Fatalf("Get returned %v, %v", got, err)
	}
	if got.ID != id || got.Title != "Villa Almadies" || got.Position == nil || got.Position.Lat != 14.7453 || len(got.Images) != 2 {
		t.Fatalf("unexpected property %+v", got)
	}
	if got.CreatedAt == nil || got.UpdatedAt == nil || time.Time(*got.CreatedAt).IsZero() {
		t.Fatalf("expected the timestamps to decode, got %v and %v", got.CreatedAt, got.UpdatedAt)
	}

	missing, err := props.Get(ctx, "nope")
	if missing != nil || err != nil {
		t.Fatalf("expected nil, nil for a missing record, got %v, %v", missing, err)
	}
}

func TestCollectionDecodesLegacyRecords(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.store.SetData(models.CollectionUsers, map[string]map[string]any{
		"u1": {"nom": "Diop", "statut": 1, "typeUsersId": 2, "telephone": 771234567, "createdAt": "2024-05-01T10:00:00Z"},
		"u2": {"nom": "Ndiaye", "statut": "banni", "typeUsersId": "client"},
	})

	users, err := estatestore.For[models.User](fx.facade)
	if err != nil {
		t.Fatalf("For failed: %v", err)
	}
	u1, err := users.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if u1.Statut != models.UserActive || u1.Type != models.UserOwner || u1.Telephone != "771234567" {
		t.Fatalf("legacy codes not decoded: %+v", u1)
	}
	if u1.CreatedAt == nil || time.Time(*u1.CreatedAt).Year() != 2024 {
		t.Fatalf("timestamp string not decoded: %v", u1.CreatedAt)
	}

	all, err := users.List(ctx)
	if err != nil || len(all) != 2 {
		t.Fatalf("List returned %d users, %v", len(all), err)
	}

	t.Run("UndecodableRecord", func(t *testing.T) {
		fx.store.SetData(models.CollectionUsers, map[string]map[string]any{"u3": {"statut": 9}})
		if _, err := users.Get(ctx, "u3"); !errors.IsStoreError(err) {
			t.Fatalf("expected a StoreError, got %v", err)
		}
	})
}

func TestCollectionQueryAndWatch(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	partners := estatestore.NewCollection[models.Partner](fx.facade, models.CollectionPartners)

	for _, p := range models.Seed(1).Partners {
		if _, err := partners.Set(ctx, p.ID, p, false); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
	}

	page, next, err := partners.Query(ctx, storagemodels.Query{
		Orders:   []storagemodels.Order{{Field: "name"}},
		PageSize: 3,
	})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(page) != 3 || next == nil || page[0].Name != "Assurance Habitat" {
		t.Fatalf("unexpected first page %+v", page)
	}

	sub, err := partners.Watch(ctx, storagemodels.Query{
		Conditions: []storagemodels.Condition{{Field: "type", Op: storagemodels.OpEqual, Value: "banque"}},
	})
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	defer sub.Close()
	initial := receive(t, sub.Updates())
	for _, p := range initial {
		if p.Type != models.PartnerBank {
			t.Fatalf("unexpected partner in the result set %+v", p)
		}
	}

	if _, err := partners.Add(ctx, models.Partner{Name: "Crédit Agricole", Type: models.PartnerBank}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	updated := receive(t, sub.Updates())
	if len(updated) != len(initial)+1 {
		t.Fatalf("expected %d banks, got %d", len(initial)+1, len(updated))
	}
}

func TestForUnregisteredType(t *testing.T) {
	fx := newFixture(t)
	type unregistered struct{ Name string }
	if _, err := estatestore.For[unregistered](fx.facade); !errors.IsValidationError(err) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
