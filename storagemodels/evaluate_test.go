/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"fmt"
	"testing"
	"time"

	"github.com/suparena/estatestore/errors"
)

type statut string

func TestMatches(t *testing.T) {
	rec := Record{
		"id":      "p1",
		"ville":   "Paris",
		"prix":    1200,
		"statut":  statut("libre"),
		"tags":    []any{"balcon", "parking"},
		"adresse": map[string]any{"codePostal": "75011"},
	}

	tests := []struct {
		name string
		cond Condition
		want bool
	}{
		{"equal", Condition{"ville", OpEqual, "Paris"}, true},
		{"equal across numeric types", Condition{"prix", OpEqual, 1200.0}, true},
		{"named string type", Condition{"statut", OpEqual, "libre"}, true},
		{"not equal", Condition{"ville", OpNotEqual, "Lyon"}, true},
		{"not equal on missing field", Condition{"surface", OpNotEqual, 10}, false},
		{"less", Condition{"prix", OpLess, 1500}, true},
		{"greater or equal", Condition{"prix", OpGreaterOrEqual, 1200}, true},
		{"range across types", Condition{"prix", OpGreater, "100"}, false},
		{"in", Condition{"ville", OpIn, []string{"Lyon", "Paris"}}, true},
		{"not in", Condition{"ville", OpNotIn, []any{"Lyon"}}, true},
		{"array contains", Condition{"tags", OpArrayContains, "parking"}, true},
		{"array contains any", Condition{"tags", OpArrayContainsAny, []any{"piscine", "balcon"}}, true},
		{"array contains any miss", Condition{"tags", OpArrayContainsAny, []any{"piscine"}}, false},
		{"dotted path", Condition{"adresse.codePostal", OpEqual, "75011"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Matches(rec, tt.cond); got != tt.want {
				t.Fatalf("Matches(%+v) = %v, want %v", tt.cond, got, tt.want)
			}
		})
	}
}

func TestCompareValuesTypeOrder(t *testing.T) {
	now := time.Now()
	ordered := []any{nil, false, true, -1, 2.5, now, "a", []byte("b"), []any{1}, map[string]any{"k": 1}}
	for i := 1; i < len(ordered); i++ {
		if CompareValues(ordered[i-1], ordered[i]) >= 0 {
			t.Fatalf("Expected %v to sort before %v", ordered[i-1], ordered[i])
		}
	}
}

func recordIDs(records []Record) string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID()
	}
	return fmt.Sprint(out)
}

func TestApplyWindow(t *testing.T) {
	records := []Record{
		{"id": "c", "prix": 500},
		{"id": "a", "prix": 500},
		{"id": "b", "prix": 300},
		{"id": "d"},
	}
	orders := []Order{{Field: "prix", Direction: Desc}}

	t.Run("TotalOrderWithIDTieBreak", func(t *testing.T) {
		res := ApplyWindow(append([]Record(nil), records...), &Query{Orders: orders})
		if got := recordIDs(res.Records); got != "[a c b]" {
			t.Fatalf("Expected [a c b], got %s", got)
		}
	})

	t.Run("NoOrdersKeepsMissingFields", func(t *testing.T) {
		res := ApplyWindow(append([]Record(nil), records...), &Query{})
		if got := recordIDs(res.Records); got != "[a b c d]" {
			t.Fatalf("Expected [a b c d], got %s", got)
		}
	})

	t.Run("PagesAreDisjoint", func(t *testing.T) {
		q := &Query{Orders: orders, PageSize: 1}
		var pages []string
		for i := 0; i < 10; i++ {
			res := ApplyWindow(append([]Record(nil), records...), q)
			pages = append(pages, recordIDs(res.Records))
			if res.NextCursor == nil {
				break
			}
			q.Cursor = res.NextCursor
		}
		if got := fmt.Sprint(pages); got != "[[a] [c] [b] []]" {
			t.Fatalf("Unexpected pages: %s", got)
		}
	})

	t.Run("ShortPageHasNoCursor", func(t *testing.T) {
		res := ApplyWindow(append([]Record(nil), records...), &Query{Orders: orders, PageSize: 5})
		if res.NextCursor != nil {
			t.Fatal("Expected nil cursor for a short page")
		}
	})
}

func TestFold(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	created := now.Add(-24 * time.Hour)
	u1 := DocumentRef{Collection: "Users", ID: "u1"}
	u2 := DocumentRef{Collection: "Users", ID: "u2"}
	loaded := map[string]map[string]any{
		u1.String(): {"nom": "Dupont", "createdAt": created},
	}

	t.Run("MergeKeepsCreatedAt", func(t *testing.T) {
		final, order, err := Fold(loaded, []Write{{
			Kind:  WriteSet,
			Ref:   u1,
			Merge: true,
			Data:  map[string]any{"id": "ignored", "ville": "Lyon", "createdAt": CreateTimestamp, "updatedAt": ServerTimestamp},
		}}, now)
		if err != nil {
			t.Fatalf("Fold failed: %v", err)
		}
		got := final[u1.String()]
		if len(order) != 1 || got["nom"] != "Dupont" || got["ville"] != "Lyon" {
			t.Fatalf("Unexpected merge result: %+v", got)
		}
		if got["createdAt"] != created || got["updatedAt"] != now {
			t.Fatalf("Unexpected timestamps: %+v", got)
		}
		if _, ok := got["id"]; ok {
			t.Fatal("id was stored as a field")
		}
	})

	t.Run("UpdateAfterDeleteFails", func(t *testing.T) {
		_, _, err := Fold(loaded, []Write{
			{Kind: WriteDelete, Ref: u1},
			{Kind: WriteUpdate, Ref: u1, Data: map[string]any{"nom": "x"}},
		}, now)
		if !errors.IsNotFound(err) {
			t.Fatalf("Expected not found error, got: %v", err)
		}
	})

	t.Run("CreateTimestampOnNewRecord", func(t *testing.T) {
		final, _, err := Fold(loaded, []Write{{
			Kind: WriteSet,
			Ref:  u2,
			Data: map[string]any{"createdAt": CreateTimestamp},
		}}, now)
		if err != nil {
			t.Fatalf("Fold failed: %v", err)
		}
		if final[u2.String()]["createdAt"] != now {
			t.Fatalf("Expected createdAt to resolve to now, got %v", final[u2.String()]["createdAt"])
		}
	})
}
