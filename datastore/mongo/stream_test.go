/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mongo

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/suparena/estatestore/storagemodels"
)

func TestChanged(t *testing.T) {
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	rec := func(fields map[string]any) []storagemodels.Record {
		r := storagemodels.Record{storagemodels.FieldID: "p1"}
		for k, v := range fields {
			r[k] = v
		}
		return []storagemodels.Record{r}
	}

	tests := []struct {
		name string
		prev []storagemodels.Record
		next []storagemodels.Record
		want bool
	}{
		{"Identical", rec(map[string]any{"images": []any{"p", "q"}}), rec(map[string]any{"images": []any{"p", "q"}}), false},
		{"ArrayReordered", rec(map[string]any{"images": []any{"p", "q"}}), rec(map[string]any{"images": []any{"q", "p"}}), true},
		{"ArrayGrown", rec(map[string]any{"images": []any{"p"}}), rec(map[string]any{"images": []any{"p", "q"}}), true},
		{"BSONArrayReordered", rec(map[string]any{"images": primitive.A{"p", "q"}}), rec(map[string]any{"images": primitive.A{"q", "p"}}), true},
		{"TimeChanged", rec(map[string]any{"updatedAt": at}), rec(map[string]any{"updatedAt": at.Add(time.Second)}), true},
		{"RecordsReordered",
			[]storagemodels.Record{{storagemodels.FieldID: "a"}, {storagemodels.FieldID: "b"}},
			[]storagemodels.Record{{storagemodels.FieldID: "b"}, {storagemodels.FieldID: "a"}},
			true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := changed(tt.prev, tt.next); got != tt.want {
				t.Fatalf("Expected changed=%v, got %v", tt.want, got)
			}
		})
	}
}
