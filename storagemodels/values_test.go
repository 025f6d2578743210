/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"reflect"
	"testing"
	"time"
)

func TestCopyFields(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	src := map[string]any{
		"tags":     []string{"a", "b"},
		"scores":   map[string]int{"x": 1},
		"images":   []map[string]any{{"uri": "p"}},
		"nested":   map[string]any{"list": []any{"q"}},
		"position": geoPoint{Lat: 1, Lng: 2},
		"when":     now,
		"none":     nil,
		"nilTags":  []string(nil),
	}
	out := CopyFields(src)
	if !reflect.DeepEqual(out, src) {
		t.Fatalf("Copy differs from source: %#v", out)
	}

	src["tags"].([]string)[0] = "changed"
	src["scores"].(map[string]int)["x"] = 9
	src["images"].([]map[string]any)[0]["uri"] = "changed"
	src["nested"].(map[string]any)["list"].([]any)[0] = "changed"

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"TypedSlice", out["tags"].([]string)[0], "a"},
		{"TypedMap", out["scores"].(map[string]int)["x"], 1},
		{"SliceOfMaps", out["images"].([]map[string]any)[0]["uri"], "p"},
		{"NestedList", out["nested"].(map[string]any)["list"].([]any)[0], "q"},
		{"NilSliceKeepsType", out["nilTags"], []string(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !reflect.DeepEqual(tt.got, tt.want) {
				t.Fatalf("Expected %#v, got %#v", tt.want, tt.got)
			}
		})
	}
}

type geoPoint struct {
	Lat, Lng float64
}
