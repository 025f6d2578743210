/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/estatestore/storagemodels"
)

func TestBuildUpdateExpression(t *testing.T) {
	now := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	expr, names, values, err := buildUpdateExpression(map[string]any{
		"ville":     "Lyon",
		"createdAt": storagemodels.CreateTimestamp,
		"updatedAt": storagemodels.ServerTimestamp,
	}, now)
	if err != nil {
		t.Fatalf("buildUpdateExpression failed: %v", err)
	}

	want := "SET #f0 = if_not_exists(#f0, :v0), #f1 = :v1, #f2 = :v2"
	if expr != want {
		t.Fatalf("Expected %q, got %q", want, expr)
	}
	if names["#f0"] != "createdAt" || names["#f1"] != "updatedAt" || names["#f2"] != "ville" {
		t.Fatalf("Unexpected names: %v", names)
	}
	ts, ok := values[":v1"].(*types.AttributeValueMemberS)
	if !ok || ts.Value != "2025-06-01T08:00:00.000000000Z" {
		t.Fatalf("Unexpected timestamp value: %#v", values[":v1"])
	}

	if _, _, _, err := buildUpdateExpression(nil, now); err == nil {
		t.Fatal("Expected an error for empty updates")
	}
}

func TestBuildFilterExpression(t *testing.T) {
	tests := []struct {
		name string
		cond storagemodels.Condition
		want string
	}{
		{"equal", storagemodels.Condition{Field: "ville", Op: storagemodels.OpEqual, Value: "Paris"}, "#c0 = :c1"},
		{"less or equal", storagemodels.Condition{Field: "prix", Op: storagemodels.OpLessOrEqual, Value: 900}, "#c0 <= :c1"},
		{"not equal", storagemodels.Condition{Field: "statut", Op: storagemodels.OpNotEqual, Value: "banni"}, "(attribute_exists(#c0) AND #c0 <> :c1)"},
		{"in", storagemodels.Condition{Field: "ville", Op: storagemodels.OpIn, Value: []string{"Paris", "Lyon"}}, "#c0 IN (:c1, :c2)"},
		{"not in", storagemodels.Condition{Field: "ville", Op: storagemodels.OpNotIn, Value: []any{"Nice"}}, "(attribute_exists(#c0) AND NOT (#c0 IN (:c1)))"},
		{"array contains", storagemodels.Condition{Field: "tags", Op: storagemodels.OpArrayContains, Value: "balcon"}, "contains(#c0, :c1)"},
		{"array contains any", storagemodels.Condition{Field: "tags", Op: storagemodels.OpArrayContainsAny, Value: []any{"a", "b"}}, "(contains(#c0, :c1) OR contains(#c0, :c2))"},
		{"dotted path", storagemodels.Condition{Field: "adresse.ville", Op: storagemodels.OpEqual, Value: "Lyon"}, "#c0.#c1 = :c2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, _, _, err := buildFilterExpression([]storagemodels.Condition{tt.cond})
			if err != nil {
				t.Fatalf("buildFilterExpression failed: %v", err)
			}
			if expr != tt.want {
				t.Fatalf("Expected %q, got %q", tt.want, expr)
			}
		})
	}

	t.Run("joined with AND", func(t *testing.T) {
		expr, names, values, err := buildFilterExpression([]storagemodels.Condition{
			{Field: "ville", Op: storagemodels.OpEqual, Value: "Paris"},
			{Field: "prix", Op: storagemodels.OpGreater, Value: 500},
		})
		if err != nil {
			t.Fatalf("buildFilterExpression failed: %v", err)
		}
		if expr != "#c0 = :c1 AND #c2 > :c3" {
			t.Fatalf("Unexpected expression %q", expr)
		}
		if len(names) != 2 || len(values) != 2 {
			t.Fatalf("Unexpected placeholder maps: %v %v", names, values)
		}
	})

	t.Run("empty list rejected", func(t *testing.T) {
		_, _, _, err := buildFilterExpression([]storagemodels.Condition{{Field: "ville", Op: storagemodels.OpIn, Value: []any{}}})
		if err == nil {
			t.Fatal("Expected an error for an empty list")
		}
	})
}
