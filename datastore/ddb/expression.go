/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/estatestore/storagemodels"
)

// buildUpdateExpression transforms a map of field->value into:
//   - an "update expression" (e.g., "SET #f0 = :v0, #f1 = :v1")
//   - a corresponding map of expression attribute names
//   - a corresponding map of expression attribute values
//
// ServerTimestamp values become now; CreateTimestamp values only apply when the
// attribute is absent.
func buildUpdateExpression(updates map[string]any, now time.Time) (string,
	map[string]string,
	map[string]types.AttributeValue,
	error) {

	if len(updates) == 0 {
		return "", nil, nil, errors.New("no updates provided")
	}

	fields := make([]string, 0, len(updates))
	for field := range updates {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	setClauses := make([]string, 0, len(fields))
	exprAttrNames := make(map[string]string, len(fields))
	exprAttrValues := make(map[string]types.AttributeValue, len(fields))

	for i, field := range fields {
		placeholderName := fmt.Sprintf("#f%d", i)
		placeholderValue := fmt.Sprintf(":v%d", i)
		exprAttrNames[placeholderName] = field

		val := updates[field]
		clause := fmt.Sprintf("%s = %s", placeholderName, placeholderValue)
		if ts, ok := val.(storagemodels.TimestampSentinel); ok {
			if ts == storagemodels.CreateTimestamp {
				clause = fmt.Sprintf("%s = if_not_exists(%s, %s)", placeholderName, placeholderName, placeholderValue)
			}
			val = now
		}

		av, err := marshalValue(val)
		if err != nil {
			return "", nil, nil, fmt.Errorf("unhandled update value for field '%s': %w", field, err)
		}
		exprAttrValues[placeholderValue] = av
		setClauses = append(setClauses, clause)
	}

	return "SET " + strings.Join(setClauses, ", "), exprAttrNames, exprAttrValues, nil
}

// filterBuilder compiles query conditions into a FilterExpression using #cN name and
// :cN value placeholders, so it can share maps with a key condition.
type filterBuilder struct {
	names  map[string]string
	values map[string]types.AttributeValue
	n      int
}

func newFilterBuilder() *filterBuilder {
	return &filterBuilder{
		names:  make(map[string]string),
		values: make(map[string]types.AttributeValue),
	}
}

// path maps a dotted field path to a placeholder path such as #c0.#c1.
func (b *filterBuilder) path(field string) string {
	parts := strings.Split(field, ".")
	out := make([]string, len(parts))
	for i, p := range parts {
		ph := fmt.Sprintf("#c%d", b.n)
		b.n++
		b.names[ph] = p
		out[i] = ph
	}
	return strings.Join(out, ".")
}

func (b *filterBuilder) value(v any) (string, error) {
	ph := fmt.Sprintf(":c%d", b.n)
	b.n++
	av, err := marshalValue(v)
	if err != nil {
		return "", err
	}
	b.values[ph] = av
	return ph, nil
}

func (b *filterBuilder) list(v any) ([]string, error) {
	items, ok := storagemodels.AsList(v)
	if !ok || len(items) == 0 {
		return nil, fmt.Errorf("operator requires a non-empty list, got %T", v)
	}
	out := make([]string, len(items))
	for i, item := range items {
		ph, err := b.value(item)
		if err != nil {
			return nil, err
		}
		out[i] = ph
	}
	return out, nil
}

func (b *filterBuilder) condition(c storagemodels.Condition) (string, error) {
	field := b.path(c.Field)

	switch c.Op {
	case storagemodels.OpEqual, storagemodels.OpLess, storagemodels.OpLessOrEqual,
		storagemodels.OpGreater, storagemodels.OpGreaterOrEqual:
		v, err := b.value(c.Value)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s %s", field, comparator(c.Op), v), nil
	case storagemodels.OpNotEqual:
		v, err := b.value(c.Value)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(attribute_exists(%s) AND %s <> %s)", field, field, v), nil
	case storagemodels.OpIn:
		vs, err := b.list(c.Value)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s IN (%s)", field, strings.Join(vs, ", ")), nil
	case storagemodels.OpNotIn:
		vs, err := b.list(c.Value)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(attribute_exists(%s) AND NOT (%s IN (%s)))", field, field, strings.Join(vs, ", ")), nil
	case storagemodels.OpArrayContains:
		v, err := b.value(c.Value)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("contains(%s, %s)", field, v), nil
	case storagemodels.OpArrayContainsAny:
		vs, err := b.list(c.Value)
		if err != nil {
			return "", err
		}
		clauses := make([]string, len(vs))
		for i, v := range vs {
			clauses[i] = fmt.Sprintf("contains(%s, %s)", field, v)
		}
		return "(" + strings.Join(clauses, " OR ") + ")", nil
	}
	return "", fmt.Errorf("unsupported operator %q", c.Op)
}

func comparator(op storagemodels.Operator) string {
	if op == storagemodels.OpEqual {
		return "="
	}
	return string(op)
}

// buildFilterExpression joins every condition with AND. It returns an empty
// expression when there are no conditions.
func buildFilterExpression(conditions []storagemodels.Condition) (string, map[string]string, map[string]types.AttributeValue, error) {
	b := newFilterBuilder()
	clauses := make([]string, 0, len(conditions))
	for _, c := range conditions {
		clause, err := b.condition(c)
		if err != nil {
			return "", nil, nil, fmt.Errorf("condition on %q: %w", c.Field, err)
		}
		clauses = append(clauses, clause)
	}
	return strings.Join(clauses, " AND "), b.names, b.values, nil
}
