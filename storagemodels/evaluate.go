/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"sort"
	"strings"
)

// Matches reports whether the record satisfies the condition. Records that lack
// the field never match, including for != and not-in.
func Matches(r Record, c Condition) bool {
	v, ok := Lookup(r, c.Field)
	if !ok {
		return false
	}
	switch c.Op {
	case OpEqual:
		return Equal(v, c.Value)
	case OpNotEqual:
		return !Equal(v, c.Value)
	case OpLess:
		return Comparable(v, c.Value) && CompareValues(v, c.Value) < 0
	case OpLessOrEqual:
		return Comparable(v, c.Value) && CompareValues(v, c.Value) <= 0
	case OpGreater:
		return Comparable(v, c.Value) && CompareValues(v, c.Value) > 0
	case OpGreaterOrEqual:
		return Comparable(v, c.Value) && CompareValues(v, c.Value) >= 0
	case OpIn:
		return containsValue(c.Value, v)
	case OpNotIn:
		return !containsValue(c.Value, v)
	case OpArrayContains:
		return containsValue(v, c.Value)
	case OpArrayContainsAny:
		wanted, ok := AsList(c.Value)
		if !ok {
			return false
		}
		for _, w := range wanted {
			if containsValue(v, w) {
				return true
			}
		}
	}
	return false
}

func containsValue(list any, v any) bool {
	items, ok := AsList(list)
	if !ok {
		return false
	}
	for _, item := range items {
		if Equal(item, v) {
			return true
		}
	}
	return false
}

// MatchesAll reports whether the record satisfies every condition.
func MatchesAll(r Record, conditions []Condition) bool {
	for _, c := range conditions {
		if !Matches(r, c) {
			return false
		}
	}
	return true
}

// Filter returns the records satisfying every condition.
func Filter(records []Record, conditions []Condition) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if MatchesAll(r, conditions) {
			out = append(out, r)
		}
	}
	return out
}

// SortKey returns the values of the order fields of r.
func SortKey(r Record, orders []Order) ([]any, bool) {
	key := make([]any, len(orders))
	for i, o := range orders {
		v, ok := Lookup(r, o.Field)
		if !ok {
			return nil, false
		}
		key[i] = v
	}
	return key, true
}

// compareKeys orders two (values, id) pairs under orders, with id ascending as the
// final tie-break so the ordering is total.
func compareKeys(av []any, aid string, bv []any, bid string, orders []Order) int {
	for i, o := range orders {
		if i >= len(av) || i >= len(bv) {
			break
		}
		c := CompareValues(av[i], bv[i])
		if o.Direction == Desc {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return strings.Compare(aid, bid)
}

// Sort orders records in place. Records missing an order field must be removed
// beforehand with WithOrderFields.
func Sort(records []Record, orders []Order) {
	keys := make(map[string][]any, len(records))
	for _, r := range records {
		k, _ := SortKey(r, orders)
		keys[r.ID()] = k
	}
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		return compareKeys(keys[a.ID()], a.ID(), keys[b.ID()], b.ID(), orders) < 0
	})
}

// WithOrderFields drops records that lack any of the order fields.
func WithOrderFields(records []Record, orders []Order) []Record {
	if len(orders) == 0 {
		return records
	}
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if _, ok := SortKey(r, orders); ok {
			out = append(out, r)
		}
	}
	return out
}

// CursorFor builds the cursor pointing at r under orders.
func CursorFor(r Record, orders []Order, native any) *Cursor {
	values, _ := SortKey(r, orders)
	return NewCursor(r.ID(), values, native)
}

// After reports whether r sorts strictly after the cursor.
func After(r Record, c *Cursor, orders []Order) bool {
	values, ok := SortKey(r, orders)
	if !ok {
		return false
	}
	return compareKeys(values, r.ID(), c.Values(), c.ID(), orders) > 0
}

// ApplyWindow sorts already-filtered records, resumes after the query cursor and
// caps the page. It is the in-process half of Query for backends that cannot sort or
// page natively.
func ApplyWindow(records []Record, q *Query) *QueryResult {
	records = WithOrderFields(records, q.Orders)
	Sort(records, q.Orders)

	if q.Cursor != nil {
		start := len(records)
		for i, r := range records {
			if After(r, q.Cursor, q.Orders) {
				start = i
				break
			}
		}
		records = records[start:]
	}

	result := &QueryResult{}
	if q.PageSize > 0 && len(records) >= q.PageSize {
		records = records[:q.PageSize]
		result.NextCursor = CursorFor(records[len(records)-1], q.Orders, nil)
	}
	result.Records = records
	return result
}

// Evaluate runs a full query over an unfiltered record set.
func Evaluate(records []Record, q *Query) *QueryResult {
	return ApplyWindow(Filter(records, q.Conditions), q)
}
