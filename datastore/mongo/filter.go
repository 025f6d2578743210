/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mongo

import (
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/suparena/estatestore/errors"
	"github.com/suparena/estatestore/storagemodels"
)

var comparisonOps = map[storagemodels.Operator]string{
	storagemodels.OpLess:           "$lt",
	storagemodels.OpLessOrEqual:    "$lte",
	storagemodels.OpGreater:        "$gt",
	storagemodels.OpGreaterOrEqual: "$gte",
}

func listValue(c storagemodels.Condition) (bson.A, error) {
	list, ok := storagemodels.AsList(c.Value)
	if !ok || len(list) == 0 {
		return nil, errors.NewValidationError(c.Field, fmt.Sprintf("operator %s needs a non-empty list", c.Op))
	}
	return bson.A(list), nil
}

// conditionFilter compiles one condition. Negative operators also require the
// field to exist, matching the other backends.
func conditionFilter(c storagemodels.Condition) (bson.D, error) {
	var expr bson.D
	switch c.Op {
	case storagemodels.OpEqual:
		expr = bson.D{{Key: "$eq", Value: c.Value}}
	case storagemodels.OpNotEqual:
		expr = bson.D{{Key: "$exists", Value: true}, {Key: "$ne", Value: c.Value}}
	case storagemodels.OpLess, storagemodels.OpLessOrEqual, storagemodels.OpGreater, storagemodels.OpGreaterOrEqual:
		expr = bson.D{{Key: comparisonOps[c.Op], Value: c.Value}}
	case storagemodels.OpIn:
		list, err := listValue(c)
		if err != nil {
			return nil, err
		}
		expr = bson.D{{Key: "$in", Value: list}}
	case storagemodels.OpNotIn:
		list, err := listValue(c)
		if err != nil {
			return nil, err
		}
		expr = bson.D{{Key: "$exists", Value: true}, {Key: "$nin", Value: list}}
	case storagemodels.OpArrayContains:
		expr = bson.D{{Key: "$elemMatch", Value: bson.D{{Key: "$eq", Value: c.Value}}}}
	case storagemodels.OpArrayContainsAny:
		list, err := listValue(c)
		if err != nil {
			return nil, err
		}
		expr = bson.D{{Key: "$elemMatch", Value: bson.D{{Key: "$in", Value: list}}}}
	default:
		return nil, errors.NewValidationError(c.Field, fmt.Sprintf("unsupported operator %q", c.Op))
	}
	return bson.D{{Key: fieldPath(c.Field), Value: expr}}, nil
}

func fieldPath(field string) string {
	if field == storagemodels.FieldID {
		return fieldKey
	}
	return field
}

// keysetFilter selects the records that sort strictly after the cursor:
//
//	o1 > v1  OR  (o1 = v1 AND o2 > v2)  OR ...  OR  (all equal AND _id > id)
//
// with < in place of > for descending orders.
func keysetFilter(c *storagemodels.Cursor, orders []storagemodels.Order) bson.D {
	values := c.Values()
	branches := bson.A{}
	for i := 0; i <= len(orders); i++ {
		branch := bson.D{}
		for j := 0; j < i; j++ {
			branch = append(branch, bson.E{Key: fieldPath(orders[j].Field), Value: bson.D{{Key: "$eq", Value: values[j]}}})
		}
		if i < len(orders) {
			op := "$gt"
			if orders[i].Direction == storagemodels.Desc {
				op = "$lt"
			}
			branch = append(branch, bson.E{Key: fieldPath(orders[i].Field), Value: bson.D{{Key: op, Value: values[i]}}})
		} else {
			branch = append(branch, bson.E{Key: fieldKey, Value: bson.D{{Key: "$gt", Value: c.ID()}}})
		}
		branches = append(branches, branch)
	}
	return bson.D{{Key: "$or", Value: branches}}
}

// buildFilter compiles the conditions, the order-field existence checks and the
// cursor into one filter.
func buildFilter(q *storagemodels.Query) (bson.D, error) {
	clauses := bson.A{}
	for _, c := range q.Conditions {
		clause, err := conditionFilter(c)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, clause)
	}
	for _, o := range q.Orders {
		clauses = append(clauses, bson.D{{Key: fieldPath(o.Field), Value: bson.D{{Key: "$exists", Value: true}}}})
	}
	if q.Cursor != nil {
		if len(q.Cursor.Values()) != len(q.Orders) {
			return nil, errors.NewValidationError("cursor", "cursor does not match the query orders")
		}
		clauses = append(clauses, keysetFilter(q.Cursor, q.Orders))
	}

	switch len(clauses) {
	case 0:
		return bson.D{}, nil
	case 1:
		return clauses[0].(bson.D), nil
	}
	return bson.D{{Key: "$and", Value: clauses}}, nil
}

// sortSpec orders by the query orders, then by _id.
func sortSpec(orders []storagemodels.Order) bson.D {
	spec := make(bson.D, 0, len(orders)+1)
	for _, o := range orders {
		dir := 1
		if o.Direction == storagemodels.Desc {
			dir = -1
		}
		spec = append(spec, bson.E{Key: fieldPath(o.Field), Value: dir})
	}
	return append(spec, bson.E{Key: fieldKey, Value: 1})
}

// fieldValue is the aggregation expression that writes v to field. Values are
// wrapped in $literal so strings starting with $ are not read as field paths.
func fieldValue(field string, v any, now time.Time) any {
	ts, ok := v.(storagemodels.TimestampSentinel)
	switch {
	case ok && ts == storagemodels.CreateTimestamp:
		return bson.D{{Key: "$ifNull", Value: bson.A{"$" + field, bson.D{{Key: "$literal", Value: now}}}}}
	case ok:
		return bson.D{{Key: "$literal", Value: now}}
	}
	return bson.D{{Key: "$literal", Value: v}}
}

func sortedFields(fields map[string]any) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if k != storagemodels.FieldID {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// mergePipeline sets the given top-level fields and a new revision.
func mergePipeline(fields map[string]any, now time.Time, rev string) mongo.Pipeline {
	set := bson.D{}
	for _, k := range sortedFields(fields) {
		set = append(set, bson.E{Key: k, Value: fieldValue(k, fields[k], now)})
	}
	set = append(set, bson.E{Key: fieldRev, Value: bson.D{{Key: "$literal", Value: rev}}})
	return mongo.Pipeline{{{Key: "$set", Value: set}}}
}

// replacePipeline swaps the whole document for fields, keeping only _id and, for a
// CreateTimestamp field, the stored value.
func replacePipeline(id string, fields map[string]any, now time.Time, rev string) mongo.Pipeline {
	doc := bson.D{{Key: fieldKey, Value: bson.D{{Key: "$literal", Value: id}}}}
	for _, k := range sortedFields(fields) {
		doc = append(doc, bson.E{Key: k, Value: fieldValue(k, fields[k], now)})
	}
	doc = append(doc, bson.E{Key: fieldRev, Value: bson.D{{Key: "$literal", Value: rev}}})
	return mongo.Pipeline{{{Key: "$replaceWith", Value: doc}}}
}
