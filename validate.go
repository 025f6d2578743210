/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package estatestore

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/suparena/estatestore/errors"
	"github.com/suparena/estatestore/storagemodels"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func requireString(field, value string) error {
	if isBlank(value) {
		return errors.NewValidationError(field, "must be a non-empty string")
	}
	return nil
}

func validateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return errors.NewValidationError("email", "invalid email address")
	}
	return nil
}

func validateRef(collection, id string) error {
	if err := requireString("collection", collection); err != nil {
		return err
	}
	return requireString("id", id)
}

func validateData(data map[string]any) error {
	if data == nil {
		return errors.NewValidationError("data", "must be an object")
	}
	return nil
}

// validateQuery checks q and returns a normalized copy: empty directions
// become ascending.
func validateQuery(q storagemodels.Query) (*storagemodels.Query, error) {
	if err := requireString("collection", q.Collection); err != nil {
		return nil, err
	}

	for i, c := range q.Conditions {
		field := fmt.Sprintf("conditions[%d]", i)
		if isBlank(c.Field) {
			return nil, errors.NewValidationError(field, "field must be a non-empty string")
		}
		if !c.Op.Valid() {
			return nil, errors.NewValidationError(field, fmt.Sprintf("unsupported operator %q", c.Op))
		}
		if c.Op.TakesList() {
			if list, ok := storagemodels.AsList(c.Value); !ok || len(list) == 0 {
				return nil, errors.NewValidationError(field, fmt.Sprintf("operator %s needs a non-empty list", c.Op))
			}
		}
	}

	orders := make([]storagemodels.Order, len(q.Orders))
	for i, o := range q.Orders {
		field := fmt.Sprintf("orders[%d]", i)
		if isBlank(o.Field) {
			return nil, errors.NewValidationError(field, "field must be a non-empty string")
		}
		if o.Direction == "" {
			o.Direction = storagemodels.Asc
		}
		if !o.Direction.Valid() {
			return nil, errors.NewValidationError(field, fmt.Sprintf("unsupported direction %q", o.Direction))
		}
		orders[i] = o
	}

	if q.PageSize < 0 {
		return nil, errors.NewValidationError("pageSize", "must be a positive integer")
	}
	if q.Cursor != nil && len(q.Cursor.Values()) != len(orders) {
		return nil, errors.NewValidationError("cursor", "cursor was produced by a query with different orders")
	}

	out := q
	out.Conditions = append([]storagemodels.Condition(nil), q.Conditions...)
	out.Orders = orders
	return &out, nil
}
