/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"fmt"
	"time"

	"github.com/suparena/estatestore/errors"
)

// ApplyWrite computes the stored fields of a record after w, given its current
// fields (nil when absent). It returns nil when the record ends up deleted.
// Sentinels resolve to now; the id field is never stored.
func ApplyWrite(existing map[string]any, w Write, now time.Time) (map[string]any, error) {
	var next map[string]any

	switch w.Kind {
	case WriteSet:
		resolved := ResolveTimestamps(CopyFields(w.Data), existing, now)
		if w.Merge && existing != nil {
			next = CopyFields(existing)
			for k, v := range resolved {
				next[k] = v
			}
		} else {
			next = resolved
		}
	case WriteUpdate:
		if existing == nil {
			return nil, errors.NewNotFoundError(w.Ref.Collection, w.Ref.ID)
		}
		next = CopyFields(existing)
		for k, v := range ResolveTimestamps(CopyFields(w.Data), existing, now) {
			next[k] = v
		}
	case WriteDelete:
		return nil, nil
	default:
		return nil, errors.NewValidationError("kind", fmt.Sprintf("unsupported write kind %q", w.Kind))
	}

	delete(next, FieldID)
	return next, nil
}

// Fold applies writes in order on top of the loaded state. The result maps
// DocumentRef.String() to the final fields of every written record (nil for
// deleted ones); order lists the written refs in first-write order.
func Fold(loaded map[string]map[string]any, writes []Write, now time.Time) (final map[string]map[string]any, order []DocumentRef, err error) {
	final = make(map[string]map[string]any, len(writes))
	for _, w := range writes {
		key := w.Ref.String()
		existing, staged := final[key]
		if !staged {
			existing = loaded[key]
			order = append(order, w.Ref)
		}
		next, err := ApplyWrite(existing, w, now)
		if err != nil {
			return nil, nil, err
		}
		final[key] = next
	}
	return final, order, nil
}
