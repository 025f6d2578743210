/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"bytes"
	"math"
	"reflect"
	"sort"
	"strings"
	"time"
)

// TimestampSentinel is a field value the backend replaces with its commit time.
type TimestampSentinel int

const (
	// ServerTimestamp resolves to the commit time.
	ServerTimestamp TimestampSentinel = iota + 1
	// CreateTimestamp resolves to the commit time unless the stored record already
	// holds the field, in which case the stored value is kept.
	CreateTimestamp
)

// HasSentinel reports whether any top-level field holds s.
func HasSentinel(fields map[string]any, s TimestampSentinel) bool {
	for _, v := range fields {
		if ts, ok := v.(TimestampSentinel); ok && ts == s {
			return true
		}
	}
	return false
}

// ResolveTimestamps returns a copy of fields with every sentinel replaced by now.
// CreateTimestamp fields keep the value found in existing, when present.
func ResolveTimestamps(fields map[string]any, existing map[string]any, now time.Time) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		ts, ok := v.(TimestampSentinel)
		if !ok {
			out[k] = v
			continue
		}
		if ts == CreateTimestamp {
			if prev, found := existing[k]; found && prev != nil {
				out[k] = prev
				continue
			}
		}
		out[k] = now
	}
	return out
}

// CopyFields deep-copies nested maps and slices so stored state cannot be mutated
// through a returned record.
func CopyFields(fields map[string]any) map[string]any {
	if fields == nil {
		return nil
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch tv := v.(type) {
	case map[string]any:
		return CopyFields(tv)
	case Record:
		return CopyFields(tv)
	case []any:
		out := make([]any, len(tv))
		for i, e := range tv {
			out[i] = copyValue(e)
		}
		return out
	case []byte:
		return append([]byte(nil), tv...)
	case nil:
		return nil
	}
	return copyReflect(reflect.ValueOf(v)).Interface()
}

// copyReflect copies typed slices and maps such as []string or
// map[string]int, keeping their type.
func copyReflect(rv reflect.Value) reflect.Value {
	switch rv.Kind() {
	case reflect.Slice:
		if rv.IsNil() {
			return rv
		}
		out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out.Index(i).Set(copyElem(rv.Index(i)))
		}
		return out
	case reflect.Map:
		if rv.IsNil() {
			return rv
		}
		out := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), copyElem(iter.Value()))
		}
		return out
	}
	return rv
}

func copyElem(ev reflect.Value) reflect.Value {
	if ev.Kind() == reflect.Interface {
		if ev.IsNil() {
			return ev
		}
		c := reflect.ValueOf(copyValue(ev.Interface()))
		out := reflect.New(ev.Type()).Elem()
		out.Set(c)
		return out
	}
	return copyReflect(ev)
}

// Lookup resolves a dotted field path against nested maps.
func Lookup(fields map[string]any, path string) (any, bool) {
	if v, ok := fields[path]; ok {
		return v, true
	}
	parts := strings.Split(path, ".")
	var cur any = fields
	for _, p := range parts {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func asMap(v any) (map[string]any, bool) {
	switch tv := v.(type) {
	case map[string]any:
		return tv, true
	case Record:
		return tv, true
	}
	return nil, false
}

// AsList converts any slice or array value to []any.
func AsList(v any) ([]any, bool) {
	if l, ok := v.([]any); ok {
		return l, true
	}
	if v == nil {
		return nil, false
	}
	if _, isBytes := v.([]byte); isBytes {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// type ranks follow the document-store convention: null < bool < number <
// timestamp < string < bytes < array < map.
const (
	rankNull = iota
	rankBool
	rankNumber
	rankTime
	rankString
	rankBytes
	rankArray
	rankMap
	rankOther
)

func rank(v any) int {
	switch v.(type) {
	case nil:
		return rankNull
	case bool:
		return rankBool
	case time.Time, *time.Time:
		return rankTime
	case string:
		return rankString
	case []byte:
		return rankBytes
	}
	if _, ok := toFloat(v); ok {
		return rankNumber
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.String:
		return rankString
	case reflect.Bool:
		return rankBool
	}
	if _, ok := asMap(v); ok {
		return rankMap
	}
	if _, ok := AsList(v); ok {
		return rankArray
	}
	return rankOther
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

func toTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case *time.Time:
		if t != nil {
			return *t
		}
	}
	return time.Time{}
}

// Comparable reports whether a and b belong to the same type class, which is
// required for range comparisons.
func Comparable(a, b any) bool {
	return rank(a) == rank(b)
}

// CompareValues orders two field values. Values of different type classes order by
// class; values within a class order naturally.
func CompareValues(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return cmpInt(ra, rb)
	}
	switch ra {
	case rankNull:
		return 0
	case rankBool:
		ab, bb := reflect.ValueOf(a).Bool(), reflect.ValueOf(b).Bool()
		switch {
		case ab == bb:
			return 0
		case !ab:
			return -1
		default:
			return 1
		}
	case rankNumber:
		af, _ := toFloat(a)
		bf, _ := toFloat(b)
		return cmpFloat(af, bf)
	case rankTime:
		return toTime(a).Compare(toTime(b))
	case rankString:
		return strings.Compare(reflect.ValueOf(a).String(), reflect.ValueOf(b).String())
	case rankBytes:
		return bytes.Compare(a.([]byte), b.([]byte))
	case rankArray:
		al, _ := AsList(a)
		bl, _ := AsList(b)
		for i := 0; i < len(al) && i < len(bl); i++ {
			if c := CompareValues(al[i], bl[i]); c != 0 {
				return c
			}
		}
		return cmpInt(len(al), len(bl))
	case rankMap:
		am, _ := asMap(a)
		bm, _ := asMap(b)
		return compareMaps(am, bm)
	}
	if reflect.DeepEqual(a, b) {
		return 0
	}
	return strings.Compare(reflect.TypeOf(a).String(), reflect.TypeOf(b).String())
}

// Equal reports whether two field values are equal under CompareValues.
func Equal(a, b any) bool {
	return rank(a) == rank(b) && CompareValues(a, b) == 0
}

func compareMaps(a, b map[string]any) int {
	ak, bk := sortedKeys(a), sortedKeys(b)
	for i := 0; i < len(ak) && i < len(bk); i++ {
		if c := strings.Compare(ak[i], bk[i]); c != 0 {
			return c
		}
		if c := CompareValues(a[ak[i]], b[bk[i]]); c != 0 {
			return c
		}
	}
	return cmpInt(len(ak), len(bk))
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpFloat(a, b float64) int {
	// NaN sorts before every other number
	switch {
	case math.IsNaN(a) && math.IsNaN(b):
		return 0
	case math.IsNaN(a):
		return -1
	case math.IsNaN(b):
		return 1
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
