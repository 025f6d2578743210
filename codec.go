/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package estatestore

import (
	"encoding"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/mitchellh/mapstructure"

	"github.com/suparena/estatestore/storagemodels"
)

// Record types are mapped to fields by their json tags.
const fieldTag = "json"

var (
	timeType            = reflect.TypeOf(time.Time{})
	dateTimeType        = reflect.TypeOf(strfmt.DateTime{})
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// timeHook decodes stored instants and timestamp strings into time.Time and
// strfmt.DateTime fields.
func timeHook(from, to reflect.Type, data any) (any, error) {
	if to != timeType && to != dateTimeType {
		return data, nil
	}
	var t time.Time
	switch v := data.(type) {
	case time.Time:
		t = v
	case strfmt.DateTime:
		t = time.Time(v)
	case string:
		dt, err := strfmt.ParseDateTime(v)
		if err != nil {
			return nil, err
		}
		t = time.Time(dt)
	default:
		return data, nil
	}
	if to == dateTimeType {
		return strfmt.DateTime(t), nil
	}
	return t, nil
}

// numberTextHook turns numbers into their decimal text when the target decodes
// itself from text, so enums can accept legacy integer codes.
func numberTextHook(from, to reflect.Type, data any) (any, error) {
	if !reflect.PointerTo(to).Implements(textUnmarshalerType) {
		return data, nil
	}
	switch from.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(reflect.ValueOf(data).Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(reflect.ValueOf(data).Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(reflect.ValueOf(data).Float(), 'f', -1, 64), nil
	}
	return data, nil
}

// Decode fills out, a pointer to a struct, from a record. Scalars are converted
// loosely, so a number stored where the struct expects text still decodes.
func Decode(rec storagemodels.Record, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          fieldTag,
		Result:           out,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			timeHook,
			numberTextHook,
			mapstructure.TextUnmarshallerHookFunc(),
		),
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(map[string]any(rec)); err != nil {
		return fmt.Errorf("failed to decode record %q: %w", rec.ID(), err)
	}
	return nil
}

// Encode turns a struct into record fields keyed by json tag. Fields tagged "-"
// are skipped and "omitempty" drops zero values. The id field is never encoded,
// named string types become plain strings, and strfmt.DateTime becomes time.Time.
func Encode(v any) (map[string]any, error) {
	if m, ok := v.(map[string]any); ok {
		return withoutID(m), nil
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, fmt.Errorf("cannot encode a nil %s", rv.Type())
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("cannot encode %s as record fields", rv.Type())
	}
	fields := make(map[string]any)
	encodeStruct(rv, fields)
	delete(fields, storagemodels.FieldID)
	return fields, nil
}

func encodeStruct(rv reflect.Value, into map[string]any) {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		name, opts, _ := strings.Cut(sf.Tag.Get(fieldTag), ",")
		if name == "-" {
			continue
		}
		fv := rv.Field(i)
		if sf.Anonymous && name == "" && fv.Kind() == reflect.Struct {
			encodeStruct(fv, into)
			continue
		}
		if name == "" {
			name = sf.Name
		}
		if strings.Contains(opts, "omitempty") && fv.IsZero() {
			continue
		}
		into[name] = encodeValue(fv)
	}
}

func encodeValue(rv reflect.Value) any {
	switch rv.Type() {
	case timeType:
		return rv.Interface()
	case dateTimeType:
		return time.Time(rv.Interface().(strfmt.DateTime))
	}

	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return encodeValue(rv.Elem())
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.Struct:
		nested := make(map[string]any)
		encodeStruct(rv, nested)
		return nested
	case reflect.Slice:
		if rv.IsNil() {
			return nil
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return rv.Bytes()
		}
		fallthrough
	case reflect.Array:
		list := make([]any, rv.Len())
		for i := range list {
			list[i] = encodeValue(rv.Index(i))
		}
		return list
	case reflect.Map:
		if rv.IsNil() {
			return nil
		}
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[fmt.Sprint(iter.Key().Interface())] = encodeValue(iter.Value())
		}
		return m
	}
	return rv.Interface()
}
