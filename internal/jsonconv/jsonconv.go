// Package jsonconv converts between raw JSON and reflected Go values.
package jsonconv

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
)

var null = []byte("null")

// IsNull reports whether raw is empty or the JSON literal null.
func IsNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, null)
}

// Decode unmarshals raw into a new value of type t. Empty or null input
// yields the zero value.
func Decode(raw json.RawMessage, t reflect.Type) (reflect.Value, error) {
	if IsNull(raw) {
		return reflect.Zero(t), nil
	}
	ptr := reflect.New(t)
	if err := json.Unmarshal(raw, ptr.Interface()); err != nil {
		return reflect.Value{}, fmt.Errorf("cannot convert %s to %s: %w", abbreviate(raw), t, err)
	}
	return ptr.Elem(), nil
}

// Fields splits a JSON object into its members. Empty or null input yields an
// empty map.
func Fields(raw json.RawMessage) (map[string]json.RawMessage, error) {
	out := map[string]json.RawMessage{}
	if IsNull(raw) {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("arguments must be a JSON object: %w", err)
	}
	return out, nil
}

// Generic round-trips v through JSON, yielding maps, slices and scalars.
func Generic(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Text encodes v as JSON text.
func Text(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func abbreviate(raw []byte) string {
	const limit = 64
	if len(raw) > limit {
		return string(raw[:limit]) + "..."
	}
	return string(raw)
}
