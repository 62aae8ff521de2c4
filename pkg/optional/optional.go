// Package optional distinguishes a field that was never provided from one
// provided with a value or provided as an explicit null.
package optional

import (
	"bytes"
	"encoding/json"
)

var nullLiteral = []byte("null")

// Value holds a T that may be absent, null, or set.
type Value[T any] struct {
	value   T
	present bool
	null    bool
}

// Of returns a present, non-null Value.
func Of[T any](v T) Value[T] {
	return Value[T]{value: v, present: true}
}

// Null returns a present Value that was explicitly cleared.
func Null[T any]() Value[T] {
	return Value[T]{present: true, null: true}
}

// IsPresent reports whether the field was provided at all, including as null.
func (v Value[T]) IsPresent() bool {
	return v.present
}

// IsNull reports whether the field was provided as an explicit null.
func (v Value[T]) IsNull() bool {
	return v.present && v.null
}

// Get returns the held value and whether it is set and non-null.
func (v Value[T]) Get() (T, bool) {
	return v.value, v.present && !v.null
}

// Ptr returns nil for absent or null values, otherwise a pointer to a copy.
func (v Value[T]) Ptr() *T {
	if !v.present || v.null {
		return nil
	}
	out := v.value
	return &out
}

// UnmarshalJSON is only invoked by encoding/json when the key exists.
func (v *Value[T]) UnmarshalJSON(data []byte) error {
	v.present = true
	if bytes.Equal(bytes.TrimSpace(data), nullLiteral) {
		var zero T
		v.value = zero
		v.null = true
		return nil
	}
	v.null = false
	return json.Unmarshal(data, &v.value)
}

func (v Value[T]) MarshalJSON() ([]byte, error) {
	if !v.present || v.null {
		return nullLiteral, nil
	}
	return json.Marshal(v.value)
}
