package model

import (
	"encoding/json"
	"math"
)

// Property values are JSON-shaped: nil, bool, numbers, string, []any and
// map[string]any. Numbers may arrive as any Go numeric type (YAML decoding
// produces int, JSON decoding float64 or json.Number); the accessors below
// accept all of them.

// AsFloat64 returns v as a float64 if it is numeric.
func AsFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// AsInt64 returns v as an int64 if it is an integral number.
func AsInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint32:
		return int64(n), true
	case uint:
		if uint64(n) > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	}
	f, ok := AsFloat64(v)
	if !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

// AsUint64 returns v as a uint64 if it is a non-negative integral number.
func AsUint64(v any) (uint64, bool) {
	if n, ok := v.(uint64); ok {
		return n, true
	}
	i, ok := AsInt64(v)
	if !ok || i < 0 {
		return 0, false
	}
	return uint64(i), true
}

// AsBool returns v as a bool.
func AsBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

// AsString returns v as a string.
func AsString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// AsArray returns v as an array.
func AsArray(v any) ([]any, bool) {
	a, ok := v.([]any)
	return a, ok
}

// AsObject returns v as an object.
func AsObject(v any) (map[string]any, bool) {
	o, ok := v.(map[string]any)
	return o, ok
}

// Normalize converts decoded values into the runtime's canonical shapes:
// every number becomes float64, map[any]any (YAML) becomes map[string]any.
func Normalize(v any) any {
	switch val := v.(type) {
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = Normalize(elem)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = Normalize(elem)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			if ks, ok := k.(string); ok {
				out[ks] = Normalize(elem)
			}
		}
		return out
	}
	if f, ok := AsFloat64(v); ok {
		return f
	}
	return v
}

// Truthy follows JSON truthiness: false, null, 0, "" and empty
// containers are false.
func Truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case []any:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	}
	if f, ok := AsFloat64(v); ok {
		return f != 0
	}
	return true
}
