package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/roach88/rgraph/internal/model"
)

// marshalValue converts a property value to canonical JSON TEXT for storage.
func marshalValue(v any) (string, error) {
	data, err := model.MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("marshal value: %w", err)
	}
	return string(data), nil
}

// unmarshalValue parses canonical JSON TEXT back into a normalized value.
// Numbers are decoded via json.Number and normalized to float64.
func unmarshalValue(data string) (any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("unmarshal value: %w", err)
	}
	return model.Normalize(v), nil
}
