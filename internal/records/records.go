// Package records defines the generic record type flowing between the
// parser, the warehouse builders, and the storage loader, plus small typed
// accessors.
//
// A Record is a single raw entity (one song metadata object, one log event)
// keyed by canonical field names. Values hold whatever encoding/json
// decoded: string, float64, bool, or nil. The accessors perform the minimal
// coercion the builders need and report a schema fault when a required
// field is missing or mistyped, so malformed input aborts the run instead
// of producing a partially wrong warehouse.
package records

import (
	"fmt"
	"math"
	"strconv"
)

// Record is a raw input record keyed by canonical field names.
type Record map[string]any

// Str returns the string value for key. A missing, null, or non-string
// value is a schema fault.
func (r Record) Str(key string) (string, error) {
	v, ok := r[key]
	if !ok || v == nil {
		return "", fmt.Errorf("field %q: missing required string", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("field %q: want string, got %T", key, v)
	}
	return s, nil
}

// Text returns the value for key rendered as a string. Unlike Str it
// accepts numeric values too; raw exports are inconsistent about quoting
// identifiers like user ids, and both "26" and 26 mean the same key.
func (r Record) Text(key string) (string, error) {
	v, ok := r[key]
	if !ok || v == nil {
		return "", fmt.Errorf("field %q: missing required value", key)
	}
	switch t := v.(type) {
	case string:
		return t, nil
	case float64:
		if t == math.Trunc(t) {
			return strconv.FormatInt(int64(t), 10), nil
		}
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	}
	return "", fmt.Errorf("field %q: want string or number, got %T", key, v)
}

// StrOrNil returns the string value for key, or nil when the field is
// absent or null. A present non-string value is still a schema fault.
func (r Record) StrOrNil(key string) (any, error) {
	v, ok := r[key]
	if !ok || v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("field %q: want string, got %T", key, v)
	}
	return s, nil
}

// Int64 returns the integer value for key. JSON numbers decode as float64;
// a fractional part is a schema fault.
func (r Record) Int64(key string) (int64, error) {
	v, ok := r[key]
	if !ok || v == nil {
		return 0, fmt.Errorf("field %q: missing required integer", key)
	}
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("field %q: want integer, got %v", key, n)
		}
		return int64(n), nil
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	}
	return 0, fmt.Errorf("field %q: want integer, got %T", key, v)
}

// Int64OrNil returns the integer value for key, or nil when the field is
// absent or null.
func (r Record) Int64OrNil(key string) (any, error) {
	v, ok := r[key]
	if !ok || v == nil {
		return nil, nil
	}
	n, err := r.Int64(key)
	if err != nil {
		return nil, err
	}
	return n, nil
}

// Float64 returns the float value for key. Missing or non-numeric values
// are a schema fault.
func (r Record) Float64(key string) (float64, error) {
	v, ok := r[key]
	if !ok || v == nil {
		return 0, fmt.Errorf("field %q: missing required number", key)
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	}
	return 0, fmt.Errorf("field %q: want number, got %T", key, v)
}

// FloatOrNil returns the float value for key, or nil when the field is
// absent or null. The nil form keeps SQL NULLs distinguishable from 0.
func (r Record) FloatOrNil(key string) (any, error) {
	v, ok := r[key]
	if !ok || v == nil {
		return nil, nil
	}
	f, err := r.Float64(key)
	if err != nil {
		return nil, err
	}
	return f, nil
}
