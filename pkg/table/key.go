package table

import (
	"fmt"

	"github.com/spf13/cast"
)

// ============================================================================
// GROUP KEYS - ORDERED FIELD-VALUE TUPLES
// ============================================================================

// Key is the ordered tuple of a row's values at the configured key fields.
// Keys are derived freshly per row and never hold operator state.
type Key []any

// keyOf extracts the key tuple for fields from row. Every key field must be
// present.
func keyOf(row Row, fields []string) (Key, error) {
	key := make(Key, len(fields))
	for i, f := range fields {
		val, ok := row[f]
		if !ok {
			return nil, &FieldError{Field: f, Reason: "missing"}
		}
		key[i] = val
	}
	return key, nil
}

// compareValues orders two values of a compatible kind. All numerics compare
// as numbers; strings and bools by their natural order; lists element-wise.
// Incompatible kinds at the same field are an error.
func compareValues(a, b any) (int, error) {
	if isNumeric(a) && isNumeric(b) {
		av, err := cast.ToFloat64E(a)
		if err != nil {
			return 0, err
		}
		bv, err := cast.ToFloat64E(b)
		if err != nil {
			return 0, err
		}
		switch {
		case av < bv:
			return -1, nil
		case av > bv:
			return 1, nil
		}
		return 0, nil
	}

	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			break
		}
		switch {
		case av < bv:
			return -1, nil
		case av > bv:
			return 1, nil
		}
		return 0, nil
	case bool:
		bv, ok := b.(bool)
		if !ok {
			break
		}
		switch {
		case !av && bv:
			return -1, nil
		case av && !bv:
			return 1, nil
		}
		return 0, nil
	case []any:
		bv, ok := b.([]any)
		if !ok {
			break
		}
		return compareSlices(av, bv)
	}

	return 0, fmt.Errorf("incomparable key values: %T vs %T", a, b)
}

func compareSlices(a, b []any) (int, error) {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		c, err := compareValues(a[i], b[i])
		if err != nil {
			return 0, err
		}
		if c != 0 {
			return c, nil
		}
	}
	switch {
	case len(a) < len(b):
		return -1, nil
	case len(a) > len(b):
		return 1, nil
	}
	return 0, nil
}

func isNumeric(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	}
	return false
}

// Compare orders two key tuples lexicographically
func (k Key) Compare(other Key) (int, error) {
	return compareSlices(k, other)
}

// Equal reports whether two key tuples hold equal values
func (k Key) Equal(other Key) (bool, error) {
	if len(k) != len(other) {
		return false, nil
	}
	c, err := k.Compare(other)
	if err != nil {
		return false, err
	}
	return c == 0, nil
}
