package table

import (
	"fmt"

	"github.com/spf13/cast"
)

// ============================================================================
// DYNAMIC ROWS - SCHEMALESS STRING-KEYED RECORDS
// ============================================================================

// Row represents one table row: a dynamic mapping from field name to value.
// Values are native Go types - int64/float64 (any numeric accepted on input),
// string, bool, []any, nested Row. Field sets differ row to row; a missing
// field is meaningful.
type Row map[string]any

// RowFrom wraps a plain map as a Row
func RowFrom(m map[string]any) Row {
	return Row(m)
}

// Get retrieves a typed value from a row with automatic conversion
func Get[T any](r Row, field string) (T, bool) {
	val, exists := r[field]
	if !exists {
		var zero T
		return zero, false
	}

	// Direct type assertion first (fast path)
	if typed, ok := val.(T); ok {
		return typed, true
	}

	// Coercion path
	switch any(*new(T)).(type) {
	case int64:
		if v, err := cast.ToInt64E(val); err == nil {
			return any(v).(T), true
		}
	case int:
		if v, err := cast.ToIntE(val); err == nil {
			return any(v).(T), true
		}
	case float64:
		if v, err := cast.ToFloat64E(val); err == nil {
			return any(v).(T), true
		}
	case string:
		if v, err := cast.ToStringE(val); err == nil {
			return any(v).(T), true
		}
	case bool:
		if v, err := cast.ToBoolE(val); err == nil {
			return any(v).(T), true
		}
	}

	var zero T
	return zero, false
}

// GetOr retrieves a typed value with a default fallback
func GetOr[T any](r Row, field string, defaultVal T) T {
	if val, ok := Get[T](r, field); ok {
		return val
	}
	return defaultVal
}

// Float returns the field as float64, or a FieldError if it is absent or
// not numeric
func (r Row) Float(field string) (float64, error) {
	val, exists := r[field]
	if !exists {
		return 0, &FieldError{Field: field, Reason: "missing"}
	}
	v, err := cast.ToFloat64E(val)
	if err != nil {
		return 0, &FieldError{Field: field, Reason: fmt.Sprintf("not numeric: %T", val)}
	}
	return v, nil
}

// String returns the field as a string, or a FieldError
func (r Row) String(field string) (string, error) {
	val, exists := r[field]
	if !exists {
		return "", &FieldError{Field: field, Reason: "missing"}
	}
	s, ok := val.(string)
	if !ok {
		return "", &FieldError{Field: field, Reason: fmt.Sprintf("not a string: %T", val)}
	}
	return s, nil
}

// Has checks whether a field exists
func (r Row) Has(field string) bool {
	_, exists := r[field]
	return exists
}

// Clone returns a shallow copy. Operators that rewrite fields of a row they
// fan out over must clone first so earlier emissions stay intact.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// ============================================================================
// NUMERIC PROMOTION
// ============================================================================

// isInteger reports whether v is an integer-kinded value
func isInteger(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	}
	return false
}

// mulValues multiplies two numeric values, staying integral until a float
// participates
func mulValues(a, b any) (any, error) {
	if isInteger(a) && isInteger(b) {
		av, err := cast.ToInt64E(a)
		if err != nil {
			return nil, err
		}
		bv, err := cast.ToInt64E(b)
		if err != nil {
			return nil, err
		}
		return av * bv, nil
	}
	av, err := cast.ToFloat64E(a)
	if err != nil {
		return nil, err
	}
	bv, err := cast.ToFloat64E(b)
	if err != nil {
		return nil, err
	}
	return av * bv, nil
}

// addValues adds two numeric values with the same promotion rule as mulValues
func addValues(a, b any) (any, error) {
	if isInteger(a) && isInteger(b) {
		av, err := cast.ToInt64E(a)
		if err != nil {
			return nil, err
		}
		bv, err := cast.ToInt64E(b)
		if err != nil {
			return nil, err
		}
		return av + bv, nil
	}
	av, err := cast.ToFloat64E(a)
	if err != nil {
		return nil, err
	}
	bv, err := cast.ToFloat64E(b)
	if err != nil {
		return nil, err
	}
	return av + bv, nil
}
