package query

import "strconv"

// StringPtr is a helper function that returns a pointer to a string.
func StringPtr(s string) *string {
	return &s
}

// IntPtr is a helper function that returns a pointer to an int.
func IntPtr(i int) *int {
	return &i
}

// ToFloat64 converts a value of any numeric type to a float64. It returns the
// converted value and a boolean indicating whether the conversion succeeded.
func ToFloat64(v any) (float64, bool) {
	switch val := v.(type) {
	case int:
		return float64(val), true
	case int8:
		return float64(val), true
	case int16:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case float32:
		return float64(val), true
	case float64:
		return val, true
	case string:
		f, err := strconv.ParseFloat(val, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
