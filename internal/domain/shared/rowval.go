package shared

// Row values arrive with backend-dependent numeric types: the embedded engine
// scans integers as int64, the gateway decodes every JSON number as float64.
// These helpers normalize across that difference.

// RowFloat reads a numeric row value as float64.
func RowFloat(r Row, field string) (float64, bool) {
	switch v := r[field].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// RowInt reads a numeric row value as int64, truncating floats.
func RowInt(r Row, field string) (int64, bool) {
	f, ok := RowFloat(r, field)
	if !ok {
		return 0, false
	}
	return int64(f), true
}

// RowString reads a string row value.
func RowString(r Row, field string) (string, bool) {
	s, ok := r[field].(string)
	return s, ok
}
