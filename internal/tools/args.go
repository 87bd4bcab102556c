package tools

import "time"

// Argument extraction helpers shared by the providers. Dispatch has already
// type-checked declared parameters, so these only normalize JSON's float64
// numbers and fill defaults for absent values.

// StrArg returns a string argument or def when absent.
func StrArg(params map[string]interface{}, name, def string) string {
	if v, ok := params[name].(string); ok {
		return v
	}
	return def
}

// IntArg returns a numeric argument as int or def when absent.
func IntArg(params map[string]interface{}, name string, def int) int {
	switch v := params[name].(type) {
	case float64:
		return int(v)
	case float32:
		return int(v)
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	}
	return def
}

// BoolArg returns a boolean argument or def when absent.
func BoolArg(params map[string]interface{}, name string, def bool) bool {
	if v, ok := params[name].(bool); ok {
		return v
	}
	return def
}

// SecondsArg interprets a numeric argument as seconds, returning def when
// absent or non-positive. The wire carries fractional seconds.
func SecondsArg(params map[string]interface{}, name string, def time.Duration) time.Duration {
	switch v := params[name].(type) {
	case float64:
		if v > 0 {
			return time.Duration(v * float64(time.Second))
		}
	case int:
		if v > 0 {
			return time.Duration(v) * time.Second
		}
	}
	return def
}

// StrSliceArg returns a string-array argument, nil when absent or of the
// wrong shape.
func StrSliceArg(params map[string]interface{}, name string) []string {
	raw, ok := params[name].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			return nil
		}
		out = append(out, s)
	}
	return out
}
