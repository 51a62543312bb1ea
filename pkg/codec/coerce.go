package codec

import (
	"fmt"
	"math"
)

// The coercion helpers convert normalized tree values into the Go types of
// the replay model. A value of the wrong kind is an error, never a default.

func asString(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("expected string, got %s", kindOf(v))
	}
	return s, nil
}

func asBool(v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("expected boolean, got %s", kindOf(v))
	}
	return b, nil
}

func asFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("expected number, got %s", kindOf(v))
	}
}

// asInteger accepts integers and integral floats inside [min, max]
func asInteger(v any, min, max int64) (int64, error) {
	var i int64
	switch n := v.(type) {
	case int64:
		i = n
	case uint64:
		return 0, fmt.Errorf("integer %d out of range", n)
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) || n != math.Trunc(n) {
			return 0, fmt.Errorf("expected integer, got %v", n)
		}
		if n < math.MinInt64 || n >= math.MaxInt64 {
			return 0, fmt.Errorf("integer %v out of range", n)
		}
		i = int64(n)
	default:
		return 0, fmt.Errorf("expected integer, got %s", kindOf(v))
	}

	if i < min || i > max {
		return 0, fmt.Errorf("integer %d out of range [%d, %d]", i, min, max)
	}
	return i, nil
}

func asInt64(v any) (int64, error) {
	return asInteger(v, math.MinInt64, math.MaxInt64)
}

func asInt(v any) (int, error) {
	i, err := asInteger(v, math.MinInt, math.MaxInt)
	return int(i), err
}

func asUint32(v any) (uint32, error) {
	i, err := asInteger(v, 0, math.MaxUint32)
	return uint32(i), err
}

func asTree(v any) (Tree, bool) {
	t, ok := v.(Tree)
	return t, ok
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case int64, uint64, float64:
		return "number"
	case Tree:
		return "object"
	case []any:
		return "array"
	case []byte:
		return "binary"
	default:
		return fmt.Sprintf("%T", v)
	}
}
