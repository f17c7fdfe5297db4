package ingestion

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// coerceNumber turns any decoded JSON value into a finite float, defaulting to 0.
func coerceNumber(value any) float64 {
	var n float64
	switch v := value.(type) {
	case float64:
		n = v
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0
		}
		n = parsed
	case int:
		n = float64(v)
	case int64:
		n = float64(v)
	case bool:
		if v {
			n = 1
		}
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		n = parsed
	default:
		return 0
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	return n
}

func coerceInt(value any) int {
	n := coerceNumber(value)
	if n > math.MaxInt32 || n < math.MinInt32 {
		return 0
	}
	return int(n)
}

// coerceText turns any decoded JSON value into a string, defaulting to "".
func coerceText(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(encoded)
	}
}

// coerceNullableNumber keeps an explicit "" as nil and coerces everything else.
func coerceNullableNumber(value any, present bool) *float64 {
	if present {
		if s, ok := value.(string); ok && s == "" {
			return nil
		}
	}
	n := coerceNumber(value)
	return &n
}

// coerceObjects returns the object elements of a JSON array. Non-object
// elements become empty objects so each still yields a stop row.
func coerceObjects(value any) []map[string]any {
	items, ok := value.([]any)
	if !ok {
		return nil
	}
	objects := make([]map[string]any, len(items))
	for i, item := range items {
		object, ok := item.(map[string]any)
		if !ok {
			object = map[string]any{}
		}
		objects[i] = object
	}
	return objects
}
