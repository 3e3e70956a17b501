package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

const (
	MinScore = 0.0
	MaxScore = 10.0
)

// Score coerces raw to a float. Missing or non-numeric values become 0.0.
// Range checks belong to the caller.
func Score(raw any) float64 {
	var f float64
	switch v := raw.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// ClampScore forces f into [MinScore, MaxScore].
func ClampScore(f float64) float64 {
	return math.Min(math.Max(f, MinScore), MaxScore)
}
