// Package coerce converts loosely-typed stored values (JSON blobs, config
// rows written by older clients) into concrete numbers at the store/domain
// edge, so internal logic never touches untyped values.
package coerce

import (
	"encoding/json"
	"math"
	"strconv"
	"time"
)

func Float64(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint:
		return float64(x)
	case uint64:
		return float64(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0
		}
		return f
	case bool:
		if x {
			return 1
		}
		return 0
	default:
		return 0
	}
}

func Int64(v any) int64 {
	switch x := v.(type) {
	case int64:
		return x
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case string:
		n, err := strconv.ParseInt(x, 10, 64)
		if err != nil {
			return int64(Float64(x))
		}
		return n
	default:
		return int64(Float64(v))
	}
}

func Int(v any) int {
	return int(Int64(v))
}

func Bool(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		b, err := strconv.ParseBool(x)
		if err != nil {
			return false
		}
		return b
	default:
		return Float64(v) != 0
	}
}

func String(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case nil:
		return ""
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(raw)
	}
}

// UnixMillis interprets a stored numeric value as a millisecond timestamp.
// Zero or unparseable input yields the zero time.
func UnixMillis(v any) time.Time {
	ms := Int64(v)
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// Truncate2 floors a non-negative amount to 2 decimal places. Both accrual
// potential and the accrual cap go through this before comparison, so the
// two can never disagree by a fraction of a cent.
func Truncate2(f float64) float64 {
	return math.Floor(f*100) / 100
}
