// Package stats merges the base stat vector with per-item deltas from the
// equipped loadout and active consumables. The merge is additive, so it is
// associative and commutative; callers always recompute from the full input
// set instead of patching incrementally.
package stats

import (
	"encoding/json"

	"economy-service/internal/coerce"
)

// Vector is one stat vector, stat name to value.
type Vector map[string]float64

// DefaultBase is the base vector for a fresh account.
func DefaultBase() Vector {
	return Vector{
		"speed":      1,
		"power":      1,
		"luck":       0,
		"coinBonus":  0,
		"scoreBonus": 0,
	}
}

// Merge sums every delta vector into a copy of base. Missing and zero
// fields are no-ops.
func Merge(base Vector, deltas ...Vector) Vector {
	out := make(Vector, len(base))
	for k, v := range base {
		out[k] = v
	}
	for _, d := range deltas {
		for k, v := range d {
			if v == 0 {
				continue
			}
			out[k] += v
		}
	}
	return out
}

// Decode parses a serialized stat blob, coercing loosely-typed values.
// Malformed input yields an empty vector rather than an error; a corrupt
// blob must never block settlement.
func Decode(raw string) Vector {
	if raw == "" {
		return Vector{}
	}
	var loose map[string]any
	if err := json.Unmarshal([]byte(raw), &loose); err != nil {
		return Vector{}
	}
	out := make(Vector, len(loose))
	for k, v := range loose {
		out[k] = coerce.Float64(v)
	}
	return out
}

// Encode serializes a vector for the persisted StatsJSON blob.
func Encode(v Vector) string {
	if v == nil {
		v = Vector{}
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(raw)
}
