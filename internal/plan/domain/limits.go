package domain

import (
	"encoding/json"
	"math"
	"regexp"
	"strings"

	"gorm.io/datatypes"
)

var limitNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_]{0,63}$`)

// DecodeLimits converts a stored limits document into integer limits.
// Entries that are not whole numbers are skipped. A nil document decodes to
// an empty, non-nil map.
func DecodeLimits(raw datatypes.JSONMap) map[string]int64 {
	out := make(map[string]int64, len(raw))
	for name, value := range raw {
		if n, ok := asInt64(value); ok {
			out[name] = n
		}
	}
	return out
}

// EncodeLimits validates limit names and values for storage.
func EncodeLimits(limits map[string]int64) (datatypes.JSONMap, error) {
	out := make(datatypes.JSONMap, len(limits))
	for name, value := range limits {
		normalized := strings.ToLower(strings.TrimSpace(name))
		if !limitNamePattern.MatchString(normalized) {
			return nil, ErrInvalidLimitName
		}
		if value < 0 {
			return nil, ErrInvalidLimitValue
		}
		out[normalized] = value
	}
	return out, nil
}

func asInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) || v >= math.MaxInt64 || v < math.MinInt64 {
			return 0, false
		}
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	default:
		return 0, false
	}
}
