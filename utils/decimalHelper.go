package utils

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Round2 rounds to 2 decimal places, half away from zero. This is the cent
// rounding used for every derived invoice value.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ParseDecimal parses a user-entered amount. Accepts common formatted strings
// like:
// - "20,000"
// - "Rs 20,000"
// - "INR -20,000"
// - "₹ 20000"
//
// Keeps digits, '.', and a leading '-' only.
func ParseDecimal(i interface{}) (decimal.Decimal, error) {
	switch v := i.(type) {
	case string:
		s := strings.TrimSpace(v)
		if s != "" {
			s = strings.ReplaceAll(s, ",", "")
			s = strings.ReplaceAll(s, "INR", "")
			s = strings.ReplaceAll(s, "inr", "")
			s = strings.ReplaceAll(s, "Rs", "")
			s = strings.ReplaceAll(s, "rs", "")
			s = strings.ReplaceAll(s, "₹", "")
			s = strings.TrimSpace(s)
		}
		neg := false
		if strings.HasPrefix(s, "-") {
			neg = true
			s = strings.TrimSpace(strings.TrimPrefix(s, "-"))
		}
		var b strings.Builder
		b.Grow(len(s) + 1)
		for _, r := range s {
			if (r >= '0' && r <= '9') || r == '.' {
				b.WriteRune(r)
			}
		}
		clean := b.String()
		if clean == "" {
			return decimal.NewFromInt(0), fmt.Errorf("invalid value")
		}
		if neg {
			clean = "-" + clean
		}
		return decimal.NewFromString(clean)
	case json.Number:
		num, err := v.Float64()
		if err != nil {
			return decimal.NewFromInt(0), err
		}
		return decimal.NewFromFloat(num), nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.NewFromInt(0), fmt.Errorf("non-finite value")
		}
		return decimal.NewFromFloat(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case decimal.Decimal:
		return v, nil
	case nil:
		return decimal.NewFromInt(0), fmt.Errorf("missing value")
	default:
		return decimal.NewFromInt(0), fmt.Errorf("invalid value")
	}
}

// CoerceDecimal is the forgiving variant used inside the computation engine:
// non-finite, missing or malformed values degrade to zero so a momentarily
// wrong total never blocks the user.
func CoerceDecimal(i interface{}) decimal.Decimal {
	d, err := ParseDecimal(i)
	if err != nil {
		return decimal.Zero
	}
	return d
}
