package calculator

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// minDecimalPlaces is the floor applied by DecimalPlacesFor. Two one-decimal
// operands need two places to hold their product.
const minDecimalPlaces = 2

// Format renders a numeric string for display without a target precision.
// The fractional digits of the shortest round-trip conversion are kept as
// they are. Empty or unparseable input yields "0".
func Format(numeric string) string {
	v, ok := parseNumber(numeric)
	if !ok {
		return "0"
	}
	if s, done := formatSpecial(v); done {
		return s
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatFixed renders a computed result at most places fractional digits.
// The fraction is padded or truncated to places, then trailing zeros are
// stripped; an empty fraction gives the integer form.
func FormatFixed(numeric string, places int) string {
	v, ok := parseNumber(numeric)
	if !ok {
		return "0"
	}
	if s, done := formatSpecial(v); done {
		return s
	}

	intPart, frac, _ := strings.Cut(strconv.FormatFloat(v, 'f', -1, 64), ".")
	if places < 0 {
		places = 0
	}
	if len(frac) < places {
		frac += strings.Repeat("0", places-len(frac))
	}
	frac = strings.TrimRight(frac[:places], "0")
	if frac == "" {
		return intPart
	}
	return intPart + "." + frac
}

// DecimalPlacesFor returns the largest number of fractional digits among
// operands, but never less than two.
func DecimalPlacesFor(operands ...string) int {
	places := 0
	for _, op := range operands {
		if _, frac, ok := strings.Cut(op, "."); ok && len(frac) > places {
			places = len(frac)
		}
	}
	return max(places, minDecimalPlaces)
}

// Apply computes operand op value and returns the canonical result string.
// The raw double result is rounded half away from zero at
// DecimalPlacesFor(operand, value) fractional digits.
func Apply(operand string, op Operator, value string) string {
	places := DecimalPlacesFor(operand, value)

	x, _ := parseNumber(operand)
	y, _ := parseNumber(value)
	raw := op.apply(x, y)

	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return FormatFixed(strconv.FormatFloat(raw, 'f', -1, 64), places)
	}

	rounded := decimal.NewFromFloat(raw).Round(int32(places))
	return FormatFixed(rounded.String(), places)
}

// parseNumber parses a decimal numeral. A trailing '.' is accepted.
func parseNumber(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// formatSpecial handles values that never carry a fraction.
func formatSpecial(v float64) (string, bool) {
	switch {
	case math.IsNaN(v):
		return "NaN", true
	case math.IsInf(v, 1):
		return "Infinity", true
	case math.IsInf(v, -1):
		return "-Infinity", true
	case v == 0:
		return "0", true
	case v == math.Trunc(v):
		return strconv.FormatFloat(v, 'f', -1, 64), true
	}
	return "", false
}
