package calculator

import (
	"math"
	"regexp"
	"strconv"
)

// EasterEgg is a literal display substitution for one numeric value.
type EasterEgg struct {
	// Value is the numeric literal the label stands for.
	Value string
	// Label is shown on the display instead of the number.
	Label string
}

// easterEggs is ordered; the first match wins in both directions, so a
// label maps back to the short typed form of its constant.
var easterEggs = []EasterEgg{
	{Value: "1337", Label: "L33T!"},
	{Value: "42", Label: "生命、宇宙、そして万物についての究極の疑問の答え"},
	{Value: "777", Label: "大当たり!🎰"},
	{Value: "3.14", Label: "π"},
	{Value: formatConstant(math.Pi), Label: "π"},
	{Value: "2.718", Label: "e"},
	{Value: formatConstant(math.E), Label: "e"},
	{Value: "1.414", Label: "√2"},
	{Value: formatConstant(math.Sqrt2), Label: "√2"},
}

// namedConstants are matched by value when no literal matches.
var namedConstants = []struct {
	value float64
	label string
}{
	{math.Pi, "π"},
	{math.E, "e"},
	{math.Sqrt2, "√2"},
}

// typedNumeral matches what Digit and ToggleSign can produce.
var typedNumeral = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]*)?$`)

// EasterEggs returns a copy of the substitution table.
func EasterEggs() []EasterEgg {
	out := make([]EasterEgg, len(easterEggs))
	copy(out, easterEggs)
	return out
}

// ToDisplay returns the text shown for a numeric string: an easter egg label
// when one applies, otherwise the number itself.
func ToDisplay(numeric string) string {
	for _, egg := range easterEggs {
		if egg.Value == numeric {
			return egg.Label
		}
	}

	if v, ok := parseNumber(numeric); ok {
		for _, c := range namedConstants {
			if v == c.value {
				return c.label
			}
		}
	}

	// In-progress input is shown exactly as typed.
	if typedNumeral.MatchString(numeric) {
		return numeric
	}
	return Format(numeric)
}

// ToNumeric undoes ToDisplay: a label is replaced by the value of its first
// row, anything else is returned unchanged.
func ToNumeric(display string) string {
	for _, egg := range easterEggs {
		if egg.Label == display {
			return egg.Value
		}
	}
	for _, c := range namedConstants {
		if c.label == display {
			return formatConstant(c.value)
		}
	}
	return display
}

func formatConstant(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
