package widget

import (
	"context"
	"fmt"
	"unicode"

	"go-chi-calculator/internal/calculator"
)

// KeyKind is the kind of keypad button.
type KeyKind uint8

const (
	KeyDigit KeyKind = iota
	KeyOperator
	KeyEquals
	KeyClear
	KeyToggleSign
)

// Key is one keypad button press.
type Key struct {
	Kind     KeyKind
	Digit    byte
	Operator calculator.Operator
}

// String names the key for logs and span names.
func (k Key) String() string {
	switch k.Kind {
	case KeyDigit:
		if k.Digit == '.' {
			return "digit.point"
		}
		return "digit." + string(k.Digit)
	case KeyOperator:
		return "operator." + k.Operator.String()
	case KeyEquals:
		return "equals"
	case KeyClear:
		return "clear"
	case KeyToggleSign:
		return "toggle_sign"
	default:
		return "unknown"
	}
}

// ParseKeys reads a key sequence such as "12+3=". Digits and '.', the
// operators + - − * x × / ÷, '=' for equals, 'c' for clear and 'n' or '±'
// for the sign toggle are understood; whitespace is skipped.
func ParseKeys(s string) ([]Key, error) {
	keys := make([]Key, 0, len(s))
	for i, r := range s {
		switch {
		case unicode.IsSpace(r):
			continue
		case r == '.' || (r >= '0' && r <= '9'):
			keys = append(keys, Key{Kind: KeyDigit, Digit: byte(r)})
		case r == '=':
			keys = append(keys, Key{Kind: KeyEquals})
		case r == 'c' || r == 'C':
			keys = append(keys, Key{Kind: KeyClear})
		case r == 'n' || r == 'N' || r == '±':
			keys = append(keys, Key{Kind: KeyToggleSign})
		default:
			op, err := calculator.ParseOperator(string(r))
			if err != nil {
				return nil, fmt.Errorf("%w %q at offset %d", ErrUnknownKey, r, i)
			}
			keys = append(keys, Key{Kind: KeyOperator, Operator: op})
		}
	}
	return keys, nil
}

// Press dispatches one key to the session.
func (s *Session) Press(ctx context.Context, k Key) (View, error) {
	switch k.Kind {
	case KeyDigit:
		return s.Digit(ctx, k.Digit)
	case KeyOperator:
		return s.Operator(ctx, k.Operator)
	case KeyEquals:
		return s.Equals(ctx)
	case KeyClear:
		return s.Clear(ctx)
	case KeyToggleSign:
		return s.ToggleSign(ctx)
	default:
		return s.View(), fmt.Errorf("%w: kind %d", ErrUnknownKey, k.Kind)
	}
}
