package calculator

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownOperator is returned by ParseOperator for unrecognised input.
var ErrUnknownOperator = errors.New("unknown operator")

// Operator is one of the four binary operations.
type Operator uint8

const (
	Add Operator = iota + 1
	Subtract
	Multiply
	Divide
)

// Symbol returns the display symbol used in the equation text.
func (op Operator) Symbol() string {
	switch op {
	case Add:
		return "+"
	case Subtract:
		return "−"
	case Multiply:
		return "×"
	case Divide:
		return "÷"
	default:
		return "?"
	}
}

// String returns the operation name.
func (op Operator) String() string {
	switch op {
	case Add:
		return "add"
	case Subtract:
		return "subtract"
	case Multiply:
		return "multiply"
	case Divide:
		return "divide"
	default:
		return fmt.Sprintf("operator(%d)", uint8(op))
	}
}

// Valid reports whether op is one of the four operations.
func (op Operator) Valid() bool {
	return op >= Add && op <= Divide
}

// apply computes x op y with IEEE double semantics. Division by zero is not
// trapped.
func (op Operator) apply(x, y float64) float64 {
	switch op {
	case Add:
		return x + y
	case Subtract:
		return x - y
	case Multiply:
		return x * y
	case Divide:
		return x / y
	default:
		panic("unknown op")
	}
}

// ParseOperator accepts an operation name, a display symbol or its ASCII
// spelling.
func ParseOperator(s string) (Operator, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "add", "+":
		return Add, nil
	case "subtract", "-", "−":
		return Subtract, nil
	case "multiply", "*", "x", "×":
		return Multiply, nil
	case "divide", "/", "÷":
		return Divide, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownOperator, s)
}

// MarshalText encodes the operator by name.
func (op Operator) MarshalText() ([]byte, error) {
	if !op.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownOperator, uint8(op))
	}
	return []byte(op.String()), nil
}

// UnmarshalText accepts everything ParseOperator does.
func (op *Operator) UnmarshalText(b []byte) error {
	parsed, err := ParseOperator(string(b))
	if err != nil {
		return err
	}
	*op = parsed
	return nil
}
