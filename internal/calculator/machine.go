package calculator

import (
	"strings"
)

// Phase combines the presence of a pending equation with the
// reset-on-next-digit flag. Only these four combinations exist.
type Phase uint8

const (
	// PhaseEntry: no pending equation, digits extend the input.
	PhaseEntry Phase = iota
	// PhaseResult: no pending equation, the next digit starts a new number.
	PhaseResult
	// PhaseOperator: an operator was just chosen, the next digit starts
	// the second operand.
	PhaseOperator
	// PhaseOperand: the second operand is being typed.
	PhaseOperand
)

func (p Phase) String() string {
	switch p {
	case PhaseEntry:
		return "entry"
	case PhaseResult:
		return "result"
	case PhaseOperator:
		return "operator"
	case PhaseOperand:
		return "operand"
	default:
		return "unknown"
	}
}

// Pending reports whether an equation awaits its second operand.
func (p Phase) Pending() bool {
	return p == PhaseOperator || p == PhaseOperand
}

// ResetsOnDigit reports whether the next digit replaces the input.
func (p Phase) ResetsOnDigit() bool {
	return p == PhaseResult || p == PhaseOperator
}

func phaseOf(pending, reset bool) Phase {
	switch {
	case pending && reset:
		return PhaseOperator
	case pending:
		return PhaseOperand
	case reset:
		return PhaseResult
	default:
		return PhaseEntry
	}
}

// Equation is a chosen operator with its first operand.
type Equation struct {
	Operand  string   `json:"operand"`
	Operator Operator `json:"operator"`
}

// State is the persisted form of a Machine.
type State struct {
	CurrentInput     string
	DisplayValue     string
	PendingEquation  *Equation
	ResetOnNextDigit bool
}

// Machine is the calculator input state machine. It is not safe for
// concurrent use; callers serialize access.
type Machine struct {
	input   string
	display string
	phase   Phase
	pending Equation // valid only while phase.Pending()
}

// NewMachine returns a machine in its initial state.
func NewMachine() *Machine {
	m := &Machine{}
	m.Clear()
	return m
}

// Digit handles '0'-'9' and '.'. It reports whether d was a keypad digit;
// other bytes are ignored. A second decimal point is silently dropped.
func (m *Machine) Digit(d byte) bool {
	if d != '.' && (d < '0' || d > '9') {
		return false
	}

	if m.phase.ResetsOnDigit() {
		if d == '.' {
			m.input = "0."
		} else {
			m.input = string(d)
		}
		m.phase = phaseOf(m.phase.Pending(), false)
		m.refresh()
		return true
	}

	switch {
	case d == '.' && strings.Contains(m.input, "."):
		return true
	case d == '.' && m.input == "0":
		m.input = "0."
	case m.input == "0":
		m.input = string(d)
	default:
		m.input += string(d)
	}
	m.refresh()
	return true
}

// Operator chooses op. A pending equation is folded first, so that
// 1 + 2 + evaluates left to right.
func (m *Machine) Operator(op Operator) {
	value := ToNumeric(m.display)
	if m.phase.Pending() {
		result := Apply(m.pending.Operand, m.pending.Operator, value)
		m.input = result
		m.refresh()
		value = result
	}
	m.pending = Equation{Operand: value, Operator: op}
	m.phase = PhaseOperator
}

// Equals evaluates the pending equation. Without one it does nothing.
func (m *Machine) Equals() {
	if !m.phase.Pending() {
		return
	}
	m.input = Apply(m.pending.Operand, m.pending.Operator, ToNumeric(m.display))
	m.pending = Equation{}
	m.phase = PhaseResult
	m.refresh()
}

// Clear resets the machine.
func (m *Machine) Clear() {
	m.input = "0"
	m.pending = Equation{}
	m.phase = PhaseEntry
	m.refresh()
}

// ToggleSign negates the current input. The digits are kept as typed.
func (m *Machine) ToggleSign() {
	switch {
	case m.input == "0" || m.input == "NaN":
		return
	case strings.HasPrefix(m.input, "-"):
		m.input = m.input[1:]
	default:
		m.input = "-" + m.input
	}
	m.refresh()
}

// EquationText returns "<operand> <symbol>" or "" without a pending
// equation.
func (m *Machine) EquationText() string {
	if !m.phase.Pending() {
		return ""
	}
	return m.pending.Operand + " " + m.pending.Operator.Symbol()
}

// DisplayText returns what the screen shows.
func (m *Machine) DisplayText() string {
	return m.display
}

// Input returns the canonical numeric string behind the display.
func (m *Machine) Input() string {
	return m.input
}

// Phase returns the current phase.
func (m *Machine) Phase() Phase {
	return m.phase
}

// Snapshot returns the state to persist.
func (m *Machine) Snapshot() State {
	s := State{
		CurrentInput:     m.input,
		DisplayValue:     m.display,
		ResetOnNextDigit: m.phase.ResetsOnDigit(),
	}
	if m.phase.Pending() {
		eq := m.pending
		s.PendingEquation = &eq
	}
	return s
}

// Restore loads a persisted state. Invalid parts fall back to their
// defaults and the display is derived again from the input.
func (m *Machine) Restore(s State) {
	m.input = "0"
	if validNumeric(s.CurrentInput) {
		m.input = s.CurrentInput
	}

	m.pending = Equation{}
	pending := false
	if eq := s.PendingEquation; eq != nil && eq.Operator.Valid() && validNumeric(eq.Operand) {
		m.pending = *eq
		pending = true
	}
	// Digits never extend a non-finite result.
	reset := s.ResetOnNextDigit || !finite(m.input)
	m.phase = phaseOf(pending, reset)
	m.refresh()
}

func finite(s string) bool {
	return s != "Infinity" && s != "-Infinity" && s != "NaN"
}

func (m *Machine) refresh() {
	m.display = ToDisplay(m.input)
}

// validNumeric accepts typed numerals and the canonical forms of computed
// results, but never a display label.
func validNumeric(s string) bool {
	if strings.Count(s, ".") > 1 {
		return false
	}
	if typedNumeral.MatchString(s) {
		return true
	}
	_, ok := parseNumber(s)
	return ok && Format(s) == s
}
