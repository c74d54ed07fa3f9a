package calculator

import (
	"testing"
)

// press feeds a key sequence into m: digits and '.', the four operators,
// '=' for equals, 'C' for clear and '±' for the sign toggle.
func press(t *testing.T, m *Machine, keys string) {
	t.Helper()
	for _, k := range keys {
		switch k {
		case '=':
			m.Equals()
		case 'C':
			m.Clear()
		case '±':
			m.ToggleSign()
		case '+', '−', '×', '÷':
			op, err := ParseOperator(string(k))
			if err != nil {
				t.Fatalf("parsing operator %q: %v", k, err)
			}
			m.Operator(op)
		default:
			if !m.Digit(byte(k)) {
				t.Fatalf("unexpected key %q", k)
			}
		}
	}
}

func check(t *testing.T, m *Machine, equation, display string) {
	t.Helper()
	if m.EquationText() != equation || m.DisplayText() != display {
		t.Fatalf("wrong output\n  got: %q | %q\n want: %q | %q\nstate: %+v",
			m.EquationText(), m.DisplayText(), equation, display, m.Snapshot())
	}
}

func TestMachineScenarios(t *testing.T) {
	tests := []struct {
		name     string
		keys     string
		equation string
		display  string
	}{
		{name: "addition", keys: "2+3=", display: "5"},
		{name: "decimal product", keys: "1.5×2.5=", display: "3.75"},
		{name: "trailing zero stripped", keys: "6×0.4=", display: "2.4"},
		{name: "typed zeros kept", keys: "0.0003", display: "0.0003"},
		{name: "typed trailing zero kept", keys: "0.40", display: "0.40"},
		{name: "leet", keys: "1337", display: "L33T!"},
		{name: "leet as operand", keys: "1337+", equation: "1337 +", display: "L33T!"},
		{name: "chain folds on operator", keys: "1+2+", equation: "3 +", display: "3"},
		{name: "chain completes on equals", keys: "1+2+3=", display: "6"},
		{name: "continue after equals", keys: "2+3=+4=", display: "9"},
		{name: "decimal addition", keys: "1.5+2.5=", display: "4"},
		{name: "subtraction symbol", keys: "9−4", equation: "9 −", display: "4"},
		{name: "computed constant", keys: "1.57×2=", display: "π"},
		{name: "typed constant", keys: "3.14", display: "π"},
		{name: "typed constant continues as typed", keys: "3.14+1=", display: "4.14"},
		{name: "computed constant stays rounded", keys: "1.57×2=+0=", display: "π"},
		{name: "e continues as typed", keys: "2.718×2=", display: "5.436"},
		{name: "leading dot", keys: ".", display: "0."},
		{name: "leading zeros suppressed", keys: "007", display: "7"},
		{name: "double dot ignored", keys: "1.5.", display: "1.5"},
		{name: "equals without pending", keys: "12=", display: "12"},
		{name: "new number after result", keys: "2+3=7", display: "7"},
		{name: "dot after result", keys: "2+3=.5", display: "0.5"},
		{name: "divide by zero", keys: "1÷0=", display: "Infinity"},
		{name: "clear", keys: "12+3C", display: "0"},
		{name: "toggle sign", keys: "12±", display: "-12"},
		{name: "toggle sign twice", keys: "12±±", display: "12"},
		{name: "toggle zero", keys: "±", display: "0"},
		{name: "negative operand", keys: "5±×2=", display: "-10"},
		{name: "toggle keeps typed digits", keys: "0.50±", display: "-0.50"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := NewMachine()
			press(t, m, tc.keys)
			check(t, m, tc.equation, tc.display)
		})
	}
}

func TestMachineSecondDotIsNoop(t *testing.T) {
	m := NewMachine()
	press(t, m, "4.")
	before := m.Snapshot()
	press(t, m, ".")
	if after := m.Snapshot(); after != before {
		t.Fatalf("second dot changed state: %+v -> %+v", before, after)
	}
}

func TestMachineLeetOperandUsesNumericValue(t *testing.T) {
	m := NewMachine()
	press(t, m, "1337+")

	s := m.Snapshot()
	if s.PendingEquation == nil {
		t.Fatal("expected a pending equation")
	}
	if s.PendingEquation.Operand != "1337" || s.PendingEquation.Operator != Add {
		t.Fatalf("unexpected pending equation %+v", *s.PendingEquation)
	}

	press(t, m, "1=")
	check(t, m, "", "1338")
}

func TestMachinePhases(t *testing.T) {
	m := NewMachine()
	steps := []struct {
		keys string
		want Phase
	}{
		{"1", PhaseEntry},
		{"+", PhaseOperator},
		{"2", PhaseOperand},
		{"±", PhaseOperand},
		{"=", PhaseResult},
		{"±", PhaseResult},
		{"3", PhaseEntry},
		{"×", PhaseOperator},
		{"C", PhaseEntry},
	}

	for _, step := range steps {
		press(t, m, step.keys)
		if got := m.Phase(); got != step.want {
			t.Fatalf("after %q: expected phase %v, got %v", step.keys, step.want, got)
		}
		if got := m.Snapshot().ResetOnNextDigit; got != step.want.ResetsOnDigit() {
			t.Fatalf("after %q: reset flag %t does not match phase %v", step.keys, got, step.want)
		}
	}
}

func TestMachineIgnoresInvalidDigit(t *testing.T) {
	m := NewMachine()
	press(t, m, "12")
	if m.Digit('a') {
		t.Fatal("expected 'a' to be rejected")
	}
	check(t, m, "", "12")
}

func TestMachineRestore(t *testing.T) {
	src := NewMachine()
	press(t, src, "4.5×")

	m := NewMachine()
	m.Restore(src.Snapshot())
	check(t, m, "4.5 ×", "4.5")
	if m.Phase() != PhaseOperator {
		t.Fatalf("expected phase %v, got %v", PhaseOperator, m.Phase())
	}

	press(t, m, "2=")
	check(t, m, "", "9")
}

func TestMachineRestoreFallsBack(t *testing.T) {
	tests := []struct {
		name  string
		state State
		input string
		phase Phase
	}{
		{
			name:  "empty input",
			state: State{CurrentInput: ""},
			input: "0",
			phase: PhaseEntry,
		},
		{
			name:  "label in input",
			state: State{CurrentInput: "L33T!", ResetOnNextDigit: true},
			input: "0",
			phase: PhaseResult,
		},
		{
			name:  "two dots",
			state: State{CurrentInput: "1.2.3"},
			input: "0",
			phase: PhaseEntry,
		},
		{
			name:  "label operand dropped",
			state: State{CurrentInput: "5", PendingEquation: &Equation{Operand: "π", Operator: Add}},
			input: "5",
			phase: PhaseEntry,
		},
		{
			name:  "invalid operator dropped",
			state: State{CurrentInput: "5", PendingEquation: &Equation{Operand: "2"}},
			input: "5",
			phase: PhaseEntry,
		},
		{
			name:  "infinity without reset flag",
			state: State{CurrentInput: "Infinity"},
			input: "Infinity",
			phase: PhaseResult,
		},
		{
			name:  "nan with pending equation",
			state: State{CurrentInput: "NaN", PendingEquation: &Equation{Operand: "2", Operator: Add}},
			input: "NaN",
			phase: PhaseOperator,
		},
		{
			name:  "computed infinity kept",
			state: State{CurrentInput: "Infinity", ResetOnNextDigit: true},
			input: "Infinity",
			phase: PhaseResult,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := NewMachine()
			m.Restore(tc.state)
			if m.Input() != tc.input {
				t.Fatalf("expected input %q, got %q", tc.input, m.Input())
			}
			if m.Phase() != tc.phase {
				t.Fatalf("expected phase %v, got %v", tc.phase, m.Phase())
			}
			if m.DisplayText() != ToDisplay(m.Input()) {
				t.Fatalf("display %q not derived from input %q", m.DisplayText(), m.Input())
			}
		})
	}
}

func TestMachineRestoredInfinityStartsNewNumber(t *testing.T) {
	m := NewMachine()
	m.Restore(State{CurrentInput: "Infinity"})

	press(t, m, "5.")
	if m.Input() != "5." {
		t.Fatalf("expected input %q, got %q", "5.", m.Input())
	}
	check(t, m, "", "5.")
}
