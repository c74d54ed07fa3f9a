// Package widget hosts calculator sessions: each session owns a state
// machine, persists it after every operation and carries a theme.
package widget

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"go-chi-calculator/internal/calculator"
	"go-chi-calculator/internal/store"
	"go-chi-calculator/internal/theme"
)

var (
	ErrUnknownKey     = errors.New("unknown key")
	ErrInvalidSession = errors.New("invalid session id")
	errPersist        = errors.New("persisting session")
)

// Stable per-session store keys.
const (
	keyCurrentInput     = "calculator.currentInput"
	keyDisplayValue     = "calculator.displayValue"
	keyPendingEquation  = "calculator.pendingEquation"
	keyResetOnNextDigit = "calculator.resetOnNextDigit"
	keyTheme            = "theme"
)

// View is what a host renders after each operation.
type View struct {
	SessionID string      `json:"session_id"`
	Equation  string      `json:"equation"`
	Display   string      `json:"display"`
	Theme     theme.Theme `json:"theme"`
}

// Session serializes access to one calculator. Its operations are safe for
// concurrent use.
type Session struct {
	id     string
	store  store.Store
	logger *zap.Logger

	mu      sync.Mutex
	machine *calculator.Machine
	theme   *theme.Manager
}

// Open restores session id from st. Missing entries and entries that are
// not valid JSON fall back to their defaults; only store failures are
// returned.
func Open(ctx context.Context, id string, st store.Store, defaultTheme theme.Theme, logger *zap.Logger) (*Session, error) {
	s := &Session{
		id:      id,
		store:   st,
		logger:  logger.With(zap.String("session_id", id)),
		machine: calculator.NewMachine(),
	}

	state := calculator.State{CurrentInput: "0"}
	if err := load(ctx, s, keyCurrentInput, &state.CurrentInput); err != nil {
		return nil, err
	}
	if err := load(ctx, s, keyDisplayValue, &state.DisplayValue); err != nil {
		return nil, err
	}
	if err := load(ctx, s, keyPendingEquation, &state.PendingEquation); err != nil {
		return nil, err
	}
	if err := load(ctx, s, keyResetOnNextDigit, &state.ResetOnNextDigit); err != nil {
		return nil, err
	}
	s.machine.Restore(state)

	t := defaultTheme
	if err := load(ctx, s, keyTheme, &t); err != nil {
		return nil, err
	}
	s.theme = theme.NewManager(t)

	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// View returns the current output.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Digit presses '0'-'9' or '.'.
func (s *Session) Digit(ctx context.Context, d byte) (View, error) {
	var accepted bool
	view, err := s.apply(ctx, func(m *calculator.Machine) bool {
		accepted = m.Digit(d)
		return accepted
	})
	if !accepted {
		return view, fmt.Errorf("%w: %q", ErrUnknownKey, d)
	}
	return view, err
}

// Operator presses one of the four operator keys.
func (s *Session) Operator(ctx context.Context, op calculator.Operator) (View, error) {
	if !op.Valid() {
		return s.View(), fmt.Errorf("%w: %v", calculator.ErrUnknownOperator, op)
	}
	return s.apply(ctx, func(m *calculator.Machine) bool {
		m.Operator(op)
		return true
	})
}

// Equals presses '='.
func (s *Session) Equals(ctx context.Context) (View, error) {
	return s.apply(ctx, func(m *calculator.Machine) bool {
		m.Equals()
		return true
	})
}

// Clear presses 'C'.
func (s *Session) Clear(ctx context.Context) (View, error) {
	return s.apply(ctx, func(m *calculator.Machine) bool {
		m.Clear()
		return true
	})
}

// ToggleSign presses '±'.
func (s *Session) ToggleSign(ctx context.Context) (View, error) {
	return s.apply(ctx, func(m *calculator.Machine) bool {
		m.ToggleSign()
		return true
	})
}

// SetTheme changes the theme and persists it.
func (s *Session) SetTheme(ctx context.Context, t theme.Theme) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.theme.Set(t)
	err := s.save(ctx, keyTheme, t)
	return s.viewLocked(), err
}

// ToggleTheme flips the theme and persists it.
func (s *Session) ToggleTheme(ctx context.Context) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.theme.Toggle()
	err := s.save(ctx, keyTheme, t)
	return s.viewLocked(), err
}

// apply runs fn on the machine and persists the result when fn reports a
// state change.
func (s *Session) apply(ctx context.Context, fn func(*calculator.Machine) bool) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !fn(s.machine) {
		return s.viewLocked(), nil
	}
	err := s.persist(ctx)
	return s.viewLocked(), err
}

func (s *Session) viewLocked() View {
	return View{
		SessionID: s.id,
		Equation:  s.machine.EquationText(),
		Display:   s.machine.DisplayText(),
		Theme:     s.theme.Theme(),
	}
}

func (s *Session) persist(ctx context.Context) error {
	state := s.machine.Snapshot()
	if err := s.save(ctx, keyCurrentInput, state.CurrentInput); err != nil {
		return err
	}
	if err := s.save(ctx, keyDisplayValue, state.DisplayValue); err != nil {
		return err
	}
	if err := s.save(ctx, keyPendingEquation, state.PendingEquation); err != nil {
		return err
	}
	return s.save(ctx, keyResetOnNextDigit, state.ResetOnNextDigit)
}

func (s *Session) key(field string) string {
	return s.id + ":" + field
}

func (s *Session) save(ctx context.Context, field string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: encoding %s: %v", errPersist, field, err)
	}
	if err := s.store.Save(ctx, s.key(field), b); err != nil {
		return fmt.Errorf("%w: %w", errPersist, err)
	}
	return nil
}

// load decodes a stored field into dst. dst is left untouched when the key
// is absent or its value does not decode.
func load[T any](ctx context.Context, s *Session, field string, dst *T) error {
	raw, ok, err := s.store.Load(ctx, s.key(field))
	if err != nil {
		return fmt.Errorf("loading %s: %w", field, err)
	}
	if !ok {
		return nil
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		s.logger.Debug("ignoring corrupt stored value",
			zap.String("key", field),
			zap.Error(err),
		)
		return nil
	}
	*dst = v
	return nil
}
