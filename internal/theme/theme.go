// Package theme holds the light/dark preference of the calculator and the
// system signals that can override it.
package theme

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

var ErrUnknownTheme = errors.New("unknown theme")

// Theme is the colour scheme.
type Theme uint8

const (
	Light Theme = iota
	Dark
)

func (t Theme) String() string {
	if t == Dark {
		return "dark"
	}
	return "light"
}

// FromPreference maps a "prefers dark" signal to a theme.
func FromPreference(dark bool) Theme {
	if dark {
		return Dark
	}
	return Light
}

func ParseTheme(s string) (Theme, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "light":
		return Light, nil
	case "dark":
		return Dark, nil
	}
	return Light, fmt.Errorf("%w: %q", ErrUnknownTheme, s)
}

func (t Theme) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Theme) UnmarshalText(b []byte) error {
	parsed, err := ParseTheme(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Manager holds a theme that can be set manually or by a Source.
type Manager struct {
	mu    sync.Mutex
	theme Theme
}

func NewManager(initial Theme) *Manager {
	return &Manager{theme: initial}
}

func (m *Manager) Theme() Theme {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.theme
}

// Set changes the theme and reports whether it differed.
func (m *Manager) Set(t Theme) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	changed := m.theme != t
	m.theme = t
	return changed
}

// Toggle flips between light and dark and returns the new theme.
func (m *Manager) Toggle() Theme {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.theme == Dark {
		m.theme = Light
	} else {
		m.theme = Dark
	}
	return m.theme
}
