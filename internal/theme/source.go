package theme

import (
	"context"
	"sync"
)

// Source is a system "prefers dark" signal with change notification.
type Source interface {
	PrefersDark() bool
	// Changes delivers the new preference after each change.
	Changes() <-chan bool
}

// Watch calls fn for every change reported by src until ctx is done or the
// change channel is closed.
func Watch(ctx context.Context, src Source, fn func(Theme)) {
	changes := src.Changes()
	for {
		select {
		case <-ctx.Done():
			return
		case dark, ok := <-changes:
			if !ok {
				return
			}
			fn(FromPreference(dark))
		}
	}
}

// Static is a Source whose value only changes through Set.
type Static struct {
	mu      sync.Mutex
	dark    bool
	changes chan bool
}

func NewStatic(dark bool) *Static {
	return &Static{dark: dark, changes: make(chan bool, 1)}
}

func (s *Static) PrefersDark() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dark
}

func (s *Static) Changes() <-chan bool {
	return s.changes
}

// Set updates the preference. Only the latest unread value is kept.
func (s *Static) Set(dark bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dark == dark {
		return
	}
	s.dark = dark
	select {
	case <-s.changes:
	default:
	}
	s.changes <- dark
}
