package widget

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"go-chi-calculator/internal/store"
	"go-chi-calculator/internal/theme"
)

// Registry keeps the open sessions of a host, all backed by one store.
type Registry struct {
	store  store.Store
	logger *zap.Logger

	mu           sync.Mutex
	defaultTheme theme.Theme
	sessions     map[string]*Session
}

func NewRegistry(st store.Store, defaultTheme theme.Theme, logger *zap.Logger) *Registry {
	return &Registry{
		store:        st,
		logger:       logger,
		defaultTheme: defaultTheme,
		sessions:     make(map[string]*Session),
	}
}

// Create opens a session under a new random ID.
func (r *Registry) Create(ctx context.Context) (*Session, error) {
	return r.Get(ctx, uuid.New().String())
}

// Get returns the session for id, restoring it from the store on first use.
// id must be a UUID.
func (r *Registry) Get(ctx context.Context, id string) (*Session, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSession, id)
	}
	id = parsed.String()

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[id]; ok {
		return s, nil
	}

	s, err := Open(ctx, id, r.store, r.defaultTheme, r.logger)
	if err != nil {
		return nil, fmt.Errorf("opening session %s: %w", id, err)
	}
	r.sessions[id] = s
	sessionsOpen.Inc()

	r.logger.Debug("session opened", zap.String("session_id", id))
	return s, nil
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// FollowSystemTheme applies the system preference to every open session and
// makes it the default of new ones, now and on each change until ctx is
// done.
func (r *Registry) FollowSystemTheme(ctx context.Context, src theme.Source) {
	r.applySystemTheme(ctx, theme.FromPreference(src.PrefersDark()))
	theme.Watch(ctx, src, func(t theme.Theme) {
		r.applySystemTheme(ctx, t)
	})
}

func (r *Registry) applySystemTheme(ctx context.Context, t theme.Theme) {
	r.mu.Lock()
	r.defaultTheme = t
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.Unlock()

	for _, s := range sessions {
		if _, err := s.SetTheme(ctx, t); err != nil {
			r.logger.Warn("applying system theme",
				zap.String("session_id", s.ID()),
				zap.Error(err),
			)
		}
	}
}
