package session

import (
	"context"
	"errors"
	"sync"
	"time"

	slogctx "github.com/veqryn/slog-context"
	"golang.org/x/sync/singleflight"

	"github.com/storeops/backoffice/internal/apierr"
)

// refreshFlightKey is the single key under which refresh calls are
// deduplicated; there is never more than one refresh in flight.
const refreshFlightKey = "refresh"

// DefaultRefreshLeeway is how close to expiry the access token may get
// before NeedsRefresh asks for a proactive renewal.
const DefaultRefreshLeeway = 5 * time.Minute

// RefreshFunc exchanges a refresh token for a renewed session. The api
// package provides one bound to the public refresh endpoint.
type RefreshFunc func(ctx context.Context, refreshToken, tenantID string) (Session, error)

// Manager owns the in-memory authoritative session and mediates every
// read and write of the durable record. All mutation goes through
// Apply and Reset; other components only ever call the synchronous
// getters.
type Manager struct {
	store   Store
	refresh RefreshFunc
	leeway  time.Duration

	mu      sync.RWMutex
	current *Session

	flight singleflight.Group
}

type ManagerOption func(*Manager)

// WithRefreshLeeway overrides the proactive-refresh window.
func WithRefreshLeeway(d time.Duration) ManagerOption {
	return func(m *Manager) { m.leeway = d }
}

func NewManager(store Store, refresh RefreshFunc, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:   store,
		refresh: refresh,
		leeway:  DefaultRefreshLeeway,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	return m
}

// Load hydrates the in-memory session from the durable store. A
// missing or self-healed record leaves the manager unauthenticated.
func (m *Manager) Load(ctx context.Context) error {
	s, err := m.store.Load(ctx)
	if err != nil {
		if errors.Is(err, apierr.ErrNotFound) {
			return nil
		}
		return err
	}

	if err := s.Validate(); err != nil {
		// an unusable stored record is as good as none; drop it
		slogctx.Debug(ctx, "Clearing incomplete stored session")
		return m.store.Clear(ctx)
	}

	m.mu.Lock()
	m.current = &s
	m.mu.Unlock()

	return nil
}

// AccessToken returns the current access token. It never performs I/O.
func (m *Manager) AccessToken() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return "", false
	}

	return m.current.AccessToken, true
}

// TenantID returns the current tenant identifier. It never performs I/O.
func (m *Manager) TenantID() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return "", false
	}

	return m.current.TenantID, true
}

// Current returns a copy of the session.
func (m *Manager) Current() (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return Session{}, false
	}

	return *m.current, true
}

// Apply validates s, installs it as the in-memory session and then
// persists it. The in-memory value is updated before the durable write
// starts, so concurrent synchronous readers observe the new session
// even while persistence is still in flight. When the durable write
// fails the in-memory copy stays authoritative for this process.
func (m *Manager) Apply(ctx context.Context, s Session) error {
	if err := s.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	m.current = &s
	m.mu.Unlock()

	if err := m.store.Persist(ctx, s); err != nil {
		return errors.Join(errors.New("persisting session"), err)
	}

	return nil
}

// Reset clears the in-memory session and erases the durable record.
// Resetting an already absent session is a no-op.
func (m *Manager) Reset(ctx context.Context) error {
	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()

	return m.store.Clear(ctx)
}

// NeedsRefresh reports whether the access token expires within the
// configured leeway. Opaque tokens report false and rely on the 401
// recovery path instead.
func (m *Manager) NeedsRefresh() bool {
	s, ok := m.Current()
	if !ok {
		return false
	}

	return s.ExpiresWithin(m.leeway)
}

// RefreshAccessToken renews the session and returns the new access
// token. Concurrent callers share a single underlying refresh call and
// all receive its outcome. Any failure terminates the session and is
// reported as apierr.ErrAuthExpired.
func (m *Manager) RefreshAccessToken(ctx context.Context) (string, error) {
	prior, ok := m.Current()
	if !ok || prior.RefreshToken == "" {
		if err := m.Reset(ctx); err != nil {
			slogctx.Warn(ctx, "Failed to clear stored session", "error", err)
		}
		return "", apierr.ErrAuthExpired
	}

	token, err, _ := m.flight.Do(refreshFlightKey, func() (any, error) {
		return m.doRefresh(ctx, prior)
	})
	if err != nil {
		return "", err
	}

	return token.(string), nil
}

func (m *Manager) doRefresh(ctx context.Context, prior Session) (string, error) {
	refreshed, err := m.refresh(ctx, prior.RefreshToken, prior.TenantID)
	if err != nil {
		m.forceLogout(ctx, "refresh call failed", err)
		return "", errors.Join(apierr.ErrAuthExpired, err)
	}

	merged := prior.Merge(refreshed)
	if err := m.Apply(ctx, merged); err != nil {
		m.forceLogout(ctx, "applying refreshed session failed", err)
		return "", errors.Join(apierr.ErrAuthExpired, err)
	}

	slogctx.Debug(ctx, "Refreshed access token")

	return merged.AccessToken, nil
}

func (m *Manager) forceLogout(ctx context.Context, reason string, cause error) {
	slogctx.Info(ctx, "Terminating session", "reason", reason, "error", cause)
	if err := m.Reset(ctx); err != nil {
		slogctx.Warn(ctx, "Failed to clear stored session", "error", err)
	}
}
