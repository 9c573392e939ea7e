package sessionmock

import (
	"context"
	"sync"

	"github.com/storeops/backoffice/internal/apierr"
	"github.com/storeops/backoffice/pkg/session"
)

type StoreOption func(*Store)

// Store is an in-memory session.Store for tests, with injectable
// failures per operation.
type Store struct {
	mu      sync.Mutex
	current *session.Session

	loadErr, persistErr, clearErr error

	persistCalls int
	clearCalls   int
}

func WithSession(s session.Session) StoreOption {
	return func(st *Store) { st.current = &s }
}
func WithLoadError(err error) StoreOption {
	return func(st *Store) { st.loadErr = err }
}
func WithPersistError(err error) StoreOption {
	return func(st *Store) { st.persistErr = err }
}
func WithClearError(err error) StoreOption {
	return func(st *Store) { st.clearErr = err }
}

var _ = session.Store(&Store{})

func NewInMemStore(opts ...StoreOption) *Store {
	st := &Store{}
	for _, opt := range opts {
		if opt != nil {
			opt(st)
		}
	}

	return st
}

func (st *Store) Load(_ context.Context) (session.Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.loadErr != nil {
		return session.Session{}, st.loadErr
	}
	if st.current == nil {
		return session.Session{}, apierr.ErrNotFound
	}

	return *st.current, nil
}

func (st *Store) Persist(_ context.Context, s session.Session) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.persistCalls++
	if st.persistErr != nil {
		return st.persistErr
	}
	st.current = &s

	return nil
}

func (st *Store) Clear(_ context.Context) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.clearCalls++
	if st.clearErr != nil {
		return st.clearErr
	}
	st.current = nil

	return nil
}

// TCurrent exposes the stored record for assertions.
func (st *Store) TCurrent() (session.Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.current == nil {
		return session.Session{}, false
	}

	return *st.current, true
}

// TPersistCalls reports how many times Persist ran.
func (st *Store) TPersistCalls() int {
	st.mu.Lock()
	defer st.mu.Unlock()

	return st.persistCalls
}

// TClearCalls reports how many times Clear ran.
func (st *Store) TClearCalls() int {
	st.mu.Lock()
	defer st.mu.Unlock()

	return st.clearCalls
}
