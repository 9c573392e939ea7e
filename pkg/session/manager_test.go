package session_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storeops/backoffice/internal/apierr"
	"github.com/storeops/backoffice/pkg/session"
	sessionmock "github.com/storeops/backoffice/pkg/session/mock"
)

var testSession = session.Session{
	AccessToken:  "A",
	RefreshToken: "R",
	TenantID:     "T",
	Email:        "owner@shop.example",
	Role:         "ADMIN",
	TokenType:    "Bearer",
}

func staticRefresh(s session.Session, err error) session.RefreshFunc {
	return func(context.Context, string, string) (session.Session, error) {
		return s, err
	}
}

func TestManager_Load(t *testing.T) {
	tests := []struct {
		name     string
		store    *sessionmock.Store
		wantErr  bool
		wantAuth bool
	}{
		{
			name:     "stored session restored",
			store:    sessionmock.NewInMemStore(sessionmock.WithSession(testSession)),
			wantAuth: true,
		},
		{
			name:  "absent record leaves manager unauthenticated",
			store: sessionmock.NewInMemStore(),
		},
		{
			name: "incomplete record is dropped",
			store: sessionmock.NewInMemStore(
				sessionmock.WithSession(session.Session{AccessToken: "A"}),
			),
		},
		{
			name:    "store failure propagates",
			store:   sessionmock.NewInMemStore(sessionmock.WithLoadError(errors.New("disk gone"))),
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := session.NewManager(tt.store, staticRefresh(session.Session{}, nil))

			err := m.Load(context.Background())
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			_, ok := m.AccessToken()
			assert.Equal(t, tt.wantAuth, ok)
		})
	}
}

func TestManager_ApplyUpdatesMemoryBeforePersist(t *testing.T) {
	store := newBlockingStore()
	m := session.NewManager(store, staticRefresh(session.Session{}, nil))

	done := make(chan error, 1)
	go func() {
		done <- m.Apply(context.Background(), testSession)
	}()

	// the durable write has started but not finished; the in-memory
	// session must already be visible
	<-store.entered
	token, ok := m.AccessToken()
	assert.True(t, ok)
	assert.Equal(t, "A", token)

	tenant, ok := m.TenantID()
	assert.True(t, ok)
	assert.Equal(t, "T", tenant)

	close(store.release)
	require.NoError(t, <-done)
}

func TestManager_ApplyRejectsIncompleteSession(t *testing.T) {
	store := sessionmock.NewInMemStore()
	m := session.NewManager(store, staticRefresh(session.Session{}, nil))

	err := m.Apply(context.Background(), session.Session{AccessToken: "A"})
	assert.ErrorIs(t, err, apierr.ErrIncompleteSession)

	_, ok := m.AccessToken()
	assert.False(t, ok, "incomplete session must not be installed")
	assert.Zero(t, store.TPersistCalls(), "incomplete session must not be persisted")
}

func TestManager_ResetIsIdempotent(t *testing.T) {
	store := sessionmock.NewInMemStore(sessionmock.WithSession(testSession))
	m := session.NewManager(store, staticRefresh(session.Session{}, nil))
	require.NoError(t, m.Load(context.Background()))

	require.NoError(t, m.Reset(context.Background()))
	require.NoError(t, m.Reset(context.Background()))

	_, ok := m.AccessToken()
	assert.False(t, ok)
	_, ok = store.TCurrent()
	assert.False(t, ok)
}

func TestManager_RefreshAccessToken(t *testing.T) {
	tests := []struct {
		name      string
		prior     *session.Session
		refreshed session.Session
		refreshEr error
		wantToken string
		wantErr   error
		wantKept  bool
	}{
		{
			name:      "merges refreshed fields over prior session",
			prior:     &testSession,
			refreshed: session.Session{AccessToken: "A2"},
			wantToken: "A2",
			wantKept:  true,
		},
		{
			name:      "refresh endpoint failure terminates session",
			prior:     &testSession,
			refreshEr: errors.New("boom"),
			wantErr:   apierr.ErrAuthExpired,
		},
		{
			name:    "no session at all",
			wantErr: apierr.ErrAuthExpired,
		},
		{
			name:    "session without refresh token",
			prior:   &session.Session{AccessToken: "A", RefreshToken: "", TenantID: "T"},
			wantErr: apierr.ErrAuthExpired,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := []sessionmock.StoreOption{}
			if tt.prior != nil {
				opts = append(opts, sessionmock.WithSession(*tt.prior))
			}
			store := sessionmock.NewInMemStore(opts...)

			m := session.NewManager(store, staticRefresh(tt.refreshed, tt.refreshEr))
			require.NoError(t, m.Load(context.Background()))

			token, err := m.RefreshAccessToken(context.Background())
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				_, ok := m.AccessToken()
				assert.False(t, ok, "failed refresh must log the user out")
				_, ok = store.TCurrent()
				assert.False(t, ok, "failed refresh must erase the stored record")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantToken, token)

			if tt.wantKept {
				got, ok := store.TCurrent()
				require.True(t, ok)
				assert.Equal(t, "A2", got.AccessToken)
				assert.Equal(t, testSession.RefreshToken, got.RefreshToken)
				assert.Equal(t, testSession.TenantID, got.TenantID)
			}
		})
	}
}

func TestManager_RefreshAccessToken_SingleFlight(t *testing.T) {
	const concurrency = 8

	var calls atomic.Int32
	release := make(chan struct{})

	store := sessionmock.NewInMemStore(sessionmock.WithSession(testSession))
	m := session.NewManager(store, func(context.Context, string, string) (session.Session, error) {
		calls.Add(1)
		<-release
		return session.Session{AccessToken: "A2"}, nil
	})
	require.NoError(t, m.Load(context.Background()))

	var ready, done sync.WaitGroup
	tokens := make([]string, concurrency)
	errs := make([]error, concurrency)
	start := make(chan struct{})

	for i := 0; i < concurrency; i++ {
		i := i
		ready.Add(1)
		done.Add(1)
		go func() {
			defer done.Done()
			ready.Done()
			<-start
			tokens[i], errs[i] = m.RefreshAccessToken(context.Background())
		}()
	}

	ready.Wait()
	close(start)
	// let every caller reach the shared flight before the refresh
	// endpoint is allowed to answer
	time.Sleep(50 * time.Millisecond)
	close(release)
	done.Wait()

	assert.Equal(t, int32(1), calls.Load(), "concurrent refreshes must share one endpoint call")
	for i := 0; i < concurrency; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "A2", tokens[i])
	}

	// a later refresh starts a fresh flight
	_, err := m.RefreshAccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestManager_RefreshAccessToken_PersistFailureTerminates(t *testing.T) {
	store := sessionmock.NewInMemStore(
		sessionmock.WithSession(testSession),
		sessionmock.WithPersistError(errors.New("disk full")),
	)
	m := session.NewManager(store, staticRefresh(session.Session{AccessToken: "A2"}, nil))
	require.NoError(t, m.Load(context.Background()))

	_, err := m.RefreshAccessToken(context.Background())
	assert.ErrorIs(t, err, apierr.ErrAuthExpired)

	_, ok := m.AccessToken()
	assert.False(t, ok)
}

// blockingStore parks Persist until released so tests can observe the
// manager state mid-write.
type blockingStore struct {
	enteredOnce sync.Once
	entered     chan struct{}
	release     chan struct{}
}

func newBlockingStore() *blockingStore {
	return &blockingStore{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (b *blockingStore) Load(context.Context) (session.Session, error) {
	return session.Session{}, apierr.ErrNotFound
}

func (b *blockingStore) Persist(context.Context, session.Session) error {
	b.enteredOnce.Do(func() { close(b.entered) })
	<-b.release
	return nil
}

func (b *blockingStore) Clear(context.Context) error { return nil }
