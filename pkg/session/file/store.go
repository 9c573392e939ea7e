// Package sessionfile persists the session record through the shared
// file-backed key/value store.
package sessionfile

import (
	"context"
	"errors"
	"fmt"

	"github.com/storeops/backoffice/internal/apierr"
	"github.com/storeops/backoffice/internal/kvstore"
	"github.com/storeops/backoffice/pkg/session"
)

const sessionKey = "session"

type Store struct {
	store *kvstore.Store
}

var _ = session.Store(&Store{})

func NewStore(store *kvstore.Store) *Store {
	return &Store{store: store}
}

func (s *Store) Load(ctx context.Context) (session.Session, error) {
	var sess session.Session
	if err := s.store.Load(ctx, sessionKey, &sess); err != nil {
		if errors.Is(err, apierr.ErrNotFound) {
			return session.Session{}, apierr.ErrNotFound
		}
		return session.Session{}, fmt.Errorf("loading session record: %w", err)
	}

	return sess, nil
}

func (s *Store) Persist(ctx context.Context, sess session.Session) error {
	if err := s.store.Set(ctx, sessionKey, sess); err != nil {
		return fmt.Errorf("storing session record: %w", err)
	}

	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	if err := s.store.Delete(ctx, sessionKey); err != nil {
		return fmt.Errorf("deleting session record: %w", err)
	}

	return nil
}
