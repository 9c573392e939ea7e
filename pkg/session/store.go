package session

import "context"

// Store persists the single session record across process restarts.
type Store interface {
	// Load returns the stored session, or apierr.ErrNotFound when no
	// usable record exists. Implementations must treat a corrupt
	// record as absent and delete it.
	Load(ctx context.Context) (Session, error)
	// Persist overwrites the stored record.
	Persist(ctx context.Context, session Session) error
	// Clear deletes the stored record; clearing an absent record is
	// not an error.
	Clear(ctx context.Context) error
}
