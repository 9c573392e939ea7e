// Package kvstore is a durable key/value store backed by one JSON file
// per key. It backs the session store and the list cache.
package kvstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	slogctx "github.com/veqryn/slog-context"

	"github.com/storeops/backoffice/internal/apierr"
)

// Envelope wraps every persisted value with the time of the last
// successful write. Staleness is never enforced; UpdatedAt is
// informational.
type Envelope struct {
	Value     json.RawMessage `json:"value"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type Store struct {
	dir    string
	prefix string
}

// New returns a store rooted at dir. Keys are namespaced with prefix,
// mirroring the persisted key shape "<namespace>.<name>".
func New(dir, prefix string) (*Store, error) {
	prefix = strings.TrimSuffix(prefix, ".")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	return &Store{dir: dir, prefix: prefix}, nil
}

// Load reads the value stored under key into decodeInto. A missing
// record yields apierr.ErrNotFound. A record that cannot be parsed is
// deleted and reported as missing, so a corrupt file can never block
// subsequent writes.
func (s *Store) Load(ctx context.Context, key string, decodeInto any) error {
	path := s.path(key)

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return apierr.ErrNotFound
		}
		return fmt.Errorf("reading record: %w", err)
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err == nil {
		err = json.Unmarshal(env.Value, decodeInto)
	}
	if err != nil {
		slogctx.Debug(ctx, "Deleting corrupt record", "key", s.key(key), "error", err)
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			return fmt.Errorf("deleting corrupt record: %w", rmErr)
		}
		return apierr.ErrNotFound
	}

	return nil
}

// LoadedAt returns the UpdatedAt of the record under key, when present.
func (s *Store) LoadedAt(ctx context.Context, key string) (time.Time, error) {
	raw, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return time.Time{}, apierr.ErrNotFound
		}
		return time.Time{}, fmt.Errorf("reading record: %w", err)
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return time.Time{}, apierr.ErrNotFound
	}

	return env.UpdatedAt, nil
}

// Set overwrites the record under key. The write goes through a
// temporary file and a rename so readers never observe a torn record.
func (s *Store) Set(ctx context.Context, key string, val any) error {
	value, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("encoding value: %w", err)
	}

	raw, err := json.Marshal(Envelope{Value: value, UpdatedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("encoding envelope: %w", err)
	}

	path := s.path(key)
	tmp, err := os.CreateTemp(s.dir, filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temp record: %w", err)
	}

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing record: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replacing record: %w", err)
	}

	return nil
}

// Delete removes the record under key. Deleting an absent record is
// not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting record: %w", err)
	}

	return nil
}

func (s *Store) key(key string) string {
	return fmt.Sprintf("%s.%s", s.prefix, key)
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, sanitize(s.key(key))+".json")
}

// sanitize keeps keys filesystem-safe without losing uniqueness for
// the dotted names used here.
func sanitize(key string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, key)
}
