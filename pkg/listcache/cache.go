// Package listcache keeps the last successfully fetched collection per
// logical resource so a failed refresh never blanks a screen that had
// data. Values are cached on success and served on fetch failure; no
// TTL applies, a stale list beats no list.
package listcache

import (
	"context"

	gocache "github.com/patrickmn/go-cache"
	slogctx "github.com/veqryn/slog-context"

	"github.com/storeops/backoffice/internal/kvstore"
)

type Cache struct {
	mem     *gocache.Cache
	durable *kvstore.Store
}

func New(durable *kvstore.Store) *Cache {
	return &Cache{
		mem:     gocache.New(gocache.NoExpiration, 0),
		durable: durable,
	}
}

// Fetch runs fetch and caches its result under key. When fetch fails
// it falls back to the in-memory copy, then to the durable record; a
// corrupt durable record counts as a miss. With no fallback available
// the original fetch error propagates.
func Fetch[T any](ctx context.Context, c *Cache, key string, fetch func(context.Context) ([]T, error)) ([]T, error) {
	fresh, fetchErr := fetch(ctx)
	if fetchErr == nil {
		c.mem.Set(key, fresh, gocache.NoExpiration)
		if err := c.durable.Set(ctx, durableKey(key), fresh); err != nil {
			// the fetch succeeded; a failed cache write only costs the
			// next offline fallback
			slogctx.Warn(ctx, "Failed to persist cached list", "key", key, "error", err)
		}
		return fresh, nil
	}

	if v, ok := c.mem.Get(key); ok {
		if cached, ok := v.([]T); ok {
			slogctx.Debug(ctx, "Serving list from memory cache", "key", key, "error", fetchErr)
			return cached, nil
		}
	}

	var cached []T
	if err := c.durable.Load(ctx, durableKey(key), &cached); err == nil {
		c.mem.Set(key, cached, gocache.NoExpiration)
		slogctx.Debug(ctx, "Serving list from durable cache", "key", key, "error", fetchErr)
		return cached, nil
	}

	return nil, fetchErr
}

func durableKey(key string) string {
	return "cache." + key
}
