package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	slogctx "github.com/veqryn/slog-context"

	"github.com/storeops/backoffice/internal/config"
	"github.com/storeops/backoffice/internal/kvstore"
	"github.com/storeops/backoffice/pkg/api"
	"github.com/storeops/backoffice/pkg/listcache"
	"github.com/storeops/backoffice/pkg/session"
	sessionfile "github.com/storeops/backoffice/pkg/session/file"
	"github.com/storeops/backoffice/pkg/transport"
)

// app wires the full client stack: the durable store feeds both the
// session manager and the list cache, the public client serves as the
// manager's refresh endpoint, and the authenticated client rides on
// the manager's credentials.
type app struct {
	cfg     *config.Config
	manager *session.Manager
	public  *api.PublicClient
	client  *api.Client
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	store, err := kvstore.New(cfg.Storage.Dir, cfg.Storage.Prefix)
	if err != nil {
		return nil, fmt.Errorf("opening state store: %w", err)
	}

	sessions := sessionfile.NewStore(store)
	cache := listcache.New(store)

	httpClient := &http.Client{Timeout: cfg.API.Timeout}

	public := api.NewPublic(cfg.API.BaseURL,
		transport.NewPublic(
			transport.WithBase(httpClient),
			transport.WithRetry(cfg.API.MaxRetries, cfg.API.RetryDelay),
		),
		api.WithPlanCache(cache),
	)

	manager := session.NewManager(sessions, public.RefreshFunc())
	if err := manager.Load(ctx); err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}

	authed := transport.NewAuthenticated(manager,
		transport.WithBase(httpClient),
		transport.WithRetry(cfg.API.MaxRetries, cfg.API.RetryDelay),
		transport.WithOnUnauthorized(func() {
			slogctx.Warn(ctx, "Session expired, run `backoffice login` again")
		}),
	)

	return &app{
		cfg:     cfg,
		manager: manager,
		public:  public,
		client:  api.New(cfg.API.BaseURL, authed, api.WithCache(cache)),
	}, nil
}

// refreshIfStale renews the access token ahead of its expiry so the
// first resource call does not pay the 401 round trip. Failure is not
// fatal here; the authenticated transport retries on demand.
func (a *app) refreshIfStale(ctx context.Context) {
	if _, ok := a.manager.AccessToken(); !ok {
		return
	}

	if !a.manager.NeedsRefresh() {
		return
	}

	if _, err := a.manager.RefreshAccessToken(ctx); err != nil {
		slogctx.Debug(ctx, "Proactive token refresh failed", "error", err)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}
