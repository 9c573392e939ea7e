package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/storeops/backoffice/pkg/listcache"
	"github.com/storeops/backoffice/pkg/session"
)

const (
	loginPath    = "/api/v1/auth/login"
	refreshPath  = "/api/v1/auth/refresh"
	registerPath = "/api/v1/users/register"
	plansPath    = "/api/v1/plans"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
	TenantID     string `json:"tenantId,omitempty"`
}

// Login exchanges credentials for a full session. A response lacking a
// refresh token is a fatal authentication error, never a degraded
// session.
func (c *PublicClient) Login(ctx context.Context, email, password string) (session.Session, error) {
	s, err := call[session.Session](ctx, c.caller, http.MethodPost, loginPath, loginRequest{
		Email:    email,
		Password: password,
	})
	if err != nil {
		return session.Session{}, fmt.Errorf("logging in: %w", err)
	}

	if err := s.Validate(); err != nil {
		return session.Session{}, err
	}

	return s, nil
}

// Refresh exchanges a refresh token for renewed credentials. Fields
// the backend omits come back empty; the session manager merges them
// over the prior session.
func (c *PublicClient) Refresh(ctx context.Context, refreshToken, tenantID string) (session.Session, error) {
	s, err := call[session.Session](ctx, c.caller, http.MethodPost, refreshPath, refreshRequest{
		RefreshToken: refreshToken,
		TenantID:     tenantID,
	})
	if err != nil {
		return session.Session{}, fmt.Errorf("refreshing session: %w", err)
	}

	return s, nil
}

// RefreshFunc adapts Refresh to the session manager's injection point.
func (c *PublicClient) RefreshFunc() session.RefreshFunc {
	return c.Refresh
}

// Register creates a tenant together with its admin user.
func (c *PublicClient) Register(ctx context.Context, req RegisterRequest) (RegisterResponse, error) {
	resp, err := call[RegisterResponse](ctx, c.caller, http.MethodPost, registerPath, req)
	if err != nil {
		return RegisterResponse{}, fmt.Errorf("registering tenant: %w", err)
	}

	return resp, nil
}

// ListPlans lists the subscription plans. The endpoint is public but
// still benefits from the offline fallback.
func (c *PublicClient) ListPlans(ctx context.Context) ([]Plan, error) {
	fetch := func(ctx context.Context) ([]Plan, error) {
		return call[[]Plan](ctx, c.caller, http.MethodGet, plansPath, nil)
	}

	if c.cache == nil {
		return fetch(ctx)
	}

	return listcache.Fetch(ctx, c.cache, "plans", fetch)
}
