package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/storeops/backoffice/internal/apierr"
)

// Session is the authoritative credential record for one tenant user.
// It is either fully usable or absent; a partial session is never
// valid for authenticated calls.
type Session struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TenantID     string `json:"tenantId"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	TokenType    string `json:"tokenType"`
}

// Validate reports whether the session may be used and persisted.
// A missing refresh token is fatal: without it the session can never
// be renewed, so it must not be stored.
func (s Session) Validate() error {
	if s.AccessToken == "" || s.RefreshToken == "" {
		return apierr.ErrIncompleteSession
	}

	return nil
}

// Merge combines a refresh outcome into the receiver. The refreshed
// access token always wins; every other field falls back to the prior
// value when the refresh response omitted it.
func (s Session) Merge(refreshed Session) Session {
	merged := Session{
		AccessToken:  refreshed.AccessToken,
		RefreshToken: refreshed.RefreshToken,
		TenantID:     refreshed.TenantID,
		Email:        refreshed.Email,
		Role:         refreshed.Role,
		TokenType:    refreshed.TokenType,
	}

	if merged.RefreshToken == "" {
		merged.RefreshToken = s.RefreshToken
	}
	if merged.TenantID == "" {
		merged.TenantID = s.TenantID
	}
	if merged.Email == "" {
		merged.Email = s.Email
	}
	if merged.Role == "" {
		merged.Role = s.Role
	}
	if merged.TokenType == "" {
		merged.TokenType = s.TokenType
	}

	return merged
}

// AccessTokenExpiry peeks at the unverified exp claim of the access
// token. Verification is the server's job; the client only needs the
// expiry for display and for the proactive refresh check.
func (s Session) AccessTokenExpiry() (time.Time, error) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(s.AccessToken, &claims); err != nil {
		return time.Time{}, err
	}

	if claims.ExpiresAt == nil {
		return time.Time{}, errors.New("access token carries no expiry claim")
	}

	return claims.ExpiresAt.Time, nil
}

// ExpiresWithin reports whether the access token expires in less than
// d. Opaque tokens report false; the 401 recovery path covers them.
func (s Session) ExpiresWithin(d time.Duration) bool {
	expiry, err := s.AccessTokenExpiry()
	if err != nil {
		return false
	}

	return time.Until(expiry) < d
}
