package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storeops/backoffice/internal/apierr"
	"github.com/storeops/backoffice/pkg/api"
	"github.com/storeops/backoffice/pkg/transport"
)

func publicClient(t *testing.T, handler http.Handler) (*api.PublicClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	doer := transport.NewPublic(transport.WithRetry(0, time.Millisecond))

	return api.NewPublic(srv.URL, doer), srv
}

func TestPublicClient_Login(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		response string
		wantErr  error
		wantAny  bool
	}{
		{
			name:   "success",
			status: http.StatusOK,
			response: `{
				"accessToken": "A",
				"refreshToken": "R",
				"tenantId": "T",
				"email": "owner@shop.example",
				"role": "ADMIN",
				"tokenType": "Bearer"
			}`,
		},
		{
			name:     "missing refresh token is fatal",
			status:   http.StatusOK,
			response: `{"accessToken":"A","tenantId":"T"}`,
			wantErr:  apierr.ErrIncompleteSession,
		},
		{
			name:     "invalid credentials surface the server message",
			status:   http.StatusUnauthorized,
			response: `{"timestamp":"2026-08-30T10:00:00Z","status":401,"error":"Unauthorized","message":"invalid email or password","path":"/api/v1/auth/login"}`,
			wantAny:  true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := publicClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/api/v1/auth/login", r.URL.Path)
				assert.Empty(t, r.Header.Get("Authorization"), "login must stay unauthenticated")

				var req struct {
					Email    string `json:"email"`
					Password string `json:"password"`
				}
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "owner@shop.example", req.Email)

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.response))
			}))

			s, err := client.Login(context.Background(), "owner@shop.example", "secret")
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantAny:
				require.Error(t, err)
				assert.Equal(t, "invalid email or password", err.Error())
			default:
				require.NoError(t, err)
				assert.Equal(t, "A", s.AccessToken)
				assert.Equal(t, "R", s.RefreshToken)
				assert.Equal(t, "T", s.TenantID)
				assert.Equal(t, "ADMIN", s.Role)
			}
		})
	}
}

func TestPublicClient_Refresh(t *testing.T) {
	client, _ := publicClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/auth/refresh", r.URL.Path)

		var req struct {
			RefreshToken string `json:"refreshToken"`
			TenantID     string `json:"tenantId"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "R", req.RefreshToken)
		assert.Equal(t, "T", req.TenantID)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"accessToken":"A2"}`))
	}))

	s, err := client.Refresh(context.Background(), "R", "T")
	require.NoError(t, err)
	assert.Equal(t, "A2", s.AccessToken)
	assert.Empty(t, s.RefreshToken, "omitted fields decode empty; the manager merges them")
}

func TestPublicClient_Register(t *testing.T) {
	client, _ := publicClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/users/register", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"tenantId":"T","userId":"U"}`))
	}))

	resp, err := client.Register(context.Background(), api.RegisterRequest{
		TenantName: "Corner Shop",
		Email:      "owner@shop.example",
		Password:   "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, api.RegisterResponse{TenantID: "T", UserID: "U"}, resp)
}

func TestPublicClient_ListPlans(t *testing.T) {
	client, _ := publicClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/plans", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":"basic","name":"Basic","price":9.9,"interval":"month"}]`))
	}))

	plans, err := client.ListPlans(context.Background())
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, "basic", plans[0].ID)
}

func TestDecodeError_GenericFallback(t *testing.T) {
	client, _ := publicClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"timestamp":"2026-08-30T10:00:00Z","status":400,"error":"Bad Request","message":"","path":"/api/v1/plans"}`))
	}))

	_, err := client.ListPlans(context.Background())
	require.Error(t, err)

	var apiErr *apierr.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Contains(t, apiErr.Error(), apierr.GenericMessage)
}

func TestDecodeError_NonStandardBody(t *testing.T) {
	client, _ := publicClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream exploded"))
	}))

	_, err := client.ListPlans(context.Background())
	require.Error(t, err)

	var apiErr *apierr.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
}
