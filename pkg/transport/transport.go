// Package transport builds the two HTTP clients used against the
// backend: a public one for unauthenticated endpoints and an
// authenticated one that attaches credential headers and transparently
// recovers from expired tokens and transient network failures.
//
// The clients are an explicit composition of Doer middleware steps so
// the retry and refresh protocols are testable against a fake
// transport.
package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	slogctx "github.com/veqryn/slog-context"
)

// Doer is the minimal request-execution interface every middleware
// step implements. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// CredentialSource supplies the auth context for outgoing requests and
// the refresh operation for the 401 recovery protocol. session.Manager
// satisfies it and is injected at construction; there is no late-bound
// global wiring.
type CredentialSource interface {
	AccessToken() (string, bool)
	TenantID() (string, bool)
	RefreshAccessToken(ctx context.Context) (string, error)
}

const (
	headerAuthorization = "Authorization"
	headerTenantID      = "X-Tenant-Id"
	headerRequestID     = "X-Request-Id"

	// DefaultTimeout bounds every request; there is no per-call
	// cancellation beyond the caller's context.
	DefaultTimeout = 15 * time.Second

	// DefaultMaxRetries and DefaultBaseDelay shape the transient
	// retry protocol: at most 2 retries, delay baseDelay*2^n before
	// the zero-indexed n-th retry.
	DefaultMaxRetries = 2
	DefaultBaseDelay  = 500 * time.Millisecond
)

type options struct {
	base           Doer
	maxRetries     int
	baseDelay      time.Duration
	onUnauthorized func()
	exemptPaths    []string
}

type Option func(*options)

// WithBase replaces the underlying HTTP client; tests inject fakes here.
func WithBase(d Doer) Option {
	return func(o *options) { o.base = d }
}

// WithRetry overrides the transient retry bounds.
func WithRetry(maxRetries int, baseDelay time.Duration) Option {
	return func(o *options) {
		o.maxRetries = maxRetries
		o.baseDelay = baseDelay
	}
}

// WithOnUnauthorized registers the callback invoked when a 401 cannot
// be recovered by a refresh. The UI layer binds its forced-logout here.
func WithOnUnauthorized(fn func()) Option {
	return func(o *options) { o.onUnauthorized = fn }
}

// WithAuthExemptPaths overrides the request paths that must never
// trigger the 401 refresh protocol.
func WithAuthExemptPaths(paths ...string) Option {
	return func(o *options) { o.exemptPaths = paths }
}

func buildOptions(opts []Option) options {
	o := options{
		base:       &http.Client{Timeout: DefaultTimeout},
		maxRetries: DefaultMaxRetries,
		baseDelay:  DefaultBaseDelay,
		exemptPaths: []string{
			"/api/v1/auth/login",
			"/api/v1/auth/refresh",
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	return o
}

// Client is a composed Doer pipeline.
type Client struct {
	doer Doer
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.doer.Do(req)
}

// NewPublic returns the client for unauthenticated endpoints: request
// stamping and transient retry, no credential headers.
func NewPublic(opts ...Option) *Client {
	o := buildOptions(opts)

	return &Client{doer: &stampDoer{next: newRetryDoer(o)}}
}

// NewAuthenticated returns the client for tenant-scoped endpoints.
// Credential headers are attached just before sending; a missing token
// is not a request-build error, the server answers 401 and the refresh
// protocol takes over.
func NewAuthenticated(creds CredentialSource, opts ...Option) *Client {
	o := buildOptions(opts)

	return &Client{doer: &authDoer{
		next:           &stampDoer{next: newRetryDoer(o)},
		creds:          creds,
		onUnauthorized: o.onUnauthorized,
		exemptPaths:    o.exemptPaths,
	}}
}

// stampDoer tags every request with a correlation ID and logs it.
type stampDoer struct {
	next Doer
}

func (d *stampDoer) Do(req *http.Request) (*http.Response, error) {
	if req.Header.Get(headerRequestID) == "" {
		req.Header.Set(headerRequestID, uuid.NewString())
	}

	slogctx.Debug(req.Context(), "Sending request",
		"method", req.Method,
		"path", req.URL.Path,
		"request_id", req.Header.Get(headerRequestID),
	)

	return d.next.Do(req)
}

// authDoer implements the 401 recovery protocol on top of the retry
// pipeline: the inner network retries exhaust first with the original
// auth header, then a single refresh-and-resend applies on top.
type authDoer struct {
	next           Doer
	creds          CredentialSource
	onUnauthorized func()
	exemptPaths    []string
}

func (d *authDoer) Do(req *http.Request) (*http.Response, error) {
	if token, ok := d.creds.AccessToken(); ok {
		req.Header.Set(headerAuthorization, "Bearer "+token)
	}
	if tenant, ok := d.creds.TenantID(); ok {
		req.Header.Set(headerTenantID, tenant)
	}

	resp, err := d.next.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized || d.exempt(req.URL.Path) {
		return resp, nil
	}

	// keep the original 401 replayable in case the refresh fails
	resp, bufErr := bufferBody(resp)
	if bufErr != nil {
		return resp, nil
	}

	token, refreshErr := d.creds.RefreshAccessToken(req.Context())
	if refreshErr != nil || token == "" {
		slogctx.Info(req.Context(), "Unrecoverable 401, session terminated",
			"path", req.URL.Path, "error", refreshErr)
		if d.onUnauthorized != nil {
			d.onUnauthorized()
		}
		return resp, nil
	}

	retried, rewindErr := rewound(req)
	if rewindErr != nil {
		return resp, nil
	}
	retried.Header.Set(headerAuthorization, "Bearer "+token)

	// exactly one resend; its response is returned as-is
	resp2, err := d.next.Do(retried)
	if err != nil {
		return nil, err
	}

	return resp2, nil
}

func (d *authDoer) exempt(path string) bool {
	for _, p := range d.exemptPaths {
		if path == p {
			return true
		}
	}

	return false
}

// rewound clones req with a fresh body so it can be sent again. A
// request whose consumed body cannot be recreated is not replayable.
func rewound(req *http.Request) (*http.Request, error) {
	clone := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return clone, nil
	}

	if req.GetBody == nil {
		return nil, fmt.Errorf("request body for %s %s is not replayable", req.Method, req.URL.Path)
	}

	body, err := req.GetBody()
	if err != nil {
		return nil, fmt.Errorf("recreating request body: %w", err)
	}
	clone.Body = body

	return clone, nil
}

// bufferBody reads resp's body into memory and replaces it with a
// rewound reader, so the response stays readable after inspection.
func bufferBody(resp *http.Response) (*http.Response, error) {
	if resp.Body == nil {
		return resp, nil
	}

	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return resp, err
	}
	resp.Body = io.NopCloser(bytes.NewReader(raw))

	return resp, nil
}
