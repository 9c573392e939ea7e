// Package api binds every backend resource and action to an HTTP call.
// Functions here are pure delegation: build the request, send it
// through the right transport, decode the body. All failure policy
// lives in pkg/transport and pkg/session.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/storeops/backoffice/internal/apierr"
	"github.com/storeops/backoffice/pkg/listcache"
	"github.com/storeops/backoffice/pkg/transport"
)

// caller is the request plumbing shared by both clients.
type caller struct {
	baseURL string
	doer    transport.Doer
}

func newCaller(baseURL string, doer transport.Doer) caller {
	return caller{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		doer:    doer,
	}
}

// PublicClient serves the tenant-agnostic endpoints: login, refresh,
// registration and plan listing. No credential headers are attached.
type PublicClient struct {
	caller
	cache *listcache.Cache
}

type PublicOption func(*PublicClient)

// WithPlanCache enables the offline fallback for plan listing.
func WithPlanCache(cache *listcache.Cache) PublicOption {
	return func(c *PublicClient) { c.cache = cache }
}

func NewPublic(baseURL string, doer transport.Doer, opts ...PublicOption) *PublicClient {
	c := &PublicClient{caller: newCaller(baseURL, doer)}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

// Client serves every tenant-scoped resource through the authenticated
// transport.
type Client struct {
	caller
	cache *listcache.Cache
}

type Option func(*Client)

// WithCache enables cache-then-network semantics on list endpoints.
func WithCache(cache *listcache.Cache) Option {
	return func(c *Client) { c.cache = cache }
}

func New(baseURL string, doer transport.Doer, opts ...Option) *Client {
	c := &Client{caller: newCaller(baseURL, doer)}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

func (cl caller) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		payload = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, cl.baseURL+path, payload)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// call executes a request and decodes a JSON body of type T.
func call[T any](ctx context.Context, cl caller, method, path string, body any) (T, error) {
	var out T

	req, err := cl.newRequest(ctx, method, path, body)
	if err != nil {
		return out, err
	}

	resp, err := cl.doer.Do(req)
	if err != nil {
		return out, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return out, decodeError(resp)
	}

	if resp.StatusCode == http.StatusNoContent {
		return out, nil
	}

	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("decoding response: %w", err)
	}

	return out, nil
}

// callNoContent executes a request whose successful response body is
// irrelevant.
func callNoContent(ctx context.Context, cl caller, method, path string, body any) error {
	req, err := cl.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	resp, err := cl.doer.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return decodeError(resp)
	}

	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	return nil
}

// decodeError maps a non-2xx response to the standard error body. A
// body that is not the standard shape still yields an APIError with
// the response status, so callers always surface something sensible.
func decodeError(resp *http.Response) error {
	apiErr := &apierr.APIError{Status: resp.StatusCode}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err == nil && len(raw) > 0 {
		var decoded apierr.APIError
		if jsonErr := json.Unmarshal(raw, &decoded); jsonErr == nil {
			apiErr = &decoded
			if apiErr.Status == 0 {
				apiErr.Status = resp.StatusCode
			}
		}
	}

	return apiErr
}

// list routes a collection fetch through the cache when one is
// configured; a failed refresh then serves the last good copy.
func list[T any](ctx context.Context, c *Client, key, path string) ([]T, error) {
	fetch := func(ctx context.Context) ([]T, error) {
		return call[[]T](ctx, c.caller, http.MethodGet, path, nil)
	}

	if c.cache == nil {
		return fetch(ctx)
	}

	return listcache.Fetch(ctx, c.cache, key, fetch)
}
