package transport

import (
	"io"
	"net/http"
	"time"

	slogctx "github.com/veqryn/slog-context"

	"github.com/storeops/backoffice/internal/apierr"
)

// retryDoer retries side-effect-free requests on connectivity failures
// and 5xx responses, with exponential backoff. Counters are
// per-request; concurrent requests back off independently.
type retryDoer struct {
	next       Doer
	maxRetries int
	baseDelay  time.Duration
}

func newRetryDoer(o options) *retryDoer {
	return &retryDoer{
		next:       o.base,
		maxRetries: o.maxRetries,
		baseDelay:  o.baseDelay,
	}
}

func (d *retryDoer) Do(req *http.Request) (*http.Response, error) {
	if !idempotent(req.Method) {
		return d.next.Do(req)
	}

	for attempt := 0; ; attempt++ {
		resp, err := d.next.Do(req)
		if err == nil && !apierr.Transient(resp.StatusCode) {
			return resp, nil
		}

		if attempt >= d.maxRetries {
			return resp, err
		}

		retried, rewindErr := rewound(req)
		if rewindErr != nil {
			return resp, err
		}

		if resp != nil {
			drain(resp)
		}

		delay := d.baseDelay << attempt
		slogctx.Debug(req.Context(), "Retrying request",
			"method", req.Method,
			"path", req.URL.Path,
			"attempt", attempt+1,
			"delay", delay,
			"error", err,
		)

		select {
		case <-time.After(delay):
		case <-req.Context().Done():
			return nil, req.Context().Err()
		}

		req = retried
	}
}

func idempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}

func drain(resp *http.Response) {
	if resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
}
