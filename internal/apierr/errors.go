// Package apierr defines the error taxonomy shared by the transport,
// session and api packages.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrAuthExpired means no new access token could be produced; the
	// current session is terminated and the caller must re-authenticate.
	ErrAuthExpired = errors.New("authentication expired")

	// ErrIncompleteSession means a login or refresh outcome lacked a
	// refresh token and must not be persisted.
	ErrIncompleteSession = errors.New("incomplete session: missing refresh token")

	// ErrNotFound is returned by stores for absent (or self-healed) records.
	ErrNotFound = errors.New("not found")
)

// GenericMessage is shown when the server provides no usable message.
const GenericMessage = "an unexpected error occurred, please try again"

// APIError is the standard error body returned by the backend.
type APIError struct {
	Timestamp string `json:"timestamp"`
	Status    int    `json:"status"`
	ErrorText string `json:"error"`
	Message   string `json:"message"`
	Path      string `json:"path"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s (status %d)", GenericMessage, e.Status)
}

// Transient reports whether the status code is worth a bounded retry.
// 4xx responses are never transient; the 401 path is handled separately.
func Transient(status int) bool {
	return status >= http.StatusInternalServerError
}
