package assistant

import (
	"errors"
	"fmt"
)

// ErrNoSession is returned when an operation needs an authenticated session
// and none exists.
var ErrNoSession = errors.New("no active session")

// RequestError represents a non-200 HTTP response. The raw body is retained
// for caller inspection. Receiving one never mutates the stored token; the
// caller decides whether to force re-authentication.
type RequestError struct {
	StatusCode int
	StatusText string
	Body       []byte
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request failed: %d %s", e.StatusCode, e.StatusText)
}

// AuthError is a login failure: the server returned no usable token.
// Recoverable by retrying credentials.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.Message)
}

// APIError is a request the server accepted at the HTTP layer but rejected
// in its response envelope.
type APIError struct {
	Endpoint string
	Message  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("assistant API error: %s (endpoint: %s)", e.Message, e.Endpoint)
}
