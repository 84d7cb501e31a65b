// Package domain holds the closed error taxonomy shared by all handlers.
//
// Every failure a handler can surface maps onto one of these sentinels; the
// transport layer translates them to HTTP status codes and never forwards raw
// upstream error text to the caller.
package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest signals a malformed or incomplete client request.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNotFound signals that the referenced document or blob does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUpstreamRejected signals that the search or storage service rejected the call.
	ErrUpstreamRejected = errors.New("upstream rejected request")
	// ErrUpstreamUnavailable signals that the search or storage service could not be reached.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrEmbeddingUnavailable signals a failed or unconfigured embedding provider.
	ErrEmbeddingUnavailable = errors.New("embedding provider unavailable")
)

// UpstreamError wraps a sentinel with the upstream HTTP status and detail.
// The detail is meant for logs, not for the response body.
type UpstreamError struct {
	Status int
	Detail string
	kind   error
}

func (e *UpstreamError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: status %d", e.kind.Error(), e.Status)
	}
	return fmt.Sprintf("%s: status %d: %s", e.kind.Error(), e.Status, e.Detail)
}

func (e *UpstreamError) Unwrap() error { return e.kind }

// NewUpstreamRejected creates an upstream rejection error (4xx from the service).
func NewUpstreamRejected(status int, detail string) error {
	return &UpstreamError{Status: status, Detail: detail, kind: ErrUpstreamRejected}
}

// NewUpstreamUnavailable creates an upstream availability error (5xx or network failure).
func NewUpstreamUnavailable(status int, detail string) error {
	return &UpstreamError{Status: status, Detail: detail, kind: ErrUpstreamUnavailable}
}
