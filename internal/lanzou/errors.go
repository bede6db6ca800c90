// Package lanzou implements the cloud-drive client: session authentication
// with cookie reuse, remote directory enumeration and creation, and
// multipart file upload. The remote API is informal — one form-encoded
// endpoint multiplexed by a numeric task selector, ad-hoc status codes,
// and inconsistent response shapes — so raw responses are normalized at
// the package boundary and callers only ever see canonical types.
package lanzou

import (
	"errors"
	"fmt"
)

// Sentinel errors for failure classification.
// Use errors.Is(err, lanzou.ErrAuth) to check.
var (
	ErrTransport        = errors.New("lanzou: transport failure")
	ErrProtocol         = errors.New("lanzou: unexpected response shape")
	ErrAuth             = errors.New("lanzou: authentication failed")
	ErrNotAuthenticated = errors.New("lanzou: not authenticated")
	ErrRemoteRejected   = errors.New("lanzou: remote rejected operation")
)

// APIError wraps a sentinel error with the failed operation, the HTTP
// status code when one was received, and the server-reported reason when
// the payload carried one.
type APIError struct {
	Op     string
	Status int    // HTTP status code; 0 when the failure was not HTTP-level
	Reason string // free-text reason from the response payload, if any
	Err    error  // sentinel, for errors.Is()
}

func (e *APIError) Error() string {
	switch {
	case e.Reason != "":
		return fmt.Sprintf("lanzou: %s: %s", e.Op, e.Reason)
	case e.Status != 0:
		return fmt.Sprintf("lanzou: %s: HTTP %d", e.Op, e.Status)
	default:
		return fmt.Sprintf("lanzou: %s failed", e.Op)
	}
}

func (e *APIError) Unwrap() error {
	return e.Err
}
