// Package apierr defines the outward error taxonomy for request handling.
//
// Values carry the HTTP status and detail message a controller decided on,
// so the transport layer only has to render them. Client precondition
// failures (404/410/412/428) and write conflicts (409) are routine outcomes,
// not server errors, and should never be logged as such.
package apierr

import (
	"errors"
	"fmt"
)

// Error is a terminal request outcome with a fixed status and detail message.
// Headers, when set, are added to the response verbatim.
type Error struct {
	Status  int
	Detail  string
	Headers map[string]string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Detail)
}

// New builds an Error with an arbitrary status and detail.
func New(status int, detail string) *Error {
	return &Error{Status: status, Detail: detail}
}

// NotFound reports a missing resource.
func NotFound() *Error { return New(404, "Not Found.") }

// Gone reports a soft-deleted resource.
func Gone() *Error { return New(410, "Gone.") }

// PreconditionRequired reports a mutation attempted without an If-Match header.
func PreconditionRequired() *Error {
	return New(428, "Update requires If-Match header.")
}

// PreconditionFailed reports a version tag that did not match the stored one.
func PreconditionFailed() *Error { return New(412, "Precondition Failed.") }

// StaleData reports a write-write race lost at the conditional mutation.
// The client must re-fetch and retry deliberately; the server never retries.
func StaleData() *Error { return New(409, "Stale Data.") }

// Conflict reports a constraint violation. An empty detail defaults to "Conflict.".
func Conflict(detail string) *Error {
	if detail == "" {
		detail = "Conflict."
	}
	return New(409, detail)
}

// ServerError is the catch-all for unrecognized failures.
func ServerError() *Error { return New(500, "Server Error.") }

// AsError unwraps err into an *Error if one is anywhere in its chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
