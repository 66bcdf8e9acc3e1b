// Package etag implements optimistic concurrency for update/delete of a
// versioned resource. Each persisted row carries an opaque version tag that
// is regenerated on every successful mutation; clients echo the tag back in
// an If-Match header and the mutation is guarded by a
// "WHERE version_field = observed" clause instead of a row lock.
package etag

import (
	"encoding/hex"
	"errors"
	"net/http"

	"github.com/bsnacks000/pgdal/apierr"
	"github.com/bsnacks000/pgdal/storage"
	"github.com/google/uuid"
)

// HeaderIfMatch is the request precondition header carrying the client's tag.
const HeaderIfMatch = "If-Match"

// HeaderEtag is the response header surfacing the freshly written tag.
const HeaderEtag = "Etag"

// ErrNoVersionField reports a row without the configured version column —
// the query forgot to select it. A caller bug, not a client error.
var ErrNoVersionField = errors.New("etag: row has no version field")

// NewTag returns a fresh random version tag. Tags are version markers, not
// content fingerprints: two writes producing identical content still get
// distinct tags.
func NewTag() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}

// CheckPrecondition runs the fetch-phase checks of the guard against an
// already-fetched row and returns the observed tag the conditional mutation
// must match. The checks are ordered: a missing If-Match header is 428
// before anything about the row is considered, a nil row is 404, a set
// soft-delete flag is 410 before the tag comparison, and a mismatched tag
// is 412. softDeleteField may be empty to skip the soft-delete check.
func CheckPrecondition(headers http.Header, row storage.Record, versionField, softDeleteField string) (string, error) {
	expected := headers.Get(HeaderIfMatch)
	if expected == "" {
		return "", apierr.PreconditionRequired()
	}

	if row == nil {
		return "", apierr.NotFound()
	}

	if softDeleteField != "" {
		if deleted, ok := row.Bool(softDeleteField); ok && deleted {
			return "", apierr.Gone()
		}
	}

	observed, ok := row.String(versionField)
	if !ok {
		return "", ErrNoVersionField
	}

	if observed != expected {
		return "", apierr.PreconditionFailed()
	}

	return observed, nil
}

// Handler tracks version-tag state across one request. It generates the
// prospective new tag at construction, so build one per request.
type Handler struct {
	// VersionField is the column name holding the tag. Defaults to
	// "etag_version" via NewHandler("").
	VersionField string

	// NewTag is written by the conditional mutation when it succeeds and is
	// surfaced to the client in the Etag response header.
	NewTag string

	current string
}

// NewHandler builds a request-scoped Handler. An empty versionField
// defaults to "etag_version".
func NewHandler(versionField string) *Handler {
	if versionField == "" {
		versionField = "etag_version"
	}
	return &Handler{VersionField: versionField, NewTag: NewTag()}
}

// SetCurrent runs the 428/412 phase against a fetched row and records the
// observed tag for the mutation's WHERE clause. The row is assumed to exist
// and to have passed any soft-delete check already (the version-detail
// controller reports 404/410 with their own semantics first).
func (h *Handler) SetCurrent(headers http.Header, row storage.Record) error {
	observed, err := CheckPrecondition(headers, row, h.VersionField, "")
	if err != nil {
		return err
	}
	h.current = observed
	return nil
}

// CurrentTag returns the tag observed by SetCurrent, empty until then.
func (h *Handler) CurrentTag() string { return h.current }

// SetHeader sets the Etag response header when tag is non-empty.
func SetHeader(h http.Header, tag string) {
	if tag != "" {
		h.Set(HeaderEtag, tag)
	}
}
