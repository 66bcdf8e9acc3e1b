// Package paging implements offset/limit pagination for list endpoints:
// deciding whether a next page exists and synthesizing its URL, plus
// assembling the {total_count, next_url, results} view returned to clients.
package paging

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bsnacks000/pgdal/storage"
)

// ErrMissingTotalCount reports a non-empty result set whose rows do not
// carry the window total. The list statement forgot filter.TotalCount —
// a caller bug, never silently defaulted.
var ErrMissingTotalCount = errors.New("paging: first record has no total_count")

// NextURL computes the URL of the next page, or ok=false when the current
// page reaches the end of the data.
//
// requestURL is the full URL of the current request including any query
// string. currentLen is the number of records actually returned, which may
// be short on the last page. totalCount is the pre-pagination match count.
// A non-empty anchor marks where the meaningful part of requestURL begins;
// the returned URL starts there, so callers can emit relative links.
//
// The query string is rewritten by literal substring surgery, not URL
// parsing: "offset={offset}" is replaced with "offset={offset+limit}"
// wherever it appears, and when no "offset=" parameter exists both offset
// and limit are appended. If the exact "offset={offset}" substring is
// absent the sliced URL is returned unchanged. That best-effort behavior is
// the public contract; callers depend on the precise string layout.
func NextURL(requestURL string, offset, limit, currentLen, totalCount int, anchor string) (string, bool) {
	if totalCount < 1 {
		return "", false
	}

	remainder := totalCount - currentLen - offset
	if remainder <= 0 {
		return "", false
	}

	idx := 0
	if anchor != "" {
		if i := strings.Index(requestURL, anchor); i >= 0 {
			idx = i
		}
	}

	if !strings.Contains(requestURL, "offset=") {
		sep := "?"
		if strings.Contains(requestURL, "?") {
			sep = "&"
		}
		return requestURL[idx:] + fmt.Sprintf("%soffset=%d&limit=%d", sep, offset+limit, limit), true
	}

	old := fmt.Sprintf("offset=%d", offset)
	next := fmt.Sprintf("offset=%d", offset+limit)
	return strings.ReplaceAll(requestURL[idx:], old, next), true
}

// ListView is the outgoing shape of one list response.
type ListView struct {
	TotalCount int              `json:"total_count"`
	NextURL    *string          `json:"next_url"`
	Results    []storage.Record `json:"results"`
}

// Assemble builds a ListView from a page of records. Each record of a
// non-empty page must carry the "total_count" column; its absence is
// ErrMissingTotalCount. Results preserve input order.
func Assemble(records []storage.Record, requestURL string, offset, limit int, anchor string) (ListView, error) {
	if len(records) == 0 {
		return ListView{TotalCount: 0, NextURL: nil, Results: []storage.Record{}}, nil
	}

	total, ok := records[0].Int("total_count")
	if !ok {
		return ListView{}, ErrMissingTotalCount
	}

	view := ListView{TotalCount: total, Results: records}
	if next, ok := NextURL(requestURL, offset, limit, len(records), total, anchor); ok {
		view.NextURL = &next
	}
	return view, nil
}
