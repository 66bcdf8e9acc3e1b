// Package web bridges gin requests to the controllers: query-parameter
// parsing, request-scoped context structs, and response rendering. The
// controllers themselves never see gin; they consume the plain context
// structs built here.
package web

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

// DefaultLimit is the page size used when the request does not specify one,
// and also the maximum a client may request.
const DefaultLimit = 1000

// ListParams is the pagination window of a list request.
type ListParams struct {
	Offset int
	Limit  int
}

// ParseListParams reads offset/limit from the query string. Missing values
// default to offset 0 and limit DefaultLimit; values are clamped to
// 0 <= offset and 0 <= limit <= DefaultLimit. Non-numeric input is an error
// for the caller to render as 400.
func ParseListParams(c *gin.Context) (ListParams, error) {
	p := ListParams{Offset: 0, Limit: DefaultLimit}

	if raw, ok := c.GetQuery("offset"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return p, fmt.Errorf("invalid offset %q", raw)
		}
		p.Offset = n
	}
	if raw, ok := c.GetQuery("limit"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return p, fmt.Errorf("invalid limit %q", raw)
		}
		p.Limit = n
	}

	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit < 0 {
		p.Limit = 0
	}
	if p.Limit > DefaultLimit {
		p.Limit = DefaultLimit
	}

	return p, nil
}
