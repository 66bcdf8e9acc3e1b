package web

import (
	"net/http"

	"github.com/bsnacks000/pgdal/etag"
	"github.com/gin-gonic/gin"
)

// RequestURL reconstructs the absolute URL of the current request,
// scheme + host + request URI.
func RequestURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host + c.Request.URL.RequestURI()
}

// ListContext carries what a list statement needs: the request URL for the
// paginator and the pagination window. App-specific filter parameters ride
// in Extras.
type ListContext struct {
	URL    string
	Params ListParams
	Extras any
}

// NewListContext builds a ListContext from the live request.
func NewListContext(c *gin.Context, params ListParams) *ListContext {
	return &ListContext{URL: RequestURL(c), Params: params}
}

// DetailContext carries path parameters for single-resource reads and hard
// deletes.
type DetailContext struct {
	URL   string
	Paths map[string]string
}

// NewDetailContext builds a DetailContext; paths names the gin path
// parameters to capture.
func NewDetailContext(c *gin.Context, paths ...string) *DetailContext {
	m := make(map[string]string, len(paths))
	for _, p := range paths {
		m[p] = c.Param(p)
	}
	return &DetailContext{URL: RequestURL(c), Paths: m}
}

// CreateContext carries the decoded request body for inserts.
type CreateContext struct {
	URL  string
	Form any
}

// NewCreateContext builds a CreateContext around an already-bound form.
func NewCreateContext(c *gin.Context, form any) *CreateContext {
	return &CreateContext{URL: RequestURL(c), Form: form}
}

// UpdateContext carries everything a guarded mutation needs: path params,
// the decoded form, the request headers holding the If-Match precondition,
// and the request-scoped etag handler.
type UpdateContext struct {
	URL     string
	Paths   map[string]string
	Form    any
	Headers http.Header
	Etag    *etag.Handler
}

// NewUpdateContext builds an UpdateContext with a fresh etag.Handler for
// versionField ("" for the default) and the named path parameters.
func NewUpdateContext(c *gin.Context, form any, versionField string, paths ...string) *UpdateContext {
	m := make(map[string]string, len(paths))
	for _, p := range paths {
		m[p] = c.Param(p)
	}
	return &UpdateContext{
		URL:     RequestURL(c),
		Paths:   m,
		Form:    form,
		Headers: c.Request.Header,
		Etag:    etag.NewHandler(versionField),
	}
}
