package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bsnacks000/pgdal/apierr"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testCtx(t *testing.T, method, target string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, nil)
	return c, w
}

func TestParseListParams(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    ListParams
		wantErr bool
	}{
		{"defaults", "", ListParams{Offset: 0, Limit: 1000}, false},
		{"explicit", "?offset=20&limit=50", ListParams{Offset: 20, Limit: 50}, false},
		{"negative offset clamped", "?offset=-5", ListParams{Offset: 0, Limit: 1000}, false},
		{"negative limit clamped", "?limit=-1", ListParams{Offset: 0, Limit: 0}, false},
		{"limit capped", "?limit=5000", ListParams{Offset: 0, Limit: 1000}, false},
		{"non numeric offset", "?offset=abc", ListParams{}, true},
		{"non numeric limit", "?limit=abc", ListParams{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := testCtx(t, http.MethodGet, "https://x.com/v1/book/"+tt.query)
			got, err := ParseListParams(c)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRequestURL(t *testing.T) {
	c, _ := testCtx(t, http.MethodGet, "http://x.com/v1/book/?offset=0&limit=10")
	assert.Equal(t, "http://x.com/v1/book/?offset=0&limit=10", RequestURL(c))
}

func TestNewListContext(t *testing.T) {
	c, _ := testCtx(t, http.MethodGet, "http://x.com/v1/book/?limit=10")

	lctx := NewListContext(c, ListParams{Offset: 0, Limit: 10})
	assert.Equal(t, "http://x.com/v1/book/?limit=10", lctx.URL)
	assert.Equal(t, 10, lctx.Params.Limit)
}

func TestNewDetailContext_CapturesPaths(t *testing.T) {
	c, _ := testCtx(t, http.MethodGet, "http://x.com/v1/book/7")
	c.Params = gin.Params{{Key: "id", Value: "7"}}

	dctx := NewDetailContext(c, "id")
	assert.Equal(t, "7", dctx.Paths["id"])
}

func TestNewUpdateContext(t *testing.T) {
	c, _ := testCtx(t, http.MethodPatch, "http://x.com/v1/book/7")
	c.Params = gin.Params{{Key: "id", Value: "7"}}
	c.Request.Header.Set("If-Match", "tagA")

	form := map[string]any{"name": "dune"}
	uctx := NewUpdateContext(c, form, "", "id")

	assert.Equal(t, "7", uctx.Paths["id"])
	assert.Equal(t, "tagA", uctx.Headers.Get("If-Match"))
	require.NotNil(t, uctx.Etag)
	assert.Equal(t, "etag_version", uctx.Etag.VersionField)
	assert.NotEmpty(t, uctx.Etag.NewTag)
}

func TestRenderError_APIError(t *testing.T) {
	c, w := testCtx(t, http.MethodPatch, "http://x.com/v1/book/7")

	e := apierr.StaleData()
	e.Headers = map[string]string{"Retry-After": "0"}
	RenderError(c, e)

	assert.Equal(t, 409, w.Code)
	assert.Equal(t, "0", w.Header().Get("Retry-After"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Stale Data.", body["detail"])
}

func TestRenderError_UnrecognizedIs500(t *testing.T) {
	c, w := testCtx(t, http.MethodGet, "http://x.com/v1/book/")

	RenderError(c, errors.New("pq: connection reset"))

	assert.Equal(t, 500, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Server Error.", body["detail"], "internals must not leak")
}

func TestSetEtag(t *testing.T) {
	c, w := testCtx(t, http.MethodPatch, "http://x.com/v1/book/7")

	SetEtag(c, "tagB")
	assert.Equal(t, "tagB", w.Header().Get("Etag"))
}
