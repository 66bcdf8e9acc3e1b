package etag

import (
	"net/http"
	"testing"

	"github.com/bsnacks000/pgdal/apierr"
	"github.com/bsnacks000/pgdal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func headersWith(tag string) http.Header {
	h := http.Header{}
	if tag != "" {
		h.Set(HeaderIfMatch, tag)
	}
	return h
}

func TestNewTag_FreshAndOpaque(t *testing.T) {
	a := NewTag()
	b := NewTag()

	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b, "tags are version markers, never repeated")
}

func TestCheckPrecondition(t *testing.T) {
	row := storage.Record{"etag_version": "tagA", "deleted": false}
	deletedRow := storage.Record{"etag_version": "tagA", "deleted": true}

	tests := []struct {
		name       string
		headers    http.Header
		row        storage.Record
		softDelete string
		wantStatus int
		wantTag    string
	}{
		{"missing header", headersWith(""), row, "deleted", 428, ""},
		{"missing header beats missing row", headersWith(""), nil, "deleted", 428, ""},
		{"row not found", headersWith("tagA"), nil, "deleted", 404, ""},
		{"soft deleted", headersWith("tagA"), deletedRow, "deleted", 410, ""},
		{"soft delete precedes tag comparison", headersWith("stale"), deletedRow, "deleted", 410, ""},
		{"soft delete check skipped", headersWith("tagA"), deletedRow, "", 0, "tagA"},
		{"stale tag", headersWith("tagB"), row, "deleted", 412, ""},
		{"match", headersWith("tagA"), row, "deleted", 0, "tagA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tag, err := CheckPrecondition(tt.headers, tt.row, "etag_version", tt.softDelete)
			if tt.wantStatus == 0 {
				require.NoError(t, err)
				assert.Equal(t, tt.wantTag, tag)
				return
			}
			e, ok := apierr.AsError(err)
			require.True(t, ok, "expected apierr, got %v", err)
			assert.Equal(t, tt.wantStatus, e.Status)
		})
	}
}

func TestCheckPrecondition_NoVersionField(t *testing.T) {
	row := storage.Record{"id": int64(1)}

	_, err := CheckPrecondition(headersWith("tagA"), row, "etag_version", "")
	assert.ErrorIs(t, err, ErrNoVersionField)
}

func TestHandler_Lifecycle(t *testing.T) {
	h := NewHandler("")
	require.Equal(t, "etag_version", h.VersionField)
	require.NotEmpty(t, h.NewTag)
	assert.Empty(t, h.CurrentTag())

	row := storage.Record{"etag_version": "tagA"}
	require.NoError(t, h.SetCurrent(headersWith("tagA"), row))
	assert.Equal(t, "tagA", h.CurrentTag())
	assert.NotEqual(t, h.CurrentTag(), h.NewTag)
}

func TestHandler_StaleClientTag(t *testing.T) {
	h := NewHandler("etag_version")

	// stored tag moved on after another writer committed
	row := storage.Record{"etag_version": "tagB"}
	err := h.SetCurrent(headersWith("tagA"), row)

	e, ok := apierr.AsError(err)
	require.True(t, ok)
	assert.Equal(t, 412, e.Status)
	assert.Empty(t, h.CurrentTag())
}

func TestSetHeader(t *testing.T) {
	h := http.Header{}
	SetHeader(h, "tagB")
	assert.Equal(t, "tagB", h.Get(HeaderEtag))

	h2 := http.Header{}
	SetHeader(h2, "")
	_, present := h2[HeaderEtag]
	assert.False(t, present)
}
