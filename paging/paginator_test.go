package paging

import (
	"testing"

	"github.com/bsnacks000/pgdal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextURL(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		offset     int
		limit      int
		currentLen int
		totalCount int
		anchor     string
		want       string
		wantOK     bool
	}{
		{
			name: "first page no query string",
			url:  "https://x.com/v1/book/",
			offset: 0, limit: 100, currentLen: 100, totalCount: 200,
			want: "https://x.com/v1/book/?offset=100&limit=100", wantOK: true,
		},
		{
			name: "existing params with anchor",
			url:  "https://x.com/v1/book/?some_param=42",
			offset: 0, limit: 100, currentLen: 100, totalCount: 200,
			anchor: "/v1",
			want:   "/v1/book/?some_param=42&offset=100&limit=100", wantOK: true,
		},
		{
			name: "explicit offset replaced limit untouched",
			url:  "https://x.com/v1/book/?offset=0&limit=100",
			offset: 0, limit: 100, currentLen: 100, totalCount: 200,
			anchor: "/v1",
			want:   "/v1/book/?offset=100&limit=100", wantOK: true,
		},
		{
			name: "last page",
			url:  "https://x.com/v1/book/?offset=100&limit=100",
			offset: 100, limit: 100, currentLen: 100, totalCount: 200,
		},
		{
			name: "no data at all",
			url:  "https://x.com/v1/book/",
			offset: 100, limit: 100, currentLen: 0, totalCount: 0,
		},
		{
			name: "zero total wins even with records",
			url:  "https://x.com/v1/book/",
			offset: 0, limit: 10, currentLen: 5, totalCount: 0,
		},
		{
			name: "short page means done",
			url:  "https://x.com/v1/book/?offset=10&limit=10",
			offset: 10, limit: 10, currentLen: 3, totalCount: 13,
		},
		{
			name: "anchor not present falls back to full url",
			url:  "https://x.com/api/book/",
			offset: 0, limit: 10, currentLen: 10, totalCount: 30,
			anchor: "/v1",
			want:   "https://x.com/api/book/?offset=10&limit=10", wantOK: true,
		},
		{
			name: "offset substring present but formatted differently",
			url:  "https://x.com/v1/book/?offset=007&limit=10",
			offset: 7, limit: 10, currentLen: 10, totalCount: 30,
			// literal "offset=7" does not occur, string surgery leaves it alone
			want: "https://x.com/v1/book/?offset=007&limit=10", wantOK: true,
		},
		{
			name: "middle page replaces offset only",
			url:  "https://x.com/v1/book/?limit=25&offset=25",
			offset: 25, limit: 25, currentLen: 25, totalCount: 100,
			want: "https://x.com/v1/book/?limit=25&offset=50", wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NextURL(tt.url, tt.offset, tt.limit, tt.currentLen, tt.totalCount, tt.anchor)
			require.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestNextURL_NoDataInvariant(t *testing.T) {
	// total_count < 1 always means no next page regardless of the window
	for _, offset := range []int{0, 1, 100} {
		for _, currentLen := range []int{0, 1, 50} {
			_, ok := NextURL("https://x.com/v1/book/", offset, 10, currentLen, 0, "")
			assert.False(t, ok)
			_, ok = NextURL("https://x.com/v1/book/", offset, 10, currentLen, -5, "")
			assert.False(t, ok)
		}
	}
}

func TestNextURL_CompletionInvariant(t *testing.T) {
	// total_count - current_len - offset <= 0 always means no next page
	cases := [][3]int{ // offset, currentLen, totalCount
		{0, 10, 10},
		{10, 10, 20},
		{90, 10, 100},
		{100, 5, 100},
		{0, 20, 15},
	}
	for _, c := range cases {
		_, ok := NextURL("https://x.com/v1/book/?offset=0&limit=10", c[0], 10, c[1], c[2], "")
		assert.False(t, ok, "offset=%d len=%d total=%d", c[0], c[1], c[2])
	}
}

func TestAssemble_Empty(t *testing.T) {
	view, err := Assemble(nil, "https://x.com/v1/book/", 0, 100, "")
	require.NoError(t, err)

	assert.Equal(t, 0, view.TotalCount)
	assert.Nil(t, view.NextURL)
	assert.NotNil(t, view.Results)
	assert.Empty(t, view.Results)
}

func TestAssemble_MissingTotalCount(t *testing.T) {
	records := []storage.Record{{"id": int64(1), "name": "dune"}}

	_, err := Assemble(records, "https://x.com/v1/book/", 0, 100, "")
	assert.ErrorIs(t, err, ErrMissingTotalCount)
}

func TestAssemble_WithNextPage(t *testing.T) {
	records := []storage.Record{
		{"id": int64(1), "total_count": int64(3)},
		{"id": int64(2), "total_count": int64(3)},
	}

	view, err := Assemble(records, "https://x.com/v1/book/", 0, 2, "/v1")
	require.NoError(t, err)

	assert.Equal(t, 3, view.TotalCount)
	require.NotNil(t, view.NextURL)
	assert.Equal(t, "/v1/book/?offset=2&limit=2", *view.NextURL)
	require.Len(t, view.Results, 2)
	id, _ := view.Results[0].Int("id")
	assert.Equal(t, 1, id, "input order preserved")
}

func TestAssemble_LastPage(t *testing.T) {
	records := []storage.Record{
		{"id": int64(3), "total_count": int64(3)},
	}

	view, err := Assemble(records, "https://x.com/v1/book/?offset=2&limit=2", 2, 2, "")
	require.NoError(t, err)

	assert.Equal(t, 3, view.TotalCount)
	assert.Nil(t, view.NextURL)
}
