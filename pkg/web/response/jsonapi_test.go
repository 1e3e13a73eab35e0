package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/jsonapi/pkg/jsonapi"
)

func TestIsJSONAPI(t *testing.T) {
	tests := []struct {
		name   string
		accept string
		want   bool
	}{
		{name: "empty", accept: "", want: false},
		{name: "exact", accept: "application/vnd.api+json", want: true},
		{name: "among others", accept: "text/html, application/vnd.api+json", want: true},
		{name: "plain json", accept: "application/json", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Accept", tt.accept)
			assert.Equal(t, tt.want, IsJSONAPI(req))
		})
	}
}

func TestValidateJSONAPIContentType(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		want        bool
	}{
		{name: "valid", contentType: "application/vnd.api+json", want: true},
		{name: "with parameters", contentType: "application/vnd.api+json; charset=utf-8", want: false},
		{name: "plain json", contentType: "application/json", want: false},
		{name: "missing", contentType: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/articles", strings.NewReader("{}"))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()

			assert.Equal(t, tt.want, ValidateJSONAPIContentType(w, req))
			if tt.want {
				assert.Equal(t, 0, w.Body.Len())
				return
			}

			assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
			assert.Equal(t, JSONAPIMediaType, w.Header().Get("Content-Type"))

			var body struct {
				Errors []struct {
					Status string `json:"status"`
					Code   string `json:"code"`
				} `json:"errors"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			require.Len(t, body.Errors, 1)
			assert.Equal(t, "415", body.Errors[0].Status)
			assert.Equal(t, "unsupported_media_type", body.Errors[0].Code)
		})
	}
}

func pageOf(t *testing.T, link *jsonapi.Link) (string, string) {
	t.Helper()
	u, err := url.Parse(link.Href())
	require.NoError(t, err)
	return u.Query().Get("page[limit]"), u.Query().Get("page[offset]")
}

func TestBuildPaginationLinks(t *testing.T) {
	t.Run("middle page", func(t *testing.T) {
		links := BuildPaginationLinks("http://example.com/articles?sort=-created", 10, 20, 45)

		var names []string
		links.Each(func(name string, _ *jsonapi.Link) { names = append(names, name) })
		assert.Equal(t, []string{"self", "first", "prev", "next", "last"}, names)

		expected := map[string]string{"self": "20", "first": "0", "prev": "10", "next": "30", "last": "40"}
		for name, offset := range expected {
			link, ok := links.Get(name)
			require.True(t, ok, name)
			limit, got := pageOf(t, link)
			assert.Equal(t, "10", limit, name)
			assert.Equal(t, offset, got, name)
		}

		self, _ := links.Get("self")
		u, err := url.Parse(self.Href())
		require.NoError(t, err)
		assert.Equal(t, "-created", u.Query().Get("sort"))
	})

	t.Run("first page", func(t *testing.T) {
		links := BuildPaginationLinks("/articles", 10, 0, 15)
		_, ok := links.Get("prev")
		assert.False(t, ok)
		_, ok = links.Get("next")
		assert.True(t, ok)
	})

	t.Run("last page", func(t *testing.T) {
		links := BuildPaginationLinks("/articles", 10, 10, 15)
		_, ok := links.Get("next")
		assert.False(t, ok)
		prev, ok := links.Get("prev")
		require.True(t, ok)
		_, offset := pageOf(t, prev)
		assert.Equal(t, "0", offset)
	})

	t.Run("empty collection", func(t *testing.T) {
		links := BuildPaginationLinks("/articles", 10, 0, 0)
		last, ok := links.Get("last")
		require.True(t, ok)
		_, offset := pageOf(t, last)
		assert.Equal(t, "0", offset)
		assert.Equal(t, 3, links.Len())
	})

	t.Run("prev is clamped", func(t *testing.T) {
		links := BuildPaginationLinks("/articles", 10, 5, 30)
		prev, ok := links.Get("prev")
		require.True(t, ok)
		_, offset := pageOf(t, prev)
		assert.Equal(t, "0", offset)
	})
}

func TestPaginate(t *testing.T) {
	doc := jsonapi.NewAPI().CreateDocument(nil)
	require.NoError(t, doc.SetPrimaryCollection("articles", nil))
	Paginate(doc, "/articles", 2, 0, 3)

	total, ok := doc.Meta("total")
	require.True(t, ok)
	assert.Equal(t, jsonapi.Int(3), total)

	_, ok = doc.Links().Get("next")
	assert.True(t, ok)
}
