package blog

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/conduit-lang/jsonapi/pkg/jsonapi"
)

const testBaseURL = "http://blog.test"

type resourceObject struct {
	Type          string                     `json:"type"`
	ID            string                     `json:"id"`
	Attributes    map[string]any             `json:"attributes"`
	Relationships map[string]json.RawMessage `json:"relationships"`
	Links         map[string]string          `json:"links"`
}

type errorObject struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Code   string `json:"code"`
	Detail string `json:"detail"`
	Source struct {
		Pointer   string `json:"pointer"`
		Parameter string `json:"parameter"`
	} `json:"source"`
}

type document struct {
	Data     json.RawMessage   `json:"data"`
	Included []resourceObject  `json:"included"`
	Errors   []errorObject     `json:"errors"`
	Links    map[string]string `json:"links"`
	Meta     map[string]any    `json:"meta"`
}

func (d document) one(t *testing.T) resourceObject {
	t.Helper()
	var r resourceObject
	require.NoError(t, json.Unmarshal(d.Data, &r))
	return r
}

func (d document) many(t *testing.T) []resourceObject {
	t.Helper()
	var r []resourceObject
	require.NoError(t, json.Unmarshal(d.Data, &r))
	return r
}

func identitiesOf(resources []resourceObject) []string {
	ids := make([]string, len(resources))
	for i, r := range resources {
		ids[i] = r.Type + "/" + r.ID
	}
	return ids
}

func newTestHandler(t *testing.T, logger *zap.Logger) http.Handler {
	t.Helper()
	return NewHandler(newSQLiteStore(t), Config{
		BaseURL:      testBaseURL,
		DefaultLimit: 10,
		MaxLimit:     50,
		Logger:       logger,
	}).Routes()
}

func do(t *testing.T, handler http.Handler, method, target, body string) (*httptest.ResponseRecorder, document) {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", jsonapi.ContentType)
	}
	req.Header.Set("Accept", jsonapi.ContentType)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var doc document
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc), rec.Body.String())
	}
	return rec, doc
}

func TestListArticles(t *testing.T) {
	handler := newTestHandler(t, nil)

	rec, doc := do(t, handler, http.MethodGet, "/articles?include=author&sort=title&page[limit]=2", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, jsonapi.ContentType, rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	articles := doc.many(t)
	assert.Equal(t, []string{"articles/3", "articles/1"}, identitiesOf(articles))
	assert.Equal(t, "Designing hypermedia APIs", articles[0].Attributes["title"])
	assert.Equal(t, testBaseURL+"/articles/3", articles[0].Links["self"])
	assert.JSONEq(t,
		`{"links":{"self":"http://blog.test/articles/3/relationships/author"},"data":{"type":"people","id":"3"}}`,
		string(articles[0].Relationships["author"]))
	assert.JSONEq(t,
		`{"links":{"self":"http://blog.test/articles/3/relationships/comments"}}`,
		string(articles[0].Relationships["comments"]))

	assert.Equal(t, []string{"people/3", "people/1"}, identitiesOf(doc.Included))
	assert.Equal(t, float64(3), doc.Meta["total"])
	assert.Contains(t, doc.Links, "next")
	assert.NotContains(t, doc.Links, "prev")
}

func TestListArticles_Filter(t *testing.T) {
	handler := newTestHandler(t, nil)

	rec, doc := do(t, handler, http.MethodGet, "/articles?filter[status]=draft&fields[articles]=title", "")
	require.Equal(t, http.StatusOK, rec.Code)

	articles := doc.many(t)
	require.Len(t, articles, 1)
	assert.Equal(t, map[string]any{"title": "Designing hypermedia APIs"}, articles[0].Attributes)
	assert.Empty(t, articles[0].Relationships)
	assert.Empty(t, doc.Included)
	assert.Equal(t, float64(1), doc.Meta["total"])
}

func TestListArticles_BadRequests(t *testing.T) {
	tests := []struct {
		name      string
		target    string
		parameter string
	}{
		{name: "unknown sort field", target: "/articles?sort=body", parameter: "sort"},
		{name: "unknown filter", target: "/articles?filter[body]=x", parameter: "filter"},
		{name: "limit above maximum", target: "/articles?page[limit]=500", parameter: "page"},
		{name: "fields without type", target: "/articles?fields=title", parameter: "fields"},
	}

	handler := newTestHandler(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, doc := do(t, handler, http.MethodGet, tt.target, "")
			require.Equal(t, http.StatusBadRequest, rec.Code)
			require.Len(t, doc.Errors, 1)
			assert.Equal(t, "400", doc.Errors[0].Status)
			assert.Equal(t, "bad_request", doc.Errors[0].Code)
			assert.Equal(t, tt.parameter, doc.Errors[0].Source.Parameter)
			assert.NotEmpty(t, doc.Errors[0].ID)
		})
	}
}

func TestShowArticle_DefaultIncludes(t *testing.T) {
	handler := newTestHandler(t, nil)

	rec, doc := do(t, handler, http.MethodGet, "/articles/1", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	article := doc.one(t)
	assert.Equal(t, "articles/1", article.Type+"/"+article.ID)
	assert.Empty(t, article.Links, "links move to the document")
	assert.Equal(t, testBaseURL+"/articles/1", doc.Links["self"])

	assert.Equal(t, []string{"people/1", "comments/1", "comments/2"}, identitiesOf(doc.Included))
	assert.JSONEq(t, `{"data":{"type":"people","id":"3"}}`, string(doc.Included[1].Relationships["author"]))
}

func TestShowArticle_NestedInclude(t *testing.T) {
	handler := newTestHandler(t, nil)

	rec, doc := do(t, handler, http.MethodGet, "/articles/1?include=comments.author", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, []string{"comments/1", "comments/2", "people/3", "people/1"}, identitiesOf(doc.Included))
	assert.Equal(t, "Steve Klabnik", doc.Included[2].Attributes["name"])
}

func TestShowArticle_NotFound(t *testing.T) {
	handler := newTestHandler(t, nil)

	for _, target := range []string{"/articles/99", "/articles/abc"} {
		rec, doc := do(t, handler, http.MethodGet, target, "")
		require.Equal(t, http.StatusNotFound, rec.Code, target)
		require.Len(t, doc.Errors, 1)
		assert.Equal(t, "not_found", doc.Errors[0].Code)
	}
}

func TestShowArticleRelationship(t *testing.T) {
	handler := newTestHandler(t, nil)

	t.Run("to-one", func(t *testing.T) {
		rec, doc := do(t, handler, http.MethodGet, "/articles/1/relationships/author", "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.JSONEq(t, `{"type":"people","id":"1"}`, string(doc.Data))
		assert.Equal(t, testBaseURL+"/articles/1/relationships/author", doc.Links["self"])
		assert.Empty(t, doc.Included)
	})

	t.Run("to-many", func(t *testing.T) {
		rec, doc := do(t, handler, http.MethodGet, "/articles/1/relationships/comments", "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.JSONEq(t, `[{"type":"comments","id":"1"},{"type":"comments","id":"2"}]`, string(doc.Data))
	})

	t.Run("empty to-many", func(t *testing.T) {
		rec, doc := do(t, handler, http.MethodGet, "/articles/3/relationships/comments", "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.JSONEq(t, `[]`, string(doc.Data))
	})

	t.Run("unknown relationship", func(t *testing.T) {
		rec, _ := do(t, handler, http.MethodGet, "/articles/1/relationships/tags", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestShowPerson(t *testing.T) {
	handler := newTestHandler(t, nil)

	rec, doc := do(t, handler, http.MethodGet, "/people/2?fields[people]=name", "")
	require.Equal(t, http.StatusOK, rec.Code)
	person := doc.one(t)
	assert.Equal(t, map[string]any{"name": "Yehuda Katz"}, person.Attributes)

	rec, _ = do(t, handler, http.MethodGet, "/people/42", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListComments(t *testing.T) {
	handler := newTestHandler(t, nil)

	rec, doc := do(t, handler, http.MethodGet, "/comments?filter[article_id]=1", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, []string{"comments/1", "comments/2"}, identitiesOf(doc.many(t)))
	assert.Equal(t, []string{"people/3", "people/1"}, identitiesOf(doc.Included))
	assert.Equal(t, float64(2), doc.Meta["total"])
}

func TestCreateComment(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	handler := newTestHandler(t, zap.New(core))

	body := `{"data":{"type":"comments","attributes":{"body":"Great read"},
		"relationships":{"article":{"data":{"type":"articles","id":"2"}},"author":{"data":{"type":"people","id":"1"}}}}}`
	rec, doc := do(t, handler, http.MethodPost, "/comments", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, testBaseURL+"/comments/4", rec.Header().Get("Location"))

	comment := doc.one(t)
	assert.Equal(t, "comments/4", comment.Type+"/"+comment.ID)
	assert.Equal(t, "Great read", comment.Attributes["body"])
	assert.Equal(t, []string{"people/1"}, identitiesOf(doc.Included))
	assert.Equal(t, 1, logs.FilterMessage("comment created").Len())

	rec, doc = do(t, handler, http.MethodGet, "/articles/2/relationships/comments", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"type":"comments","id":"3"},{"type":"comments","id":"4"}]`, string(doc.Data))
}

func TestCreateComment_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		status  int
		pointer string
	}{
		{
			name:   "malformed",
			body:   `{"data":`,
			status: http.StatusBadRequest,
		},
		{
			name:   "wrong type",
			body:   `{"data":{"type":"articles","attributes":{"body":"x"}}}`,
			status: http.StatusConflict,
		},
		{
			name:    "blank body",
			body:    `{"data":{"type":"comments","attributes":{"body":""}}}`,
			status:  http.StatusUnprocessableEntity,
			pointer: "/data/attributes/body",
		},
		{
			name:    "missing article",
			body:    `{"data":{"type":"comments","attributes":{"body":"x"}}}`,
			status:  http.StatusUnprocessableEntity,
			pointer: "/data/relationships/article",
		},
		{
			name: "unknown article",
			body: `{"data":{"type":"comments","attributes":{"body":"x"},
				"relationships":{"article":{"data":{"type":"articles","id":"99"}},"author":{"data":{"type":"people","id":"1"}}}}}`,
			status: http.StatusNotFound,
		},
	}

	handler := newTestHandler(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, doc := do(t, handler, http.MethodPost, "/comments", tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			require.Len(t, doc.Errors, 1)
			assert.Equal(t, tt.pointer, doc.Errors[0].Source.Pointer)
		})
	}
}

func TestCreateComment_UnsupportedMediaType(t *testing.T) {
	handler := newTestHandler(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/comments", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestRoutes_NotFoundAndMethodNotAllowed(t *testing.T) {
	handler := newTestHandler(t, nil)

	rec, doc := do(t, handler, http.MethodGet, "/tags", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.Len(t, doc.Errors, 1)

	rec, doc = do(t, handler, http.MethodDelete, "/articles/1", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	require.Len(t, doc.Errors, 1)
	assert.Equal(t, "method_not_allowed", doc.Errors[0].Code)
}
