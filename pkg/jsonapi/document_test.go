package jsonapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type blogGraph struct {
	article  *Resource
	author   *Resource
	comments []*Resource
}

func toOne(resource *Resource) *Relationship {
	relationship := NewRelationship()
	relationship.SetResource(resource)
	return relationship
}

func toMany(t *testing.T, resources ...*Resource) *Relationship {
	t.Helper()
	relationship := NewRelationship()
	require.NoError(t, relationship.SetResourceCollection(resources))
	return relationship
}

// newBlogGraph builds articles/1 with author people/9 and comments 5 and 12,
// both written by people/9.
func newBlogGraph(t *testing.T) *blogGraph {
	t.Helper()

	author := NewResource("people", "9")
	author.SetAttribute("name", String("Dan Gebhardt"))

	comment5 := NewResource("comments", "5")
	comment5.SetAttribute("body", String("First!"))
	comment5.SetRelationship("author", toOne(author))

	comment12 := NewResource("comments", "12")
	comment12.SetAttribute("body", String("I like XML better"))
	comment12.SetRelationship("author", toOne(author))

	article := NewResource("articles", "1")
	article.SetAttribute("title", String("JSON:API paints my bikeshed!"))
	_, err := article.SetLink("self", "http://example.com/articles/1")
	require.NoError(t, err)
	article.SetRelationship("author", toOne(author))
	article.SetRelationship("comments", toMany(t, comment5, comment12))

	return &blogGraph{
		article:  article,
		author:   author,
		comments: []*Resource{comment5, comment12},
	}
}

func identities(resources []*Resource) []string {
	result := make([]string, len(resources))
	for i, resource := range resources {
		result[i] = resource.Type() + "/" + resource.ID()
	}
	return result
}

func TestDocument_IncludeDefault(t *testing.T) {
	graph := newBlogGraph(t)

	// A second comment author only reachable through comments.author
	other := NewResource("people", "10")
	other.SetAttribute("name", String("Someone Else"))
	graph.comments[1].SetRelationship("author", toOne(other))

	doc := NewAPI().CreateDocument(nil)
	require.NoError(t, doc.SetPrimaryResource("articles", graph.article))

	assert.Equal(t, []string{"people/9", "comments/5", "comments/12"}, identities(doc.Included()))
	assert.Equal(t, "author", graph.author.RelationshipPath())
	assert.Equal(t, "comments", graph.comments[0].RelationshipPath())
}

func TestDocument_IncludeNestedPath(t *testing.T) {
	graph := newBlogGraph(t)

	query := mustQuery(t, Params{"include": {Value: "comments.author"}})
	doc := NewAPI().CreateDocument(query)
	require.NoError(t, doc.SetPrimaryResource("articles", graph.article))

	assert.Equal(t, []string{"comments/5", "comments/12", "people/9"}, identities(doc.Included()))
	assert.Equal(t, "comments.author", graph.author.RelationshipPath())
}

func TestDocument_IncludeCycle(t *testing.T) {
	a := NewResource("nodes", "a")
	b := NewResource("nodes", "b")
	a.SetAttribute("name", String("a"))
	b.SetAttribute("name", String("b"))
	a.SetRelationship("next", toOne(b))
	b.SetRelationship("next", toOne(a))

	query := mustQuery(t, Params{"include": {Value: "next.next.next.next"}})
	doc := NewAPI().CreateDocument(query)
	require.NoError(t, doc.SetPrimaryResource("nodes", a))

	// a is primary data and never shows up in included
	assert.Equal(t, []string{"nodes/b"}, identities(doc.Included()))
}

func TestDocument_IncludeSkipsIdentifiers(t *testing.T) {
	tag := NewResource("tags", "7")
	article := NewResource("articles", "1")
	article.SetAttribute("title", String("Hello"))
	article.SetRelationship("tags", toMany(t, tag))

	doc := NewAPI().CreateDocument(nil)
	require.NoError(t, doc.SetPrimaryResource("articles", article))

	assert.Empty(t, doc.Included())
	assert.False(t, doc.AddIncluded(tag))

	value, err := doc.Render()
	require.NoError(t, err)
	obj, _ := value.AsObject()
	assert.False(t, obj.Has("included"))
}

func TestDocument_IncludeSkipsResourcesWithoutID(t *testing.T) {
	draft := NewResource("comments", "")
	draft.SetAttribute("body", String("unsaved"))

	doc := NewAPI().CreateDocument(nil)
	assert.False(t, doc.AddIncluded(draft))
	assert.Empty(t, doc.Included())
}

func TestDocument_AddIncludedOnce(t *testing.T) {
	person := NewResource("people", "1")
	person.SetAttribute("name", String("A"))
	duplicate := NewResource("people", "1")
	duplicate.SetAttribute("name", String("B"))

	doc := NewAPI().CreateDocument(nil)
	assert.True(t, doc.AddIncluded(person))
	assert.False(t, doc.AddIncluded(duplicate))
	assert.Equal(t, []*Resource{person}, doc.Included())
}

func TestDocument_IncludedGroupedByType(t *testing.T) {
	doc := NewAPI().CreateDocument(nil)
	for _, r := range []*Resource{
		NewResource("people", "1"),
		NewResource("tags", "1"),
		NewResource("people", "2"),
	} {
		r.SetAttribute("name", String(r.ID()))
		require.True(t, doc.AddIncluded(r))
	}

	assert.Equal(t, []string{"people/1", "people/2", "tags/1"}, identities(doc.Included()))
}

func TestDocument_PrimaryResourceLinksMoveToDocument(t *testing.T) {
	graph := newBlogGraph(t)

	doc := NewAPI().CreateDocument(nil)
	require.NoError(t, doc.SetPrimaryResource("articles", graph.article))

	self, ok := doc.Links().Get("self")
	require.True(t, ok)
	assert.Equal(t, "http://example.com/articles/1", self.Href())
	assert.Equal(t, 0, graph.article.Links().Len())
}

func TestDocument_PrimaryCollection(t *testing.T) {
	author := NewResource("people", "9")
	author.SetAttribute("name", String("Dan"))

	first := NewResource("articles", "1")
	first.SetAttribute("title", String("One"))
	_, err := first.SetLink("self", "/articles/1")
	require.NoError(t, err)
	first.SetRelationship("author", toOne(author))

	second := NewResource("articles", "2")
	second.SetAttribute("title", String("Two"))
	second.SetRelationship("author", toOne(author))
	// Primary data never ends up in included, even when related
	second.SetRelationship("previous", toOne(first))

	doc := NewAPI().CreateDocument(nil)
	require.NoError(t, doc.SetPrimaryCollection("articles", Collection([]*Resource{first, second})))

	assert.True(t, doc.Data().IsToMany())
	assert.Equal(t, []string{"articles/1", "articles/2"}, identities(doc.Data().Collection()))
	assert.Equal(t, []string{"people/9"}, identities(doc.Included()))
	assert.Equal(t, 0, doc.Links().Len())
	assert.Equal(t, 1, first.Links().Len())
}

func TestDocument_PrimaryCollectionRejectsNil(t *testing.T) {
	doc := NewAPI().CreateDocument(nil)
	err := doc.SetPrimaryCollection("articles", []any{NewResource("articles", "1"), nil})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindValidation))
	assert.False(t, doc.Data().IsSet())
}

func TestDocument_PrimaryResourceAdapted(t *testing.T) {
	type person struct {
		ID   string
		Name string
	}

	var gotPath string
	api := NewAPI(WithAdapter("people", AdapterFunc(func(data any, doc *Document, path string) (*Resource, error) {
		gotPath = path
		p := data.(person)
		resource := NewResource("people", p.ID)
		if doc.Query().IsFieldRequested("people", "name") {
			resource.SetAttribute("name", String(p.Name))
		}
		return resource, nil
	})))

	query := mustQuery(t, Params{"fields": {Sub: map[string]string{"people": "email"}}})
	doc := api.CreateDocument(query)
	require.NoError(t, doc.SetPrimaryResource("people", person{ID: "3", Name: "Ann"}))

	assert.Equal(t, "", gotPath)
	resource := doc.Data().Resource()
	require.NotNil(t, resource)
	assert.Equal(t, "3", resource.ID())
	assert.Equal(t, 0, resource.Attributes().Len())
}

func TestDocument_PrimaryResourceWithoutAdapter(t *testing.T) {
	doc := NewAPI().CreateDocument(nil)
	err := doc.SetPrimaryResource("unicorns", struct{}{})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindConfiguration))
}

func TestDocument_NullPrimaryResource(t *testing.T) {
	doc := NewAPI().CreateDocument(nil)
	var missing *Resource
	require.NoError(t, doc.SetPrimaryResource("articles", missing))

	assert.True(t, doc.HasContent())
	assert.Equal(t, http.StatusOK, doc.StatusCode())

	data, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonapi":{"version":"1.0"},"data":null}`, string(data))
}

func TestDocument_RelationshipAsPrimary(t *testing.T) {
	graph := newBlogGraph(t)

	t.Run("to-one moves links", func(t *testing.T) {
		author := NewResource("people", "9")
		_, err := author.SetLink("self", "/people/9")
		require.NoError(t, err)

		doc := NewAPI().CreateDocument(nil)
		doc.SetRelationshipAsPrimary(toOne(author))

		assert.Equal(t, author, doc.Data().Resource())
		_, ok := doc.Links().Get("self")
		assert.True(t, ok)
		assert.Equal(t, 0, author.Links().Len())
	})

	t.Run("to-many", func(t *testing.T) {
		relationship, ok := graph.article.Relationship("comments")
		require.True(t, ok)

		doc := NewAPI().CreateDocument(nil)
		doc.SetRelationshipAsPrimary(relationship)
		assert.Equal(t, []string{"comments/5", "comments/12"}, identities(doc.Data().Collection()))
	})

	t.Run("null", func(t *testing.T) {
		relationship := NewRelationship()
		relationship.SetResource(nil)

		doc := NewAPI().CreateDocument(nil)
		doc.SetRelationshipAsPrimary(relationship)
		assert.True(t, doc.Data().IsNull())
		assert.True(t, doc.HasContent())
	})
}

func TestDocument_HasContent(t *testing.T) {
	doc := NewAPI().CreateDocument(nil)
	assert.False(t, doc.HasContent())
	assert.Equal(t, http.StatusNoContent, doc.StatusCode())

	withMeta := NewAPI().CreateDocument(nil)
	withMeta.SetMeta("total", Int(0))
	assert.True(t, withMeta.HasContent())
	assert.Equal(t, http.StatusOK, withMeta.StatusCode())

	withError := NewAPI().CreateDocument(nil)
	withError.AddError(&ErrorObject{title: "Oops"})
	assert.True(t, withError.HasContent())
}

func TestDocument_StatusCode(t *testing.T) {
	newError := func(t *testing.T, status int) *ErrorObject {
		e, err := NewErrorObject(status, "", "problem", "")
		require.NoError(t, err)
		return e
	}

	t.Run("first error with status", func(t *testing.T) {
		doc := NewAPI().CreateDocument(nil)
		doc.AddError(newError(t, 0))
		doc.AddError(newError(t, http.StatusNotFound))
		doc.AddError(newError(t, http.StatusConflict))
		assert.Equal(t, http.StatusNotFound, doc.StatusCode())
	})

	t.Run("errors without status", func(t *testing.T) {
		doc := NewAPI().CreateDocument(nil)
		doc.AddError(newError(t, 0))
		doc.AddError(newError(t, 0))
		assert.Equal(t, http.StatusBadRequest, doc.StatusCode())
	})

	t.Run("override wins", func(t *testing.T) {
		doc := NewAPI().CreateDocument(nil)
		doc.SetStatusCode(http.StatusCreated)
		doc.AddError(newError(t, http.StatusNotFound))
		assert.Equal(t, http.StatusCreated, doc.StatusCode())
	})

	t.Run("data clears errors", func(t *testing.T) {
		doc := NewAPI().CreateDocument(nil)
		doc.AddError(newError(t, http.StatusNotFound))
		require.NoError(t, doc.SetPrimaryResource("people", NewResource("people", "1")))
		assert.Empty(t, doc.Errors())
		assert.Equal(t, http.StatusNotFound, doc.StatusCode())
	})

	t.Run("first error status is kept", func(t *testing.T) {
		doc := NewAPI().CreateDocument(nil)
		doc.AddError(newError(t, http.StatusConflict))
		doc.AddError(newError(t, http.StatusNotFound))
		assert.Equal(t, http.StatusConflict, doc.StatusCode())
	})
}

func TestDocument_NilRelationship(t *testing.T) {
	article := NewResource("articles", "1")
	article.SetRelationship("author", nil)
	assert.Equal(t, 0, article.RelationshipCount())

	doc := NewAPI().CreateDocument(nil)
	require.NoError(t, doc.SetPrimaryResource("articles", article))
	assert.Equal(t, `{"jsonapi":{"version":"1.0"},"data":{"type":"articles","id":"1"}}`, marshal(t, doc))

	doc.SetRelationshipAsPrimary(nil)
	assert.Equal(t, "1", doc.Data().Resource().ID())
}

func TestDocument_RenderPrefersErrors(t *testing.T) {
	doc := NewAPI().CreateDocument(nil)
	require.NoError(t, doc.SetPrimaryResource("people", NewResource("people", "1")))

	e, err := NewErrorObject(http.StatusForbidden, "forbidden", "Forbidden", "")
	require.NoError(t, err)
	doc.AddError(e)

	data, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"jsonapi": {"version": "1.0"},
		"errors": [{"status": "403", "code": "forbidden", "title": "Forbidden"}]
	}`, string(data))
}

func TestDocument_RenderEmpty(t *testing.T) {
	doc := NewAPI().CreateDocument(nil)
	_, err := doc.Render()
	require.Error(t, err)
	assert.True(t, IsKind(err, KindMalformedDocument))
}

func TestDocument_RenderMetaOnly(t *testing.T) {
	doc := NewAPI().CreateDocument(nil)
	doc.SetMeta("count", Int(3))

	data, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.Equal(t, `{"jsonapi":{"version":"1.0"},"meta":{"count":3}}`, string(data))
}

func TestDocument_RenderCompound(t *testing.T) {
	graph := newBlogGraph(t)

	query := mustQuery(t, Params{"include": {Value: "author"}})
	doc := NewAPI().CreateDocument(query)
	require.NoError(t, doc.SetPrimaryResource("articles", graph.article))
	doc.SetMeta("copyright", String("2015"))

	data, err := json.Marshal(doc)
	require.NoError(t, err)

	want := `{"jsonapi":{"version":"1.0"},` +
		`"links":{"self":"http://example.com/articles/1"},` +
		`"data":{"type":"articles","id":"1",` +
		`"attributes":{"title":"JSON:API paints my bikeshed!"},` +
		`"relationships":{` +
		`"author":{"data":{"type":"people","id":"9"}},` +
		`"comments":{"data":[{"type":"comments","id":"5"},{"type":"comments","id":"12"}]}}},` +
		`"included":[{"type":"people","id":"9","attributes":{"name":"Dan Gebhardt"}}],` +
		`"meta":{"copyright":"2015"}}`
	assert.Equal(t, want, string(data))
}

func TestDocument_RenderMalformedRelationship(t *testing.T) {
	article := NewResource("articles", "1")
	article.SetRelationship("author", NewRelationship())

	doc := NewAPI().CreateDocument(nil)
	require.NoError(t, doc.SetPrimaryResource("articles", article))

	_, err := doc.Render()
	require.Error(t, err)
	assert.True(t, IsKind(err, KindMalformedDocument))
}
