package blog

import (
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/conduit-lang/jsonapi/pkg/jsonapi"
)

// Adapters converts blog records into JSON:API resources. Links are built
// from BaseURL.
type Adapters struct {
	BaseURL string
}

// NewAPI creates an API with the blog adapters registered
func NewAPI(baseURL string, logger *zap.Logger) *jsonapi.API {
	adapters := &Adapters{BaseURL: baseURL}
	return jsonapi.NewAPI(
		jsonapi.WithLogger(logger),
		jsonapi.WithAdapter(TypeArticles, jsonapi.AdapterFunc(adapters.Article)),
		jsonapi.WithAdapter(TypePeople, jsonapi.AdapterFunc(adapters.Person)),
		jsonapi.WithAdapter(TypeComments, jsonapi.AdapterFunc(adapters.Comment)),
	)
}

// Article adapts an *Article. Attributes and relationships honour
// fields[articles]. The author is a full resource when loaded and an
// identifier otherwise; comments carry data only when loaded.
func (a *Adapters) Article(data any, doc *jsonapi.Document, path string) (*jsonapi.Resource, error) {
	article, ok := data.(*Article)
	if !ok {
		return nil, unexpected(TypeArticles, data)
	}

	id := formatID(article.ID)
	api, q := doc.API(), doc.Query()
	resource := api.CreateResource(TypeArticles, id, path)

	attributes := []struct {
		name  string
		value jsonapi.Value
	}{
		{"title", jsonapi.String(article.Title)},
		{"body", jsonapi.String(article.Body)},
		{"status", jsonapi.String(article.Status)},
		{"created_at", jsonapi.String(article.CreatedAt.UTC().Format(time.RFC3339))},
	}
	for _, attr := range attributes {
		if q.IsFieldRequested(TypeArticles, attr.name) {
			resource.SetAttribute(attr.name, attr.value)
		}
	}

	if q.IsFieldRequested(TypeArticles, "author") {
		author := api.CreateResource(TypePeople, formatID(article.AuthorID), joinPath(path, "author"))
		if article.Author != nil {
			var err error
			if author, err = doc.Adapt(TypePeople, article.Author, joinPath(path, "author")); err != nil {
				return nil, err
			}
		}
		relationship := api.CreateRelationship()
		relationship.SetResource(author)
		if _, err := relationship.SetLink("self", a.relationshipURL(id, "author")); err != nil {
			return nil, err
		}
		resource.SetRelationship("author", relationship)
	}

	if q.IsFieldRequested(TypeArticles, "comments") {
		relationship := api.CreateRelationship()
		if _, err := relationship.SetLink("self", a.relationshipURL(id, "comments")); err != nil {
			return nil, err
		}
		if article.Comments != nil {
			comments := make([]*jsonapi.Resource, 0, len(article.Comments))
			for _, c := range article.Comments {
				comment, err := doc.Adapt(TypeComments, c, joinPath(path, "comments"))
				if err != nil {
					return nil, err
				}
				comments = append(comments, comment)
			}
			if err := relationship.SetResourceCollection(comments); err != nil {
				return nil, err
			}
		}
		resource.SetRelationship("comments", relationship)
	}

	if _, err := resource.SetLink("self", a.resourceURL(TypeArticles, id)); err != nil {
		return nil, err
	}
	return resource, nil
}

// Person adapts a *Person
func (a *Adapters) Person(data any, doc *jsonapi.Document, path string) (*jsonapi.Resource, error) {
	person, ok := data.(*Person)
	if !ok {
		return nil, unexpected(TypePeople, data)
	}

	id := formatID(person.ID)
	q := doc.Query()
	resource := doc.API().CreateResource(TypePeople, id, path)
	if q.IsFieldRequested(TypePeople, "name") {
		resource.SetAttribute("name", jsonapi.String(person.Name))
	}
	if q.IsFieldRequested(TypePeople, "email") {
		resource.SetAttribute("email", jsonapi.String(person.Email))
	}

	if _, err := resource.SetLink("self", a.resourceURL(TypePeople, id)); err != nil {
		return nil, err
	}
	return resource, nil
}

// Comment adapts a *Comment. The article is always an identifier.
func (a *Adapters) Comment(data any, doc *jsonapi.Document, path string) (*jsonapi.Resource, error) {
	comment, ok := data.(*Comment)
	if !ok {
		return nil, unexpected(TypeComments, data)
	}

	api, q := doc.API(), doc.Query()
	resource := api.CreateResource(TypeComments, formatID(comment.ID), path)
	if q.IsFieldRequested(TypeComments, "body") {
		resource.SetAttribute("body", jsonapi.String(comment.Body))
	}

	if q.IsFieldRequested(TypeComments, "author") {
		author := api.CreateResource(TypePeople, formatID(comment.AuthorID), joinPath(path, "author"))
		if comment.Author != nil {
			var err error
			if author, err = doc.Adapt(TypePeople, comment.Author, joinPath(path, "author")); err != nil {
				return nil, err
			}
		}
		relationship := api.CreateRelationship()
		relationship.SetResource(author)
		resource.SetRelationship("author", relationship)
	}

	if q.IsFieldRequested(TypeComments, "article") {
		relationship := api.CreateRelationship()
		relationship.SetResource(api.CreateResource(TypeArticles, formatID(comment.ArticleID), joinPath(path, "article")))
		resource.SetRelationship("article", relationship)
	}

	return resource, nil
}

func (a *Adapters) resourceURL(resourceType, id string) string {
	return fmt.Sprintf("%s/%s/%s", a.BaseURL, resourceType, id)
}

func (a *Adapters) relationshipURL(id, name string) string {
	return fmt.Sprintf("%s/%s/%s/relationships/%s", a.BaseURL, TypeArticles, id, name)
}

func joinPath(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func unexpected(resourceType string, data any) error {
	return fmt.Errorf("cannot adapt %T as %s", data, resourceType)
}
