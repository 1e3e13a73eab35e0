package blog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	reqquery "github.com/conduit-lang/jsonapi/internal/web/query"
	"github.com/conduit-lang/jsonapi/pkg/jsonapi"
	sqlquery "github.com/conduit-lang/jsonapi/pkg/web/query"
	"github.com/conduit-lang/jsonapi/pkg/web/response"
)

// Config configures the blog handlers
type Config struct {
	// BaseURL prefixes resource and pagination links
	BaseURL string
	// DefaultLimit and MaxLimit bound page[limit]
	DefaultLimit int
	MaxLimit     int
	PrettyPrint  bool
	Logger       *zap.Logger
}

// Handler serves the blog resources
type Handler struct {
	store    *Store
	api      *jsonapi.API
	renderer *response.Renderer
	config   Config
	logger   *zap.Logger
}

// NewHandler creates the blog handlers
func NewHandler(store *Store, config Config) *Handler {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.DefaultLimit <= 0 {
		config.DefaultLimit = 20
	}

	return &Handler{
		store: store,
		api:   NewAPI(config.BaseURL, logger.Named("jsonapi")),
		renderer: response.NewRendererWithConfig(&response.RendererConfig{
			PrettyPrint: config.PrettyPrint,
			Logger:      logger,
		}),
		config: config,
		logger: logger,
	}
}

// API returns the registry the handlers build documents with
func (h *Handler) API() *jsonapi.API {
	return h.api
}

func (h *Handler) articleOptions() sqlquery.Options {
	return sqlquery.Options{
		Table:        "articles",
		FilterFields: []string{"status", "author_id", "title"},
		SortFields:   []string{"title", "created_at", "status"},
		DefaultSort:  "-created_at",
		DefaultLimit: h.config.DefaultLimit,
		MaxLimit:     h.config.MaxLimit,
		Placeholder:  h.store.Placeholder(),
	}
}

func (h *Handler) commentOptions() sqlquery.Options {
	return sqlquery.Options{
		Table:        "comments",
		FilterFields: []string{"article_id", "author_id"},
		SortFields:   []string{"id"},
		DefaultSort:  "id",
		DefaultLimit: h.config.DefaultLimit,
		MaxLimit:     h.config.MaxLimit,
		Placeholder:  h.store.Placeholder(),
	}
}

// ListArticles handles GET /articles
func (h *Handler) ListArticles(w http.ResponseWriter, r *http.Request) {
	q, err := reqquery.Parse(h.api, r)
	if err != nil {
		h.fail(w, err)
		return
	}

	clauses, err := sqlquery.FromQuery(q, h.articleOptions())
	if err != nil {
		h.fail(w, err)
		return
	}

	articles, total, err := h.store.ListArticles(r.Context(), clauses)
	if err != nil {
		h.fail(w, err)
		return
	}
	if err := h.loadArticleRelations(r.Context(), q, articles); err != nil {
		h.fail(w, err)
		return
	}

	doc := h.api.CreateDocument(q)
	if err := doc.SetPrimaryCollection(TypeArticles, jsonapi.Collection(articles)); err != nil {
		h.fail(w, err)
		return
	}
	response.Paginate(doc, h.config.BaseURL+r.URL.RequestURI(), clauses.Limit, clauses.Offset, total)
	h.render(w, doc)
}

// ShowArticle handles GET /articles/{id}
func (h *Handler) ShowArticle(w http.ResponseWriter, r *http.Request) {
	q, err := reqquery.Parse(h.api, r)
	if err != nil {
		h.fail(w, err)
		return
	}

	article, err := h.findArticle(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	if err := h.loadArticleRelations(r.Context(), q, []*Article{article}); err != nil {
		h.fail(w, err)
		return
	}

	doc := h.api.CreateDocument(q)
	if err := doc.SetPrimaryResource(TypeArticles, article); err != nil {
		h.fail(w, err)
		return
	}
	h.render(w, doc)
}

// ShowArticleRelationship handles GET /articles/{id}/relationships/{name}.
// The relationship's linkage is the primary data.
func (h *Handler) ShowArticleRelationship(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name != "author" && name != "comments" {
		h.fail(w, response.NewHTTPError(http.StatusNotFound, "articles have no relationship %q", name))
		return
	}

	article, err := h.findArticle(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	doc := h.api.CreateDocument(nil)
	resource, err := doc.Adapt(TypeArticles, article, "")
	if err != nil {
		h.fail(w, err)
		return
	}
	relationship, _ := resource.Relationship(name)

	if name == "comments" {
		grouped, err := h.store.CommentsByArticle(r.Context(), []int64{article.ID})
		if err != nil {
			h.fail(w, err)
			return
		}
		identifiers := make([]*jsonapi.Resource, 0, len(grouped[article.ID]))
		for _, c := range grouped[article.ID] {
			identifiers = append(identifiers, h.api.CreateResource(TypeComments, formatID(c.ID), name))
		}
		if err := relationship.SetResourceCollection(identifiers); err != nil {
			h.fail(w, err)
			return
		}
	}

	doc.SetRelationshipAsPrimary(relationship)
	relationship.Links().Each(func(linkName string, link *jsonapi.Link) {
		doc.Links().Set(linkName, link)
	})
	h.render(w, doc)
}

// ShowPerson handles GET /people/{id}
func (h *Handler) ShowPerson(w http.ResponseWriter, r *http.Request) {
	q, err := reqquery.Parse(h.api, r)
	if err != nil {
		h.fail(w, err)
		return
	}

	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		h.fail(w, response.NotFound(TypePeople, chi.URLParam(r, "id")))
		return
	}
	person, err := h.store.FindPerson(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		err = response.NotFound(TypePeople, formatID(id))
	}
	if err != nil {
		h.fail(w, err)
		return
	}

	doc := h.api.CreateDocument(q)
	if err := doc.SetPrimaryResource(TypePeople, person); err != nil {
		h.fail(w, err)
		return
	}
	h.render(w, doc)
}

// ListComments handles GET /comments
func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	q, err := reqquery.Parse(h.api, r)
	if err != nil {
		h.fail(w, err)
		return
	}

	clauses, err := sqlquery.FromQuery(q, h.commentOptions())
	if err != nil {
		h.fail(w, err)
		return
	}

	comments, total, err := h.store.ListComments(r.Context(), clauses)
	if err != nil {
		h.fail(w, err)
		return
	}
	if q.IsIncluded("author") {
		if err := h.loadCommentAuthors(r.Context(), comments); err != nil {
			h.fail(w, err)
			return
		}
	}

	doc := h.api.CreateDocument(q)
	if err := doc.SetPrimaryCollection(TypeComments, jsonapi.Collection(comments)); err != nil {
		h.fail(w, err)
		return
	}
	response.Paginate(doc, h.config.BaseURL+r.URL.RequestURI(), clauses.Limit, clauses.Offset, total)
	h.render(w, doc)
}

type identifier struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type toOneData struct {
	Data *identifier `json:"data"`
}

type commentRequest struct {
	Data *struct {
		Type       string `json:"type"`
		Attributes struct {
			Body string `json:"body"`
		} `json:"attributes"`
		Relationships struct {
			Article toOneData `json:"article"`
			Author  toOneData `json:"author"`
		} `json:"relationships"`
	} `json:"data"`
}

// CreateComment handles POST /comments
func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	if !response.ValidateJSONAPIContentType(w, r) {
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Data == nil {
		h.fail(w, response.NewHTTPError(http.StatusBadRequest, "request body must be a JSON:API document with data"))
		return
	}
	if req.Data.Type != TypeComments {
		h.fail(w, response.NewHTTPError(http.StatusConflict, "expected resource type %q, got %q", TypeComments, req.Data.Type))
		return
	}
	if req.Data.Attributes.Body == "" {
		h.fail(w, response.AttributeError("body", "body must not be blank"))
		return
	}

	articleID, err := relationshipID(req.Data.Relationships.Article, "article", TypeArticles)
	if err != nil {
		h.fail(w, err)
		return
	}
	authorID, err := relationshipID(req.Data.Relationships.Author, "author", TypePeople)
	if err != nil {
		h.fail(w, err)
		return
	}

	ctx := r.Context()
	if _, err := h.store.FindArticle(ctx, articleID); err != nil {
		if errors.Is(err, ErrNotFound) {
			err = response.NotFound(TypeArticles, formatID(articleID))
		}
		h.fail(w, err)
		return
	}
	author, err := h.store.FindPerson(ctx, authorID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			err = response.NotFound(TypePeople, formatID(authorID))
		}
		h.fail(w, err)
		return
	}

	comment := &Comment{Body: req.Data.Attributes.Body, ArticleID: articleID, AuthorID: authorID}
	if err := h.store.CreateComment(ctx, comment); err != nil {
		h.fail(w, err)
		return
	}
	comment.Author = author
	h.logger.Info("comment created", zap.Int64("id", comment.ID), zap.Int64("article_id", articleID))

	doc := h.api.CreateDocument(nil)
	if err := doc.SetPrimaryResource(TypeComments, comment); err != nil {
		h.fail(w, err)
		return
	}
	doc.SetStatusCode(http.StatusCreated)
	w.Header().Set("Location", h.config.BaseURL+"/comments/"+formatID(comment.ID))
	h.render(w, doc)
}

func relationshipID(rel toOneData, name, resourceType string) (int64, error) {
	invalid := &response.HTTPError{
		Status:  http.StatusUnprocessableEntity,
		Code:    "validation_error",
		Detail:  name + " must reference " + resourceType,
		Pointer: "/data/relationships/" + name,
	}
	if rel.Data == nil || rel.Data.Type != resourceType {
		return 0, invalid
	}
	id, ok := parseID(rel.Data.ID)
	if !ok {
		return 0, invalid
	}
	return id, nil
}

func (h *Handler) findArticle(r *http.Request) (*Article, error) {
	raw := chi.URLParam(r, "id")
	id, ok := parseID(raw)
	if !ok {
		return nil, response.NotFound(TypeArticles, raw)
	}
	article, err := h.store.FindArticle(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		return nil, response.NotFound(TypeArticles, raw)
	}
	return article, err
}

// loadArticleRelations loads the authors and comments the query includes
func (h *Handler) loadArticleRelations(ctx context.Context, q *jsonapi.Query, articles []*Article) error {
	if len(articles) == 0 {
		return nil
	}

	if q.IsIncluded("author") {
		ids := make([]int64, 0, len(articles))
		for _, a := range articles {
			ids = append(ids, a.AuthorID)
		}
		people, err := h.store.PeopleByID(ctx, ids)
		if err != nil {
			return err
		}
		for _, a := range articles {
			a.Author = people[a.AuthorID]
		}
	}

	if q.IsIncluded("comments") {
		ids := make([]int64, 0, len(articles))
		for _, a := range articles {
			ids = append(ids, a.ID)
		}
		grouped, err := h.store.CommentsByArticle(ctx, ids)
		if err != nil {
			return err
		}
		var all []*Comment
		for _, a := range articles {
			a.Comments = nonNil(grouped[a.ID])
			all = append(all, a.Comments...)
		}
		if q.IsIncluded("comments.author") {
			return h.loadCommentAuthors(ctx, all)
		}
	}
	return nil
}

func (h *Handler) loadCommentAuthors(ctx context.Context, comments []*Comment) error {
	ids := make([]int64, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.AuthorID)
	}
	people, err := h.store.PeopleByID(ctx, ids)
	if err != nil {
		return err
	}
	for _, c := range comments {
		c.Author = people[c.AuthorID]
	}
	return nil
}

func (h *Handler) render(w http.ResponseWriter, doc *jsonapi.Document) {
	if err := h.renderer.Document(w, doc); err != nil {
		h.logger.Error("failed to write document", zap.Error(err))
	}
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	if renderErr := h.renderer.Error(w, h.api, err); renderErr != nil {
		h.logger.Error("failed to write error document", zap.Error(renderErr))
	}
}

func parseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func nonNil(comments []*Comment) []*Comment {
	if comments == nil {
		return []*Comment{}
	}
	return comments
}
