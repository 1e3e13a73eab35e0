package blog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/conduit-lang/jsonapi/internal/web/middleware"
	"github.com/conduit-lang/jsonapi/pkg/web/response"
)

// Routes returns the blog router wrapped in the request middleware
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		h.fail(w, response.NewHTTPError(http.StatusNotFound, "no route for %s", req.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		h.fail(w, response.NewHTTPError(http.StatusMethodNotAllowed, "%s is not supported on %s", req.Method, req.URL.Path))
	})

	r.Route("/articles", func(r chi.Router) {
		r.Get("/", h.ListArticles)
		r.Get("/{id}", h.ShowArticle)
		r.Get("/{id}/relationships/{name}", h.ShowArticleRelationship)
	})
	r.Get("/people/{id}", h.ShowPerson)
	r.Route("/comments", func(r chi.Router) {
		r.Get("/", h.ListComments)
		r.Post("/", h.CreateComment)
	})

	return middleware.NewChain(
		middleware.RequestID(),
		middleware.Logging(h.logger.Named("http")),
		middleware.RecoveryWithConfig(middleware.RecoveryConfig{
			Logger:           h.logger,
			EnableStackTrace: true,
			Renderer:         h.renderer,
		}),
		middleware.ContentNegotiation(),
	).Then(r)
}
