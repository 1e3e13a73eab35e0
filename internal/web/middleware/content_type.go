package middleware

import (
	"mime"
	"net/http"
	"strings"

	"github.com/conduit-lang/jsonapi/pkg/web/response"
)

// ContentNegotiation enforces the JSON:API media type rules. Requests with a
// body must use the JSON:API media type without parameters (415 otherwise).
// Requests whose Accept header lists the JSON:API media type only with
// parameters are not acceptable (406).
func ContentNegotiation() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hasBody(r) && !response.ValidateJSONAPIContentType(w, r) {
				return
			}

			if !acceptable(r.Header.Get("Accept")) {
				_ = response.RenderError(w, nil, response.NewHTTPError(http.StatusNotAcceptable,
					"Accept must allow %s without media type parameters", response.JSONAPIMediaType))
				return
			}

			w.Header().Set("Vary", "Accept")
			next.ServeHTTP(w, r)
		})
	}
}

func hasBody(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPatch, http.MethodPut:
		return true
	default:
		return false
	}
}

// acceptable reports whether an Accept header allows a plain JSON:API
// response. Headers which never mention the JSON:API media type are
// acceptable.
func acceptable(accept string) bool {
	if accept == "" {
		return true
	}

	mentioned := false
	for _, part := range strings.Split(accept, ",") {
		mediaType, params, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil || mediaType != response.JSONAPIMediaType {
			continue
		}
		mentioned = true
		delete(params, "q")
		if len(params) == 0 {
			return true
		}
	}

	return !mentioned
}
