package response

import (
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/conduit-lang/jsonapi/pkg/jsonapi"
)

const (
	// JSONAPIMediaType is the official JSON:API media type
	JSONAPIMediaType = jsonapi.ContentType
)

// IsJSONAPI checks if the request accepts JSON:API format
func IsJSONAPI(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	if accept == "" {
		return false
	}

	for _, part := range strings.Split(accept, ",") {
		mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		if mediaType == JSONAPIMediaType {
			return true
		}
	}
	return false
}

// ValidateJSONAPIContentType checks if the Content-Type is application/vnd.api+json
// without media type parameters. Returns true if valid, writes a 415 error
// document and returns false if invalid.
func ValidateJSONAPIContentType(w http.ResponseWriter, r *http.Request) bool {
	mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if err != nil || mediaType != JSONAPIMediaType {
		_ = RenderError(w, nil, NewHTTPError(http.StatusUnsupportedMediaType,
			"Content-Type must be %s", JSONAPIMediaType))
		return false
	}

	if len(params) > 0 {
		_ = RenderError(w, nil, NewHTTPError(http.StatusUnsupportedMediaType,
			"Content-Type must be %s without media type parameters", JSONAPIMediaType))
		return false
	}

	return true
}

// BuildPaginationLinks creates the self, first, prev, next and last links of
// a page of total items, in offset based pagination.
func BuildPaginationLinks(baseURL string, limit, offset, total int) *jsonapi.Links {
	if limit < 1 {
		limit = 1
	}
	if offset < 0 {
		offset = 0
	}

	last := 0
	if total > 0 {
		last = ((total - 1) / limit) * limit
	}

	links := &jsonapi.Links{}
	links.Set("self", jsonapi.NewLink(buildPageURL(baseURL, limit, offset)))
	links.Set("first", jsonapi.NewLink(buildPageURL(baseURL, limit, 0)))

	if offset > 0 {
		prev := offset - limit
		if prev < 0 {
			prev = 0
		}
		links.Set("prev", jsonapi.NewLink(buildPageURL(baseURL, limit, prev)))
	}

	if offset+limit < total {
		links.Set("next", jsonapi.NewLink(buildPageURL(baseURL, limit, offset+limit)))
	}

	links.Set("last", jsonapi.NewLink(buildPageURL(baseURL, limit, last)))

	return links
}

// Paginate adds the pagination links and the total count to a collection
// document.
func Paginate(doc *jsonapi.Document, baseURL string, limit, offset, total int) {
	BuildPaginationLinks(baseURL, limit, offset, total).Each(func(name string, link *jsonapi.Link) {
		doc.Links().Set(name, link)
	})
	doc.SetMeta("total", jsonapi.Int(int64(total)))
}

func buildPageURL(baseURL string, limit, offset int) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Sprintf("%s?page[limit]=%d&page[offset]=%d", baseURL, limit, offset)
	}

	q := u.Query()
	q.Set("page[limit]", strconv.Itoa(limit))
	q.Set("page[offset]", strconv.Itoa(offset))
	u.RawQuery = q.Encode()

	return u.String()
}
