package response

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/conduit-lang/jsonapi/pkg/jsonapi"
)

// HTTPError is an error with an HTTP status, returned by handlers for
// problems such as missing resources.
type HTTPError struct {
	Status int
	Code   string
	Detail string
	// Pointer is the JSON pointer to the request document member which
	// caused the problem.
	Pointer string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e.Detail == "" {
		return http.StatusText(e.Status)
	}
	return fmt.Sprintf("%s: %s", http.StatusText(e.Status), e.Detail)
}

// NewHTTPError creates an HTTP error with a formatted detail.
func NewHTTPError(status int, format string, args ...any) *HTTPError {
	return &HTTPError{
		Status: status,
		Code:   errorCodeFromStatus(status),
		Detail: fmt.Sprintf(format, args...),
	}
}

// NotFound creates a 404 error for a resource.
func NotFound(resourceType, id string) *HTTPError {
	return NewHTTPError(http.StatusNotFound, "%s %s does not exist", resourceType, id)
}

// AttributeError creates a 422 error pointing at an attribute of the
// request document.
func AttributeError(attribute, detail string) *HTTPError {
	return &HTTPError{
		Status:  http.StatusUnprocessableEntity,
		Code:    "validation_error",
		Detail:  detail,
		Pointer: "/data/attributes/" + escapeJSONPointer(attribute),
	}
}

// ErrorObjectFromError converts an error into a JSON:API error object with a
// unique id. Bad requests keep the offending query parameter as source, HTTP
// errors keep their status and anything else becomes an internal error
// without details.
func ErrorObjectFromError(err error) *jsonapi.ErrorObject {
	e := &jsonapi.ErrorObject{}
	e.SetID(uuid.NewString())

	var apiErr *jsonapi.Error
	var httpErr *HTTPError

	switch {
	case errors.As(err, &httpErr):
		status := httpErr.Status
		if status < 400 || status > 599 {
			status = http.StatusInternalServerError
		}
		_ = e.SetStatusCode(status)
		code := httpErr.Code
		if code == "" {
			code = errorCodeFromStatus(status)
		}
		e.SetCode(code)
		e.SetTitle(http.StatusText(status))
		e.SetDetail(httpErr.Detail)
		e.SetSourcePointer(httpErr.Pointer)

	case errors.As(err, &apiErr) && apiErr.Kind == jsonapi.KindBadRequest:
		_ = e.SetStatusCode(http.StatusBadRequest)
		e.SetCode(errorCodeFromStatus(http.StatusBadRequest))
		e.SetTitle(http.StatusText(http.StatusBadRequest))
		e.SetDetail(apiErr.Message)
		e.SetSourceParameter(apiErr.Parameter)
		if apiErr.Resource != "" {
			e.SetMeta("resource", jsonapi.String(apiErr.Resource))
		}

	default:
		_ = e.SetStatusCode(http.StatusInternalServerError)
		e.SetCode(errorCodeFromStatus(http.StatusInternalServerError))
		e.SetTitle(http.StatusText(http.StatusInternalServerError))
	}

	return e
}

// escapeJSONPointer escapes special characters per RFC 6901
func escapeJSONPointer(token string) string {
	// Order matters: escape ~ before /
	token = strings.ReplaceAll(token, "~", "~0")
	token = strings.ReplaceAll(token, "/", "~1")
	return token
}

// errorCodeFromStatus maps HTTP status codes to error codes
func errorCodeFromStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusNotAcceptable:
		return "not_acceptable"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnsupportedMediaType:
		return "unsupported_media_type"
	case http.StatusUnprocessableEntity:
		return "unprocessable_entity"
	case http.StatusTooManyRequests:
		return "too_many_requests"
	case http.StatusInternalServerError:
		return "internal_error"
	case http.StatusServiceUnavailable:
		return "service_unavailable"
	default:
		return "error"
	}
}
