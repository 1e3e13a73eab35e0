package jsonapi

import "strconv"

// ErrorObject describes a single problem in an errors document.
type ErrorObject struct {
	metaHolder
	linkHolder

	id              string
	statusCode      int
	code            string
	title           string
	detail          string
	sourcePointer   string
	sourceParameter string
}

// NewErrorObject creates an error object. A zero statusCode leaves the
// status unset.
func NewErrorObject(statusCode int, code, title, detail string) (*ErrorObject, error) {
	e := &ErrorObject{
		code:   code,
		title:  title,
		detail: detail,
	}
	if err := e.SetStatusCode(statusCode); err != nil {
		return nil, err
	}
	return e, nil
}

// SetID sets the unique identifier of this occurrence of the problem.
func (e *ErrorObject) SetID(id string) {
	e.id = id
}

// ID returns the identifier of this occurrence of the problem.
func (e *ErrorObject) ID() string {
	return e.id
}

// SetStatusCode sets the HTTP status code applicable to the problem.
// Only client (4xx) and server (5xx) errors are accepted; 0 unsets it.
func (e *ErrorObject) SetStatusCode(statusCode int) error {
	if statusCode != 0 && (statusCode < 400 || statusCode > 599) {
		return newError(KindValidation,
			"status code of an error should be between 400 and 599, got %d", statusCode)
	}
	e.statusCode = statusCode
	return nil
}

// StatusCode returns the HTTP status code, or 0 when unset.
func (e *ErrorObject) StatusCode() int {
	return e.statusCode
}

// SetCode sets the application specific error code.
func (e *ErrorObject) SetCode(code string) {
	e.code = code
}

// Code returns the application specific error code.
func (e *ErrorObject) Code() string {
	return e.code
}

// SetTitle sets the short, human-readable summary of the problem.
func (e *ErrorObject) SetTitle(title string) {
	e.title = title
}

// Title returns the summary of the problem.
func (e *ErrorObject) Title() string {
	return e.title
}

// SetDetail sets the explanation specific to this occurrence of the problem.
func (e *ErrorObject) SetDetail(detail string) {
	e.detail = detail
}

// Detail returns the explanation of this occurrence of the problem.
func (e *ErrorObject) Detail() string {
	return e.detail
}

// SetSourcePointer sets the JSON pointer (RFC 6901) to the entity in the
// request document which caused the problem, eg. /data/attributes/title.
func (e *ErrorObject) SetSourcePointer(pointer string) {
	e.sourcePointer = pointer
}

// SourcePointer returns the JSON pointer to the offending entity.
func (e *ErrorObject) SourcePointer() string {
	return e.sourcePointer
}

// SetSourceParameter sets the query parameter which caused the problem.
func (e *ErrorObject) SetSourceParameter(parameter string) {
	e.sourceParameter = parameter
}

// SourceParameter returns the query parameter which caused the problem.
func (e *ErrorObject) SourceParameter() string {
	return e.sourceParameter
}

func (e *ErrorObject) isEmpty() bool {
	return e.id == "" &&
		e.statusCode == 0 &&
		e.code == "" &&
		e.title == "" &&
		e.detail == "" &&
		e.sourcePointer == "" &&
		e.sourceParameter == "" &&
		e.links.Len() == 0 &&
		e.meta.Len() == 0
}

// JSONValue returns the rendered error object.
func (e *ErrorObject) JSONValue() (Value, error) {
	if e.isEmpty() {
		return Value{}, newError(KindMalformedDocument,
			"could not render error: set at least one member of the error")
	}

	obj := NewObject()
	if e.id != "" {
		obj.Set("id", String(e.id))
	}
	if e.links.Len() > 0 {
		obj.Set("links", e.links.JSONValue())
	}
	if e.statusCode != 0 {
		obj.Set("status", String(strconv.Itoa(e.statusCode)))
	}
	if e.code != "" {
		obj.Set("code", String(e.code))
	}
	if e.title != "" {
		obj.Set("title", String(e.title))
	}
	if e.detail != "" {
		obj.Set("detail", String(e.detail))
	}
	if e.sourcePointer != "" || e.sourceParameter != "" {
		source := NewObject()
		if e.sourcePointer != "" {
			source.Set("pointer", String(e.sourcePointer))
		}
		if e.sourceParameter != "" {
			source.Set("parameter", String(e.sourceParameter))
		}
		obj.Set("source", ObjectOf(source))
	}
	if e.meta.Len() > 0 {
		obj.Set("meta", ObjectOf(&e.meta))
	}

	return ObjectOf(obj), nil
}

// MarshalJSON implements json.Marshaler.
func (e *ErrorObject) MarshalJSON() ([]byte, error) {
	value, err := e.JSONValue()
	if err != nil {
		return nil, err
	}
	return value.MarshalJSON()
}
