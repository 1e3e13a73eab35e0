package response

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/conduit-lang/jsonapi/pkg/jsonapi"
)

// RendererConfig configures the renderer
type RendererConfig struct {
	PrettyPrint bool
	Logger      *zap.Logger
}

// Renderer writes JSON:API documents to HTTP responses
type Renderer struct {
	prettyPrint    bool
	defaultHeaders map[string]string
	logger         *zap.Logger
}

// NewRenderer creates a new response renderer
func NewRenderer() *Renderer {
	return NewRendererWithConfig(&RendererConfig{})
}

// NewRendererWithConfig creates a renderer with custom configuration
func NewRendererWithConfig(config *RendererConfig) *Renderer {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{
		prettyPrint:    config.PrettyPrint,
		defaultHeaders: make(map[string]string),
		logger:         logger,
	}
}

// SetDefaultHeader sets a default header for all responses
func (r *Renderer) SetDefaultHeader(key, value string) {
	r.defaultHeaders[key] = value
}

// Document renders a document with the status code it derives from its
// content. A document which fails to render is replaced by an internal
// error document and the render error is returned.
func (r *Renderer) Document(w http.ResponseWriter, doc *jsonapi.Document) error {
	status := doc.StatusCode()
	if status == http.StatusNoContent {
		r.NoContent(w)
		return nil
	}

	// Marshal FIRST, before touching the response
	data, err := doc.MarshalJSON()
	if err != nil {
		r.logger.Error("could not render document", zap.Error(err))
		if fallbackErr := r.write(w, http.StatusInternalServerError, internalErrorDocument(doc.API())); fallbackErr != nil {
			return fallbackErr
		}
		return fmt.Errorf("failed to render document: %w", err)
	}

	return r.writeBytes(w, status, data)
}

// Error renders an error document for err. api may be nil.
func (r *Renderer) Error(w http.ResponseWriter, api *jsonapi.API, err error) error {
	e := ErrorObjectFromError(err)

	fields := []zap.Field{
		zap.Error(err),
		zap.Int("status", e.StatusCode()),
		zap.String("error_id", e.ID()),
	}
	if e.StatusCode() >= http.StatusInternalServerError {
		r.logger.Error("request failed", fields...)
	} else {
		r.logger.Debug("request rejected", fields...)
	}

	doc := jsonapi.NewDocument(api, nil)
	doc.AddError(e)
	return r.Document(w, doc)
}

// NoContent sends a 204 No Content response
func (r *Renderer) NoContent(w http.ResponseWriter) {
	r.writeHeaders(w)
	w.WriteHeader(http.StatusNoContent)
}

func (r *Renderer) write(w http.ResponseWriter, status int, doc *jsonapi.Document) error {
	data, err := doc.MarshalJSON()
	if err != nil {
		return err
	}
	return r.writeBytes(w, status, data)
}

func (r *Renderer) writeBytes(w http.ResponseWriter, status int, data []byte) error {
	r.writeHeaders(w)
	w.Header().Set("Content-Type", JSONAPIMediaType)
	w.WriteHeader(status)
	_, err := w.Write(r.indent(data))
	return err
}

func (r *Renderer) writeHeaders(w http.ResponseWriter) {
	for key, value := range r.defaultHeaders {
		w.Header().Set(key, value)
	}
}

func (r *Renderer) indent(data []byte) []byte {
	if !r.prettyPrint {
		return data
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return data
	}
	buf.WriteByte('\n')
	return buf.Bytes()
}

func internalErrorDocument(api *jsonapi.API) *jsonapi.Document {
	doc := jsonapi.NewDocument(api, nil)
	doc.AddError(ErrorObjectFromError(nil))
	return doc
}

// RenderDocument is a convenience function to render a document
func RenderDocument(w http.ResponseWriter, doc *jsonapi.Document) error {
	return NewRenderer().Document(w, doc)
}

// RenderError is a convenience function to render an error document
func RenderError(w http.ResponseWriter, api *jsonapi.API, err error) error {
	return NewRenderer().Error(w, api, err)
}
