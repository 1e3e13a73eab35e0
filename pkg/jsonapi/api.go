// Package jsonapi builds JSON:API 1.0 documents.
//
// An API holds the resource adapters which turn application data into
// resources. A Document bound to a request Query assembles a compound
// document: it adapts the primary data, walks the relationships allowed by
// the include directive and collects every related resource once in the
// included member.
//
// # Usage
//
//	api := jsonapi.NewAPI(jsonapi.WithAdapter("articles", articleAdapter))
//
//	query, err := api.CreateQuery(params)
//	if err != nil {
//	    // report the bad request
//	}
//
//	doc := api.CreateDocument(query)
//	if err := doc.SetPrimaryResource("articles", article); err != nil {
//	    return err
//	}
//	body, err := json.Marshal(doc)
package jsonapi

import (
	"sync"

	"go.uber.org/zap"
)

// ContentType is the media type of JSON:API requests and responses.
const ContentType = "application/vnd.api+json"

// Version is the JSON:API version rendered in documents.
const Version = "1.0"

// ResourceAdapter converts application data into a resource.
type ResourceAdapter interface {
	// Resource adapts data for doc. path is the dot-separated relationship
	// path of the resource in the document, empty for primary data.
	Resource(data any, doc *Document, path string) (*Resource, error)
}

// AdapterFunc is a function used as ResourceAdapter.
type AdapterFunc func(data any, doc *Document, path string) (*Resource, error)

// Resource implements ResourceAdapter.
func (f AdapterFunc) Resource(data any, doc *Document, path string) (*Resource, error) {
	return f(data, doc, path)
}

// Option configures an API.
type Option func(*API)

// WithLogger sets the logger used by the API and its documents.
func WithLogger(logger *zap.Logger) Option {
	return func(a *API) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithAdapter registers a resource adapter.
func WithAdapter(resourceType string, adapter ResourceAdapter) Option {
	return func(a *API) {
		a.adapters[resourceType] = adapter
	}
}

// API holds the resource adapters and creates documents and their parts.
// It is safe for concurrent use.
type API struct {
	mu       sync.RWMutex
	adapters map[string]ResourceAdapter
	logger   *zap.Logger
}

// NewAPI creates an API.
func NewAPI(opts ...Option) *API {
	a := &API{
		adapters: make(map[string]ResourceAdapter),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Logger returns the logger of the API.
func (a *API) Logger() *zap.Logger {
	return a.logger
}

// SetResourceAdapter registers the adapter for a resource type.
func (a *API) SetResourceAdapter(resourceType string, adapter ResourceAdapter) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.adapters[resourceType] = adapter
}

// SetResourceAdapters registers multiple adapters at once.
func (a *API) SetResourceAdapters(adapters map[string]ResourceAdapter) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for resourceType, adapter := range adapters {
		a.adapters[resourceType] = adapter
	}
}

// ResourceAdapter returns the adapter for a resource type.
func (a *API) ResourceAdapter(resourceType string) (ResourceAdapter, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	adapter, ok := a.adapters[resourceType]
	if !ok || adapter == nil {
		return nil, newError(KindConfiguration,
			"could not get resource adapter: no adapter set for type %s", resourceType)
	}
	return adapter, nil
}

// CreateQuery parses request parameters into a query.
func (a *API) CreateQuery(params Params) (*Query, error) {
	return NewQuery(params)
}

// CreateDocument creates a document for the query. A nil query behaves like
// a request without parameters.
func (a *API) CreateDocument(query *Query) *Document {
	return NewDocument(a, query)
}

// CreateResource creates a resource at the provided relationship path.
func (a *API) CreateResource(resourceType, id, path string) *Resource {
	resource := NewResource(resourceType, id)
	resource.SetRelationshipPath(path)
	return resource
}

// CreateRelationship creates an empty relationship.
func (a *API) CreateRelationship() *Relationship {
	return NewRelationship()
}

// CreateError creates an error object.
func (a *API) CreateError(statusCode int, code, title, detail string) (*ErrorObject, error) {
	return NewErrorObject(statusCode, code, title, detail)
}
