package jsonapi

import (
	"net/http"
	"reflect"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.uber.org/zap"
)

type resourceKey struct {
	resourceType string
	id           string
}

// Document assembles a JSON:API top-level document. It is not safe for
// concurrent use.
type Document struct {
	metaHolder
	linkHolder

	api    *API
	query  *Query
	logger *zap.Logger

	statusCode int
	errors     []*ErrorObject
	data       Linkage

	// included holds the related resources by type, then id, both in the
	// order they were first reached.
	included *orderedmap.OrderedMap[string, *orderedmap.OrderedMap[string, *Resource]]
	seen     map[resourceKey]struct{}
}

// NewDocument creates a document for the query. Use API.CreateDocument to
// bind the document to the adapters of an API.
func NewDocument(api *API, query *Query) *Document {
	if query == nil {
		query = EmptyQuery()
	}
	logger := zap.NewNop()
	if api != nil {
		logger = api.logger
	}
	return &Document{
		api:    api,
		query:  query,
		logger: logger,
		seen:   make(map[resourceKey]struct{}),
	}
}

// API returns the API which created the document.
func (d *Document) API() *API {
	return d.api
}

// Query returns the query the document is built for.
func (d *Document) Query() *Query {
	return d.query
}

// SetStatusCode overrides the HTTP status code of the document.
func (d *Document) SetStatusCode(statusCode int) {
	d.statusCode = statusCode
}

// StatusCode returns the HTTP status code for the document: the explicit or
// error-recorded status when set, 204 without content, 400 for error
// documents whose errors carry no status, and 200 for everything else.
func (d *Document) StatusCode() int {
	switch {
	case d.statusCode != 0:
		return d.statusCode
	case !d.HasContent():
		return http.StatusNoContent
	case len(d.errors) > 0:
		for _, e := range d.errors {
			if e.StatusCode() != 0 {
				return e.StatusCode()
			}
		}
		return http.StatusBadRequest
	default:
		return http.StatusOK
	}
}

// HasContent reports whether the document has errors, meta or data. Data
// explicitly set to null counts as content.
func (d *Document) HasContent() bool {
	return len(d.errors) > 0 || d.meta.Len() > 0 || d.data.IsSet()
}

// AddError adds an error to the document. The status of the first error
// which has one becomes the document status unless a status is already set.
func (d *Document) AddError(e *ErrorObject) {
	if e == nil {
		return
	}
	d.errors = append(d.errors, e)
	if d.statusCode == 0 && e.StatusCode() != 0 {
		d.statusCode = e.StatusCode()
	}
}

// Errors returns the errors of the document.
func (d *Document) Errors() []*ErrorObject {
	return d.errors
}

// Data returns the primary data.
func (d *Document) Data() Linkage {
	return d.data
}

// Adapt converts data into a resource of the provided type through the
// registered adapter. Adapters call it to build the targets of their
// relationships.
func (d *Document) Adapt(resourceType string, data any, path string) (*Resource, error) {
	if d.api == nil {
		return nil, newError(KindConfiguration,
			"could not adapt %s resource: document has no API", resourceType)
	}
	adapter, err := d.api.ResourceAdapter(resourceType)
	if err != nil {
		return nil, err
	}
	return adapter.Resource(data, d, path)
}

// resolve returns data as a resource, adapting it when needed. Nil data
// resolves to a nil resource.
func (d *Document) resolve(resourceType string, data any) (*Resource, error) {
	if resource, ok := data.(*Resource); ok {
		return resource, nil
	}
	if isNil(data) {
		return nil, nil
	}
	return d.Adapt(resourceType, data, "")
}

func isNil(data any) bool {
	if data == nil {
		return true
	}
	v := reflect.ValueOf(data)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}

// SetPrimaryResource sets a single resource as primary data. data is either
// a *Resource or application data for the adapter of resourceType; nil sets
// an explicit null. The links of the resource move to the document and the
// related resources allowed by the query are included.
func (d *Document) SetPrimaryResource(resourceType string, data any) error {
	resource, err := d.resolve(resourceType, data)
	if err != nil {
		return err
	}

	d.index(resource)
	d.data = ToOne(resource)
	d.errors = nil
	d.promoteLinks()

	if resource != nil {
		d.includeRelationships(resource)
	}

	return nil
}

// SetPrimaryCollection sets a list of resources as primary data. Every item
// is either a *Resource or application data for the adapter of
// resourceType. Links of the items stay on the items.
func (d *Document) SetPrimaryCollection(resourceType string, items []any) error {
	resources := make([]*Resource, 0, len(items))
	for i, item := range items {
		resource, err := d.resolve(resourceType, item)
		if err != nil {
			return err
		}
		if resource == nil {
			return newError(KindValidation,
				"could not set resource collection: item %d is nil", i)
		}
		resources = append(resources, resource)
	}

	for _, resource := range resources {
		d.index(resource)
	}

	d.data = Linkage{state: linkageMany, many: resources}
	d.errors = nil

	for _, resource := range resources {
		d.includeRelationships(resource)
	}

	return nil
}

// Collection converts a typed slice for SetPrimaryCollection.
func Collection[T any](items []T) []any {
	result := make([]any, len(items))
	for i, item := range items {
		result[i] = item
	}
	return result
}

// SetRelationshipAsPrimary sets the data of a relationship as primary data,
// for relationship endpoints such as /articles/1/relationships/author. A nil
// relationship leaves the document unchanged.
func (d *Document) SetRelationshipAsPrimary(relationship *Relationship) {
	if relationship == nil {
		return
	}
	d.data = relationship.Data()
	d.promoteLinks()
}

// promoteLinks moves the links of a single primary resource to the document.
func (d *Document) promoteLinks() {
	resource := d.data.Resource()
	if resource == nil || resource.links.Len() == 0 {
		return
	}

	resource.links.Each(func(name string, link *Link) {
		d.links.Set(name, link)
	})
	resource.ClearLinks()
}

// index marks a resource as present in the document.
func (d *Document) index(resource *Resource) {
	if resource == nil || resource.ID() == "" {
		return
	}
	if d.seen == nil {
		d.seen = make(map[resourceKey]struct{})
	}
	d.seen[resourceKey{resource.Type(), resource.ID()}] = struct{}{}
}

func (d *Document) isIndexed(resource *Resource) bool {
	_, ok := d.seen[resourceKey{resource.Type(), resource.ID()}]
	return ok
}

// includeRelationships includes the targets of the relationships of a
// primary resource.
func (d *Document) includeRelationships(owner *Resource) {
	d.includeTargets("", owner)
}

func (d *Document) includeTargets(ownerPath string, owner *Resource) {
	owner.EachRelationship(func(name string, relationship *Relationship) {
		path := joinPath(ownerPath, name)
		if !d.query.IsIncluded(path) {
			d.logger.Debug("relationship not included",
				zap.String("type", owner.Type()),
				zap.String("id", owner.ID()),
				zap.String("path", path))
			return
		}

		for _, target := range relationship.Data().Resources() {
			d.include(path, target)
		}
	})
}

func joinPath(ownerPath, name string) string {
	if ownerPath == "" {
		return name
	}
	return ownerPath + "." + name
}

// AddIncluded adds a related resource to the compound document, together
// with the related resources of its own which the query includes. It
// returns false when the resource is already present, has no id, or only
// identifies a resource without attributes or relationships.
func (d *Document) AddIncluded(resource *Resource) bool {
	if resource == nil {
		return false
	}
	return d.include(resource.RelationshipPath(), resource)
}

func (d *Document) include(path string, resource *Resource) bool {
	if resource == nil || resource.ID() == "" {
		return false
	}
	if d.isIndexed(resource) || resource.isIdentifier() {
		return false
	}

	resource.SetRelationshipPath(path)
	d.index(resource)

	if d.included == nil {
		d.included = orderedmap.New[string, *orderedmap.OrderedMap[string, *Resource]]()
	}
	bucket, ok := d.included.Get(resource.Type())
	if !ok {
		bucket = orderedmap.New[string, *Resource]()
		d.included.Set(resource.Type(), bucket)
	}
	bucket.Set(resource.ID(), resource)

	d.logger.Debug("included resource",
		zap.String("type", resource.Type()),
		zap.String("id", resource.ID()),
		zap.String("path", path))

	d.includeTargets(path, resource)

	return true
}

// Included returns the included resources grouped by type in the order the
// types and resources were first reached.
func (d *Document) Included() []*Resource {
	if d.included == nil {
		return nil
	}
	var resources []*Resource
	for typePair := d.included.Oldest(); typePair != nil; typePair = typePair.Next() {
		for pair := typePair.Value.Oldest(); pair != nil; pair = pair.Next() {
			resources = append(resources, pair.Value)
		}
	}
	return resources
}

// Render returns the top-level document. Errors take precedence over data;
// included resources are rendered with data only.
func (d *Document) Render() (Value, error) {
	if !d.data.IsSet() && len(d.errors) == 0 && d.meta.Len() == 0 {
		return Value{}, newError(KindMalformedDocument,
			"could not render document: a document must contain at least data, errors or meta")
	}

	obj := NewObject()
	obj.Set("jsonapi", ObjectOf(NewObject().Set("version", String(Version))))

	if d.links.Len() > 0 {
		obj.Set("links", d.links.JSONValue())
	}

	if len(d.errors) > 0 {
		items := make([]Value, len(d.errors))
		for i, e := range d.errors {
			item, err := e.JSONValue()
			if err != nil {
				return Value{}, err
			}
			items[i] = item
		}
		obj.Set("errors", List(items...))
	} else if d.data.IsSet() {
		data, err := d.data.full()
		if err != nil {
			return Value{}, err
		}
		obj.Set("data", data)

		if included := d.Included(); len(included) > 0 {
			items := make([]Value, len(included))
			for i, resource := range included {
				item, err := resource.JSONValue()
				if err != nil {
					return Value{}, err
				}
				items[i] = item
			}
			obj.Set("included", List(items...))
		}
	}

	if d.meta.Len() > 0 {
		obj.Set("meta", ObjectOf(&d.meta))
	}

	return ObjectOf(obj), nil
}

// MarshalJSON implements json.Marshaler.
func (d *Document) MarshalJSON() ([]byte, error) {
	value, err := d.Render()
	if err != nil {
		return nil, err
	}
	return value.MarshalJSON()
}
