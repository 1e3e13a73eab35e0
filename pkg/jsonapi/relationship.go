package jsonapi

type linkageState int

const (
	linkageUnset linkageState = iota
	linkageNull
	linkageOne
	linkageMany
)

// Linkage is the data of a relationship or of a document: unset, null, a
// single resource or a list of resources. The zero Linkage is unset.
type Linkage struct {
	state linkageState
	one   *Resource
	many  []*Resource
}

// NullLinkage returns an explicitly empty to-one linkage.
func NullLinkage() Linkage {
	return Linkage{state: linkageNull}
}

// ToOne returns a to-one linkage. A nil resource is null.
func ToOne(resource *Resource) Linkage {
	if resource == nil {
		return NullLinkage()
	}
	return Linkage{state: linkageOne, one: resource}
}

// ToMany returns a to-many linkage. A nil slice is an empty list.
func ToMany(resources []*Resource) (Linkage, error) {
	for i, resource := range resources {
		if resource == nil {
			return Linkage{}, newError(KindValidation,
				"could not set resource collection: item %d is nil", i)
		}
	}
	many := make([]*Resource, len(resources))
	copy(many, resources)
	return Linkage{state: linkageMany, many: many}, nil
}

// IsSet reports whether data was provided at all.
func (l Linkage) IsSet() bool {
	return l.state != linkageUnset
}

// IsNull reports whether the linkage is an explicit null.
func (l Linkage) IsNull() bool {
	return l.state == linkageNull
}

// IsToMany reports whether the linkage is a list.
func (l Linkage) IsToMany() bool {
	return l.state == linkageMany
}

// Resource returns the resource of a to-one linkage.
func (l Linkage) Resource() *Resource {
	return l.one
}

// Collection returns the resources of a to-many linkage.
func (l Linkage) Collection() []*Resource {
	return l.many
}

// Resources returns the concrete resources of the linkage, whether to-one
// or to-many. Unset and null linkage have none.
func (l Linkage) Resources() []*Resource {
	switch l.state {
	case linkageOne:
		return []*Resource{l.one}
	case linkageMany:
		return l.many
	default:
		return nil
	}
}

// identifiers renders the linkage with resource identifier objects.
func (l Linkage) identifiers() Value {
	switch l.state {
	case linkageOne:
		return l.one.IdentifierValue()
	case linkageMany:
		items := make([]Value, len(l.many))
		for i, resource := range l.many {
			items[i] = resource.IdentifierValue()
		}
		return List(items...)
	default:
		return Null()
	}
}

// full renders the linkage with complete resource objects.
func (l Linkage) full() (Value, error) {
	switch l.state {
	case linkageOne:
		return l.one.JSONValue()
	case linkageMany:
		items := make([]Value, len(l.many))
		for i, resource := range l.many {
			item, err := resource.JSONValue()
			if err != nil {
				return Value{}, err
			}
			items[i] = item
		}
		return List(items...), nil
	default:
		return Null(), nil
	}
}

// Relationship is a relationship of a resource.
type Relationship struct {
	metaHolder
	linkHolder

	data Linkage
}

// NewRelationship creates a relationship without data.
func NewRelationship() *Relationship {
	return &Relationship{}
}

// SetResource sets to-one data. A nil resource sets an explicit null.
func (r *Relationship) SetResource(resource *Resource) {
	r.data = ToOne(resource)
}

// SetResourceCollection sets to-many data.
func (r *Relationship) SetResourceCollection(resources []*Resource) error {
	data, err := ToMany(resources)
	if err != nil {
		return err
	}
	r.data = data
	return nil
}

// SetData sets the linkage.
func (r *Relationship) SetData(data Linkage) {
	r.data = data
}

// Data returns the linkage.
func (r *Relationship) Data() Linkage {
	return r.data
}

// JSONValue returns the rendered relationship object.
func (r *Relationship) JSONValue() (Value, error) {
	if r.links.Len() == 0 && !r.data.IsSet() && r.meta.Len() == 0 {
		return Value{}, newError(KindMalformedDocument,
			"could not render relationship: a relationship must contain at least links, data or meta")
	}

	obj := NewObject()
	if r.links.Len() > 0 {
		obj.Set("links", r.links.JSONValue())
	}
	if r.data.IsSet() {
		obj.Set("data", r.data.identifiers())
	}
	if r.meta.Len() > 0 {
		obj.Set("meta", ObjectOf(&r.meta))
	}

	return ObjectOf(obj), nil
}

// MarshalJSON implements json.Marshaler.
func (r *Relationship) MarshalJSON() ([]byte, error) {
	value, err := r.JSONValue()
	if err != nil {
		return nil, err
	}
	return value.MarshalJSON()
}
