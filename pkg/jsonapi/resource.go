package jsonapi

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Resource is a JSON:API resource object. Type and id are fixed at creation
// and identify the resource when it is deduplicated in a compound document.
type Resource struct {
	metaHolder
	linkHolder

	resourceType     string
	id               string
	relationshipPath string
	attributes       Object
	relationships    *orderedmap.OrderedMap[string, *Relationship]
}

// NewResource creates a resource. The id may be empty for resources which
// have not been persisted yet; those are never deduplicated or included.
func NewResource(resourceType, id string) *Resource {
	return &Resource{
		resourceType: resourceType,
		id:           id,
	}
}

// Type returns the resource type.
func (r *Resource) Type() string {
	return r.resourceType
}

// ID returns the resource id.
func (r *Resource) ID() string {
	return r.id
}

// SetRelationshipPath sets the dot-separated path of relationship names
// leading to this resource from the primary data.
func (r *Resource) SetRelationshipPath(path string) {
	r.relationshipPath = path
}

// RelationshipPath returns the dot-separated relationship path of this
// resource, empty for primary data.
func (r *Resource) RelationshipPath() string {
	return r.relationshipPath
}

// SetAttribute sets an attribute.
func (r *Resource) SetAttribute(name string, value Value) {
	r.attributes.Set(name, value)
}

// Attribute returns an attribute.
func (r *Resource) Attribute(name string) (Value, bool) {
	return r.attributes.Get(name)
}

// Attributes returns all attributes in insertion order.
func (r *Resource) Attributes() *Object {
	return &r.attributes
}

// SetRelationship sets a relationship. A nil relationship is ignored.
func (r *Resource) SetRelationship(name string, relationship *Relationship) {
	if relationship == nil {
		return
	}
	if r.relationships == nil {
		r.relationships = orderedmap.New[string, *Relationship]()
	}
	r.relationships.Set(name, relationship)
}

// Relationship returns a relationship.
func (r *Resource) Relationship(name string) (*Relationship, bool) {
	if r.relationships == nil {
		return nil, false
	}
	return r.relationships.Get(name)
}

// RelationshipCount returns the number of relationships.
func (r *Resource) RelationshipCount() int {
	if r.relationships == nil {
		return 0
	}
	return r.relationships.Len()
}

// EachRelationship calls fn for every relationship in insertion order.
func (r *Resource) EachRelationship(fn func(name string, relationship *Relationship)) {
	if r.relationships == nil {
		return
	}
	for pair := r.relationships.Oldest(); pair != nil; pair = pair.Next() {
		fn(pair.Key, pair.Value)
	}
}

// isIdentifier reports whether the resource carries nothing but type and id.
func (r *Resource) isIdentifier() bool {
	return r.attributes.Len() == 0 && r.RelationshipCount() == 0
}

// IdentifierValue returns the resource identifier object used as linkage.
func (r *Resource) IdentifierValue() Value {
	obj := NewObject()
	obj.Set("type", String(r.resourceType))
	if r.id != "" {
		obj.Set("id", String(r.id))
	}
	return ObjectOf(obj)
}

// JSONValue returns the full resource object.
func (r *Resource) JSONValue() (Value, error) {
	value := r.IdentifierValue()
	obj, _ := value.AsObject()

	if r.links.Len() > 0 {
		obj.Set("links", r.links.JSONValue())
	}
	if r.attributes.Len() > 0 {
		obj.Set("attributes", ObjectOf(&r.attributes))
	}
	if r.RelationshipCount() > 0 {
		relationships := NewObject()
		var err error
		r.EachRelationship(func(name string, relationship *Relationship) {
			if err != nil {
				return
			}
			var rendered Value
			if rendered, err = relationship.JSONValue(); err == nil {
				relationships.Set(name, rendered)
			}
		})
		if err != nil {
			return Value{}, err
		}
		obj.Set("relationships", ObjectOf(relationships))
	}
	if r.meta.Len() > 0 {
		obj.Set("meta", ObjectOf(&r.meta))
	}

	return value, nil
}

// MarshalJSON implements json.Marshaler.
func (r *Resource) MarshalJSON() ([]byte, error) {
	value, err := r.JSONValue()
	if err != nil {
		return nil, err
	}
	return value.MarshalJSON()
}
