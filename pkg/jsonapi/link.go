package jsonapi

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Link is a JSON:API link object. It renders as a bare URL unless meta is set.
type Link struct {
	metaHolder
	href string
}

// NewLink creates a link to href.
func NewLink(href string) *Link {
	return &Link{href: href}
}

// LinkOf accepts a URL string or a prebuilt *Link.
func LinkOf(link any) (*Link, error) {
	switch l := link.(type) {
	case string:
		return NewLink(l), nil
	case *Link:
		if l == nil {
			return nil, newError(KindValidation, "link cannot be nil")
		}
		return l, nil
	default:
		return nil, newError(KindValidation, "link should be a string or a *Link, got %T", link)
	}
}

// Href returns the URL of the link.
func (l *Link) Href() string {
	return l.href
}

// JSONValue returns the rendered link.
func (l *Link) JSONValue() Value {
	if l.meta.Len() == 0 {
		return String(l.href)
	}
	obj := NewObject()
	obj.Set("href", String(l.href))
	obj.Set("meta", ObjectOf(&l.meta))
	return ObjectOf(obj)
}

// MarshalJSON implements json.Marshaler.
func (l *Link) MarshalJSON() ([]byte, error) {
	return l.JSONValue().MarshalJSON()
}

// Links holds named links in insertion order.
type Links struct {
	m *orderedmap.OrderedMap[string, *Link]
}

// Set sets the link with the provided name.
func (ls *Links) Set(name string, link *Link) {
	if ls.m == nil {
		ls.m = orderedmap.New[string, *Link]()
	}
	ls.m.Set(name, link)
}

// Get returns the link with the provided name.
func (ls *Links) Get(name string) (*Link, bool) {
	if ls == nil || ls.m == nil {
		return nil, false
	}
	return ls.m.Get(name)
}

// Len returns the number of links.
func (ls *Links) Len() int {
	if ls == nil || ls.m == nil {
		return 0
	}
	return ls.m.Len()
}

// Each calls fn for every link in insertion order.
func (ls *Links) Each(fn func(name string, link *Link)) {
	if ls == nil || ls.m == nil {
		return
	}
	for pair := ls.m.Oldest(); pair != nil; pair = pair.Next() {
		fn(pair.Key, pair.Value)
	}
}

// Clear removes all links.
func (ls *Links) Clear() {
	ls.m = nil
}

// JSONValue returns the rendered links object.
func (ls *Links) JSONValue() Value {
	obj := NewObject()
	ls.Each(func(name string, link *Link) {
		obj.Set(name, link.JSONValue())
	})
	return ObjectOf(obj)
}

// metaHolder carries the meta member shared by all elements.
type metaHolder struct {
	meta Object
}

// SetMeta sets a single meta value.
func (h *metaHolder) SetMeta(name string, value Value) {
	h.meta.Set(name, value)
}

// ReplaceMeta replaces all meta values with the members of meta.
func (h *metaHolder) ReplaceMeta(meta *Object) {
	var replaced Object
	meta.Each(func(key string, value Value) {
		replaced.Set(key, value)
	})
	h.meta = replaced
}

// Meta returns the meta value with the provided name.
func (h *metaHolder) Meta(name string) (Value, bool) {
	return h.meta.Get(name)
}

// MetaObject returns all meta values.
func (h *metaHolder) MetaObject() *Object {
	return &h.meta
}

// linkHolder carries the links member of documents, resources,
// relationships and errors.
type linkHolder struct {
	links Links
}

// SetLink sets a link from a URL string or a *Link.
func (h *linkHolder) SetLink(name string, link any) (*Link, error) {
	l, err := LinkOf(link)
	if err != nil {
		return nil, err
	}
	h.links.Set(name, l)
	return l, nil
}

// Links returns the links.
func (h *linkHolder) Links() *Links {
	return &h.links
}

// ClearLinks removes all links.
func (h *linkHolder) ClearLinks() {
	h.links.Clear()
}
