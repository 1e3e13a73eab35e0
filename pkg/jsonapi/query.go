package jsonapi

import (
	"math"
	"strconv"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Query parameter names
const (
	ParameterFields  = "fields"
	ParameterFilter  = "filter"
	ParameterInclude = "include"
	ParameterLimit   = "limit"
	ParameterOffset  = "offset"
	ParameterPage    = "page"
	ParameterSort    = "sort"
)

// SortDirection is the direction of a sort field.
type SortDirection string

const (
	SortAsc  SortDirection = "ASC"
	SortDesc SortDirection = "DESC"
)

// SortField is a single entry of the sort parameter.
type SortField struct {
	Field     string
	Direction SortDirection
}

// Param is a raw request parameter. Plain parameters such as include=author
// carry a Value; bracketed parameters such as fields[people]=name carry Sub.
type Param struct {
	Value string
	Sub   map[string]string
}

// Params is the raw parameter set of a request, keyed on parameter name.
type Params map[string]Param

// Query holds the include, fields, filter, sort and page directives of a
// request. The include and fields directives are parsed when the query is
// created; the parameters must not change afterwards.
type Query struct {
	params Params

	include          []string
	includeSpecified bool
	fields           map[string][]string
}

// NewQuery parses the provided request parameters.
func NewQuery(params Params) (*Query, error) {
	if params == nil {
		params = Params{}
	}
	q := &Query{params: params}

	if err := q.parseInclude(); err != nil {
		return nil, err
	}
	if err := q.parseFields(); err != nil {
		return nil, err
	}

	return q, nil
}

// EmptyQuery returns a query without any parameters.
func EmptyQuery() *Query {
	return &Query{params: Params{}}
}

// parseList splits a comma separated list and maps every item to a key and a
// value. Later duplicates overwrite the value of earlier ones.
func parseList[V any](list string, item func(string) (string, V)) *orderedmap.OrderedMap[string, V] {
	result := orderedmap.New[string, V]()
	if list == "" {
		return result
	}
	for _, raw := range strings.Split(list, ",") {
		key, value := item(raw)
		result.Set(key, value)
	}
	return result
}

func parseGenericItem(raw string) (string, bool) {
	return raw, true
}

func parseSortItem(raw string) (string, SortDirection) {
	switch {
	case strings.HasPrefix(raw, "-"):
		return raw[1:], SortDesc
	case strings.HasPrefix(raw, "+"):
		return raw[1:], SortAsc
	default:
		return raw, SortAsc
	}
}

func keys[V any](m *orderedmap.OrderedMap[string, V]) []string {
	result := make([]string, 0, m.Len())
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		result = append(result, pair.Key)
	}
	return result
}

// listParameter returns the comma separated list value of a plain parameter.
func (q *Query) listParameter(name string) (string, error) {
	param, ok := q.params[name]
	if !ok {
		return "", nil
	}
	if len(param.Sub) > 0 && param.Value == "" {
		return "", BadRequest(name, "could not parse parameter %s: value should be a string", name)
	}
	return param.Value, nil
}

func (q *Query) parseInclude() error {
	list, err := q.listParameter(ParameterInclude)
	if err != nil {
		return err
	}
	if list == "" {
		return nil
	}
	q.include = keys(parseList(list, parseGenericItem))
	q.includeSpecified = true
	return nil
}

func (q *Query) parseFields() error {
	q.fields = make(map[string][]string)

	param, ok := q.params[ParameterFields]
	if !ok {
		return nil
	}
	if param.Sub == nil || param.Value != "" {
		return BadRequest(ParameterFields,
			"provided fields parameter should be a map with the resource type as key and a comma separated field list as value")
	}
	for resourceType, list := range param.Sub {
		q.fields[resourceType] = keys(parseList(list, parseGenericItem))
	}
	return nil
}

// Params returns the raw parameters.
func (q *Query) Params() Params {
	return q.params
}

// Param returns a raw parameter.
func (q *Query) Param(name string) (Param, bool) {
	param, ok := q.params[name]
	return param, ok
}

// Include returns the requested relationship paths. specified is false when
// the request did not provide an include parameter.
func (q *Query) Include() (paths []string, specified bool) {
	return q.include, q.includeSpecified
}

// IsIncluded reports whether the relationship at the dot-separated path
// should be added to the included resources. The empty path is the primary
// data and is always included. Without an include parameter only direct
// relationships are included.
func (q *Query) IsIncluded(path string) bool {
	if path == "" {
		return true
	}

	if !q.includeSpecified {
		return !strings.Contains(path, ".")
	}

	prefix := path + "."
	for _, included := range q.include {
		if included == path || strings.HasPrefix(included, prefix) {
			return true
		}
	}

	return false
}

// Fields returns the requested fields of a resource type. ok is false when
// all fields are requested.
func (q *Query) Fields(resourceType string) (fields []string, ok bool) {
	fields, ok = q.fields[resourceType]
	return fields, ok
}

// IsFieldRequested reports whether a field of a resource type should be
// rendered.
func (q *Query) IsFieldRequested(resourceType, field string) bool {
	fields, ok := q.fields[resourceType]
	if !ok {
		return true
	}
	for _, f := range fields {
		if f == field {
			return true
		}
	}
	return false
}

// Filters returns all filters.
func (q *Query) Filters() map[string]string {
	filters := make(map[string]string)
	if param, ok := q.params[ParameterFilter]; ok {
		for name, value := range param.Sub {
			filters[name] = value
		}
	}
	return filters
}

// Filter returns a filter by name with def as fallback.
func (q *Query) Filter(name, def string) string {
	return q.subParameter(ParameterFilter, name, def)
}

// Limit returns page[limit] with def as fallback. The limit must be a number
// greater than or equal to 1 and, when maximum is positive, at most maximum.
func (q *Query) Limit(def, maximum int) (int, error) {
	raw := q.subParameter(ParameterPage, ParameterLimit, strconv.Itoa(def))

	limit, ok := parseNumeric(raw)
	if !ok || limit < 1 {
		return 0, BadRequest(ParameterPage,
			"provided limit parameter should be an integer greater than or equal to 1")
	}
	if maximum > 0 && limit > float64(maximum) {
		return 0, BadRequest(ParameterPage,
			"provided limit parameter cannot be greater than %d", maximum)
	}
	if limit > math.MaxInt32 {
		return 0, BadRequest(ParameterPage,
			"provided limit parameter cannot be greater than %d", math.MaxInt32)
	}

	return int(limit), nil
}

// Offset returns page[offset] with def as fallback. The offset must be a
// number greater than or equal to 0.
func (q *Query) Offset(def int) (int, error) {
	raw := q.subParameter(ParameterPage, ParameterOffset, strconv.Itoa(def))

	offset, ok := parseNumeric(raw)
	if !ok || offset < 0 {
		return 0, BadRequest(ParameterPage,
			"provided offset parameter should be an integer greater than or equal to 0")
	}
	if offset > math.MaxInt32 {
		return 0, BadRequest(ParameterPage,
			"provided offset parameter cannot be greater than %d", math.MaxInt32)
	}

	return int(offset), nil
}

// Sort returns the sort fields in the requested order, with def as fallback
// for the sort parameter. A leading - sorts descending, a leading + or no
// sign sorts ascending.
func (q *Query) Sort(def string) []SortField {
	list := def
	if param, ok := q.params[ParameterSort]; ok && param.Value != "" {
		list = param.Value
	}

	parsed := parseList(list, parseSortItem)
	sort := make([]SortField, 0, parsed.Len())
	for pair := parsed.Oldest(); pair != nil; pair = pair.Next() {
		sort = append(sort, SortField{Field: pair.Key, Direction: pair.Value})
	}
	return sort
}

func (q *Query) subParameter(name, sub, def string) string {
	param, ok := q.params[name]
	if !ok {
		return def
	}
	value, ok := param.Sub[sub]
	if !ok {
		return def
	}
	return value
}

// parseNumeric accepts integer, decimal and exponent notation.
func parseNumeric(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}
	return value, true
}
