package jsonapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ValueKind identifies the variant held by a Value.
type ValueKind int

const (
	NullValue ValueKind = iota
	BoolValue
	NumberValue
	StringValue
	ListValue
	ObjectValue
)

// String returns the string representation of ValueKind
func (k ValueKind) String() string {
	switch k {
	case NullValue:
		return "null"
	case BoolValue:
		return "bool"
	case NumberValue:
		return "number"
	case StringValue:
		return "string"
	case ListValue:
		return "list"
	case ObjectValue:
		return "object"
	default:
		return "unknown"
	}
}

// Value is a JSON value: null, bool, number, string, list or object.
// The zero Value is null.
type Value struct {
	kind ValueKind
	b    bool
	s    string
	list []Value
	obj  *Object
}

// Null returns the JSON null value.
func Null() Value {
	return Value{}
}

// Bool returns a JSON boolean.
func Bool(b bool) Value {
	return Value{kind: BoolValue, b: b}
}

// Int returns a JSON number holding an integer.
func Int(i int64) Value {
	return Value{kind: NumberValue, s: strconv.FormatInt(i, 10)}
}

// Uint returns a JSON number holding an unsigned integer.
func Uint(u uint64) Value {
	return Value{kind: NumberValue, s: strconv.FormatUint(u, 10)}
}

// Float returns a JSON number. NaN and infinities have no JSON
// representation and become null.
func Float(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Null()
	}
	return Value{kind: NumberValue, s: strconv.FormatFloat(f, 'g', -1, 64)}
}

// Number returns a JSON number from its textual form.
func Number(n json.Number) (Value, error) {
	if _, err := strconv.ParseFloat(string(n), 64); err != nil {
		return Value{}, newError(KindValidation, "invalid number %q", string(n))
	}
	return Value{kind: NumberValue, s: string(n)}, nil
}

// String returns a JSON string.
func String(s string) Value {
	return Value{kind: StringValue, s: s}
}

// List returns a JSON array of the provided values.
func List(values ...Value) Value {
	if values == nil {
		values = []Value{}
	}
	return Value{kind: ListValue, list: values}
}

// ObjectOf wraps an object as a Value. A nil object is null.
func ObjectOf(o *Object) Value {
	if o == nil {
		return Null()
	}
	return Value{kind: ObjectValue, obj: o}
}

// ValueOf converts a Go value to a Value. Maps with arbitrary key order are
// converted with their keys sorted so the output is deterministic.
func ValueOf(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Null(), nil
	case Value:
		return x, nil
	case *Object:
		return ObjectOf(x), nil
	case bool:
		return Bool(x), nil
	case string:
		return String(x), nil
	case json.Number:
		return Number(x)
	case int:
		return Int(int64(x)), nil
	case int8:
		return Int(int64(x)), nil
	case int16:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case uint:
		return Uint(uint64(x)), nil
	case uint8:
		return Uint(uint64(x)), nil
	case uint16:
		return Uint(uint64(x)), nil
	case uint32:
		return Uint(uint64(x)), nil
	case uint64:
		return Uint(x), nil
	case float32:
		return Float(float64(x)), nil
	case float64:
		return Float(x), nil
	case time.Time:
		return String(x.Format(time.RFC3339)), nil
	case []Value:
		return List(x...), nil
	case []string:
		list := make([]Value, len(x))
		for i, s := range x {
			list[i] = String(s)
		}
		return List(list...), nil
	case []any:
		list := make([]Value, len(x))
		for i, item := range x {
			value, err := ValueOf(item)
			if err != nil {
				return Value{}, err
			}
			list[i] = value
		}
		return List(list...), nil
	case map[string]string:
		obj := NewObject()
		for _, key := range sortedKeys(x) {
			obj.Set(key, String(x[key]))
		}
		return ObjectOf(obj), nil
	case map[string]any:
		obj := NewObject()
		for _, key := range sortedKeys(x) {
			value, err := ValueOf(x[key])
			if err != nil {
				return Value{}, err
			}
			obj.Set(key, value)
		}
		return ObjectOf(obj), nil
	default:
		return Value{}, newError(KindValidation, "unsupported JSON value of type %T", v)
	}
}

// MustValueOf is like ValueOf but panics on unsupported input.
func MustValueOf(v any) Value {
	value, err := ValueOf(v)
	if err != nil {
		panic(err)
	}
	return value
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Kind returns the variant held by v.
func (v Value) Kind() ValueKind {
	return v.kind
}

// IsNull reports whether v is null.
func (v Value) IsNull() bool {
	return v.kind == NullValue
}

// AsBool returns the boolean held by v.
func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == BoolValue
}

// AsString returns the string held by v.
func (v Value) AsString() (string, bool) {
	if v.kind != StringValue {
		return "", false
	}
	return v.s, true
}

// AsNumber returns the number held by v.
func (v Value) AsNumber() (json.Number, bool) {
	if v.kind != NumberValue {
		return "", false
	}
	return json.Number(v.s), true
}

// AsList returns the items held by v.
func (v Value) AsList() ([]Value, bool) {
	if v.kind != ListValue {
		return nil, false
	}
	return v.list, true
}

// AsObject returns the object held by v.
func (v Value) AsObject() (*Object, bool) {
	if v.kind != ObjectValue {
		return nil, false
	}
	return v.obj, true
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case NullValue:
		return []byte("null"), nil
	case BoolValue:
		if v.b {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case NumberValue:
		return []byte(v.s), nil
	case StringValue:
		return json.Marshal(v.s)
	case ListValue:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, item := range v.list {
			if i > 0 {
				buf.WriteByte(',')
			}
			data, err := item.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(data)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case ObjectValue:
		return v.obj.MarshalJSON()
	default:
		return nil, fmt.Errorf("unknown value kind %d", v.kind)
	}
}

// Object is a JSON object which keeps its members in insertion order.
// The zero Object is empty and ready to use.
type Object struct {
	m *orderedmap.OrderedMap[string, Value]
}

// NewObject creates an empty object.
func NewObject() *Object {
	return &Object{m: orderedmap.New[string, Value]()}
}

// Set sets a member. Replacing a member keeps its position.
func (o *Object) Set(key string, value Value) *Object {
	if o.m == nil {
		o.m = orderedmap.New[string, Value]()
	}
	o.m.Set(key, value)
	return o
}

// Get returns a member.
func (o *Object) Get(key string) (Value, bool) {
	if o == nil || o.m == nil {
		return Value{}, false
	}
	return o.m.Get(key)
}

// Has reports whether the member is set.
func (o *Object) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// Delete removes a member.
func (o *Object) Delete(key string) {
	if o == nil || o.m == nil {
		return
	}
	o.m.Delete(key)
}

// Len returns the number of members.
func (o *Object) Len() int {
	if o == nil || o.m == nil {
		return 0
	}
	return o.m.Len()
}

// Keys returns the member names in insertion order.
func (o *Object) Keys() []string {
	keys := make([]string, 0, o.Len())
	o.Each(func(key string, _ Value) {
		keys = append(keys, key)
	})
	return keys
}

// Each calls fn for every member in insertion order.
func (o *Object) Each(fn func(key string, value Value)) {
	if o == nil || o.m == nil {
		return
	}
	for pair := o.m.Oldest(); pair != nil; pair = pair.Next() {
		fn(pair.Key, pair.Value)
	}
}

// MarshalJSON implements json.Marshaler.
func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	var err error
	first := true
	o.Each(func(key string, value Value) {
		if err != nil {
			return
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false

		var data []byte
		if data, err = json.Marshal(key); err != nil {
			return
		}
		buf.Write(data)
		buf.WriteByte(':')
		if data, err = value.MarshalJSON(); err != nil {
			return
		}
		buf.Write(data)
	})
	if err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
