package store

import (
	"fmt"
	"math"
	"reflect"
	"sort"

	reactive "github.com/goliatone/go-reactive"
)

// DocumentVersion is written into every document.
const DocumentVersion = 1

// Document is the serialized form of a container graph. Objects[0] is the
// root.
type Document struct {
	Version  int      `json:"version" yaml:"version"`
	Snapshot string   `json:"snapshot,omitempty" yaml:"snapshot,omitempty"`
	Objects  []Object `json:"objects" yaml:"objects"`
}

// Object is one map or container of the graph.
type Object struct {
	Stateful bool             `json:"stateful,omitempty" yaml:"stateful,omitempty"`
	List     bool             `json:"list,omitempty" yaml:"list,omitempty"`
	Values   map[string]Value `json:"values,omitempty" yaml:"values,omitempty"`
	Items    []Value          `json:"items,omitempty" yaml:"items,omitempty"`
}

// Value kinds.
const (
	KindNull = "null"
	KindPrim = "prim"
	KindRef  = "ref"
	KindList = "list"
)

// Value is a primitive, a reference to an Object by index, or an inline
// list.
type Value struct {
	Kind  string  `json:"k" yaml:"k"`
	V     any     `json:"v,omitempty" yaml:"v,omitempty"`
	Ref   int     `json:"r,omitempty" yaml:"r,omitempty"`
	Items []Value `json:"l,omitempty" yaml:"l,omitempty"`
}

// encoder flattens a graph, giving every distinct map or container one slot.
type encoder struct {
	doc    *Document
	states map[*reactive.State]int
	maps   map[uintptr]int
}

// Encode flattens the graph rooted at root.
func Encode(root *reactive.State) (*Document, error) {
	if root == nil {
		return nil, fmt.Errorf("%w: nil root", ErrUnsupportedValue)
	}
	e := &encoder{
		doc:    &Document{Version: DocumentVersion},
		states: map[*reactive.State]int{},
		maps:   map[uintptr]int{},
	}
	if _, err := e.object(root); err != nil {
		return nil, err
	}
	return e.doc, nil
}

func (e *encoder) object(v any) (int, error) {
	stateful := false
	target := v
	if s, ok := v.(*reactive.State); ok {
		if i, seen := e.states[s]; seen {
			return i, nil
		}
		stateful = true
		target = s.Target()
	}

	rv := reflect.ValueOf(target)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return 0, fmt.Errorf("%w: map keyed by %s", ErrUnsupportedValue, rv.Type().Key())
		}
	case reflect.Slice, reflect.Array:
		if !stateful {
			return 0, fmt.Errorf("%w: inline list used as object", ErrUnsupportedValue)
		}
	case reflect.Pointer:
		if rv.IsNil() || (rv.Elem().Kind() != reflect.Array && rv.Elem().Kind() != reflect.Map) {
			return 0, fmt.Errorf("%w: %T", ErrUnsupportedValue, target)
		}
		rv = rv.Elem()
	default:
		return 0, fmt.Errorf("%w: %T", ErrUnsupportedValue, target)
	}

	var mapID uintptr
	if rv.Kind() == reflect.Map && !stateful {
		mapID = rv.Pointer()
		if i, seen := e.maps[mapID]; seen {
			return i, nil
		}
	}

	index := len(e.doc.Objects)
	e.doc.Objects = append(e.doc.Objects, Object{Stateful: stateful})
	if s, ok := v.(*reactive.State); ok {
		e.states[s] = index
	} else if mapID != 0 {
		e.maps[mapID] = index
	}

	obj := Object{Stateful: stateful}
	if rv.Kind() == reflect.Map {
		obj.Values = make(map[string]Value, rv.Len())
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
		for _, key := range keys {
			item := rv.MapIndex(key).Interface()
			if reactive.IsPointer(item) {
				continue
			}
			value, err := e.value(item)
			if err != nil {
				return 0, fmt.Errorf("key %q: %w", key.String(), err)
			}
			obj.Values[key.String()] = value
		}
	} else {
		obj.List = true
		items, err := e.items(rv)
		if err != nil {
			return 0, err
		}
		obj.Items = items
	}
	e.doc.Objects[index] = obj
	return index, nil
}

func (e *encoder) items(rv reflect.Value) ([]Value, error) {
	out := make([]Value, rv.Len())
	for i := range out {
		item := rv.Index(i).Interface()
		if reactive.IsPointer(item) {
			out[i] = Value{Kind: KindNull}
			continue
		}
		value, err := e.value(item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out[i] = value
	}
	return out, nil
}

func (e *encoder) value(v any) (Value, error) {
	if v == nil {
		return Value{Kind: KindNull}, nil
	}
	if _, ok := v.(*reactive.State); ok {
		ref, err := e.object(v)
		return Value{Kind: KindRef, Ref: ref}, err
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return Value{Kind: KindPrim, V: v}, nil
	case reflect.Map:
		if rv.IsNil() {
			return Value{Kind: KindNull}, nil
		}
		ref, err := e.object(v)
		return Value{Kind: KindRef, Ref: ref}, err
	case reflect.Slice:
		if rv.IsNil() {
			return Value{Kind: KindNull}, nil
		}
		fallthrough
	case reflect.Array:
		items, err := e.items(rv)
		return Value{Kind: KindList, Items: items}, err
	case reflect.Pointer:
		if rv.IsNil() {
			return Value{Kind: KindNull}, nil
		}
	}
	return Value{}, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
}

// decoder rebuilds a graph. Every object is allocated before any value is
// filled in, so references may point anywhere in the table.
type decoder struct {
	rt    *reactive.Runtime
	doc   *Document
	nodes []any
	raw   []any
}

// Decode rebuilds the graph of doc, recreating containers for stateful
// objects on rt. The root is returned as stored: a *reactive.State or a
// map[string]any.
func Decode(rt *reactive.Runtime, doc *Document) (any, error) {
	if doc == nil || len(doc.Objects) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrCorruptPayload)
	}
	if doc.Version > DocumentVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorruptPayload, doc.Version)
	}
	d := &decoder{
		rt:    rt,
		doc:   doc,
		nodes: make([]any, len(doc.Objects)),
		raw:   make([]any, len(doc.Objects)),
	}
	for i, obj := range doc.Objects {
		var raw any
		if obj.List {
			raw = make([]any, len(obj.Items))
		} else {
			raw = make(map[string]any, len(obj.Values))
		}
		d.raw[i] = raw
		d.nodes[i] = raw
		if obj.Stateful {
			s, err := rt.NewState(raw)
			if err != nil {
				return nil, err
			}
			d.nodes[i] = s
		}
	}
	for i, obj := range doc.Objects {
		switch raw := d.raw[i].(type) {
		case []any:
			for j, item := range obj.Items {
				v, err := d.value(item)
				if err != nil {
					return nil, err
				}
				raw[j] = v
			}
		case map[string]any:
			for key, item := range obj.Values {
				v, err := d.value(item)
				if err != nil {
					return nil, err
				}
				raw[key] = v
			}
		}
	}
	return d.nodes[0], nil
}

func (d *decoder) value(v Value) (any, error) {
	switch v.Kind {
	case KindNull, "":
		return nil, nil
	case KindPrim:
		return normalizeNumber(v.V), nil
	case KindRef:
		if v.Ref < 0 || v.Ref >= len(d.nodes) {
			return nil, fmt.Errorf("%w: reference %d out of range", ErrCorruptPayload, v.Ref)
		}
		return d.nodes[v.Ref], nil
	case KindList:
		out := make([]any, len(v.Items))
		for i, item := range v.Items {
			decoded, err := d.value(item)
			if err != nil {
				return nil, err
			}
			out[i] = decoded
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: unknown value kind %q", ErrCorruptPayload, v.Kind)
}

// number is satisfied by the json.Number flavours JSON decoders produce.
type number interface {
	Int64() (int64, error)
	Float64() (float64, error)
	String() string
}

// normalizeNumber maps the numeric types codecs produce onto int when the
// value is integral and fits, float64 otherwise.
func normalizeNumber(v any) any {
	switch n := v.(type) {
	case number:
		if i, err := n.Int64(); err == nil && i >= math.MinInt && i <= math.MaxInt {
			return int(i)
		}
		if f, err := n.Float64(); err == nil {
			return f
		}
		return n.String()
	case int64:
		if n >= math.MinInt && n <= math.MaxInt {
			return int(n)
		}
	case uint64:
		if n <= math.MaxInt {
			return int(n)
		}
	}
	return v
}
