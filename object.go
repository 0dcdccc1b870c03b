package reactive

import (
	"math"
	"reflect"
	"strconv"
)

// objectLike reports whether v can be wrapped by a container: a non-nil map,
// slice, or pointer to an array or struct.
func objectLike(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice:
		return !rv.IsNil()
	case reflect.Pointer:
		if rv.IsNil() {
			return false
		}
		switch rv.Elem().Kind() {
		case reflect.Struct, reflect.Array:
			return true
		}
	}
	return false
}

// index reads key from obj. Containers are read through their raw target, so
// the capture trap is never consulted. Non-indexable objects and missing keys
// report ok=false.
func index(obj any, key any) (any, bool) {
	if s, ok := obj.(*State); ok {
		obj = s.target
	}
	switch o := obj.(type) {
	case nil:
		return nil, false
	case map[string]any:
		k, ok := key.(string)
		if !ok {
			return nil, false
		}
		v, ok := o[k]
		return v, ok
	case []any:
		i, ok := toIndex(key)
		if !ok || i < 0 || i >= len(o) {
			return nil, false
		}
		return o[i], true
	}

	rv := reflect.ValueOf(obj)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		kv, ok := convertTo(key, rv.Type().Key())
		if !ok {
			return nil, false
		}
		v := rv.MapIndex(kv)
		if !v.IsValid() {
			return nil, false
		}
		return v.Interface(), true
	case reflect.Slice, reflect.Array:
		i, ok := toIndex(key)
		if !ok || i < 0 || i >= rv.Len() {
			return nil, false
		}
		return rv.Index(i).Interface(), true
	case reflect.Struct:
		name, ok := key.(string)
		if !ok {
			return nil, false
		}
		field := rv.FieldByName(name)
		if !field.IsValid() || !field.CanInterface() {
			return nil, false
		}
		return field.Interface(), true
	}
	return nil, false
}

// assign writes value under key on obj in place.
func assign(obj any, key any, value any) error {
	if s, ok := obj.(*State); ok {
		obj = s.target
	}
	switch o := obj.(type) {
	case nil:
		return invalidArgument("cannot assign %v on nil", key)
	case map[string]any:
		k, ok := key.(string)
		if !ok {
			return invalidArgument("map key %v (%T) is not a string", key, key)
		}
		o[k] = value
		return nil
	case []any:
		i, ok := toIndex(key)
		if !ok || i < 0 || i >= len(o) {
			return invalidArgument("index %v out of range [0,%d)", key, len(o))
		}
		o[i] = value
		return nil
	}

	rv := reflect.ValueOf(obj)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return invalidArgument("cannot assign %v on nil", key)
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		if rv.IsNil() {
			return invalidArgument("cannot assign %v on nil map", key)
		}
		kv, ok := convertTo(key, rv.Type().Key())
		if !ok {
			return invalidArgument("map key %v (%T) does not fit %s", key, key, rv.Type().Key())
		}
		vv, ok := convertTo(value, rv.Type().Elem())
		if !ok {
			return invalidArgument("value %T does not fit %s", value, rv.Type().Elem())
		}
		rv.SetMapIndex(kv, vv)
		return nil
	case reflect.Slice, reflect.Array:
		i, ok := toIndex(key)
		if !ok || i < 0 || i >= rv.Len() {
			return invalidArgument("index %v out of range [0,%d)", key, rv.Len())
		}
		elem := rv.Index(i)
		if !elem.CanSet() {
			return invalidArgument("element %d is not settable", i)
		}
		vv, ok := convertTo(value, elem.Type())
		if !ok {
			return invalidArgument("value %T does not fit %s", value, elem.Type())
		}
		elem.Set(vv)
		return nil
	case reflect.Struct:
		name, ok := key.(string)
		if !ok {
			return invalidArgument("struct key %v (%T) is not a field name", key, key)
		}
		field := rv.FieldByName(name)
		if !field.IsValid() || !field.CanSet() {
			return invalidArgument("field %q is not settable", name)
		}
		vv, ok := convertTo(value, field.Type())
		if !ok {
			return invalidArgument("value %T does not fit field %q (%s)", value, name, field.Type())
		}
		field.Set(vv)
		return nil
	}
	return invalidArgument("%T is not indexable", obj)
}

func convertTo(v any, t reflect.Type) (reflect.Value, bool) {
	if v == nil {
		switch t.Kind() {
		case reflect.Interface, reflect.Map, reflect.Slice, reflect.Pointer, reflect.Func, reflect.Chan:
			return reflect.Zero(t), true
		}
		return reflect.Value{}, false
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		return rv, true
	}
	if isNumberKind(rv.Kind()) && isNumberKind(t.Kind()) {
		return rv.Convert(t), true
	}
	return reflect.Value{}, false
}

func isNumberKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// toIndex accepts integral numbers and decimal strings as sequence indexes.
func toIndex(key any) (int, bool) {
	if s, ok := key.(string); ok {
		i, err := strconv.Atoi(s)
		return i, err == nil
	}
	n, ok := integral(key)
	if !ok || n > math.MaxInt || n < math.MinInt {
		return 0, false
	}
	return int(n), true
}

func integral(v any) (int64, bool) {
	if v == nil {
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, false
		}
		return int64(u), true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f != math.Trunc(f) || math.IsInf(f, 0) || f > math.MaxInt64 || f < math.MinInt64 {
			return 0, false
		}
		return int64(f), true
	}
	return 0, false
}

// sameKey compares property keys. Integral numbers of any width compare by
// value; uncomparable keys never match.
func sameKey(a, b any) bool {
	if ai, ok := integral(a); ok {
		if bi, ok := integral(b); ok {
			return ai == bi
		}
		return false
	}
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}

// toSlice copies slice and array values into a []any.
func toSlice(v any) ([]any, bool) {
	if s, ok := v.([]any); ok {
		return s, true
	}
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && !rv.IsNil() && rv.Elem().Kind() == reflect.Array {
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out, true
	}
	return nil, false
}

// truthy follows the loose truthiness collaborators expect from conditional
// pointers: nil, false, zero numbers and empty strings are false.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f != 0 && !math.IsNaN(f)
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}
