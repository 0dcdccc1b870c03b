// Package layering combines configuration layers: typed structs with
// MergeLayers and untyped maps with Fill.
package layering

import "reflect"

// MergeLayers returns a fresh value built from layers ordered strongest
// first. A field is taken from the first layer that sets it: non-nil for
// pointers, maps, slices and interfaces, non-zero for plain values. Maps are
// merged key by key. The result shares no memory with the layers.
func MergeLayers[T any](layers ...T) T {
	var out T
	dst := reflect.ValueOf(&out).Elem()
	for _, layer := range layers {
		under(dst, reflect.ValueOf(&layer).Elem())
	}
	return out
}

// under fills the unset parts of dst from src.
func under(dst, src reflect.Value) {
	switch dst.Kind() {
	case reflect.Struct:
		for i := 0; i < dst.NumField(); i++ {
			if field := dst.Field(i); field.CanSet() {
				under(field, src.Field(i))
			}
		}
	case reflect.Pointer:
		if src.IsNil() {
			return
		}
		if dst.IsNil() {
			dst.Set(deepCopy(src))
			return
		}
		if dst.Elem().Kind() == reflect.Struct {
			under(dst.Elem(), src.Elem())
		}
	case reflect.Map:
		if src.IsNil() {
			return
		}
		if dst.IsNil() {
			dst.Set(reflect.MakeMapWithSize(dst.Type(), src.Len()))
		}
		iter := src.MapRange()
		for iter.Next() {
			key, value := iter.Key(), iter.Value()
			existing := dst.MapIndex(key)
			if !existing.IsValid() {
				dst.SetMapIndex(key, deepCopy(value))
				continue
			}
			if mapKind(existing) && mapKind(value) {
				merged := reflect.New(existing.Type()).Elem()
				merged.Set(existing)
				underMap(merged, value)
				dst.SetMapIndex(key, merged)
			}
		}
	case reflect.Slice, reflect.Interface:
		if dst.IsNil() && !src.IsNil() {
			dst.Set(deepCopy(src))
		}
	default:
		if dst.IsZero() {
			dst.Set(src)
		}
	}
}

// underMap merges nested maps that may sit behind interface values.
func underMap(dst, src reflect.Value) {
	if dst.Kind() == reflect.Interface {
		inner := reflect.New(dst.Elem().Type()).Elem()
		inner.Set(dst.Elem())
		underMap(inner, src)
		dst.Set(inner)
		return
	}
	if src.Kind() == reflect.Interface {
		src = src.Elem()
	}
	if src.Type() != dst.Type() {
		return
	}
	under(dst, src)
}

func mapKind(v reflect.Value) bool {
	if v.Kind() == reflect.Interface && !v.IsNil() {
		v = v.Elem()
	}
	return v.Kind() == reflect.Map && !v.IsNil()
}

func deepCopy(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		out := reflect.New(v.Type().Elem())
		out.Elem().Set(deepCopy(v.Elem()))
		return out
	case reflect.Interface:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		out := reflect.New(v.Type()).Elem()
		out.Set(deepCopy(v.Elem()))
		return out
	case reflect.Map:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), deepCopy(iter.Value()))
		}
		return out
	case reflect.Slice:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(deepCopy(v.Index(i)))
		}
		return out
	case reflect.Struct:
		out := reflect.New(v.Type()).Elem()
		out.Set(v)
		for i := 0; i < v.NumField(); i++ {
			if field := out.Field(i); field.CanSet() {
				field.Set(deepCopy(v.Field(i)))
			}
		}
		return out
	}
	return v
}
