package hydrate

import (
	"fmt"

	reactive "github.com/goliatone/go-reactive"
	jsoniter "github.com/json-iterator/go"
)

// Payload tags.
const (
	TypeKey     = "__reactive_type"
	TypePointer = "ptr"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// Marshal serializes a top-level map of values for transport. Pointers become
// tagged exports and containers are serialized through their targets; every
// other value is encoded as is.
func Marshal(values map[string]any) ([]byte, error) {
	if values == nil {
		return nil, fmt.Errorf("hydrate: values are nil")
	}
	out := make(map[string]any, len(values))
	for key, value := range values {
		out[key] = encodeValue(value)
	}
	data, err := jsonAPI.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("hydrate: marshal: %w", err)
	}
	return data, nil
}

func encodeValue(value any) any {
	switch v := value.(type) {
	case *reactive.Pointer:
		return taggedPointer(v)
	case *reactive.BoundPointer:
		return taggedPointer(v)
	case *reactive.State:
		return v.Target()
	}
	return value
}

func taggedPointer(r reactive.Reader) map[string]any {
	return map[string]any{
		TypeKey: TypePointer,
		"p":     Export(r),
	}
}

func isTaggedPointer(value any) (any, bool) {
	m, ok := value.(map[string]any)
	if !ok || m[TypeKey] != TypePointer {
		return nil, false
	}
	return m["p"], true
}
