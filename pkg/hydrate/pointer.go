// Package hydrate moves pointer values between hosts: a producer exports the
// current values behind its pointers, a consumer writes them back through
// its own, structurally identical pointers.
package hydrate

import (
	"errors"
	"fmt"

	reactive "github.com/goliatone/go-reactive"
)

var (
	// ErrShapeMismatch reports an export whose zip structure differs from the
	// pointer it is applied to.
	ErrShapeMismatch = errors.New("hydrate: pointer shape mismatch")
	// ErrNotPointer reports a tagged payload whose target key holds no pointer.
	ErrNotPointer = errors.New("hydrate: target is not a pointer")
)

// Exported is the transportable form of a pointer: the member exports of a
// zipped pointer, or the current value of any other pointer. In JSON a
// zipped export is an array and a leaf is {"v": value}.
type Exported struct {
	Zipped  bool
	Members []Exported
	Value   any
}

// Export captures the current value behind r.
func Export(r reactive.Reader) Exported {
	if members := reactive.ZipMembers(r); members != nil {
		out := Exported{Zipped: true, Members: make([]Exported, len(members))}
		for i, member := range members {
			out.Members[i] = Export(member)
		}
		return out
	}
	return Exported{Value: r.Value()}
}

// Apply writes e back through r. Zipped pointers are applied member by
// member; every other pointer receives its value through reactive.ForceSet.
func Apply(r reactive.Reader, e Exported) error {
	members := reactive.ZipMembers(r)
	if e.Zipped {
		if members == nil {
			return fmt.Errorf("%w: export is zipped, pointer %d is not", ErrShapeMismatch, r.ID())
		}
		if len(members) != len(e.Members) {
			return fmt.Errorf("%w: pointer %d has %d members, export has %d", ErrShapeMismatch, r.ID(), len(members), len(e.Members))
		}
		for i, member := range members {
			if err := Apply(member, e.Members[i]); err != nil {
				return err
			}
		}
		return nil
	}
	if members != nil {
		return fmt.Errorf("%w: pointer %d is zipped, export is not", ErrShapeMismatch, r.ID())
	}
	return reactive.ForceSet(r, e.Value)
}

// MarshalJSON encodes a zipped export as an array and a leaf as {"v": value}.
func (e Exported) MarshalJSON() ([]byte, error) {
	if e.Zipped {
		members := e.Members
		if members == nil {
			members = []Exported{}
		}
		return jsonAPI.Marshal(members)
	}
	return jsonAPI.Marshal(struct {
		V any `json:"v"`
	}{V: e.Value})
}

// UnmarshalJSON reverses MarshalJSON.
func (e *Exported) UnmarshalJSON(data []byte) error {
	var raw any
	if err := jsonAPI.Unmarshal(data, &raw); err != nil {
		return err
	}
	decoded, err := exportedFrom(raw)
	if err != nil {
		return err
	}
	*e = decoded
	return nil
}

// exportedFrom rebuilds an export from its generic JSON form.
func exportedFrom(raw any) (Exported, error) {
	switch v := raw.(type) {
	case []any:
		out := Exported{Zipped: true, Members: make([]Exported, len(v))}
		for i, member := range v {
			decoded, err := exportedFrom(member)
			if err != nil {
				return Exported{}, err
			}
			out.Members[i] = decoded
		}
		return out, nil
	case map[string]any:
		return Exported{Value: v["v"]}, nil
	}
	return Exported{}, fmt.Errorf("hydrate: malformed pointer export %T", raw)
}
