package reactive

import (
	"encoding/json"
	"fmt"
)

// Trace describes how a pointer resolves right now: the steps of a regular
// path with the container owning each position, or the records a composite
// pointer is built from.
type Trace struct {
	Pointer PointerID   `json:"pointer"`
	Kind    string      `json:"kind"`
	State   StateID     `json:"state,omitempty"`
	Steps   []TraceStep `json:"steps,omitempty"`
	Parent  PointerID   `json:"parent,omitempty"`
	Members []PointerID `json:"members,omitempty"`
	Value   any         `json:"value,omitempty"`
}

// TraceStep details one position of a regular path.
type TraceStep struct {
	Depth   int       `json:"depth"`
	Key     string    `json:"key"`
	Dynamic bool      `json:"dynamic,omitempty"`
	Via     PointerID `json:"via,omitempty"`
	Owner   StateID   `json:"owner"`
	Found   bool      `json:"found"`
	Value   any       `json:"value,omitempty"`
}

// Trace reports the current resolution of p.
func (p *Pointer) Trace() (Trace, error) {
	rec, err := p.record()
	if err != nil {
		return Trace{}, wrapPointerError("trace", p.ID(), err)
	}
	trace := Trace{
		Pointer: rec.id,
		Kind:    rec.kind.String(),
		Value:   p.rt.resolve(rec),
	}
	switch rec.kind {
	case KindRegular:
		trace.State = rec.state.id
		owners := p.rt.owners(rec)
		var cur any = rec.state
		found := true
		for i, st := range rec.path {
			key := p.rt.stepKey(st)
			entry := TraceStep{
				Depth:   i,
				Key:     fmt.Sprint(key),
				Dynamic: st.dynamic(),
				Owner:   owners[i].id,
			}
			if st.dynamic() {
				entry.Via = st.ptr.id
			}
			if found {
				cur, found = index(cur, key)
			}
			entry.Found = found
			if found {
				entry.Value = cur
			}
			trace.Steps = append(trace.Steps, entry)
		}
	case KindZipped:
		for _, member := range rec.members {
			trace.Members = append(trace.Members, member.id)
		}
	case KindMapped:
		trace.Parent = rec.parent.id
	}
	return trace, nil
}

// ToJSON serialises the trace for logging or transport.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return json.Marshal(alias(t))
}

// TraceFromJSON deserialises a payload produced by ToJSON.
func TraceFromJSON(payload []byte) (Trace, error) {
	type alias Trace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return Trace{}, err
	}
	return Trace(trace), nil
}
