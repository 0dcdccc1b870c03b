package reactive

import (
	"fmt"
	"strings"
)

// Capture turns a recorded access path into a pointer. It is obtained from
// Runtime.Use and must be called exactly in the shape
//
//	ptr, err := rt.Use()(state.Get("a"), "b", "c")
//
// Go evaluates the call operands left to right: Use runs first and arms the
// trap, the argument list runs next so Get returns a *Recorder, and the
// capture itself runs last and disarms. Extra path elements are appended to
// the recording; pointers and recorders among them become dynamic steps.
type Capture func(root any, path ...any) (*Pointer, error)

// TemplateCapture builds a string pointer from literal fragments
// interleaved with params. len(fragments) must be len(params)+1.
type TemplateCapture func(fragments []string, params ...any) (*Pointer, error)

// Use arms the capture trap and returns the capture function.
func (rt *Runtime) Use() Capture {
	rt.armed = true
	return rt.capture
}

func (rt *Runtime) capture(root any, path ...any) (*Pointer, error) {
	rt.armed = false
	rec, ok := root.(*Recorder)
	if !ok || rec == nil {
		return nil, wrapPointerError("capture", 0, illegalCapture("%T is not a recorded path", root))
	}
	if rec.rt != rt {
		return nil, wrapPointerError("capture", 0, illegalCapture("recorded path belongs to another runtime"))
	}
	if rec.phase != recording {
		return nil, wrapPointerError("capture", rec.rec.id, illegalCapture("recorded path already finalized"))
	}
	for _, key := range path {
		rec.Get(key)
	}
	if rec.err != nil {
		return nil, wrapPointerError("capture", rec.rec.id, rec.err)
	}
	id := rec.IntoPointer()
	if err := rt.initRegular(rec.rec); err != nil {
		return nil, wrapPointerError("capture", id, err)
	}
	rt.logger().Debug("pointer captured", "pointer", id, "state", rec.rec.state.id, "depth", len(rec.rec.path))
	return &Pointer{rt: rt, id: id}, nil
}

type recorderPhase int

const (
	recording recorderPhase = iota
	finalized
)

// Recorder is the path-recording handle returned by State.Get while the
// capture trap is armed. Get appends a step and returns the same recorder;
// IntoPointer finalizes the recording and yields the record identity.
type Recorder struct {
	rt    *Runtime
	rec   *record
	phase recorderPhase
	err   error
}

// record registers a regular record rooted at s with a single step and
// returns its recorder.
func (rt *Runtime) record(s *State, key any) *Recorder {
	rec := &record{kind: KindRegular, state: s}
	rt.register(rec)
	r := &Recorder{rt: rt, rec: rec}
	r.Get(key)
	return r
}

// Get appends key to the recorded path. Pointers, recorders and registered
// PointerIDs become dynamic steps.
func (r *Recorder) Get(key any) *Recorder {
	if r.err != nil {
		return r
	}
	if r.phase == finalized {
		r.err = illegalCapture("recorded path already finalized")
		return r
	}
	st, err := r.rt.stepFor(key)
	if err != nil {
		r.err = err
		return r
	}
	r.rec.path = append(r.rec.path, st)
	return r
}

// IntoPointer finalizes the recording and returns its record identity.
func (r *Recorder) IntoPointer() PointerID {
	r.phase = finalized
	return r.rec.id
}

// Err reports the first error recorded while building the path.
func (r *Recorder) Err() error {
	return r.err
}

func (rt *Runtime) stepFor(key any) (step, error) {
	switch k := key.(type) {
	case *Recorder:
		if k.rt != rt {
			return step{}, illegalInvocation("nested capture belongs to another runtime")
		}
		if k.err != nil {
			return step{}, k.err
		}
		id := k.IntoPointer()
		if err := rt.initRegular(k.rec); err != nil {
			return step{}, err
		}
		return step{ptr: &Pointer{rt: rt, id: id}}, nil
	case *BoundPointer:
		if k == nil || k.Pointer == nil {
			return step{}, illegalInvocation("nil pointer step")
		}
		return rt.stepFor(k.Pointer)
	case *Pointer:
		if k == nil || k.rt != rt {
			return step{}, illegalInvocation("pointer step belongs to another runtime")
		}
		return step{ptr: &Pointer{rt: rt, id: k.id}}, nil
	case PointerID:
		rec, err := rt.lookup(k)
		if err != nil {
			return step{key: key}, nil
		}
		if rec.kind == KindRegular && !rec.initialized {
			if err := rt.initRegular(rec); err != nil {
				return step{}, err
			}
		}
		return step{ptr: &Pointer{rt: rt, id: k}}, nil
	}
	return step{key: key}, nil
}

// UseTemplate arms the capture trap and returns a template capture, so
// params may be written as state.Get(...) recordings.
func (rt *Runtime) UseTemplate() TemplateCapture {
	rt.armed = true
	return rt.captureTemplate
}

func (rt *Runtime) captureTemplate(fragments []string, params ...any) (*Pointer, error) {
	rt.armed = false
	if len(fragments) != len(params)+1 {
		return nil, wrapPointerError("template", 0,
			invalidArgument("template has %d fragments for %d params", len(fragments), len(params)))
	}

	// segments alternate literal text and either a literal param or the index
	// of a reactive member.
	type segment struct {
		text   string
		member int
	}
	segments := make([]segment, 0, len(fragments)+len(params))
	var members []Reader
	for i, fragment := range fragments {
		segments = append(segments, segment{text: fragment, member: -1})
		if i == len(params) {
			break
		}
		switch param := params[i].(type) {
		case *Recorder, *Pointer, *BoundPointer:
			st, err := rt.stepFor(param)
			if err != nil {
				return nil, wrapPointerError("template", 0, err)
			}
			segments = append(segments, segment{member: len(members)})
			members = append(members, st.ptr)
		default:
			segments = append(segments, segment{text: stringify(param), member: -1})
		}
	}

	render := func(values []any) string {
		var b strings.Builder
		for _, seg := range segments {
			if seg.member >= 0 {
				b.WriteString(stringify(values[seg.member]))
				continue
			}
			b.WriteString(seg.text)
		}
		return b.String()
	}

	if len(members) == 0 {
		s, err := rt.NewState(map[string]any{"value": render(nil)})
		if err != nil {
			return nil, err
		}
		return rt.Use()(s.Get("value"))
	}

	first := members[0].base()
	zipped, err := first.Zip(members[1:]...)
	if err != nil {
		return nil, wrapPointerError("template", 0, err)
	}
	return zipped.Map(func(v any) any {
		values, _ := v.([]any)
		return render(values)
	}), nil
}

func stringify(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
