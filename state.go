package reactive

import (
	"fmt"

	"github.com/goliatone/go-reactive/pkg/activity"
)

// StateID identifies a container. Identities are never reused within a
// runtime.
type StateID uint64

// State wraps a plain object so that writes can be observed. All reads and
// writes that should take part in reactivity go through Get and Set; the
// wrapped object is owned by the container and mutated in place.
type State struct {
	rt        *Runtime
	id        StateID
	target    any
	listeners []*stateListener
}

type stateListener struct {
	fn       func(key any)
	detached bool
}

// NewState wraps obj. It fails with ErrInvalidArgument unless obj is a
// non-nil map, slice, or pointer to an array or struct.
func (rt *Runtime) NewState(obj any) (*State, error) {
	if _, ok := obj.(*State); ok {
		return nil, invalidArgument("value is already a container")
	}
	if !objectLike(obj) {
		return nil, invalidArgument("cannot wrap %T: containers require an object", obj)
	}
	rt.nextState++
	s := &State{rt: rt, id: rt.nextState, target: obj}
	rt.states[s.id] = s
	rt.logger().Debug("state created", "state", s.id, "type", fmt.Sprintf("%T", obj))
	rt.emit(activity.BuildStateCreatedEvent(activity.StateEventInput{
		StateID: uint64(s.id),
	}))
	return s, nil
}

// IsStateful reports whether x is a container registered with rt. The check
// never touches the capture trap.
func (rt *Runtime) IsStateful(x any) bool {
	s, ok := x.(*State)
	if !ok || s == nil {
		return false
	}
	registered, ok := rt.states[s.id]
	return ok && registered == s
}

// ID returns the container identity.
func (s *State) ID() StateID {
	return s.id
}

// Runtime returns the owning runtime.
func (s *State) Runtime() *Runtime {
	return s.rt
}

// Target returns the wrapped object. Mutating it directly bypasses listeners.
func (s *State) Target() any {
	return s.target
}

// Get reads key. With the capture trap armed it instead starts a path
// recording rooted at this container and returns its *Recorder.
//
// A pointer used as key is resolved to its current value.
func (s *State) Get(key any) any {
	if s.rt.armed {
		return s.rt.record(s, key)
	}
	if r, ok := key.(Reader); ok {
		key = r.Value()
	}
	v, _ := index(s.target, key)
	return v
}

// Set writes value under key and then runs every listener with key before
// returning. When the target is a []any, key may equal its length to append.
func (s *State) Set(key, value any) error {
	if r, ok := key.(Reader); ok {
		key = r.Value()
	}
	var old any
	if s.rt.activities.Enabled() {
		old, _ = index(s.target, key)
	}
	if list, ok := s.target.([]any); ok {
		if i, ok := toIndex(key); ok && i == len(list) {
			s.target = append(list, value)
		} else if err := assign(list, key, value); err != nil {
			return err
		}
	} else if err := assign(s.target, key, value); err != nil {
		return err
	}

	s.rt.cfg.observer.StateWritten(s.id, key)
	s.notify(key)
	s.rt.emit(activity.BuildStateUpdatedEvent(activity.StateEventInput{
		StateID:  uint64(s.id),
		Key:      fmt.Sprint(key),
		OldValue: old,
		NewValue: value,
	}))
	return nil
}

// Listen registers fn to run after every write with the written key and the
// value now stored under it.
func (s *State) Listen(fn func(key, value any)) {
	if fn == nil {
		return
	}
	s.addListener(func(key any) {
		v, _ := index(s.target, key)
		fn(key, v)
	})
}

func (s *State) addListener(fn func(key any)) *stateListener {
	l := &stateListener{fn: fn}
	s.listeners = append(s.listeners, l)
	return l
}

func (s *State) removeListener(l *stateListener) {
	if l == nil {
		return
	}
	l.detached = true
	for i, existing := range s.listeners {
		if existing == l {
			s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
			return
		}
	}
}

// notify walks a snapshot of the listener list: listeners added during the
// pass wait for the next write, detached ones are skipped.
func (s *State) notify(key any) {
	if len(s.listeners) == 0 {
		return
	}
	pass := make([]*stateListener, len(s.listeners))
	copy(pass, s.listeners)
	for _, l := range pass {
		if l.detached {
			continue
		}
		l.fn(key)
	}
}
