package reactive

import (
	"github.com/goliatone/go-reactive/pkg/activity"
)

// write pushes value back to the source of rec. Regular paths are walked
// through their containers so every intermediate read and the final write
// take the observable route. With force set, a mapped record without a
// reverse transform drops the write instead of failing.
func (rt *Runtime) write(rec *record, value any, force bool) error {
	switch rec.kind {
	case KindRegular:
		return rt.writeRegular(rec, value)
	case KindMapped:
		if rec.reverse == nil {
			if force {
				rt.logger().Debug("pointer write dropped", "pointer", rec.id, "reason", "no reverse")
				return nil
			}
			return illegalInvocation("mapped pointer %d has no reverse transform", rec.id)
		}
		next := rec.reverse(value)
		if isNoChange(next) {
			rt.logger().Debug("pointer write dropped", "pointer", rec.id)
			return nil
		}
		return rt.write(rec.parent, next, force)
	case KindZipped:
		return illegalInvocation("zipped pointer %d has no single writable target", rec.id)
	}
	return illegalInvocation("unknown pointer kind %d", rec.kind)
}

func (rt *Runtime) writeRegular(rec *record, value any) error {
	if len(rec.path) == 0 {
		return illegalInvocation("pointer %d has an empty path", rec.id)
	}
	var obj any = rec.state
	last := len(rec.path) - 1
	for i, st := range rec.path[:last] {
		key := rt.stepKey(st)
		var next any
		if s, ok := obj.(*State); ok {
			next = s.Get(key)
		} else {
			next, _ = index(obj, key)
		}
		if next == nil {
			return invalidArgument("path of pointer %d is broken at depth %d (key %v)", rec.id, i, key)
		}
		obj = next
	}

	key := rt.stepKey(rec.path[last])
	if s, ok := obj.(*State); ok {
		if err := s.Set(key, value); err != nil {
			return err
		}
	} else if err := assign(obj, key, value); err != nil {
		return err
	}
	rt.emit(activity.BuildPointerWrittenEvent(activity.PointerEventInput{
		PointerID: uint64(rec.id),
		StateID:   uint64(rec.state.id),
		NewValue:  value,
	}))
	return nil
}

// ZipMembers exposes the member pointers of a zipped pointer, or nil for
// any other kind. Serialization collaborators use it to walk composite
// pointers without engine internals.
func ZipMembers(r Reader) []*Pointer {
	if r == nil || r.base() == nil {
		return nil
	}
	rec, err := r.base().record()
	if err != nil || rec.kind != KindZipped {
		return nil
	}
	out := make([]*Pointer, len(rec.members))
	for i, member := range rec.members {
		out[i] = member.Clone()
	}
	return out
}

// ForceSet writes value through r regardless of whether the handle is
// bound. Reverse transforms still apply; a mapped pointer without one
// ignores the write. Hydration uses it to restore values captured on
// another host.
func ForceSet(r Reader, value any) error {
	if r == nil || r.base() == nil {
		return wrapPointerError("force set", 0, illegalInvocation("nil pointer"))
	}
	p := r.base()
	rec, err := p.record()
	if err != nil {
		return wrapPointerError("force set", p.id, err)
	}
	if err := p.rt.write(rec, value, true); err != nil {
		return wrapPointerError("force set", p.id, err)
	}
	return nil
}
