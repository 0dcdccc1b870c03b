package reactive

// resolve computes the current value of rec. Nothing is cached.
func (rt *Runtime) resolve(rec *record) any {
	switch rec.kind {
	case KindRegular:
		v, _ := rt.walk(rec, len(rec.path))
		return v
	case KindZipped:
		values := make([]any, len(rec.members))
		for i, member := range rec.members {
			values[i] = member.Value()
		}
		return values
	case KindMapped:
		return rec.mapFn(rt.resolve(rec.parent))
	}
	return nil
}

// walk follows the first depth steps of a regular path from the root
// container's target. Once the current object stops being indexable the walk
// short-circuits and yields nil with ok=false.
func (rt *Runtime) walk(rec *record, depth int) (any, bool) {
	var cur any = rec.state
	for _, st := range rec.path[:depth] {
		next, ok := index(cur, rt.stepKey(st))
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// stepKey is the effective key of a step: the literal key, or the current
// value of a nested pointer.
func (rt *Runtime) stepKey(st step) any {
	if st.dynamic() {
		return st.ptr.Value()
	}
	return st.key
}

// owners returns, for every path position, the container that owns the
// object indexed there: the nearest container at or above that depth. Plain
// objects inherit the container they live in; positions past a broken walk
// keep the last owner seen.
func (rt *Runtime) owners(rec *record) []*State {
	owners := make([]*State, len(rec.path))
	owner := rec.state
	var cur any = rec.state
	alive := true
	for i, st := range rec.path {
		if s, ok := cur.(*State); ok && alive {
			owner = s
		}
		owners[i] = owner
		if !alive {
			continue
		}
		cur, alive = index(cur, rt.stepKey(st))
	}
	return owners
}

// initRegular wires the subscriptions of a freshly captured regular record:
// one per path position, plus a listener on every nested pointer.
func (rt *Runtime) initRegular(rec *record) error {
	if rec.kind != KindRegular {
		return illegalInvocation("pointer %d is %s, not regular", rec.id, rec.kind)
	}
	if rec.initialized {
		return nil
	}
	rec.initialized = true
	rec.subs = make([]*subscription, len(rec.path))
	for i, st := range rec.path {
		if !st.dynamic() {
			continue
		}
		inner, err := rt.lookup(st.ptr.id)
		if err != nil {
			return err
		}
		depth := i
		rt.listen(inner, func() {
			rt.resubscribe(rec, depth+1)
			rt.notify(rec)
		})
	}
	rt.resubscribe(rec, 0)
	return nil
}

// resubscribe re-walks the path and moves the subscriptions for every depth
// >= from onto the containers that own those positions now. A subscription
// whose owner did not change is left in place, so running it again without an
// intervening mutation attaches nothing new.
func (rt *Runtime) resubscribe(rec *record, from int) {
	if from >= len(rec.path) {
		return
	}
	owners := rt.owners(rec)
	moved := 0
	for i := from; i < len(rec.path); i++ {
		owner := owners[i]
		if sub := rec.subs[i]; sub != nil {
			if sub.owner == owner && !sub.listener.detached {
				continue
			}
			sub.owner.removeListener(sub.listener)
		}
		rec.subs[i] = &subscription{
			owner:    owner,
			listener: owner.addListener(rt.stepListener(rec, i)),
		}
		moved++
	}
	if moved > 0 {
		rt.cfg.observer.Resubscribed(rec.id, from)
		rt.logger().Debug("pointer resubscribed", "pointer", rec.id, "from", from, "moved", moved)
	}
}

// stepListener fires when the owner of depth i writes the key that depth
// currently reads: everything downstream may now live elsewhere.
func (rt *Runtime) stepListener(rec *record, i int) func(key any) {
	return func(key any) {
		if !sameKey(key, rt.stepKey(rec.path[i])) {
			return
		}
		rt.resubscribe(rec, i+1)
		rt.notify(rec)
	}
}
