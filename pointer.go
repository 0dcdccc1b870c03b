package reactive

// Reader is the read side shared by Pointer and BoundPointer.
type Reader interface {
	ID() PointerID
	Value() any
	Listen(fn func(value any))
	base() *Pointer
}

// Pointer is a lazily resolved reference into one or more containers. It is a
// thin handle over a registry record: copies made with Clone share the record.
type Pointer struct {
	rt *Runtime
	id PointerID
}

// BoundPointer is a Pointer that can also write back to its source.
type BoundPointer struct {
	*Pointer
}

func (p *Pointer) base() *Pointer {
	return p
}

func (p *Pointer) record() (*record, error) {
	if p == nil || p.rt == nil {
		return nil, illegalInvocation("uninitialized pointer")
	}
	return p.rt.lookup(p.id)
}

// ID returns the identity of the underlying record.
func (p *Pointer) ID() PointerID {
	return p.id
}

// Runtime returns the runtime owning the record.
func (p *Pointer) Runtime() *Runtime {
	return p.rt
}

// Kind reports the record kind.
func (p *Pointer) Kind() Kind {
	rec, err := p.record()
	if err != nil {
		return 0
	}
	return rec.kind
}

// Bound reports whether the handle is writable.
func (p *Pointer) Bound() bool {
	return false
}

// Resolve computes the current value.
func (p *Pointer) Resolve() (any, error) {
	rec, err := p.record()
	if err != nil {
		return nil, wrapPointerError("resolve", p.ID(), err)
	}
	return p.rt.resolve(rec), nil
}

// Value computes the current value, or nil when the handle is invalid.
func (p *Pointer) Value() any {
	v, _ := p.Resolve()
	return v
}

// Listen runs fn with the freshly resolved value every time a dependency of
// the pointer changes. Registrations are permanent.
func (p *Pointer) Listen(fn func(value any)) {
	if fn == nil {
		return
	}
	rec, err := p.record()
	if err != nil {
		return
	}
	p.rt.listen(rec, func() {
		fn(p.rt.resolve(rec))
	})
}

// Map returns a read-only pointer over f applied to this pointer's value.
func (p *Pointer) Map(f MapFunc) *Pointer {
	rec, err := p.record()
	if err != nil {
		return p
	}
	mapped := p.rt.mapRecord(rec, f, nil)
	return &Pointer{rt: p.rt, id: mapped.id}
}

// Zip returns a pointer whose value is the tuple of this pointer's value
// followed by each of others' values.
func (p *Pointer) Zip(others ...Reader) (*Pointer, error) {
	if _, err := p.record(); err != nil {
		return nil, wrapPointerError("zip", p.ID(), err)
	}
	members := make([]*Pointer, 0, len(others)+1)
	members = append(members, p.Clone())
	for _, other := range others {
		if other == nil || other.base() == nil {
			return nil, wrapPointerError("zip", p.id, invalidArgument("nil zip member"))
		}
		member := other.base()
		if member.rt != p.rt {
			return nil, wrapPointerError("zip", p.id, illegalInvocation("zip member belongs to another runtime"))
		}
		if _, err := member.record(); err != nil {
			return nil, wrapPointerError("zip", p.id, err)
		}
		members = append(members, member.Clone())
	}

	rec := &record{kind: KindZipped, members: members}
	p.rt.register(rec)
	for _, member := range members {
		inner, _ := member.record()
		p.rt.listen(inner, func() {
			p.rt.notify(rec)
		})
	}
	return &Pointer{rt: p.rt, id: rec.id}, nil
}

// AndThen maps truthy values to then and everything else to otherwise.
// Either branch may be a func(any) any, in which case it is applied to the
// value.
func (p *Pointer) AndThen(then, otherwise any) *Pointer {
	return p.Map(func(v any) any {
		branch := otherwise
		if truthy(v) {
			branch = then
		}
		switch fn := branch.(type) {
		case func(any) any:
			return fn(v)
		case MapFunc:
			return fn(v)
		}
		return branch
	})
}

// MapEach maps f over each element of a slice or array value. Other values
// map to an empty slice.
func (p *Pointer) MapEach(f func(value any, i int) any) *Pointer {
	return p.Map(func(v any) any {
		items, _ := toSlice(v)
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = f(item, i)
		}
		return out
	})
}

// Bind returns a writable handle over the same record. Zipped pointers, and
// mapped pointers without a reverse transform, have no single writable
// target.
func (p *Pointer) Bind() (*BoundPointer, error) {
	rec, err := p.record()
	if err != nil {
		return nil, wrapPointerError("bind", p.ID(), err)
	}
	switch rec.kind {
	case KindRegular:
	case KindMapped:
		if rec.reverse == nil {
			return nil, wrapPointerError("bind", p.id, illegalInvocation("mapped pointer has no reverse transform"))
		}
	case KindZipped:
		return nil, wrapPointerError("bind", p.id, illegalInvocation("zipped pointers cannot be bound"))
	}
	return &BoundPointer{Pointer: p.Clone()}, nil
}

// Clone returns another handle over the same record.
func (p *Pointer) Clone() *Pointer {
	return &Pointer{rt: p.rt, id: p.id}
}

// Bound reports whether the handle is writable.
func (b *BoundPointer) Bound() bool {
	return true
}

// Set writes value back through the record's reverse transforms and path.
// A reverse transform returning NoChange drops the write without touching
// any container.
func (b *BoundPointer) Set(value any) error {
	rec, err := b.record()
	if err != nil {
		return wrapPointerError("set", b.ID(), err)
	}
	if err := b.rt.write(rec, value, false); err != nil {
		return wrapPointerError("set", b.id, err)
	}
	return nil
}

// MapBound returns a writable pointer over f; writes to it apply reverse and
// then write through this pointer.
func (b *BoundPointer) MapBound(f MapFunc, reverse ReverseFunc) *BoundPointer {
	rec, err := b.record()
	if err != nil {
		return b
	}
	mapped := b.rt.mapRecord(rec, f, reverse)
	return &BoundPointer{Pointer: &Pointer{rt: b.rt, id: mapped.id}}
}

// Clone returns another writable handle over the same record.
func (b *BoundPointer) Clone() *BoundPointer {
	return &BoundPointer{Pointer: b.Pointer.Clone()}
}

// Unbind returns a read-only handle over the same record.
func (b *BoundPointer) Unbind() *Pointer {
	return b.Pointer.Clone()
}

// mapRecord registers a mapped record over parent. Mapping a mapped record
// composes the functions onto the grandparent instead of nesting, so chains
// never grow deeper than one level.
func (rt *Runtime) mapRecord(parent *record, f MapFunc, reverse ReverseFunc) *record {
	base, mapFn, rev := parent, f, reverse
	if parent.kind == KindMapped {
		inner := parent.mapFn
		mapFn = func(v any) any {
			return f(inner(v))
		}
		rev = nil
		if reverse != nil && parent.reverse != nil {
			innerReverse := parent.reverse
			rev = func(v any) any {
				x := reverse(v)
				if isNoChange(x) {
					return x
				}
				return innerReverse(x)
			}
		}
		base = parent.parent
	}
	rec := &record{kind: KindMapped, parent: base, mapFn: mapFn, reverse: rev}
	rt.register(rec)
	rt.listen(base, func() {
		rt.notify(rec)
	})
	return rec
}

// ValueAs resolves r and asserts the result to T.
func ValueAs[T any](r Reader) (T, bool) {
	var zero T
	if r == nil {
		return zero, false
	}
	v, ok := r.Value().(T)
	return v, ok
}
