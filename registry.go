package reactive

// PointerID identifies a pointer record. Zero is never assigned.
type PointerID uint64

// Kind discriminates pointer records.
type Kind int

const (
	// KindRegular is a literal access path rooted at one container.
	KindRegular Kind = iota + 1
	// KindZipped combines the values of several pointers into a tuple.
	KindZipped
	// KindMapped is a transformed view of a parent record.
	KindMapped
)

func (k Kind) String() string {
	switch k {
	case KindRegular:
		return "regular"
	case KindZipped:
		return "zipped"
	case KindMapped:
		return "mapped"
	default:
		return "unknown"
	}
}

// MapFunc transforms a pointer value.
type MapFunc func(value any) any

// ReverseFunc maps a written value back onto the parent pointer. Returning
// NoChange drops the write.
type ReverseFunc func(value any) any

type noChange struct{}

// NoChange is returned by a ReverseFunc to suppress a write entirely.
var NoChange any = noChange{}

func isNoChange(v any) bool {
	_, ok := v.(noChange)
	return ok
}

// step is one element of a regular path: a literal key or a nested pointer.
type step struct {
	key any
	ptr *Pointer
}

func (s step) dynamic() bool {
	return s.ptr != nil
}

// subscription is the listener a regular record keeps on the container that
// owns one path position.
type subscription struct {
	owner    *State
	listener *stateListener
}

// record is the registry entry behind every pointer handle. Records are
// immutable once finalized except for their listener list.
type record struct {
	id        PointerID
	kind      Kind
	listeners []func()

	// regular
	state       *State
	path        []step
	subs        []*subscription
	initialized bool

	// zipped
	members []*Pointer

	// mapped
	parent  *record
	mapFn   MapFunc
	reverse ReverseFunc
}

// register appends rec to the arena and assigns its identity.
func (rt *Runtime) register(rec *record) PointerID {
	rec.id = PointerID(len(rt.records))
	rt.records = append(rt.records, rec)
	return rec.id
}

func (rt *Runtime) lookup(id PointerID) (*record, error) {
	if id == 0 || int(id) >= len(rt.records) {
		return nil, illegalInvocation("unknown pointer %d", id)
	}
	return rt.records[id], nil
}

func (rt *Runtime) listen(rec *record, fn func()) {
	rec.listeners = append(rec.listeners, fn)
}

// notify runs the record listeners registered before the call.
func (rt *Runtime) notify(rec *record) {
	rt.cfg.observer.PointerNotified(rec.id, rec.kind)
	if len(rec.listeners) == 0 {
		return
	}
	pass := make([]func(), len(rec.listeners))
	copy(pass, rec.listeners)
	for _, fn := range pass {
		fn()
	}
}
