package reactive

// Mirror keeps key in sync with p: the property is seeded with the pointer's
// current value and follows every pointer change. When p is a *BoundPointer,
// writes to the property flow back through the pointer as well.
func (s *State) Mirror(key any, p Reader) error {
	if p == nil || p.base() == nil {
		return invalidArgument("mirror requires a pointer")
	}
	if p.base().rt != s.rt {
		return illegalInvocation("mirrored pointer belongs to another runtime")
	}
	if err := assign(s.target, key, p.Value()); err != nil {
		return err
	}

	// setting marks a write that originated from the pointer, so the property
	// listener below does not echo it back.
	setting := false
	p.Listen(func(value any) {
		setting = true
		if err := s.Set(key, value); err != nil {
			setting = false
			s.rt.logger().Warn("mirror write failed", "state", s.id, "key", key, "error", err)
		}
	})
	bound, _ := p.(*BoundPointer)
	s.addListener(func(written any) {
		if !sameKey(written, key) {
			return
		}
		if setting {
			setting = false
			return
		}
		if bound == nil {
			return
		}
		v, _ := index(s.target, key)
		if err := bound.Set(v); err != nil {
			s.rt.logger().Warn("mirror write-back failed", "state", s.id, "key", key, "error", err)
		}
	})
	return nil
}
