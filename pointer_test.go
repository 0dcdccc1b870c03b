package reactive

import (
	"errors"
	"testing"
)

func mustState(t *testing.T, rt *Runtime, obj any) *State {
	t.Helper()
	s, err := rt.NewState(obj)
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	return s
}

func mustPointer(t *testing.T) func(p *Pointer, err error) *Pointer {
	t.Helper()
	return func(p *Pointer, err error) *Pointer {
		t.Helper()
		if err != nil {
			t.Fatalf("capture: %v", err)
		}
		return p
	}
}

func TestPointerReadsThroughPlainObjects(t *testing.T) {
	rt := NewRuntime()
	s := mustState(t, rt, map[string]any{
		"user": map[string]any{"name": "ada", "tags": []any{"x", "y"}},
	})

	name := mustPointer(t)(rt.Use()(s.Get("user"), "name"))
	tag := mustPointer(t)(rt.Use()(s.Get("user"), "tags", 1))

	if got := name.Value(); got != "ada" {
		t.Fatalf("name = %v", got)
	}
	if got := tag.Value(); got != "y" {
		t.Fatalf("tag = %v", got)
	}
	if name.Kind() != KindRegular {
		t.Fatalf("kind = %s", name.Kind())
	}

	_ = s.Set("user", map[string]any{"name": "bob"})
	if got := name.Value(); got != "bob" {
		t.Fatalf("name after swap = %v", got)
	}
	if got := tag.Value(); got != nil {
		t.Fatalf("broken path should resolve to nil, got %v", got)
	}
}

func TestPointerNotifiesOncePerRelevantWrite(t *testing.T) {
	rt := NewRuntime()
	user := mustState(t, rt, map[string]any{"name": "ada"})
	root := mustState(t, rt, map[string]any{"user": user, "other": 0})

	p := mustPointer(t)(rt.Use()(root.Get("user"), "name"))
	var seen []any
	p.Listen(func(v any) { seen = append(seen, v) })

	_ = user.Set("name", "bob")
	_ = root.Set("other", 1)
	_ = user.Set("unrelated", true)

	if len(seen) != 1 || seen[0] != "bob" {
		t.Fatalf("expected exactly one notification with bob, got %v", seen)
	}
}

func TestPointerFollowsIntermediateSwap(t *testing.T) {
	rt := NewRuntime()
	first := mustState(t, rt, map[string]any{"name": "ada"})
	second := mustState(t, rt, map[string]any{"name": "cy"})
	root := mustState(t, rt, map[string]any{"user": first})

	p := mustPointer(t)(rt.Use()(root.Get("user"), "name"))
	calls := 0
	p.Listen(func(any) { calls++ })

	_ = root.Set("user", second)
	if calls != 1 || p.Value() != "cy" {
		t.Fatalf("after swap: calls=%d value=%v", calls, p.Value())
	}

	_ = first.Set("name", "stale")
	if calls != 1 {
		t.Fatalf("detached container still notifies: calls=%d", calls)
	}

	_ = second.Set("name", "dee")
	if calls != 2 || p.Value() != "dee" {
		t.Fatalf("after write on new owner: calls=%d value=%v", calls, p.Value())
	}
}

func TestPointerDynamicPath(t *testing.T) {
	rt := NewRuntime()
	s := mustState(t, rt, map[string]any{
		"items": map[string]any{"a": 1, "b": 2},
		"sel":   "a",
	})

	sel := mustPointer(t)(rt.Use()(s.Get("sel")))
	viaPointer := mustPointer(t)(rt.Use()(s.Get("items"), sel))
	nested := mustPointer(t)(rt.Use()(s.Get("items"), s.Get("sel")))

	if viaPointer.Value() != 1 || nested.Value() != 1 {
		t.Fatalf("initial values %v %v", viaPointer.Value(), nested.Value())
	}

	calls := 0
	viaPointer.Listen(func(any) { calls++ })
	_ = s.Set("sel", "b")

	if calls != 1 {
		t.Fatalf("selector change should notify once, got %d", calls)
	}
	if viaPointer.Value() != 2 || nested.Value() != 2 {
		t.Fatalf("values after selector change %v %v", viaPointer.Value(), nested.Value())
	}
}

func TestZipCombinesMembers(t *testing.T) {
	rt := NewRuntime()
	s := mustState(t, rt, map[string]any{"a": 1, "b": 2})
	a := mustPointer(t)(rt.Use()(s.Get("a")))
	b := mustPointer(t)(rt.Use()(s.Get("b")))

	z, err := a.Zip(b)
	if err != nil {
		t.Fatalf("Zip: %v", err)
	}
	values, ok := z.Value().([]any)
	if !ok || len(values) != 2 || values[0] != 1 || values[1] != 2 {
		t.Fatalf("zip value %v", z.Value())
	}
	if z.Kind() != KindZipped {
		t.Fatalf("kind = %s", z.Kind())
	}
	if members := ZipMembers(z); len(members) != 2 || members[1].ID() != b.ID() {
		t.Fatalf("unexpected members %v", members)
	}

	var last []any
	z.Listen(func(v any) { last, _ = v.([]any) })
	_ = s.Set("b", 3)
	if len(last) != 2 || last[1] != 3 {
		t.Fatalf("zip listener saw %v", last)
	}

	if _, err := z.Bind(); !errors.Is(err, ErrIllegalInvocation) {
		t.Fatalf("binding a zip should fail, got %v", err)
	}
	if err := ForceSet(z, []any{0, 0}); !errors.Is(err, ErrIllegalInvocation) {
		t.Fatalf("force setting a zip should fail, got %v", err)
	}

	other := NewRuntime()
	os := mustState(t, other, map[string]any{"c": 1})
	c := mustPointer(t)(other.Use()(os.Get("c")))
	if _, err := a.Zip(c); !errors.Is(err, ErrIllegalInvocation) {
		t.Fatalf("cross-runtime zip should fail, got %v", err)
	}
}

func TestBoundMapRoundTrip(t *testing.T) {
	rt := NewRuntime()
	s := mustState(t, rt, map[string]any{"celsius": 20.0})
	celsius := mustPointer(t)(rt.Use()(s.Get("celsius")))

	bound, err := celsius.Bind()
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	fahrenheit := bound.MapBound(
		func(v any) any { return v.(float64)*9/5 + 32 },
		func(v any) any { return (v.(float64) - 32) * 5 / 9 },
	)

	if got := fahrenheit.Value(); got != 68.0 {
		t.Fatalf("fahrenheit = %v", got)
	}
	if err := fahrenheit.Set(212.0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := s.Get("celsius"); got != 100.0 {
		t.Fatalf("celsius = %v", got)
	}

	rebound, err := fahrenheit.Unbind().Bind()
	if err != nil {
		t.Fatalf("mapped pointer with reverse should bind: %v", err)
	}
	if err := rebound.Set(32.0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := s.Get("celsius"); got != 0.0 {
		t.Fatalf("celsius = %v", got)
	}
}

func TestReverseNoChangeDropsWrite(t *testing.T) {
	rt := NewRuntime()
	s := mustState(t, rt, map[string]any{"n": 1})
	n := mustPointer(t)(rt.Use()(s.Get("n")))
	bound, _ := n.Bind()

	positive := bound.MapBound(
		func(v any) any { return v },
		func(v any) any {
			if v.(int) < 0 {
				return NoChange
			}
			return v
		},
	)
	doubled := positive.MapBound(
		func(v any) any { return v.(int) * 2 },
		func(v any) any { return v.(int) / 2 },
	)

	writes := 0
	s.Listen(func(key, value any) { writes++ })

	if err := doubled.Set(-4); err != nil {
		t.Fatalf("dropped write should not fail: %v", err)
	}
	if writes != 0 || s.Get("n") != 1 {
		t.Fatalf("NoChange leaked a write: writes=%d n=%v", writes, s.Get("n"))
	}
	if err := doubled.Set(8); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if writes != 1 || s.Get("n") != 4 {
		t.Fatalf("write not applied: writes=%d n=%v", writes, s.Get("n"))
	}
}

func TestMapWithoutReverseIsReadOnly(t *testing.T) {
	rt := NewRuntime()
	s := mustState(t, rt, map[string]any{"n": 2})
	n := mustPointer(t)(rt.Use()(s.Get("n")))
	squared := n.Map(func(v any) any { return v.(int) * v.(int) })

	if _, err := squared.Bind(); !errors.Is(err, ErrIllegalInvocation) {
		t.Fatalf("expected ErrIllegalInvocation, got %v", err)
	}
	if err := ForceSet(squared, 9); err != nil {
		t.Fatalf("force set without reverse should be dropped, got %v", err)
	}
	if s.Get("n") != 2 {
		t.Fatalf("dropped write modified state: %v", s.Get("n"))
	}

	if err := ForceSet(n, 3); err != nil {
		t.Fatalf("ForceSet on unbound regular pointer: %v", err)
	}
	if squared.Value() != 9 {
		t.Fatalf("squared = %v", squared.Value())
	}
}

func TestMapChainsCompose(t *testing.T) {
	rt := NewRuntime()
	s := mustState(t, rt, map[string]any{"n": 1})
	n := mustPointer(t)(rt.Use()(s.Get("n")))

	chained := n.Map(func(v any) any { return v.(int) + 1 }).Map(func(v any) any { return v.(int) * 10 })
	if got := chained.Value(); got != 20 {
		t.Fatalf("chained = %v", got)
	}
	trace, err := chained.Trace()
	if err != nil {
		t.Fatalf("Trace: %v", err)
	}
	if trace.Parent != n.ID() {
		t.Fatalf("chained map should sit directly on %d, got parent %d", n.ID(), trace.Parent)
	}

	var seen []any
	chained.Listen(func(v any) { seen = append(seen, v) })
	_ = s.Set("n", 4)
	if len(seen) != 1 || seen[0] != 50 {
		t.Fatalf("chained listener saw %v", seen)
	}
}

func TestAndThenAndMapEach(t *testing.T) {
	rt := NewRuntime()
	s := mustState(t, rt, map[string]any{"on": false, "items": []any{1, 2, 3}})
	on := mustPointer(t)(rt.Use()(s.Get("on")))
	items := mustPointer(t)(rt.Use()(s.Get("items")))

	label := on.AndThen("enabled", func(v any) any { return "disabled" })
	if label.Value() != "disabled" {
		t.Fatalf("label = %v", label.Value())
	}
	_ = s.Set("on", true)
	if label.Value() != "enabled" {
		t.Fatalf("label = %v", label.Value())
	}

	indexed := items.MapEach(func(v any, i int) any { return v.(int) * i })
	got, ok := ValueAs[[]any](indexed)
	if !ok || len(got) != 3 || got[2] != 6 {
		t.Fatalf("indexed = %v", got)
	}
	_ = s.Set("items", "not a list")
	if got, _ := ValueAs[[]any](indexed); len(got) != 0 {
		t.Fatalf("non-list should map to empty, got %v", got)
	}
}

func TestBoundPointerWritesThroughContainers(t *testing.T) {
	rt := NewRuntime()
	user := mustState(t, rt, map[string]any{"name": "ada"})
	root := mustState(t, rt, map[string]any{"user": user})

	p := mustPointer(t)(rt.Use()(root.Get("user"), "name"))
	bound, err := p.Bind()
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if !IsBoundPointer(bound) || IsBoundPointer(p) || !IsPointer(p) || !IsPointer(bound) {
		t.Fatal("pointer predicates disagree")
	}

	var keys []any
	user.Listen(func(key, value any) { keys = append(keys, key) })
	if err := bound.Set("grace"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if len(keys) != 1 || keys[0] != "name" || user.Get("name") != "grace" {
		t.Fatalf("write did not go through the container: keys=%v name=%v", keys, user.Get("name"))
	}

	broken := mustPointer(t)(rt.Use()(root.Get("missing"), "name"))
	brokenBound, _ := broken.Bind()
	if err := brokenBound.Set("x"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument on broken path, got %v", err)
	}
}

func TestCaptureErrors(t *testing.T) {
	rt := NewRuntime()
	s := mustState(t, rt, map[string]any{"a": 1})

	if _, err := rt.Use()("literal"); !errors.Is(err, ErrIllegalCapture) {
		t.Fatalf("expected ErrIllegalCapture, got %v", err)
	}
	if rt.armed {
		t.Fatal("capture must disarm the trap")
	}
	if got := s.Get("a"); got != 1 {
		t.Fatalf("Get after failed capture = %v", got)
	}

	rt.armed = true
	rec, ok := s.Get("a").(*Recorder)
	rt.armed = false
	if !ok {
		t.Fatal("armed Get should return a recorder")
	}
	rec.IntoPointer()
	if _, err := rt.Use()(rec); !errors.Is(err, ErrIllegalCapture) {
		t.Fatalf("finalized recorder should be rejected, got %v", err)
	}

	other := NewRuntime()
	os := mustState(t, other, map[string]any{"a": 1})
	if _, err := rt.Use()(os.Get("a")); !errors.Is(err, ErrIllegalCapture) {
		t.Fatalf("recorder of another runtime should be rejected, got %v", err)
	}

	var invalid Pointer
	if _, err := invalid.Resolve(); !errors.Is(err, ErrIllegalInvocation) {
		t.Fatalf("expected ErrIllegalInvocation, got %v", err)
	}
	if invalid.Value() != nil {
		t.Fatal("invalid handle should resolve to nil")
	}
	var ptrErr *PointerError
	_, err := invalid.Bind()
	if !errors.As(err, &ptrErr) || ptrErr.Op != "bind" {
		t.Fatalf("expected PointerError for bind, got %v", err)
	}
}

func TestResubscribeIsIdempotent(t *testing.T) {
	rt := NewRuntime()
	inner := mustState(t, rt, map[string]any{"v": 1})
	root := mustState(t, rt, map[string]any{"inner": inner})

	p := mustPointer(t)(rt.Use()(root.Get("inner"), "v"))
	before := rt.Stats().Subscriptions

	rec, _ := p.record()
	rt.resubscribe(rec, 0)
	rt.resubscribe(rec, 1)
	if after := rt.Stats().Subscriptions; after != before {
		t.Fatalf("resubscribe without mutation changed subscriptions %d -> %d", before, after)
	}

	calls := 0
	p.Listen(func(any) { calls++ })
	_ = inner.Set("v", 2)
	if calls != 1 {
		t.Fatalf("expected one notification, got %d", calls)
	}
}

func TestStatsCountsRecords(t *testing.T) {
	rt := NewRuntime()
	s := mustState(t, rt, map[string]any{"a": 1, "b": 2})
	a := mustPointer(t)(rt.Use()(s.Get("a")))
	b := mustPointer(t)(rt.Use()(s.Get("b")))
	_, _ = a.Zip(b)
	a.Map(func(v any) any { return v })

	stats := rt.Stats()
	if stats.States != 1 || stats.Regular != 2 || stats.Zipped != 1 || stats.Mapped != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if stats.Subscriptions != 2 {
		t.Fatalf("expected one subscription per regular path position, got %d", stats.Subscriptions)
	}
}

func TestDefaultRuntimeHelpers(t *testing.T) {
	s, err := NewState(map[string]any{"v": "x"})
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	if !IsStateful(s) {
		t.Fatal("state should belong to the default runtime")
	}
	p, err := Use()(s.Get("v"))
	if err != nil {
		t.Fatalf("Use: %v", err)
	}
	if p.Runtime() != Default() || p.Value() != "x" {
		t.Fatalf("unexpected pointer %v", p.Value())
	}
}
