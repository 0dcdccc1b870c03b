// Package reactive tracks reads and writes on plain Go objects so that
// derived values stay current without manual wiring.
//
// Objects are wrapped in containers with Runtime.NewState. A pointer is a
// lazily resolved access path captured from container reads:
//
//	rt := reactive.NewRuntime()
//	s, _ := rt.NewState(map[string]any{"user": map[string]any{"name": "ada"}})
//	name, _ := rt.Use()(s.Get("user"), "name")
//	name.Listen(func(v any) { fmt.Println("name is", v) })
//	_ = s.Set("user", map[string]any{"name": "grace"})
//
// Pointers compose with Map, Zip, AndThen, MapEach and MapExpr, and become
// writable through Bind. A Runtime is single threaded; use a Loop to share
// one between goroutines.
package reactive
