package metrics

import (
	"testing"

	reactive "github.com/goliatone/go-reactive"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestCollector(t *testing.T) *Collector {
	t.Helper()
	c, err := NewCollector(prometheus.NewRegistry(), "test")
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}
	return c
}

func TestNewCollector_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewCollector(reg, "dup"); err != nil {
		t.Fatalf("first NewCollector: %v", err)
	}
	if _, err := NewCollector(reg, "dup"); err == nil {
		t.Fatal("expected second registration to fail")
	}
}

func TestNewCollector_NilRegisterer(t *testing.T) {
	c, err := NewCollector(nil, "")
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}
	c.StateWritten(1, "a")
	if got := testutil.ToFloat64(c.StateWritesTotal); got != 1 {
		t.Errorf("StateWritesTotal = %f, want 1", got)
	}
}

func TestCollector_ObservesRuntime(t *testing.T) {
	c := newTestCollector(t)
	rt := reactive.NewRuntime(reactive.WithObserver(c))

	s, err := rt.NewState(map[string]any{"a": map[string]any{"b": 1}})
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	p, err := rt.Use()(s.Get("a"), "b")
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	doubled := p.Map(func(v any) any {
		n, _ := v.(int)
		return n * 2
	})

	if err := s.Set("x", 5); err != nil {
		t.Fatalf("Set x: %v", err)
	}
	if err := s.Set("a", map[string]any{"b": 3}); err != nil {
		t.Fatalf("Set a: %v", err)
	}

	if got := doubled.Value(); got != 6 {
		t.Fatalf("doubled = %v, want 6", got)
	}
	if got := testutil.ToFloat64(c.StateWritesTotal); got != 2 {
		t.Errorf("StateWritesTotal = %f, want 2", got)
	}
	if got := testutil.ToFloat64(c.NotificationsTotal.WithLabelValues("regular")); got != 1 {
		t.Errorf("NotificationsTotal[regular] = %f, want 1", got)
	}
	if got := testutil.ToFloat64(c.NotificationsTotal.WithLabelValues("mapped")); got != 1 {
		t.Errorf("NotificationsTotal[mapped] = %f, want 1", got)
	}
	if got := testutil.ToFloat64(c.ResubscriptionsTotal.WithLabelValues("0")); got != 1 {
		t.Errorf("ResubscriptionsTotal[0] = %f, want 1", got)
	}
}
