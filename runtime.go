package reactive

import (
	"context"
	"log/slog"
	"sync"

	"github.com/goliatone/go-reactive/pkg/activity"
)

// Runtime is the capture context of the engine. It owns the capture trap,
// the container table and the pointer arena.
//
// A Runtime assumes a single logical thread of control: listener cascades are
// synchronous and re-entrant, so it is not safe for concurrent use. Hosts
// that need to reach a Runtime from several goroutines should funnel every
// call through a Loop.
type Runtime struct {
	cfg runtimeConfig

	armed      bool
	nextState  StateID
	states     map[StateID]*State
	records    []*record
	activities *activity.Emitter
}

// Option configures a Runtime.
type Option func(*runtimeConfig)

type runtimeConfig struct {
	logger          *slog.Logger
	evaluator       Evaluator
	programCache    ProgramCache
	functions       *FunctionRegistry
	evaluatorLogger EvaluatorLogger
	activityHooks   activity.Hooks
	activityConfig  *activity.Config
	observer        Observer
}

func applyOptions(opts []Option) runtimeConfig {
	cfg := runtimeConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.DiscardHandler)
	}
	if cfg.evaluatorLogger == nil {
		cfg.evaluatorLogger = noopEvaluatorLogger{}
	}
	if cfg.observer == nil {
		cfg.observer = noopObserver{}
	}
	return cfg
}

// NewRuntime constructs an empty runtime.
func NewRuntime(opts ...Option) *Runtime {
	cfg := applyOptions(opts)
	activityCfg := activity.Config{Enabled: len(cfg.activityHooks) > 0, Channel: "state"}
	if cfg.activityConfig != nil {
		activityCfg = *cfg.activityConfig
	}
	return &Runtime{
		cfg:        cfg,
		states:     make(map[StateID]*State),
		records:    []*record{nil},
		activities: activity.NewEmitter(cfg.activityHooks, activityCfg),
	}
}

var defaultRuntime = sync.OnceValue(func() *Runtime {
	return NewRuntime()
})

// Default returns the process-wide runtime used by the package-level helpers.
func Default() *Runtime {
	return defaultRuntime()
}

// WithLogger routes engine diagnostics to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *runtimeConfig) {
		cfg.logger = logger
	}
}

// WithObserver attaches an instrumentation observer.
func WithObserver(observer Observer) Option {
	return func(cfg *runtimeConfig) {
		cfg.observer = observer
	}
}

// WithActivityHooks forwards container and pointer writes to hooks. Nil hooks
// are dropped.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := cloneActivityHooks(hooks)
	return func(cfg *runtimeConfig) {
		cfg.activityHooks = normalized
	}
}

// WithActivityConfig overrides the emitter defaults (enabled when hooks are
// present, channel "state").
func WithActivityConfig(config activity.Config) Option {
	return func(cfg *runtimeConfig) {
		cfg.activityConfig = &config
	}
}

// ActivityHooks returns a copy of the configured activity hooks.
func (rt *Runtime) ActivityHooks() activity.Hooks {
	if rt == nil {
		return nil
	}
	return cloneActivityHooks(rt.cfg.activityHooks)
}

func cloneActivityHooks(hooks activity.Hooks) activity.Hooks {
	if len(hooks) == 0 {
		return nil
	}
	normalized := make([]activity.ActivityHook, 0, len(hooks))
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		normalized = append(normalized, hook)
	}
	if len(normalized) == 0 {
		return nil
	}
	return activity.Hooks(normalized)
}

func (rt *Runtime) emit(event activity.Event) {
	if !rt.activities.Enabled() {
		return
	}
	if err := rt.activities.Emit(context.Background(), event); err != nil {
		rt.cfg.logger.Warn("activity hook failed", "verb", event.Verb, "object", event.ObjectID, "error", err)
	}
}

func (rt *Runtime) logger() *slog.Logger {
	return rt.cfg.logger
}

// Stats summarises the runtime tables. Nothing is ever evicted, so the
// numbers only grow.
type Stats struct {
	States        int
	Regular       int
	Zipped        int
	Mapped        int
	Subscriptions int
}

// Stats reports the current table sizes.
func (rt *Runtime) Stats() Stats {
	stats := Stats{States: len(rt.states)}
	for _, rec := range rt.records[1:] {
		switch rec.kind {
		case KindRegular:
			stats.Regular++
		case KindZipped:
			stats.Zipped++
		case KindMapped:
			stats.Mapped++
		}
	}
	for _, s := range rt.states {
		stats.Subscriptions += len(s.listeners)
	}
	return stats
}

// NewState wraps obj in a container owned by the default runtime.
func NewState(obj any) (*State, error) {
	return Default().NewState(obj)
}

// Use arms the default runtime's capture trap.
func Use() Capture {
	return Default().Use()
}

// UseTemplate arms the default runtime's capture trap for a template capture.
func UseTemplate() TemplateCapture {
	return Default().UseTemplate()
}

// IsStateful reports whether x is a container of the default runtime.
func IsStateful(x any) bool {
	return Default().IsStateful(x)
}

// IsPointer reports whether x is a pointer handle, bound or not.
func IsPointer(x any) bool {
	switch p := x.(type) {
	case *Pointer:
		return p != nil
	case *BoundPointer:
		return p != nil && p.Pointer != nil
	}
	return false
}

// IsBoundPointer reports whether x is a writable pointer handle.
func IsBoundPointer(x any) bool {
	p, ok := x.(*BoundPointer)
	return ok && p != nil && p.Pointer != nil
}
