package reactive

import (
	"time"
)

// ExprContext carries the inputs of an expression evaluated against a
// pointer value.
type ExprContext struct {
	Value    any
	Now      *time.Time
	Args     map[string]any
	Metadata map[string]any
	Pointer  PointerID
}

func (ctx ExprContext) withDefaults() ExprContext {
	if ctx.Now == nil {
		now := time.Now()
		ctx.Now = &now
	}
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx ExprContext) timestamp() time.Time {
	return *ctx.withDefaults().Now
}

// variables builds the expression environment: the value under "value",
// the reserved bindings, and the keys of a map value spread on top level.
// Spread keys never shadow a reserved binding.
func (ctx ExprContext) variables() map[string]any {
	vars := map[string]any{
		"value":    ctx.Value,
		"now":      ctx.timestamp(),
		"args":     ctx.Args,
		"metadata": ctx.Metadata,
		"pointer":  uint64(ctx.Pointer),
	}
	if m, ok := ctx.Value.(map[string]any); ok {
		for key, value := range m {
			if _, reserved := vars[key]; reserved {
				continue
			}
			vars[key] = value
		}
	}
	return vars
}

// Evaluator executes expressions against a pointer value.
type Evaluator interface {
	Evaluate(ctx ExprContext, expr string) (any, error)
	Compile(expr string, opts ...CompileOption) (CompiledRule, error)
}

// CompiledRule is a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx ExprContext) (any, error)
}

// CompileOption configures evaluator compile behaviour.
type CompileOption interface {
	applyCompileOption(*compileConfig)
}

type compileConfig struct {
	variables []string
}

type compileOptionFunc func(*compileConfig)

func (f compileOptionFunc) applyCompileOption(cfg *compileConfig) {
	if f != nil {
		f(cfg)
	}
}

// CompileWithVariables declares extra top-level names for engines that type
// check their environment up front. Spread keys of map values are the usual
// source.
func CompileWithVariables(names ...string) CompileOption {
	return compileOptionFunc(func(cfg *compileConfig) {
		cfg.variables = append(cfg.variables, names...)
	})
}

func applyCompileOptions(opts []CompileOption) compileConfig {
	cfg := compileConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt.applyCompileOption(&cfg)
		}
	}
	return cfg
}

// WithEvaluator selects the engine behind Pointer.MapExpr. The expr engine is
// used when none is configured.
func WithEvaluator(evaluator Evaluator) Option {
	return func(cfg *runtimeConfig) {
		cfg.evaluator = evaluator
	}
}
