//go:build js_eval

package reactive

import (
	"fmt"

	"github.com/dop251/goja"
)

// jsEvaluator runs each evaluation on a fresh goja runtime. Compiled
// programs can be shared across runtimes, so only they are cached.
type jsEvaluator struct {
	engineConfig
}

// NewJSEvaluator returns an Evaluator backed by goja.
func NewJSEvaluator(opts ...JSEvaluatorOption) Evaluator {
	return &jsEvaluator{engineConfig: newEngineConfig(opts)}
}

func (e *jsEvaluator) Evaluate(ctx ExprContext, expression string) (any, error) {
	rule, err := e.Compile(expression)
	if err != nil {
		return nil, err
	}
	return rule.Evaluate(ctx)
}

func (e *jsEvaluator) Compile(expression string, _ ...CompileOption) (CompiledRule, error) {
	if expression == "" {
		return nil, wrapEvaluatorError("js", fmt.Errorf("expression must not be empty"))
	}
	if cached, ok := e.load("js", expression); ok {
		if program, ok := cached.(*goja.Program); ok {
			return &jsRule{evaluator: e, program: program, expression: expression}, nil
		}
	}
	// Wrapping in an IIFE lets the expression be a bare value.
	program, err := goja.Compile("", fmt.Sprintf("(function(){ return (%s); })()", expression), false)
	if err != nil {
		return nil, wrapEvaluationError("js", expression, 0, err)
	}
	e.store("js", expression, program)
	return &jsRule{evaluator: e, program: program, expression: expression}, nil
}

type jsRule struct {
	evaluator  *jsEvaluator
	program    *goja.Program
	expression string
}

func (r *jsRule) Evaluate(ctx ExprContext) (any, error) {
	ctx = ctx.withDefaults()
	vm := goja.New()
	for name, value := range ctx.variables() {
		if err := vm.Set(name, value); err != nil {
			return nil, wrapEvaluationError("js", r.expression, ctx.Pointer, err)
		}
	}
	if registry := r.evaluator.registry; registry != nil {
		call := func(name string, args ...any) (any, error) {
			return registry.Call(name, args...)
		}
		if err := vm.Set("call", call); err != nil {
			return nil, wrapEvaluationError("js", r.expression, ctx.Pointer, err)
		}
	}
	out, err := vm.RunProgram(r.program)
	if err != nil {
		return nil, wrapEvaluationError("js", r.expression, ctx.Pointer, err)
	}
	return out.Export(), nil
}

func jsEvaluatorAvailable() bool {
	return true
}
