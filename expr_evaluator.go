package reactive

import (
	"fmt"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// exprEvaluator runs github.com/expr-lang/expr programs. They compile
// against an open environment, so spread keys need no declaration and one
// program serves every value shape.
type exprEvaluator struct {
	engineConfig
}

// NewExprEvaluator returns the default evaluator used by MapExpr.
func NewExprEvaluator(opts ...ExprEvaluatorOption) Evaluator {
	return &exprEvaluator{engineConfig: newEngineConfig(opts)}
}

func (e *exprEvaluator) Evaluate(ctx ExprContext, expression string) (any, error) {
	rule, err := e.Compile(expression)
	if err != nil {
		return nil, err
	}
	return rule.Evaluate(ctx)
}

func (e *exprEvaluator) Compile(expression string, _ ...CompileOption) (CompiledRule, error) {
	if expression == "" {
		return nil, wrapEvaluatorError("expr", fmt.Errorf("expression must not be empty"))
	}
	if cached, ok := e.load("expr", expression); ok {
		if program, ok := cached.(*exprvm.Program); ok {
			return &exprRule{evaluator: e, program: program, expression: expression}, nil
		}
	}

	options := []exprlang.Option{exprlang.AllowUndefinedVariables()}
	for _, name := range e.registry.Names() {
		options = append(options, exprlang.Function(name, e.callable(name)))
	}
	program, err := exprlang.Compile(expression, options...)
	if err != nil {
		return nil, wrapEvaluationError("expr", expression, 0, err)
	}
	e.store("expr", expression, program)
	return &exprRule{evaluator: e, program: program, expression: expression}, nil
}

// callable binds a registry entry as an expr function.
func (e *exprEvaluator) callable(name string) func(...any) (any, error) {
	return func(args ...any) (any, error) {
		return e.registry.Call(name, args...)
	}
}

type exprRule struct {
	evaluator  *exprEvaluator
	program    *exprvm.Program
	expression string
}

func (r *exprRule) Evaluate(ctx ExprContext) (any, error) {
	ctx = ctx.withDefaults()
	env := ctx.variables()
	if registry := r.evaluator.registry; registry != nil {
		env["call"] = func(name string, args ...any) (any, error) {
			return registry.Call(name, args...)
		}
	}
	out, err := exprlang.Run(r.program, env)
	if err != nil {
		return nil, wrapEvaluationError("expr", r.expression, ctx.Pointer, err)
	}
	return out, nil
}
