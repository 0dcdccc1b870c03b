package reactive

import (
	"errors"
	"fmt"
	"time"
)

var ErrNoEvaluator = errors.New("reactive: evaluator not configured")

// MapExpr returns a read-only pointer whose value is expr evaluated against
// this pointer's value with the runtime's evaluator. The value is bound as
// "value"; when it is a map[string]any its keys are also top-level names.
// Compile errors are returned here; runtime errors resolve to nil and are
// reported to the evaluator logger.
func (p *Pointer) MapExpr(expr string) (*Pointer, error) {
	if _, err := p.record(); err != nil {
		return nil, wrapPointerError("map expr", p.ID(), err)
	}
	evaluator, err := p.rt.resolveEvaluator()
	if err != nil {
		return nil, wrapPointerError("map expr", p.id, err)
	}
	return p.MapExprWith(evaluator, expr)
}

// MapExprWith is MapExpr with an explicit evaluator.
func (p *Pointer) MapExprWith(evaluator Evaluator, expr string) (*Pointer, error) {
	rec, err := p.record()
	if err != nil {
		return nil, wrapPointerError("map expr", p.ID(), err)
	}
	if evaluator == nil {
		return nil, wrapPointerError("map expr", p.id, ErrNoEvaluator)
	}
	if expr == "" {
		return nil, wrapPointerError("map expr", p.id, invalidArgument("expression must not be empty"))
	}
	engine := evaluatorEngineName(evaluator)
	rule, err := evaluator.Compile(expr, CompileWithVariables(spreadNames(ExprContext{Value: p.rt.resolve(rec)}.variables())...))
	if err != nil {
		return nil, wrapPointerError("map expr", p.id, wrapEvaluationError(engine, expr, p.id, err))
	}

	rt := p.rt
	var id PointerID
	mapped := rt.mapRecord(rec, func(v any) any {
		ctx := ExprContext{Value: v, Pointer: id}.withDefaults()
		start := time.Now()
		out, evalErr := rule.Evaluate(ctx)
		evalErr = wrapEvaluationError(engine, expr, id, evalErr)
		rt.cfg.evaluatorLogger.LogEvaluation(EvaluatorLogEvent{
			Engine:   engine,
			Expr:     expr,
			Pointer:  id,
			Duration: time.Since(start),
			Err:      evalErr,
		})
		if evalErr != nil {
			rt.logger().Warn("expression failed", "pointer", id, "expr", expr, "error", evalErr)
			return nil
		}
		return out
	}, nil)
	id = mapped.id
	return &Pointer{rt: rt, id: id}, nil
}

func (rt *Runtime) resolveEvaluator() (Evaluator, error) {
	if rt.cfg.evaluator != nil {
		return rt.cfg.evaluator, nil
	}
	var exprOpts []ExprEvaluatorOption
	if cache := rt.cfg.programCache; cache != nil {
		exprOpts = append(exprOpts, ExprWithProgramCache(cache))
	}
	if registry := rt.cfg.functions; registry != nil {
		exprOpts = append(exprOpts, ExprWithFunctionRegistry(registry))
	}
	defaultEvaluator := NewExprEvaluator(exprOpts...)
	if defaultEvaluator == nil {
		return nil, ErrNoEvaluator
	}
	rt.cfg.evaluator = defaultEvaluator
	return defaultEvaluator, nil
}

func evaluatorEngineName(e Evaluator) string {
	if e == nil {
		return "unknown"
	}
	switch fmt.Sprintf("%T", e) {
	case "*reactive.exprEvaluator":
		return "expr"
	case "*reactive.celEvaluator":
		return "cel"
	case "*reactive.jsEvaluator":
		return "js"
	default:
		return "custom"
	}
}
