package evaluator

import (
	"fmt"

	"github.com/smilemakc/cairs/internal/expr"
	"github.com/smilemakc/cairs/internal/value"
)

func (ev *Evaluator) evalLambda(e *expr.Expr) value.Value {
	return value.NewClosure(&value.Closure{
		Params:  e.Params,
		BodyRef: e.Body,
		Env:     ev.State.Env,
	})
}

// applyClosure binds args to c's params over its captured environment and
// evaluates the body, restoring the evaluator's environment afterward.
// Native closures (built by fix) bypass body resolution entirely.
func (ev *Evaluator) applyClosure(c *value.Closure, args []value.Value) value.Value {
	if len(args) != len(c.Params) {
		return value.Error("ArityError", fmt.Sprintf("closure expects %d args, got %d", len(c.Params), len(args)), nil)
	}
	if c.Native != nil {
		return c.Native(args)
	}
	callEnv := c.Env
	for i, p := range c.Params {
		callEnv = callEnv.WithBinding(p, args[i])
	}
	saved := ev.State.Env
	ev.State.Env = callEnv
	result := ev.evalNodeID(c.BodyRef)
	ev.State.Env = saved
	return result
}

func (ev *Evaluator) evalCallExpr(e *expr.Expr) value.Value {
	fn := ev.evalNodeID(e.Fn)
	if fn.IsError() {
		return fn
	}
	if fn.Kind != value.KClosure {
		return value.Error("TypeError", "callExpr.fn must evaluate to a closure", nil)
	}
	args, errv := ev.evalArgs(e.Args)
	if errv != nil {
		return *errv
	}
	return ev.applyClosure(fn.Closure, args)
}

// evalFix implements the fixpoint combinator: given closure f of one
// parameter, returns closure g such that g(x) = f(g)(x) (spec.md §4.6).
// g is built as a Native closure since its "body" is the act of calling
// back into f, not a node in the document.
func (ev *Evaluator) evalFix(e *expr.Expr) value.Value {
	fv := ev.evalNodeID(e.Fn)
	if fv.IsError() {
		return fv
	}
	if fv.Kind != value.KClosure || len(fv.Closure.Params) != 1 {
		return value.Error("TypeError", "fix requires a closure of exactly one parameter", nil)
	}
	f := fv.Closure

	var g value.Value
	g = value.NewClosure(&value.Closure{
		Params: []string{"x"},
		Name:   "fix",
		Native: func(args []value.Value) value.Value {
			fg := ev.applyClosure(f, []value.Value{g})
			if fg.IsError() {
				return fg
			}
			if fg.Kind != value.KClosure {
				return value.Error("TypeError", "fix: f(g) must evaluate to a closure", nil)
			}
			return ev.applyClosure(fg.Closure, args)
		},
	})
	return g
}
