package evaluator

import (
	"time"

	"github.com/smilemakc/cairs/internal/expr"
	"github.com/smilemakc/cairs/internal/value"
)

func (ev *Evaluator) evalSeq(e *expr.Expr) value.Value {
	first := ev.evalNodeID(e.First)
	if first.IsError() {
		return first
	}
	return ev.evalNodeID(e.Then)
}

func (ev *Evaluator) evalAssign(e *expr.Expr) value.Value {
	valueID, err := e.ValueRef()
	if err != nil {
		return value.Error("InvalidExprFormat", "assign.value must be a node id", nil)
	}
	v := ev.evalNodeID(valueID)
	if v.IsError() {
		return v
	}
	ev.State.Env = ev.State.Env.WithBinding(e.Target, v)
	// Keep any outstanding ref cell for this name in sync: refCell{target}
	// is documented as reading target's "current binding", so a later
	// assign to the same name must be visible through derefs of that cell.
	if cell, ok := ev.State.RefCells[e.Target]; ok {
		cell.Value = v
	}
	return value.Void()
}

func (ev *Evaluator) evalWhile(e *expr.Expr) value.Value {
	for {
		if errv, ok := ev.step(); !ok {
			return errv
		}
		cond := ev.evalNodeID(e.Cond)
		if cond.IsError() {
			return cond
		}
		if cond.Kind != value.KBool {
			return value.Error("TypeError", "while condition must be bool", nil)
		}
		if !cond.B {
			return value.Void()
		}
		body := ev.evalNodeID(e.Body)
		if body.IsError() {
			return body
		}
	}
}

// evalFor desugars for{var,init,cond,update,body} to
// assign(var,init); while(cond){ body; assign(var,update) } per spec.md §4.6.
func (ev *Evaluator) evalFor(e *expr.Expr) value.Value {
	init := ev.evalNodeID(e.Init)
	if init.IsError() {
		return init
	}
	ev.State.Env = ev.State.Env.WithBinding(e.Var, init)

	for {
		if errv, ok := ev.step(); !ok {
			return errv
		}
		cond := ev.evalNodeID(e.Cond)
		if cond.IsError() {
			return cond
		}
		if cond.Kind != value.KBool {
			return value.Error("TypeError", "for condition must be bool", nil)
		}
		if !cond.B {
			return value.Void()
		}
		body := ev.evalNodeID(e.Body)
		if body.IsError() {
			return body
		}
		update := ev.evalNodeID(e.Update)
		if update.IsError() {
			return update
		}
		ev.State.Env = ev.State.Env.WithBinding(e.Var, update)
	}
}

func (ev *Evaluator) evalIter(e *expr.Expr) value.Value {
	iterable := ev.evalNodeID(e.Iter)
	if iterable.IsError() {
		return iterable
	}
	if iterable.Kind != value.KList {
		return value.Error("TypeError", "iter requires a list", nil)
	}
	for _, item := range iterable.List {
		if errv, ok := ev.step(); !ok {
			return errv
		}
		ev.State.Env = ev.State.Env.WithBinding(e.Var, item)
		body := ev.evalNodeID(e.Body)
		if body.IsError() {
			return body
		}
	}
	return value.Void()
}

func (ev *Evaluator) evalEffect(e *expr.Expr) value.Value {
	eff, ok := ev.Effects.Lookup(e.Op)
	if !ok {
		return value.Error("UnknownOperator", "unknown effect "+e.Op, nil)
	}
	args, errv := ev.evalArgs(e.Args)
	if errv != nil {
		return *errv
	}
	result := eff.Impl(args)
	ev.State.EffectLog = append(ev.State.EffectLog, EffectRecord{
		Seq:       len(ev.State.EffectLog),
		Op:        e.Op,
		Args:      args,
		Result:    result,
		Timestamp: time.Now(),
	})
	return result
}

// evalRefCell reads target's current binding and wraps it in a fresh ref
// cell, also registering it in the side-map so deref{target} can find it
// by name (spec.md §4.6: "or from the refCells side-map of the EvalState
// if preferred").
func (ev *Evaluator) evalRefCell(e *expr.Expr) value.Value {
	v, ok := ev.State.Env.Lookup(e.Target)
	if !ok {
		return value.Error("UnboundIdentifier", "unbound identifier "+e.Target, nil)
	}
	cell := value.NewRefCell(v)
	ev.State.RefCells[e.Target] = cell
	return value.NewRefCellValue(cell)
}

func (ev *Evaluator) evalDeref(e *expr.Expr) value.Value {
	cell, ok := ev.State.RefCells[e.Target]
	if !ok {
		return value.Error("UnboundIdentifier", "no ref cell bound to "+e.Target, nil)
	}
	return cell.Value
}

func (ev *Evaluator) evalTry(e *expr.Expr) value.Value {
	result := ev.evalNodeID(e.TryBody)
	if !result.IsError() {
		if e.Fallback != "" {
			return ev.evalNodeID(e.Fallback)
		}
		return result
	}
	saved := ev.State.Env
	ev.State.Env = ev.State.Env.WithBinding(e.CatchParam, result)
	caught := ev.evalNodeID(e.CatchBody)
	ev.State.Env = saved
	return caught
}
