// Package evaluator implements C7: the synchronous AIR/CIR/EIR reducer.
// Grounded in mbflow's WorkflowEngine.ExecuteWorkflow
// (internal/application/executor/engine.go) — a single mutable execution
// context threaded through node-by-node dispatch, with step/duration
// bookkeeping — narrowed from a three-phase workflow DAG run to recursive
// reduction of a single expression tree rooted at doc.result.
package evaluator

import (
	"fmt"
	"time"

	"github.com/smilemakc/cairs/internal/effect"
	"github.com/smilemakc/cairs/internal/env"
	"github.com/smilemakc/cairs/internal/expr"
	"github.com/smilemakc/cairs/internal/operator"
	"github.com/smilemakc/cairs/internal/value"
)

// Options configures a single evaluation run, shaped on mbflow's
// EngineConfig/DefaultEngineConfig() pattern (internal/application/executor/engine.go).
type Options struct {
	MaxSteps int
}

// DefaultOptions returns the sync evaluator's defaults (spec.md §4.6:
// "maxSteps... default 10 000 for the sync evaluator").
func DefaultOptions() Options {
	return Options{MaxSteps: 10000}
}

// EffectRecord is one occurrence entry in the effect log (spec.md §4.6:
// "op + evaluated args + timestamped sequence number").
type EffectRecord struct {
	Seq       int
	Op        string
	Args      []value.Value
	Result    value.Value
	Timestamp time.Time
}

// EvalState is the mutable execution context threaded through evaluation:
// the current environment, the step counter, the effect log, and the
// ref-cell side-map (spec.md §4.6 refCell note: "or from the refCells
// side-map of the EvalState if preferred").
type EvalState struct {
	Env       value.Environment
	Steps     int
	EffectLog []EffectRecord
	RefCells  map[string]*value.RefCell
}

// NewEvalState builds a fresh state rooted at inputEnv (nil means empty).
func NewEvalState(inputEnv value.Environment) *EvalState {
	if inputEnv == nil {
		inputEnv = env.EmptyValueEnv()
	}
	return &EvalState{Env: inputEnv, RefCells: make(map[string]*value.RefCell)}
}

// Evaluator reduces a document's expression nodes. Unrecognized kinds are
// delegated to Extra when set, letting package asyncevaluator layer PIR
// semantics on top without duplicating this dispatch (C11 "extends C7").
type Evaluator struct {
	Doc     *expr.Document
	Index   map[string]*expr.Node
	Ops     *operator.Registry
	Effects *effect.Registry
	Defs    *env.Defs
	Options Options
	State   *EvalState

	// Extra, when non-nil, handles expression kinds this evaluator does
	// not itself recognize (PIR's spawn/await/channel/send/recv/select/
	// race/par). Returning ok=false causes the standard "unsupported
	// kind" error.
	Extra func(ev *Evaluator, e *expr.Expr) (value.Value, bool)
}

// New builds an Evaluator ready to reduce doc.Result.
func New(doc *expr.Document, ops *operator.Registry, effects *effect.Registry, defs *env.Defs, inputEnv value.Environment, opts Options) *Evaluator {
	return &Evaluator{
		Doc:     doc,
		Index:   doc.ByID(),
		Ops:     ops,
		Effects: effects,
		Defs:    defs,
		Options: opts,
		State:   NewEvalState(inputEnv),
	}
}

// Evaluate reduces doc.Result to a value.
func (ev *Evaluator) Evaluate() value.Value {
	return ev.evalNodeID(ev.Doc.Result)
}

// EvalNode reduces an arbitrary node id against the evaluator's current
// environment. Exported so package asyncevaluator can evaluate a PIR
// expression's id-referenced sub-fields (task, future, channel, value...)
// without duplicating node dispatch (C11 "extends C7").
func (ev *Evaluator) EvalNode(id string) value.Value {
	return ev.evalNodeID(id)
}

func (ev *Evaluator) node(id string) (*expr.Node, value.Value) {
	n, ok := ev.Index[id]
	if !ok {
		return nil, value.Error("InvalidResultReference", fmt.Sprintf("node %q does not exist", id), nil)
	}
	return n, value.Value{}
}

func (ev *Evaluator) evalNodeID(id string) value.Value {
	n, errv := ev.node(id)
	if n == nil {
		return errv
	}
	if n.IsBlockForm() {
		return value.Error("TypeError", "synchronous evaluator cannot reduce a block-form node directly; use package lir", nil)
	}
	return ev.evalExpr(n.Expr)
}

// step charges one reduction against the step budget (spec.md §4.6: "each
// node reduction counts as one step; loop bodies count per iteration").
func (ev *Evaluator) step() (value.Value, bool) {
	ev.State.Steps++
	if ev.State.Steps > ev.Options.MaxSteps {
		return value.Error("NonTermination", "maxSteps exceeded", nil), false
	}
	return value.Value{}, true
}

func (ev *Evaluator) evalExpr(e *expr.Expr) value.Value {
	if errv, ok := ev.step(); !ok {
		return errv
	}

	switch e.Kind {
	case expr.KindLit:
		v, err := e.Literal()
		if err != nil {
			return value.Error("InvalidExprFormat", err.Error(), nil)
		}
		return v
	case expr.KindRef:
		return ev.evalNodeID(e.ID)
	case expr.KindVar:
		v, ok := ev.State.Env.Lookup(e.Name)
		if !ok {
			return value.Error("UnboundIdentifier", fmt.Sprintf("unbound identifier %q", e.Name), nil)
		}
		return v
	case expr.KindCall:
		return ev.evalCall(e)
	case expr.KindIf:
		return ev.evalIf(e)
	case expr.KindLet:
		return ev.evalLet(e)
	case expr.KindAirRef:
		return ev.evalAirRef(e)
	case expr.KindPredicate:
		return ev.evalPredicate(e)

	case expr.KindLambda:
		return ev.evalLambda(e)
	case expr.KindCallExpr:
		return ev.evalCallExpr(e)
	case expr.KindFix:
		return ev.evalFix(e)

	case expr.KindSeq:
		return ev.evalSeq(e)
	case expr.KindAssign:
		return ev.evalAssign(e)
	case expr.KindWhile:
		return ev.evalWhile(e)
	case expr.KindFor:
		return ev.evalFor(e)
	case expr.KindIter:
		return ev.evalIter(e)
	case expr.KindEffect:
		return ev.evalEffect(e)
	case expr.KindRefCell:
		return ev.evalRefCell(e)
	case expr.KindDeref:
		return ev.evalDeref(e)
	case expr.KindTry:
		return ev.evalTry(e)

	default:
		if ev.Extra != nil {
			if v, ok := ev.Extra(ev, e); ok {
				return v
			}
		}
		return value.Error("InvalidExprFormat", fmt.Sprintf("unsupported expression kind %q", e.Kind), nil)
	}
}

func (ev *Evaluator) evalArgs(ids []string) ([]value.Value, *value.Value) {
	out := make([]value.Value, len(ids))
	for i, id := range ids {
		v := ev.evalNodeID(id)
		if v.IsError() {
			return nil, &v
		}
		out[i] = v
	}
	return out, nil
}

func (ev *Evaluator) evalCall(e *expr.Expr) value.Value {
	args, errv := ev.evalArgs(e.Args)
	if errv != nil {
		return *errv
	}
	return ev.Ops.Call(e.NS, e.Name, args)
}

func (ev *Evaluator) evalIf(e *expr.Expr) value.Value {
	cond := ev.evalNodeID(e.Cond)
	if cond.IsError() {
		return cond
	}
	if cond.Kind != value.KBool {
		return value.Error("TypeError", "if condition must be bool", nil)
	}
	if cond.B {
		return ev.evalNodeID(e.Then)
	}
	return ev.evalNodeID(e.Else)
}

func (ev *Evaluator) evalLet(e *expr.Expr) value.Value {
	valueID, err := e.ValueRef()
	if err != nil {
		return value.Error("InvalidExprFormat", "let.value must be a node id", nil)
	}
	v := ev.evalNodeID(valueID)
	if v.IsError() {
		return v
	}
	saved := ev.State.Env
	ev.State.Env = ev.State.Env.WithBinding(e.Name, v)
	result := ev.evalNodeID(e.Body)
	ev.State.Env = saved
	return result
}

func (ev *Evaluator) evalAirRef(e *expr.Expr) value.Value {
	def, ok := ev.Defs.Lookup(e.NS, e.Name)
	if !ok {
		return value.Error("UnknownDefinition", fmt.Sprintf("unknown definition %s:%s", e.NS, e.Name), nil)
	}
	args, errv := ev.evalArgs(e.Args)
	if errv != nil {
		return *errv
	}
	if len(args) != len(def.Params) {
		return value.Error("ArityError", fmt.Sprintf("%s:%s expects %d args, got %d", e.NS, e.Name, len(def.Params), len(args)), nil)
	}
	saved := ev.State.Env
	var callEnv value.Environment = env.EmptyValueEnv()
	for i, p := range def.Params {
		callEnv = callEnv.WithBinding(p, args[i])
	}
	ev.State.Env = callEnv
	result := ev.evalNodeID(def.Body)
	ev.State.Env = saved
	return result
}

func (ev *Evaluator) evalPredicate(e *expr.Expr) value.Value {
	valueID, err := e.ValueRef()
	if err != nil {
		return value.Error("InvalidExprFormat", "predicate.value must be a node id", nil)
	}
	v := ev.evalNodeID(valueID)
	if v.IsError() {
		return v
	}
	if v.Kind != value.KBool {
		return value.Error("TypeError", "predicate must evaluate to bool", nil)
	}
	return v
}
