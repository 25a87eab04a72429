// Package lir implements C8: the LIR control-flow-graph interpreter.
// Grounded in internal/engine/graph.go + internal/application/executor's
// topological/wave traversal over a workflow DAG, repurposed from
// business-node execution to basic-block instruction/terminator dispatch.
package lir

import (
	"fmt"

	"github.com/smilemakc/cairs/internal/effect"
	"github.com/smilemakc/cairs/internal/env"
	"github.com/smilemakc/cairs/internal/evaluator"
	"github.com/smilemakc/cairs/internal/expr"
	"github.com/smilemakc/cairs/internal/operator"
	"github.com/smilemakc/cairs/internal/value"
)

// Options configures a CFG interpretation run.
type Options struct {
	MaxSteps int
}

func DefaultOptions() Options { return Options{MaxSteps: 10000} }

// State is {result, state} from spec.md §4.7's evaluateLIR signature:
// locals (instruction targets), the shared EvalState (steps, effect log,
// ref cells, env), and a predecessor slot for phi resolution.
type State struct {
	Locals      map[string]value.Value
	Eval        *evaluator.EvalState
	Predecessor string
}

// Interpreter runs one block-form node's CFG.
type Interpreter struct {
	Doc     *expr.Document
	Index   map[string]*expr.Node
	Ops     *operator.Registry
	Effects *effect.Registry
	Defs    *env.Defs
	Options Options

	// Extra handles PIR-LIR-only terminators (fork/suspend), mirroring
	// evaluator.Evaluator.Extra's extension point (C11 over C7).
	Extra func(in *Interpreter, st *State, t expr.Terminator) (value.Value, bool)
}

func New(doc *expr.Document, ops *operator.Registry, effects *effect.Registry, defs *env.Defs, opts Options) *Interpreter {
	return &Interpreter{Doc: doc, Index: doc.ByID(), Ops: ops, Effects: effects, Defs: defs, Options: opts}
}

// Run executes the block-form node identified by nodeID, starting at its
// entry block, per spec.md §4.7.
func (in *Interpreter) Run(nodeID string, inputEnv value.Environment) (value.Value, *State) {
	n, ok := in.Index[nodeID]
	if !ok || !n.IsBlockForm() {
		return value.Error("InvalidResultReference", fmt.Sprintf("node %q is not a block-form node", nodeID), nil), nil
	}
	blocks := make(map[string]*expr.Block, len(n.Blocks))
	for i := range n.Blocks {
		blocks[n.Blocks[i].ID] = &n.Blocks[i]
	}
	st := &State{
		Locals: make(map[string]value.Value),
		Eval:   evaluator.NewEvalState(inputEnv),
	}

	current := n.Entry
	for {
		block, ok := blocks[current]
		if !ok {
			return value.Error("InvalidResultReference", fmt.Sprintf("block %q does not exist", current), nil), st
		}
		if v, done := in.runBlock(block, st); done {
			return v, st
		}
		next, v, done := in.dispatchTerminator(st, block.Terminator)
		if done {
			return v, st
		}
		st.Predecessor = current
		current = next
	}
}

func (in *Interpreter) runBlock(block *expr.Block, st *State) (value.Value, bool) {
	for _, instr := range block.Instructions {
		st.Eval.Steps++
		if st.Eval.Steps > in.Options.MaxSteps {
			return value.Error("NonTermination", "maxSteps exceeded", nil), true
		}
		if v, done := in.runInstruction(instr, st); done {
			return v, true
		}
	}
	return value.Value{}, false
}

// localsEnv layers st.Locals over the persistent env so a CIR sub-
// expression embedded in an assign instruction can see both instruction
// targets and lexical bindings (spec.md §4.7: "locals ∪ env").
type localsEnv struct {
	locals map[string]value.Value
	base   value.Environment
}

func (l localsEnv) Lookup(name string) (value.Value, bool) {
	if v, ok := l.locals[name]; ok {
		return v, true
	}
	return l.base.Lookup(name)
}

func (l localsEnv) WithBinding(name string, v value.Value) value.Environment {
	return l.base.WithBinding(name, v)
}

func (in *Interpreter) runInstruction(instr expr.Instruction, st *State) (value.Value, bool) {
	switch instr.Kind {
	case expr.InstrAssign:
		v := in.evalEmbedded(instr.Value, st)
		if v.IsError() {
			return v, true
		}
		st.Locals[instr.Target] = v
		return value.Value{}, false

	case expr.InstrOp:
		args := make([]value.Value, len(instr.Args))
		for i, name := range instr.Args {
			v, ok := st.Locals[name]
			if !ok {
				v, ok = st.Eval.Env.Lookup(name)
			}
			if !ok {
				return value.Error("UnboundIdentifier", "unbound identifier "+name, nil), true
			}
			args[i] = v
		}
		result := in.Ops.Call(instr.NS, instr.Name, args)
		if result.IsError() {
			return result, true
		}
		st.Locals[instr.Target] = result
		return value.Value{}, false

	case expr.InstrPhi:
		for _, src := range instr.Sources {
			if src.Block == st.Predecessor {
				v, ok := st.Locals[src.ID]
				if !ok {
					v, ok = st.Eval.Env.Lookup(src.ID)
				}
				if !ok {
					return value.Error("UnboundIdentifier", "phi source "+src.ID+" is unbound", nil), true
				}
				st.Locals[instr.Target] = v
				return value.Value{}, false
			}
		}
		return value.Error("InvalidResultReference", "phi has no source for predecessor "+st.Predecessor, nil), true

	case expr.InstrEffect:
		eff, ok := in.Effects.Lookup(instr.Op)
		if !ok {
			return value.Error("UnknownOperator", "unknown effect "+instr.Op, nil), true
		}
		args := make([]value.Value, len(instr.Args))
		for i, name := range instr.Args {
			v, ok := st.Locals[name]
			if !ok {
				v, ok = st.Eval.Env.Lookup(name)
			}
			if !ok {
				return value.Error("UnboundIdentifier", "unbound identifier "+name, nil), true
			}
			args[i] = v
		}
		result := eff.Impl(args)
		st.Eval.EffectLog = append(st.Eval.EffectLog, evaluator.EffectRecord{Seq: len(st.Eval.EffectLog), Op: instr.Op, Args: args, Result: result})
		return value.Value{}, false

	case expr.InstrAssignRef:
		v, ok := st.Locals[instr.Target]
		if !ok {
			v = in.evalEmbedded(instr.Value, st)
			if v.IsError() {
				return v, true
			}
		}
		cell, ok := st.Eval.RefCells[instr.Target]
		if !ok {
			cell = value.NewRefCell(v)
			st.Eval.RefCells[instr.Target] = cell
		} else {
			cell.Value = v
		}
		return value.Value{}, false

	case expr.InstrCall:
		def, ok := in.Defs.Lookup("", instr.Callee)
		if !ok {
			return value.Error("UnknownDefinition", "unknown definition "+instr.Callee, nil), true
		}
		args := make([]value.Value, len(instr.Args))
		for i, name := range instr.Args {
			v, ok := st.Locals[name]
			if !ok {
				v, ok = st.Eval.Env.Lookup(name)
			}
			if !ok {
				return value.Error("UnboundIdentifier", "unbound identifier "+name, nil), true
			}
			args[i] = v
		}
		callEnv := env.EmptyValueEnv()
		var base value.Environment = callEnv
		for i, p := range def.Params {
			base = base.WithBinding(p, args[i])
		}
		sub := evaluator.New(in.Doc, in.Ops, in.Effects, in.Defs, base, evaluator.Options{MaxSteps: in.Options.MaxSteps})
		v := sub.Evaluate()
		st.Eval.EffectLog = append(st.Eval.EffectLog, sub.State.EffectLog...)
		if v.IsError() {
			return v, true
		}
		st.Locals[instr.Target] = v
		return value.Value{}, false

	default:
		return value.Error("InvalidExprFormat", fmt.Sprintf("unsupported instruction kind %q", instr.Kind), nil), true
	}
}

func (in *Interpreter) evalEmbedded(e *expr.Expr, st *State) value.Value {
	nodes := append(append([]expr.Node(nil), in.Doc.Nodes...), expr.Node{ID: "__lir_embedded", Expr: e})
	sub := evaluator.New(&expr.Document{Nodes: nodes, Result: "__lir_embedded"}, in.Ops, in.Effects, in.Defs, localsEnv{locals: st.Locals, base: st.Eval.Env}, evaluator.Options{MaxSteps: in.Options.MaxSteps})
	return sub.Evaluate()
}

// dispatchTerminator returns (nextBlock, result, done).
func (in *Interpreter) dispatchTerminator(st *State, t expr.Terminator) (string, value.Value, bool) {
	switch t.Kind {
	case expr.TermJump:
		return t.To, value.Value{}, false
	case expr.TermBranch:
		cond, ok := st.Locals[t.Cond]
		if !ok {
			cond, ok = st.Eval.Env.Lookup(t.Cond)
		}
		if !ok || cond.Kind != value.KBool {
			return "", value.Error("TypeError", "branch condition must resolve to a bool local", nil), true
		}
		if cond.B {
			return t.Then, value.Value{}, false
		}
		return t.Else, value.Value{}, false
	case expr.TermReturn:
		if t.Value == "" {
			return "", value.Void(), true
		}
		if v, ok := st.Locals[t.Value]; ok {
			return "", v, true
		}
		if v, ok := st.Eval.Env.Lookup(t.Value); ok {
			return "", v, true
		}
		return "", value.Error("UnboundIdentifier", "return value "+t.Value+" is unbound", nil), true
	case expr.TermExit:
		return "", value.Void(), true
	default:
		if in.Extra != nil {
			if v, ok := in.Extra(in, st, t); ok {
				return "", v, true
			}
		}
		return "", value.Error("InvalidExprFormat", fmt.Sprintf("unsupported terminator kind %q", t.Kind), nil), true
	}
}
