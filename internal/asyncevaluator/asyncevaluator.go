// Package asyncevaluator implements C11: the PIR evaluator. It extends
// package evaluator's synchronous AIR/CIR/EIR reducer (C7) with the async
// expression kinds — spawn/await/channel/send/recv/select/race/par — via
// evaluator.Evaluator's Extra hook, rather than re-implementing node
// dispatch. Grounded in mbflow's WorkflowEngine, which similarly
// layers a higher-level orchestration pass (retries, circuit breaking) on
// top of a lower-level single-node executor without forking its code.
package asyncevaluator

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/smilemakc/cairs/internal/async"
	"github.com/smilemakc/cairs/internal/effect"
	"github.com/smilemakc/cairs/internal/env"
	"github.com/smilemakc/cairs/internal/evaluator"
	"github.com/smilemakc/cairs/internal/expr"
	"github.com/smilemakc/cairs/internal/operator"
	"github.com/smilemakc/cairs/internal/scheduler"
	"github.com/smilemakc/cairs/internal/value"
)

// Concurrency selects how race/par/spawn schedule their work (spec.md
// §4.10).
type Concurrency string

const (
	Sequential  Concurrency = "sequential"
	Parallel    Concurrency = "parallel"
	Speculative Concurrency = "speculative"
)

// Options configures a PIR evaluation run.
type Options struct {
	Concurrency Concurrency
	MaxSteps    int
	Trace       bool
}

// DefaultOptions returns the async evaluator's defaults (spec.md §4.6:
// "default... 1 000 000 for the async evaluator").
func DefaultOptions() Options {
	return Options{Concurrency: Parallel, MaxSteps: 1000000}
}

// Evaluator reduces a PIR document's result, dispatching the async
// expression kinds itself and everything else to an embedded
// evaluator.Evaluator per node.
type Evaluator struct {
	Doc     *expr.Document
	Ops     *operator.Registry
	Effects *effect.Registry
	Defs    *env.Defs
	Options Options

	Scheduler scheduler.Scheduler
	Channels  *async.ChannelStore
	RefCells  *async.RefCellStore
	EffectLog *async.ConcurrentEffectLog

	root    *evaluator.Evaluator
	taskSeq uint64
}

// New builds a PIR evaluator. sched is caller-supplied so tests can plug in
// a deterministic scheduler in place of the real concurrent default one.
func New(doc *expr.Document, ops *operator.Registry, effects *effect.Registry, defs *env.Defs, inputEnv value.Environment, opts Options, sched scheduler.Scheduler) *Evaluator {
	a := &Evaluator{
		Doc:       doc,
		Ops:       ops,
		Effects:   effects,
		Defs:      defs,
		Options:   opts,
		Scheduler: sched,
		Channels:  async.NewChannelStore(),
		RefCells:  async.NewRefCellStore(),
		EffectLog: async.NewConcurrentEffectLog(),
	}
	a.root = a.newChildEvaluator(inputEnv)
	return a
}

func (a *Evaluator) newChildEvaluator(inputEnv value.Environment) *evaluator.Evaluator {
	ev := evaluator.New(a.Doc, a.Ops, a.Effects, a.Defs, inputEnv, evaluator.Options{MaxSteps: a.Options.MaxSteps})
	ev.Extra = a.extra
	return ev
}

// Evaluate reduces doc.Result under PIR semantics. Effects recorded by the
// main thread of execution are merged into EffectLog once evaluation
// completes; each spawned task's effects are merged as soon as that task
// finishes (see evalSpawn/evalConcurrentList).
func (a *Evaluator) Evaluate() value.Value {
	result := a.root.Evaluate()
	a.drainEffects("main", a.root)
	return result
}

// drainEffects copies a completed child evaluator's local effect log into
// the shared concurrent log, tagged with the task that produced it. Each
// child evaluator's own entries stay in its program order even though the
// merge point (task completion) only approximates true wall-clock
// interleaving across tasks.
func (a *Evaluator) drainEffects(taskID string, child *evaluator.Evaluator) {
	for _, rec := range child.State.EffectLog {
		a.EffectLog.Append(taskID, rec.Op, rec.Args, rec.Result)
	}
}

func (a *Evaluator) nextTaskID() uuid.UUID {
	atomic.AddUint64(&a.taskSeq, 1)
	return uuid.New()
}

// extra is the evaluator.Evaluator.Extra hook: it handles every PIR-only
// expression kind and delegates everything else back to the base
// dispatch (by returning ok=false, which the base reports as unsupported —
// this never happens in practice since the base already dispatches every
// AIR/CIR/EIR kind itself and only calls Extra for kinds it doesn't know).
func (a *Evaluator) extra(ev *evaluator.Evaluator, e *expr.Expr) (value.Value, bool) {
	switch e.Kind {
	case expr.KindSpawn:
		return a.evalSpawn(ev, e), true
	case expr.KindAwait:
		return a.evalAwait(ev, e), true
	case expr.KindChannel:
		return a.evalChannel(ev, e), true
	case expr.KindSend:
		return a.evalSend(ev, e), true
	case expr.KindRecv:
		return a.evalRecv(ev, e), true
	case expr.KindSelect:
		return a.evalSelect(ev, e), true
	case expr.KindRace:
		return a.evalRace(ev, e), true
	case expr.KindPar:
		return a.evalPar(ev, e), true
	default:
		return value.Value{}, false
	}
}

// evalSpawn allocates a taskId, starts the task body running under the
// scheduler, and returns a pending future handle immediately (spec.md
// §4.10).
func (a *Evaluator) evalSpawn(ev *evaluator.Evaluator, e *expr.Expr) value.Value {
	id := a.nextTaskID()
	childEnv := ev.State.Env
	child := a.newChildEvaluator(childEnv)
	a.Scheduler.Spawn(id.String(), func() value.Value {
		v := child.EvalNode(e.Task)
		a.drainEffects(id.String(), child)
		return v
	})
	return value.NewFutureValue(&value.FutureHandle{ID: id, Status: "pending"})
}

func (a *Evaluator) wrapIndexed(e *expr.Expr, idx int, v value.Value) value.Value {
	if e.ReturnIndex != nil && *e.ReturnIndex {
		return value.NewMap([]value.MapEntry{
			{Key: value.String("index"), Val: value.Int(int64(idx))},
			{Key: value.String("value"), Val: v},
		})
	}
	return v
}

// evalAwait races the named task's completion against an optional
// timeout. A timed-out await never cancels the task — it stays
// retrievable via re-await, per scheduler.Scheduler's cached-result
// contract (spec.md §4.10, §5).
func (a *Evaluator) evalAwait(ev *evaluator.Evaluator, e *expr.Expr) value.Value {
	fv := ev.EvalNode(e.Future)
	if fv.IsError() {
		return fv
	}
	if fv.Kind != value.KFuture {
		return value.Error("TypeError", "await.future must evaluate to a future", nil)
	}
	taskID := fv.Future.ID.String()

	resultCh := make(chan value.Value, 1)
	go func() { resultCh <- a.Scheduler.Await(taskID) }()

	if e.Timeout == "" {
		return a.wrapIndexed(e, 0, <-resultCh)
	}
	tv := ev.EvalNode(e.Timeout)
	if tv.IsError() {
		return tv
	}
	if tv.Kind != value.KInt {
		return value.Error("TypeError", "await.timeout must be int", nil)
	}
	select {
	case v := <-resultCh:
		return a.wrapIndexed(e, 0, v)
	case <-time.After(time.Duration(tv.I) * time.Millisecond):
		fallback := value.Error("TimeoutError", "await: timeout elapsed before task completion", nil)
		if e.Fallback != "" {
			fallback = ev.EvalNode(e.Fallback)
		}
		return a.wrapIndexed(e, 1, fallback)
	}
}

func (a *Evaluator) evalChannel(ev *evaluator.Evaluator, e *expr.Expr) value.Value {
	capacity := 0
	if e.BufferSize != "" {
		bv := ev.EvalNode(e.BufferSize)
		if bv.IsError() {
			return bv
		}
		if bv.Kind != value.KInt {
			return value.Error("TypeError", "channel.bufferSize must be int", nil)
		}
		capacity = int(bv.I)
	}
	id := uuid.New()
	_, err := a.Channels.GetOrCreate(id.String(), async.ChannelType(e.ChannelType), capacity)
	if err != nil {
		return value.Error("DomainError", err.Error(), nil)
	}
	return value.NewChannelValue(&value.ChannelHandle{ID: id})
}

func (a *Evaluator) channelFor(v value.Value) (*async.AsyncChannel, value.Value) {
	if v.Kind != value.KChannel {
		return nil, value.Error("TypeError", "expected a channel handle", nil)
	}
	ch, ok := a.Channels.Get(v.Channel.ID.String())
	if !ok {
		return nil, value.Error("DomainError", "send/recv on an unknown channel", nil)
	}
	return ch, value.Value{}
}

func (a *Evaluator) evalSend(ev *evaluator.Evaluator, e *expr.Expr) value.Value {
	chv := ev.EvalNode(e.Channel)
	if chv.IsError() {
		return chv
	}
	ch, errv := a.channelFor(chv)
	if ch == nil {
		return errv
	}
	valID, err := e.ValueRef()
	if err != nil {
		return value.Error("InvalidExprFormat", "send.value must be a node id", nil)
	}
	v := ev.EvalNode(valID)
	if v.IsError() {
		return v
	}
	if err := ch.Send(v); err != nil {
		return value.Error("DomainError", err.Error(), nil)
	}
	return value.Void()
}

func (a *Evaluator) evalRecv(ev *evaluator.Evaluator, e *expr.Expr) value.Value {
	chv := ev.EvalNode(e.Channel)
	if chv.IsError() {
		return chv
	}
	ch, errv := a.channelFor(chv)
	if ch == nil {
		return errv
	}
	v, err := ch.Recv()
	if err != nil {
		return value.Error("DomainError", err.Error(), nil)
	}
	return v
}

// evalSelect races a set of futures (and an optional timeout), returning
// the first to settle. The futures themselves are resolved one at a time
// on the calling goroutine — ev.EvalNode mutates shared evaluator state
// (ev.State.Steps/Env/RefCells) and is not safe to call concurrently, the
// way evalConcurrentList's per-goroutine child evaluators are. Only the
// scheduler.Await calls, which the scheduler itself serializes, actually
// run concurrently.
func (a *Evaluator) evalSelect(ev *evaluator.Evaluator, e *expr.Expr) value.Value {
	type outcome struct {
		idx int
		v   value.Value
	}
	taskIDs := make([]string, len(e.Futures))
	for i, fid := range e.Futures {
		fv := ev.EvalNode(fid)
		if fv.IsError() {
			return a.wrapIndexed(e, i, fv)
		}
		if fv.Kind != value.KFuture {
			return a.wrapIndexed(e, i, value.Error("TypeError", "select.futures elements must be futures", nil))
		}
		taskIDs[i] = fv.Future.ID.String()
	}

	resultCh := make(chan outcome, len(taskIDs))
	for i, taskID := range taskIDs {
		i, taskID := i, taskID
		go func() {
			resultCh <- outcome{i, a.Scheduler.Await(taskID)}
		}()
	}

	var timeoutCh <-chan time.Time
	if e.Timeout != "" {
		tv := ev.EvalNode(e.Timeout)
		if tv.IsError() {
			return tv
		}
		timeoutCh = time.After(time.Duration(tv.I) * time.Millisecond)
	}

	select {
	case r := <-resultCh:
		return a.wrapIndexed(e, r.idx, r.v)
	case <-timeoutCh:
		fallback := value.Error("SelectTimeout", "select: timeout elapsed before any future settled", nil)
		if e.Fallback != "" {
			fallback = ev.EvalNode(e.Fallback)
		}
		return a.wrapIndexed(e, -1, fallback)
	}
}

// evalConcurrentList evaluates every id concurrently and returns a list of
// results in the original order (race/par, spec.md §4.10). A failing
// branch surfaces as an error value at its own index; it does not abort
// the others.
func (a *Evaluator) evalConcurrentList(ev *evaluator.Evaluator, ids []string) value.Value {
	out := make([]value.Value, len(ids))
	childEnv := ev.State.Env
	var wg sync.WaitGroup
	for i, id := range ids {
		i, id := i, id
		wg.Add(1)
		go func() {
			defer wg.Done()
			child := a.newChildEvaluator(childEnv)
			out[i] = child.EvalNode(id)
			a.drainEffects(id, child)
		}()
	}
	wg.Wait()
	return value.List(out)
}

func (a *Evaluator) evalRace(ev *evaluator.Evaluator, e *expr.Expr) value.Value {
	return a.evalConcurrentList(ev, e.Tasks)
}

// evalPar is race's shape, typed as parallel branch evaluation; it
// degenerates to sequential in-order evaluation under sequential
// concurrency (spec.md §4.10).
func (a *Evaluator) evalPar(ev *evaluator.Evaluator, e *expr.Expr) value.Value {
	if a.Options.Concurrency == Sequential {
		out := make([]value.Value, len(e.Branches))
		for i, id := range e.Branches {
			v := ev.EvalNode(id)
			if v.IsError() {
				return v
			}
			out[i] = v
		}
		return value.List(out)
	}
	return a.evalConcurrentList(ev, e.Branches)
}
