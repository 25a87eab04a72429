package asyncevaluator

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smilemakc/cairs/internal/effect"
	"github.com/smilemakc/cairs/internal/env"
	"github.com/smilemakc/cairs/internal/expr"
	"github.com/smilemakc/cairs/internal/operator"
	"github.com/smilemakc/cairs/internal/scheduler"
	"github.com/smilemakc/cairs/internal/value"
)

func litInt(id string, i int64) expr.Node {
	raw, _ := json.Marshal(i)
	return expr.Node{ID: id, Expr: &expr.Expr{Kind: expr.KindLit, Type: value.TypeInt(), ValueField: raw}}
}

func idRef(id string) json.RawMessage {
	raw, _ := json.Marshal(id)
	return raw
}

func newAsyncEvaluator(doc *expr.Document, sched scheduler.Scheduler) *Evaluator {
	return New(doc, operator.Standard(), effect.Standard(), env.EmptyDefs(), nil, DefaultOptions(), sched)
}

// TestSpawnAwaitWithinTimeoutReturnsTaskResult builds spawn(42); await(
// future, timeout=50, fallback=-1) and expects 42 (spec.md §8 scenario 5,
// first case).
func TestSpawnAwaitWithinTimeoutReturnsTaskResult(t *testing.T) {
	doc := &expr.Document{
		Version: "1.0.0",
		Nodes: []expr.Node{
			litInt("taskLit", 42),
			{ID: "spawnNode", Expr: &expr.Expr{Kind: expr.KindSpawn, Task: "taskLit"}},
			litInt("timeoutLit", 50),
			litInt("fallbackLit", -1),
			{ID: "futureVar", Expr: &expr.Expr{Kind: expr.KindVar, Name: "future"}},
			{ID: "awaitNode", Expr: &expr.Expr{Kind: expr.KindAwait, Future: "futureVar", Timeout: "timeoutLit", Fallback: "fallbackLit"}},
			{ID: "letNode", Expr: &expr.Expr{Kind: expr.KindLet, Name: "future", ValueField: idRef("spawnNode"), Body: "awaitNode"}},
		},
		Result: "letNode",
	}
	a := newAsyncEvaluator(doc, scheduler.NewDefault(0, 0))
	got := a.Evaluate()
	require.False(t, got.IsError(), "%v", got.Err)
	assert.Equal(t, value.Int(42), got)
}

// TestAwaitTimeoutReturnsFallback spawns a task that blocks forever on an
// empty channel recv (standing in for a task that never completes within
// the window) and awaits it with timeout=0, expecting the fallback value
// (spec.md §8 scenario 5, second case).
func TestAwaitTimeoutReturnsFallback(t *testing.T) {
	doc := &expr.Document{
		Version: "1.0.0",
		Nodes: []expr.Node{
			{ID: "chanCreate", Expr: &expr.Expr{Kind: expr.KindChannel, ChannelType: "spsc"}},
			{ID: "chVar", Expr: &expr.Expr{Kind: expr.KindVar, Name: "ch"}},
			{ID: "recvNode", Expr: &expr.Expr{Kind: expr.KindRecv, Channel: "chVar"}},
			{ID: "spawnNode", Expr: &expr.Expr{Kind: expr.KindSpawn, Task: "recvNode"}},
			{ID: "futureVar", Expr: &expr.Expr{Kind: expr.KindVar, Name: "future"}},
			litInt("zeroLit", 0),
			litInt("negOneLit", -1),
			{ID: "awaitNode", Expr: &expr.Expr{Kind: expr.KindAwait, Future: "futureVar", Timeout: "zeroLit", Fallback: "negOneLit"}},
			{ID: "letFuture", Expr: &expr.Expr{Kind: expr.KindLet, Name: "future", ValueField: idRef("spawnNode"), Body: "awaitNode"}},
			{ID: "letCh", Expr: &expr.Expr{Kind: expr.KindLet, Name: "ch", ValueField: idRef("chanCreate"), Body: "letFuture"}},
		},
		Result: "letCh",
	}
	a := newAsyncEvaluator(doc, scheduler.NewDefault(0, 0))
	got := a.Evaluate()
	require.False(t, got.IsError(), "%v", got.Err)
	assert.Equal(t, value.Int(-1), got)
}

// TestChannelProducerConsumerScenario creates an SPSC capacity-1 channel,
// sends 42, then receives it back (spec.md §8 scenario 6, driven through
// the PIR channel/send/recv expression forms rather than the raw
// async.AsyncChannel API).
func TestChannelProducerConsumerScenario(t *testing.T) {
	doc := &expr.Document{
		Version: "1.0.0",
		Nodes: []expr.Node{
			{ID: "chanCreate", Expr: &expr.Expr{Kind: expr.KindChannel, ChannelType: "spsc", BufferSize: "oneLit"}},
			litInt("oneLit", 1),
			{ID: "chVar", Expr: &expr.Expr{Kind: expr.KindVar, Name: "ch"}},
			litInt("fortyTwo", 42),
			{ID: "sendNode", Expr: &expr.Expr{Kind: expr.KindSend, Channel: "chVar", ValueField: idRef("fortyTwo")}},
			{ID: "recvNode", Expr: &expr.Expr{Kind: expr.KindRecv, Channel: "chVar"}},
			{ID: "seqNode", Expr: &expr.Expr{Kind: expr.KindSeq, First: "sendNode", Then: "recvNode"}},
			{ID: "letCh", Expr: &expr.Expr{Kind: expr.KindLet, Name: "ch", ValueField: idRef("chanCreate"), Body: "seqNode"}},
		},
		Result: "letCh",
	}
	a := newAsyncEvaluator(doc, scheduler.NewDefault(0, 0))
	got := a.Evaluate()
	require.False(t, got.IsError(), "%v", got.Err)
	assert.Equal(t, value.Int(42), got)
}

// TestRaceReturnsResultsInOriginalOrder spawns two literal-producing tasks
// directly via race{tasks} and checks the result list preserves the order
// tasks were listed in, not completion order.
func TestRaceReturnsResultsInOriginalOrder(t *testing.T) {
	doc := &expr.Document{
		Version: "1.0.0",
		Nodes: []expr.Node{
			litInt("one", 1),
			litInt("two", 2),
			{ID: "raceNode", Expr: &expr.Expr{Kind: expr.KindRace, Tasks: []string{"one", "two"}}},
		},
		Result: "raceNode",
	}
	a := newAsyncEvaluator(doc, scheduler.NewDefault(0, 0))
	got := a.Evaluate()
	require.False(t, got.IsError(), "%v", got.Err)
	require.Equal(t, value.KList, got.Kind)
	require.Len(t, got.List, 2)
	assert.Equal(t, value.Int(1), got.List[0])
	assert.Equal(t, value.Int(2), got.List[1])
}

// TestParDegeneratesToSequentialInSequentialMode checks that par{branches}
// under Options.Concurrency=Sequential evaluates branches in order without
// spawning goroutines.
func TestParDegeneratesToSequentialInSequentialMode(t *testing.T) {
	doc := &expr.Document{
		Version: "1.0.0",
		Nodes: []expr.Node{
			litInt("a", 10),
			litInt("b", 20),
			{ID: "parNode", Expr: &expr.Expr{Kind: expr.KindPar, Branches: []string{"a", "b"}}},
		},
		Result: "parNode",
	}
	a := New(doc, operator.Standard(), effect.Standard(), env.EmptyDefs(), nil, Options{Concurrency: Sequential, MaxSteps: 10000}, scheduler.NewDefault(0, 0))
	got := a.Evaluate()
	require.False(t, got.IsError(), "%v", got.Err)
	require.Len(t, got.List, 2)
	assert.Equal(t, value.Int(10), got.List[0])
	assert.Equal(t, value.Int(20), got.List[1])
}

// TestSpawnedTaskEffectsAreMerged checks that an effect performed inside a
// spawned task's body ends up in the shared concurrent effect log once the
// task completes.
func TestSpawnedTaskEffectsAreMerged(t *testing.T) {
	doc := &expr.Document{
		Version: "1.0.0",
		Nodes: []expr.Node{
			{ID: "msg", Expr: &expr.Expr{Kind: expr.KindLit, Type: value.TypeString(), ValueField: []byte(`"hi"`)}},
			{ID: "effectNode", Expr: &expr.Expr{Kind: expr.KindEffect, Op: "print", Args: []string{"msg"}}},
			{ID: "spawnNode", Expr: &expr.Expr{Kind: expr.KindSpawn, Task: "effectNode"}},
			{ID: "futureVar", Expr: &expr.Expr{Kind: expr.KindVar, Name: "future"}},
			{ID: "awaitNode", Expr: &expr.Expr{Kind: expr.KindAwait, Future: "futureVar"}},
			{ID: "letNode", Expr: &expr.Expr{Kind: expr.KindLet, Name: "future", ValueField: idRef("spawnNode"), Body: "awaitNode"}},
		},
		Result: "letNode",
	}
	a := newAsyncEvaluator(doc, scheduler.NewDefault(0, 0))
	got := a.Evaluate()
	require.False(t, got.IsError(), "%v", got.Err)
	assert.Equal(t, value.Void(), got)

	entries := a.EffectLog.GetOrdered()
	require.Len(t, entries, 1)
	assert.Equal(t, "print", entries[0].Op)
}
