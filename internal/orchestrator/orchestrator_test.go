package orchestrator

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smilemakc/cairs/internal/expr"
	"github.com/smilemakc/cairs/internal/value"
)

func litInt(id string, i int64) expr.Node {
	raw, _ := json.Marshal(i)
	return expr.Node{ID: id, Expr: &expr.Expr{Kind: expr.KindLit, Type: value.TypeInt(), ValueField: raw}}
}

func TestRunAIRDocumentReducesResult(t *testing.T) {
	doc := &expr.Document{
		Version: "1.0.0",
		Layer:   value.LayerAIR,
		Nodes: []expr.Node{
			litInt("a", 2),
			litInt("b", 3),
			{ID: "r", Expr: &expr.Expr{Kind: expr.KindCall, NS: "core", Name: "add", Args: []string{"a", "b"}}},
		},
		Result: "r",
	}
	res := Run(doc, DefaultOptions())
	require.False(t, res.Value.IsError(), "%v", res.Value.Err)
	assert.Equal(t, value.Int(5), res.Value)
	require.NotNil(t, res.SyncState)
}

func TestRunRejectsInvalidDocument(t *testing.T) {
	doc := &expr.Document{
		Version: "1.0.0",
		Layer:   value.LayerAIR,
		Nodes: []expr.Node{
			{ID: "r", Expr: &expr.Expr{Kind: expr.KindRef, ID: "missing"}},
		},
		Result: "r",
	}
	res := Run(doc, DefaultOptions())
	assert.True(t, res.Value.IsError())
	assert.NotEmpty(t, res.ValidateErrs)
}

func TestRunSkipValidationBypassesChecks(t *testing.T) {
	doc := &expr.Document{
		Version: "bogus", // fails the semver check
		Layer:   value.LayerAIR,
		Nodes:   []expr.Node{litInt("a", 7)},
		Result:  "a",
	}
	opts := DefaultOptions()
	opts.SkipValidation = true
	res := Run(doc, opts)
	require.False(t, res.Value.IsError(), "%v", res.Value.Err)
	assert.Equal(t, value.Int(7), res.Value)
}

func TestRunUsesAirDefsForAirRef(t *testing.T) {
	doc := &expr.Document{
		Version: "1.0.0",
		Layer:   value.LayerAIR,
		AirDefs: []expr.Def{
			{NS: "math", Name: "double", Params: []string{"x"}, Body: "doubleBody"},
		},
		Nodes: []expr.Node{
			{ID: "varX", Expr: &expr.Expr{Kind: expr.KindVar, Name: "x"}},
			{ID: "doubleBody", Expr: &expr.Expr{Kind: expr.KindCall, NS: "core", Name: "mul", Args: []string{"varX", "two"}}},
			litInt("two", 2),
			litInt("five", 5),
			{ID: "r", Expr: &expr.Expr{Kind: expr.KindAirRef, NS: "math", Name: "double", Args: []string{"five"}}},
		},
		Result: "r",
	}
	res := Run(doc, DefaultOptions())
	require.False(t, res.Value.IsError(), "%v", res.Value.Err)
	assert.Equal(t, value.Int(10), res.Value)
}

func TestRunLIRDocumentUsesBlockInterpreter(t *testing.T) {
	doc := &expr.Document{
		Version: "1.0.0",
		Layer:   value.LayerLIR,
		Nodes: []expr.Node{
			litInt("fortyTwo", 42),
			{
				ID:    "entryNode",
				Entry: "b0",
				Blocks: []expr.Block{
					{
						ID: "b0",
						Instructions: []expr.Instruction{
							{Kind: expr.InstrAssign, Target: "x", Value: &expr.Expr{Kind: expr.KindRef, ID: "fortyTwo"}},
						},
						Terminator: expr.Terminator{Kind: expr.TermReturn, Value: "x"},
					},
				},
			},
		},
		Result: "entryNode",
	}
	res := Run(doc, DefaultOptions())
	require.False(t, res.Value.IsError(), "%v", res.Value.Err)
	assert.Equal(t, value.Int(42), res.Value)
	require.NotNil(t, res.LIRState)
}

func TestRunPIRDocumentUsesAsyncEvaluator(t *testing.T) {
	idRef := func(id string) json.RawMessage {
		raw, _ := json.Marshal(id)
		return raw
	}
	doc := &expr.Document{
		Version: "1.0.0",
		Layer:   value.LayerPIR,
		Nodes: []expr.Node{
			litInt("taskLit", 99),
			{ID: "spawnNode", Expr: &expr.Expr{Kind: expr.KindSpawn, Task: "taskLit"}},
			{ID: "futureVar", Expr: &expr.Expr{Kind: expr.KindVar, Name: "future"}},
			{ID: "awaitNode", Expr: &expr.Expr{Kind: expr.KindAwait, Future: "futureVar"}},
			{ID: "letNode", Expr: &expr.Expr{Kind: expr.KindLet, Name: "future", ValueField: idRef("spawnNode"), Body: "awaitNode"}},
		},
		Result: "letNode",
	}
	res := Run(doc, DefaultOptions())
	require.False(t, res.Value.IsError(), "%v", res.Value.Err)
	assert.Equal(t, value.Int(99), res.Value)
	require.NotNil(t, res.EffectLog)
}
