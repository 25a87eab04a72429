package lir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smilemakc/cairs/internal/env"
	"github.com/smilemakc/cairs/internal/expr"
	"github.com/smilemakc/cairs/internal/operator"
	"github.com/smilemakc/cairs/internal/value"
)

func newInterp(doc *expr.Document) *Interpreter {
	return New(doc, operator.Standard(), nil, env.EmptyDefs(), DefaultOptions())
}

func TestSingleBlockOpAndReturn(t *testing.T) {
	doc := &expr.Document{
		Version: "1.0.0",
		Nodes: []expr.Node{
			{
				ID:    "fn",
				Entry: "b0",
				Blocks: []expr.Block{
					{
						ID: "b0",
						Instructions: []expr.Instruction{
							{Kind: expr.InstrOp, Target: "x", NS: "core", Name: "add", Args: []string{"a", "b"}},
						},
						Terminator: expr.Terminator{Kind: expr.TermReturn, Value: "x"},
					},
				},
			},
		},
		Result: "fn",
	}
	var inputEnv value.Environment = env.EmptyValueEnv()
	inputEnv = inputEnv.WithBinding("a", value.Int(10))
	inputEnv = inputEnv.WithBinding("b", value.Int(32))

	got, _ := newInterp(doc).Run("fn", inputEnv)
	assert.Equal(t, value.Int(42), got)
}

func TestBranchAndPhi(t *testing.T) {
	doc := &expr.Document{
		Version: "1.0.0",
		Nodes: []expr.Node{
			{
				ID:    "fn",
				Entry: "entry",
				Blocks: []expr.Block{
					{
						ID:         "entry",
						Terminator: expr.Terminator{Kind: expr.TermBranch, Cond: "cond", Then: "ifTrue", Else: "ifFalse"},
					},
					{
						ID: "ifTrue",
						Instructions: []expr.Instruction{
							{Kind: expr.InstrOp, Target: "v", NS: "core", Name: "add", Args: []string{"zero", "one"}},
						},
						Terminator: expr.Terminator{Kind: expr.TermJump, To: "merge"},
					},
					{
						ID: "ifFalse",
						Instructions: []expr.Instruction{
							{Kind: expr.InstrOp, Target: "v", NS: "core", Name: "add", Args: []string{"zero", "zero"}},
						},
						Terminator: expr.Terminator{Kind: expr.TermJump, To: "merge"},
					},
					{
						ID: "merge",
						Instructions: []expr.Instruction{
							{Kind: expr.InstrPhi, Target: "result", Sources: []expr.Source{
								{Block: "ifTrue", ID: "v"},
								{Block: "ifFalse", ID: "v"},
							}},
						},
						Terminator: expr.Terminator{Kind: expr.TermReturn, Value: "result"},
					},
				},
			},
		},
		Result: "fn",
	}
	var inputEnv value.Environment = env.EmptyValueEnv()
	inputEnv = inputEnv.WithBinding("cond", value.Bool(true))
	inputEnv = inputEnv.WithBinding("zero", value.Int(0))
	inputEnv = inputEnv.WithBinding("one", value.Int(1))

	got, _ := newInterp(doc).Run("fn", inputEnv)
	assert.Equal(t, value.Int(1), got)
}

func TestUnresolvedJumpTargetErrors(t *testing.T) {
	doc := &expr.Document{
		Version: "1.0.0",
		Nodes: []expr.Node{
			{ID: "fn", Entry: "b0", Blocks: []expr.Block{
				{ID: "b0", Terminator: expr.Terminator{Kind: expr.TermJump, To: "nowhere"}},
			}},
		},
		Result: "fn",
	}
	got, _ := newInterp(doc).Run("fn", env.EmptyValueEnv())
	require.True(t, got.IsError())
}
