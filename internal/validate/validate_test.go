package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smilemakc/cairs/internal/expr"
	"github.com/smilemakc/cairs/internal/value"
)

func litInt(id string, i int64) expr.Node {
	return expr.Node{ID: id, Expr: &expr.Expr{Kind: expr.KindLit, Type: value.TypeInt(), ValueField: []byte(`1`)}}
}

func TestValidateAIRAcceptsMinimalValidDoc(t *testing.T) {
	doc := &expr.Document{
		Version: "1.0.0",
		Layer:   value.LayerAIR,
		Nodes:   []expr.Node{litInt("a", 1)},
		Result:  "a",
	}
	res := ValidateAIR(doc)
	assert.True(t, res.Valid)
	assert.Empty(t, res.Errors)
}

func TestValidateRejectsBadVersion(t *testing.T) {
	doc := &expr.Document{Version: "bogus", Nodes: []expr.Node{litInt("a", 1)}, Result: "a"}
	res := ValidateAIR(doc)
	require.False(t, res.Valid)
	assert.Contains(t, res.Errors[0].Message, "InvalidIdFormat")
}

func TestValidateDetectsDuplicateNodeId(t *testing.T) {
	doc := &expr.Document{
		Version: "1.0.0",
		Nodes:   []expr.Node{litInt("a", 1), litInt("a", 2)},
		Result:  "a",
	}
	res := ValidateAIR(doc)
	require.False(t, res.Valid)
	found := false
	for _, e := range res.Errors {
		if strings.Contains(e.Message, "DuplicateNodeId") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidateDetectsUnresolvedResult(t *testing.T) {
	doc := &expr.Document{Version: "1.0.0", Nodes: []expr.Node{litInt("a", 1)}, Result: "missing"}
	res := ValidateAIR(doc)
	require.False(t, res.Valid)
	assert.Contains(t, res.Errors[len(res.Errors)-1].Message, "InvalidResultReference")
}

func TestValidateDetectsUnresolvedCallArg(t *testing.T) {
	doc := &expr.Document{
		Version: "1.0.0",
		Nodes: []expr.Node{
			litInt("a", 1),
			{ID: "r", Expr: &expr.Expr{Kind: expr.KindCall, NS: "core", Name: "add", Args: []string{"a", "missing"}}},
		},
		Result: "r",
	}
	res := ValidateAIR(doc)
	require.False(t, res.Valid)
}

func TestValidateRejectsKindIllegalForLayer(t *testing.T) {
	doc := &expr.Document{
		Version: "1.0.0",
		Nodes: []expr.Node{
			litInt("a", 1),
			{ID: "lam", Expr: &expr.Expr{Kind: expr.KindLambda, Params: []string{"x"}, Body: "a"}},
		},
		Result: "lam",
	}
	res := ValidateAIR(doc)
	require.False(t, res.Valid)
}

func TestValidateLIRChecksEntryAndTerminators(t *testing.T) {
	doc := &expr.Document{
		Version: "1.0.0",
		Nodes: []expr.Node{
			{
				ID:    "fn",
				Entry: "b0",
				Blocks: []expr.Block{
					{ID: "b0", Terminator: expr.Terminator{Kind: expr.TermJump, To: "nowhere"}},
				},
			},
		},
		Result: "fn",
	}
	res := ValidateLIR(doc)
	require.False(t, res.Valid)
}
