package cairs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func litIntNode(id string, i int64) Node {
	raw, _ := json.Marshal(i)
	return Node{ID: id, Expr: &Expr{Kind: "lit", Type: &Type{Kind: "int"}, ValueField: raw}}
}

func TestRunThroughFacadeReducesAirDocument(t *testing.T) {
	doc := &Document{
		Version: "1.0.0",
		Layer:   LayerAIR,
		Nodes: []Node{
			litIntNode("a", 4),
			litIntNode("b", 5),
			{ID: "r", Expr: &Expr{Kind: "call", NS: "core", Name: "add", Args: []string{"a", "b"}}},
		},
		Result: "r",
	}
	res := Run(doc, DefaultOptions())
	require.False(t, res.Value.IsError(), "%v", res.Value.Err)
	assert.Equal(t, Int(9), res.Value)
}

func TestLoadAndRunJSONRoundTrips(t *testing.T) {
	raw := []byte(`{
		"version": "1.0.0",
		"layer": "AIR",
		"nodes": [
			{"id": "x", "expr": {"kind": "lit", "type": {"kind": "int"}, "value": 7}}
		],
		"result": "x"
	}`)
	res, err := RunJSON(raw, DefaultOptions())
	require.NoError(t, err)
	require.False(t, res.Value.IsError(), "%v", res.Value.Err)
	assert.Equal(t, Int(7), res.Value)
}

func TestValidateAIRRejectsDanglingReference(t *testing.T) {
	doc := &Document{
		Version: "1.0.0",
		Layer:   LayerAIR,
		Nodes: []Node{
			{ID: "r", Expr: &Expr{Kind: "ref", ID: "missing"}},
		},
		Result: "r",
	}
	vr := ValidateAIR(doc)
	assert.False(t, vr.Valid)
	assert.NotEmpty(t, vr.Errors)
}
