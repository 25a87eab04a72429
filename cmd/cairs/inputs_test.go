package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smilemakc/cairs"
)

func TestParseInputsCommaListCoercesNumerics(t *testing.T) {
	v, err := parseInputs("1,2,x")
	require.NoError(t, err)
	require.Equal(t, cairs.KList, v.Kind)
	require.Len(t, v.List, 3)
	assert.Equal(t, cairs.Int(1), v.List[0])
	assert.Equal(t, cairs.Int(2), v.List[1])
	assert.Equal(t, cairs.String("x"), v.List[2])
}

func TestParseInputsJSONArray(t *testing.T) {
	v, err := parseInputs(`[1,"x",2.5]`)
	require.NoError(t, err)
	require.Len(t, v.List, 3)
	assert.Equal(t, cairs.Int(1), v.List[0])
	assert.Equal(t, cairs.String("x"), v.List[1])
	assert.Equal(t, cairs.Float(2.5), v.List[2])
}
