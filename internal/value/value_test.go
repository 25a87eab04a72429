package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPrimitivesIsPureFunctionOfContent(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"equal ints", Int(42), Int(42), true},
		{"different ints", Int(1), Int(2), false},
		{"equal strings", String("hi"), String("hi"), true},
		{"equal bools", Bool(true), Bool(true), true},
		{"none vs none", None(), None(), true},
		{"some equal inner", Some(Int(1)), Some(Int(1)), true},
		{"some different inner", Some(Int(1)), Some(Int(2)), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Hash() == tt.b.Hash())
		})
	}
}

func TestCompoundValuesHashByIdentityNotContent(t *testing.T) {
	a := List([]Value{Int(1), Int(2)})
	b := List([]Value{Int(1), Int(2)})
	assert.NotEqual(t, a.Hash(), b.Hash(), "two syntactically identical lists must occupy distinct set/map slots")
}

func TestSetDeduplicatesByHash(t *testing.T) {
	s := NewSet([]Value{Int(1), Int(2), Int(1), Int(3), Int(2)})
	require.Len(t, s.Set, 3)
}

func TestSetOfIdenticalCompoundsKeepsBothEntries(t *testing.T) {
	l1 := List([]Value{Int(1)})
	l2 := List([]Value{Int(1)})
	s := NewSet([]Value{l1, l2})
	assert.Len(t, s.Set, 2)
}

func TestMapOverwritesOnKeyHashCollision(t *testing.T) {
	m := NewMap([]MapEntry{
		{Key: String("a"), Val: Int(1)},
		{Key: String("a"), Val: Int(2)},
	})
	require.Len(t, m.Map, 1)
	assert.Equal(t, int64(2), m.Map[0].Val.I)
}

func TestTypeEqualityIsStructural(t *testing.T) {
	a := ListOf(TypeInt())
	b := ListOf(TypeInt())
	c := ListOf(TypeString())
	assert.True(t, TypesEqual(a, b))
	assert.False(t, TypesEqual(c, a))
}

func TestTypeLegalForLayer(t *testing.T) {
	assert.False(t, TypeVoid().LegalForLayer(LayerAIR))
	assert.True(t, TypeVoid().LegalForLayer(LayerEIR))
	assert.False(t, Fn(nil, TypeInt()).LegalForLayer(LayerAIR))
	assert.True(t, Fn(nil, TypeInt()).LegalForLayer(LayerCIR))
}

func TestNumericEqualityAcrossIntFloat(t *testing.T) {
	assert.True(t, Equal(Int(2), Float(2.0)))
}
