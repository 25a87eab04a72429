// Package value implements the CAIRS value and type algebra shared by every
// IR layer (C1). Dispatch is a closed type switch over Kind, never runtime
// reflection, per the corpus's table-driven-dispatch convention.
package value

import (
	"fmt"
	"strings"
)

// TypeKind is the closed set of type tags.
type TypeKind string

const (
	TBool   TypeKind = "bool"
	TInt    TypeKind = "int"
	TFloat  TypeKind = "float"
	TString TypeKind = "string"
	TVoid   TypeKind = "void"
	TList   TypeKind = "list"
	TSet    TypeKind = "set"
	TMap    TypeKind = "map"
	TOption TypeKind = "option"
	TFn     TypeKind = "fn"
	TRef    TypeKind = "ref"
	TOpaque TypeKind = "opaque"
)

// Layer identifies which IR layer a document belongs to, used to gate
// which types/expression kinds are legal (spec.md §3: "void and ref are
// only legal from EIR upward; fn is legal from CIR upward").
type Layer string

const (
	LayerAIR Layer = "AIR"
	LayerCIR Layer = "CIR"
	LayerEIR Layer = "EIR"
	LayerLIR Layer = "LIR"
	LayerPIR Layer = "PIR"
)

// layerRank gives a total order over layers for "legal from X upward" checks.
var layerRank = map[Layer]int{
	LayerAIR: 0,
	LayerCIR: 1,
	LayerEIR: 2,
	LayerPIR: 2, // PIR is EIR + async; LIR is orthogonal (hybrid, checked separately)
	LayerLIR: 2,
}

func layerAtLeast(l, min Layer) bool {
	return layerRank[l] >= layerRank[min]
}

// Type is a tagged sum, structural-equality type. Compound kinds use the
// Elem/Key/Val/Params/Ret fields relevant to their kind; unused fields are
// left nil.
type Type struct {
	Kind   TypeKind `json:"kind"`
	Elem   *Type    `json:"elem,omitempty"`   // list<T>, set<T>, option<T>, ref<T>
	Key    *Type    `json:"key,omitempty"`    // map<K,V>
	Val    *Type    `json:"val,omitempty"`    // map<K,V>
	Params []*Type  `json:"params,omitempty"` // fn(T...)->T
	Ret    *Type    `json:"ret,omitempty"`    // fn(T...)->T
	Name   string   `json:"name,omitempty"`   // opaque(name)
}

func TypeBool() *Type   { return &Type{Kind: TBool} }
func TypeInt() *Type    { return &Type{Kind: TInt} }
func TypeFloat() *Type  { return &Type{Kind: TFloat} }
func TypeString() *Type { return &Type{Kind: TString} }
func TypeVoid() *Type   { return &Type{Kind: TVoid} }
func ListOf(t *Type) *Type   { return &Type{Kind: TList, Elem: t} }
func SetOf(t *Type) *Type    { return &Type{Kind: TSet, Elem: t} }
func OptionOf(t *Type) *Type { return &Type{Kind: TOption, Elem: t} }
func RefOf(t *Type) *Type    { return &Type{Kind: TRef, Elem: t} }
func MapOf(k, v *Type) *Type { return &Type{Kind: TMap, Key: k, Val: v} }
func Opaque(name string) *Type { return &Type{Kind: TOpaque, Name: name} }
func Fn(params []*Type, ret *Type) *Type {
	return &Type{Kind: TFn, Params: params, Ret: ret}
}

// TypesEqual implements structural type equality.
func TypesEqual(a, b *Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case TList, TSet, TOption, TRef:
		return TypesEqual(a.Elem, b.Elem)
	case TMap:
		return TypesEqual(a.Key, b.Key) && TypesEqual(a.Val, b.Val)
	case TOpaque:
		return a.Name == b.Name
	case TFn:
		if len(a.Params) != len(b.Params) || !TypesEqual(a.Ret, b.Ret) {
			return false
		}
		for i := range a.Params {
			if !TypesEqual(a.Params[i], b.Params[i]) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case TList:
		return fmt.Sprintf("list<%s>", t.Elem)
	case TSet:
		return fmt.Sprintf("set<%s>", t.Elem)
	case TOption:
		return fmt.Sprintf("option<%s>", t.Elem)
	case TRef:
		return fmt.Sprintf("ref<%s>", t.Elem)
	case TMap:
		return fmt.Sprintf("map<%s,%s>", t.Key, t.Val)
	case TOpaque:
		return fmt.Sprintf("opaque(%s)", t.Name)
	case TFn:
		parts := make([]string, len(t.Params))
		for i, p := range t.Params {
			parts[i] = p.String()
		}
		return fmt.Sprintf("fn(%s)->%s", strings.Join(parts, ","), t.Ret)
	default:
		return string(t.Kind)
	}
}

// LegalForLayer reports whether this type tag may appear in a document of
// the given layer, per spec.md §3: void/ref are EIR+, fn is CIR+.
func (t *Type) LegalForLayer(l Layer) bool {
	switch t.Kind {
	case TVoid, TRef:
		return layerAtLeast(l, LayerEIR)
	case TFn:
		return layerAtLeast(l, LayerCIR)
	default:
		return true
	}
}
