package operator

import (
	"fmt"
	"math"

	"github.com/smilemakc/cairs/internal/value"
)

// RegisterCoreDomain wires arithmetic and comparison operators, polymorphic
// over int/float per spec.md §4.3.
func RegisterCoreDomain(r *Registry) {
	bin := func(name string, impl Impl) Operator {
		return Operator{NS: "core", Name: name, Params: []*value.Type{value.TypeInt(), value.TypeInt()}, Returns: value.TypeInt(), Pure: true, Impl: impl}
	}

	r.Register(bin("add", arith(func(a, b int64) int64 { return a + b }, func(a, b float64) float64 { return a + b })))
	r.Register(bin("sub", arith(func(a, b int64) int64 { return a - b }, func(a, b float64) float64 { return a - b })))
	r.Register(bin("mul", arith(func(a, b int64) int64 { return a * b }, func(a, b float64) float64 { return a * b })))
	r.Register(bin("div", opDiv))
	r.Register(bin("mod", opMod))
	r.Register(bin("pow", opPow))

	r.Register(Operator{NS: "core", Name: "neg", Params: []*value.Type{value.TypeInt()}, Returns: value.TypeInt(), Pure: true, Impl: opNeg})

	for _, name := range []string{"eq", "neq"} {
		name := name
		r.Register(Operator{NS: "core", Name: name, Params: []*value.Type{value.TypeInt(), value.TypeInt()}, Returns: value.TypeBool(), Pure: true, Impl: opEqNeq(name)})
	}
	for _, name := range []string{"lt", "lte", "gt", "gte"} {
		name := name
		r.Register(Operator{NS: "core", Name: name, Params: []*value.Type{value.TypeInt(), value.TypeInt()}, Returns: value.TypeBool(), Pure: true, Impl: opCompare(name)})
	}
}

func bothInt(args []value.Value) bool {
	return args[0].Kind == value.KInt && args[1].Kind == value.KInt
}

func asFloat(v value.Value) float64 {
	if v.Kind == value.KInt {
		return float64(v.I)
	}
	return v.F
}

// arith builds an add/sub/mul impl: int result when both args are int,
// else float over the numeric coercion of both (spec.md §4.3).
func arith(intOp func(a, b int64) int64, floatOp func(a, b float64) float64) Impl {
	return func(args []value.Value) value.Value {
		if !isNumericPair(args) {
			return typeError("core", args)
		}
		if bothInt(args) {
			return value.Int(intOp(args[0].I, args[1].I))
		}
		return value.Float(floatOp(asFloat(args[0]), asFloat(args[1])))
	}
}

func isNumericPair(args []value.Value) bool {
	return (args[0].Kind == value.KInt || args[0].Kind == value.KFloat) &&
		(args[1].Kind == value.KInt || args[1].Kind == value.KFloat)
}

func typeError(ns string, args []value.Value) value.Value {
	return value.Error("TypeError", fmt.Sprintf("%s operator requires numeric arguments, got %s/%s", ns, args[0].Kind, args[1].Kind), nil)
}

func opDiv(args []value.Value) value.Value {
	if !isNumericPair(args) {
		return typeError("core:div", args)
	}
	if bothInt(args) {
		if args[1].I == 0 {
			return divideByZero()
		}
		return value.Int(args[0].I / args[1].I) // Go's / truncates toward zero
	}
	b := asFloat(args[1])
	if b == 0 {
		return divideByZero()
	}
	return value.Float(asFloat(args[0]) / b)
}

func opMod(args []value.Value) value.Value {
	if !bothInt(args) {
		return typeError("core:mod", args)
	}
	if args[1].I == 0 {
		return divideByZero()
	}
	return value.Int(args[0].I % args[1].I)
}

func divideByZero() value.Value {
	return value.Error("DivideByZero", "division by zero", nil)
}

func opPow(args []value.Value) value.Value {
	if !isNumericPair(args) {
		return typeError("core:pow", args)
	}
	if bothInt(args) {
		return value.Int(int64(math.Pow(float64(args[0].I), float64(args[1].I))))
	}
	return value.Float(math.Pow(asFloat(args[0]), asFloat(args[1])))
}

func opNeg(args []value.Value) value.Value {
	switch args[0].Kind {
	case value.KInt:
		return value.Int(-args[0].I)
	case value.KFloat:
		return value.Float(-args[0].F)
	default:
		return value.Error("TypeError", "core:neg requires a numeric argument", nil)
	}
}

// opEqNeq implements structural equality for matching primitive kinds;
// mixed int/float pairs compare as floats (spec.md §4.3).
func opEqNeq(name string) Impl {
	return func(args []value.Value) value.Value {
		a, b := args[0], args[1]
		var eq bool
		switch {
		case isNumericPair(args):
			eq = asFloat(a) == asFloat(b)
		case a.Kind == b.Kind:
			eq = value.Equal(a, b)
		default:
			eq = false
		}
		if name == "neq" {
			eq = !eq
		}
		return value.Bool(eq)
	}
}

func opCompare(name string) Impl {
	return func(args []value.Value) value.Value {
		if !isNumericPair(args) {
			return typeError("core:"+name, args)
		}
		a, b := asFloat(args[0]), asFloat(args[1])
		var result bool
		switch name {
		case "lt":
			result = a < b
		case "lte":
			result = a <= b
		case "gt":
			result = a > b
		case "gte":
			result = a >= b
		}
		return value.Bool(result)
	}
}
