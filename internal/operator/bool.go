package operator

import "github.com/smilemakc/cairs/internal/value"

// RegisterBoolDomain wires strict boolean operators (spec.md §4.3: "Strict
// evaluation of both arguments before application" — by the time Impl
// runs, the evaluator has already evaluated every arg, so no special
// short-circuit logic is needed here beyond the usual error check).
func RegisterBoolDomain(r *Registry) {
	boolBin := func(name string, impl Impl) Operator {
		return Operator{NS: "bool", Name: name, Params: []*value.Type{value.TypeBool(), value.TypeBool()}, Returns: value.TypeBool(), Pure: true, Impl: impl}
	}

	r.Register(boolBin("and", func(args []value.Value) value.Value {
		a, b, err := twoBools(args)
		if err != nil {
			return *err
		}
		return value.Bool(a && b)
	}))
	r.Register(boolBin("or", func(args []value.Value) value.Value {
		a, b, err := twoBools(args)
		if err != nil {
			return *err
		}
		return value.Bool(a || b)
	}))
	r.Register(boolBin("xor", func(args []value.Value) value.Value {
		a, b, err := twoBools(args)
		if err != nil {
			return *err
		}
		return value.Bool(a != b)
	}))
	r.Register(Operator{NS: "bool", Name: "not", Params: []*value.Type{value.TypeBool()}, Returns: value.TypeBool(), Pure: true, Impl: func(args []value.Value) value.Value {
		if args[0].Kind != value.KBool {
			return value.Error("TypeError", "bool:not requires a bool argument", nil)
		}
		return value.Bool(!args[0].B)
	}})
}

func twoBools(args []value.Value) (bool, bool, *value.Value) {
	if args[0].Kind != value.KBool || args[1].Kind != value.KBool {
		errv := value.Error("TypeError", "bool operator requires bool arguments", nil)
		return false, false, &errv
	}
	return args[0].B, args[1].B, nil
}
