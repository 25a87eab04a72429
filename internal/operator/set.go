package operator

import "github.com/smilemakc/cairs/internal/value"

// RegisterSetDomain wires union/intersect/difference/contains/subset/add/
// remove/size. Membership uses value.Hash per spec.md §4.3 / §3.
func RegisterSetDomain(r *Registry) {
	r.Register(Operator{NS: "set", Name: "union", Params: []*value.Type{value.SetOf(nil), value.SetOf(nil)}, Returns: value.SetOf(nil), Pure: true, Impl: func(args []value.Value) value.Value {
		a, errA := asSet("set:union", args[0])
		if errA != nil {
			return *errA
		}
		b, errB := asSet("set:union", args[1])
		if errB != nil {
			return *errB
		}
		all := make([]value.Value, 0, len(a)+len(b))
		all = append(all, a...)
		all = append(all, b...)
		return value.NewSet(all)
	}})

	r.Register(Operator{NS: "set", Name: "intersect", Params: []*value.Type{value.SetOf(nil), value.SetOf(nil)}, Returns: value.SetOf(nil), Pure: true, Impl: func(args []value.Value) value.Value {
		a, errA := asSet("set:intersect", args[0])
		if errA != nil {
			return *errA
		}
		b, errB := asSet("set:intersect", args[1])
		if errB != nil {
			return *errB
		}
		bh := hashSet(b)
		out := make([]value.Value, 0, len(a))
		for _, v := range a {
			if bh[v.Hash()] {
				out = append(out, v)
			}
		}
		return value.NewSet(out)
	}})

	r.Register(Operator{NS: "set", Name: "difference", Params: []*value.Type{value.SetOf(nil), value.SetOf(nil)}, Returns: value.SetOf(nil), Pure: true, Impl: func(args []value.Value) value.Value {
		a, errA := asSet("set:difference", args[0])
		if errA != nil {
			return *errA
		}
		b, errB := asSet("set:difference", args[1])
		if errB != nil {
			return *errB
		}
		bh := hashSet(b)
		out := make([]value.Value, 0, len(a))
		for _, v := range a {
			if !bh[v.Hash()] {
				out = append(out, v)
			}
		}
		return value.NewSet(out)
	}})

	r.Register(Operator{NS: "set", Name: "contains", Params: []*value.Type{value.SetOf(nil), nil}, Returns: value.TypeBool(), Pure: true, Impl: func(args []value.Value) value.Value {
		a, err := asSet("set:contains", args[0])
		if err != nil {
			return *err
		}
		h := args[1].Hash()
		for _, v := range a {
			if v.Hash() == h {
				return value.Bool(true)
			}
		}
		return value.Bool(false)
	}})

	r.Register(Operator{NS: "set", Name: "subset", Params: []*value.Type{value.SetOf(nil), value.SetOf(nil)}, Returns: value.TypeBool(), Pure: true, Impl: func(args []value.Value) value.Value {
		a, errA := asSet("set:subset", args[0])
		if errA != nil {
			return *errA
		}
		b, errB := asSet("set:subset", args[1])
		if errB != nil {
			return *errB
		}
		bh := hashSet(b)
		for _, v := range a {
			if !bh[v.Hash()] {
				return value.Bool(false)
			}
		}
		return value.Bool(true)
	}})

	r.Register(Operator{NS: "set", Name: "add", Params: []*value.Type{value.SetOf(nil), nil}, Returns: value.SetOf(nil), Pure: true, Impl: func(args []value.Value) value.Value {
		a, err := asSet("set:add", args[0])
		if err != nil {
			return *err
		}
		out := make([]value.Value, 0, len(a)+1)
		out = append(out, a...)
		out = append(out, args[1])
		return value.NewSet(out)
	}})

	r.Register(Operator{NS: "set", Name: "remove", Params: []*value.Type{value.SetOf(nil), nil}, Returns: value.SetOf(nil), Pure: true, Impl: func(args []value.Value) value.Value {
		a, err := asSet("set:remove", args[0])
		if err != nil {
			return *err
		}
		h := args[1].Hash()
		out := make([]value.Value, 0, len(a))
		for _, v := range a {
			if v.Hash() != h {
				out = append(out, v)
			}
		}
		return value.NewSet(out)
	}})

	r.Register(Operator{NS: "set", Name: "size", Params: []*value.Type{value.SetOf(nil)}, Returns: value.TypeInt(), Pure: true, Impl: func(args []value.Value) value.Value {
		a, err := asSet("set:size", args[0])
		if err != nil {
			return *err
		}
		return value.Int(int64(len(a)))
	}})
}

func asSet(opName string, v value.Value) ([]value.Value, *value.Value) {
	if v.Kind != value.KSet {
		errv := value.Error("TypeError", opName+" requires a set argument, got "+string(v.Kind), nil)
		return nil, &errv
	}
	return v.Set, nil
}

func hashSet(items []value.Value) map[string]bool {
	out := make(map[string]bool, len(items))
	for _, v := range items {
		out[v.Hash()] = true
	}
	return out
}
