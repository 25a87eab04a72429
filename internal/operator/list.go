package operator

import (
	"fmt"

	"github.com/smilemakc/cairs/internal/value"
)

// RegisterListDomain wires length/concat/nth/reverse/slice/cons per
// spec.md §4.3. nth and slice bounds-check explicitly since Go would
// otherwise panic on an out-of-range index, which operators MUST NOT do.
func RegisterListDomain(r *Registry) {
	r.Register(Operator{NS: "list", Name: "length", Params: []*value.Type{value.ListOf(nil)}, Returns: value.TypeInt(), Pure: true, Impl: func(args []value.Value) value.Value {
		l, err := asList("list:length", args[0])
		if err != nil {
			return *err
		}
		return value.Int(int64(len(l)))
	}})

	r.Register(Operator{NS: "list", Name: "concat", Params: []*value.Type{value.ListOf(nil), value.ListOf(nil)}, Returns: value.ListOf(nil), Pure: true, Impl: func(args []value.Value) value.Value {
		a, errA := asList("list:concat", args[0])
		if errA != nil {
			return *errA
		}
		b, errB := asList("list:concat", args[1])
		if errB != nil {
			return *errB
		}
		out := make([]value.Value, 0, len(a)+len(b))
		out = append(out, a...)
		out = append(out, b...)
		return value.List(out)
	}})

	r.Register(Operator{NS: "list", Name: "nth", Params: []*value.Type{value.ListOf(nil), value.TypeInt()}, Returns: nil, Pure: true, Impl: func(args []value.Value) value.Value {
		l, err := asList("list:nth", args[0])
		if err != nil {
			return *err
		}
		if args[1].Kind != value.KInt {
			return value.Error("TypeError", "list:nth requires an int index", nil)
		}
		idx := args[1].I
		if idx < 0 || idx >= int64(len(l)) {
			return value.Error("DomainError", fmt.Sprintf("list:nth index %d out of range [0,%d)", idx, len(l)), nil)
		}
		return l[idx]
	}})

	r.Register(Operator{NS: "list", Name: "reverse", Params: []*value.Type{value.ListOf(nil)}, Returns: value.ListOf(nil), Pure: true, Impl: func(args []value.Value) value.Value {
		l, err := asList("list:reverse", args[0])
		if err != nil {
			return *err
		}
		out := make([]value.Value, len(l))
		for i, v := range l {
			out[len(l)-1-i] = v
		}
		return value.List(out)
	}})

	r.Register(Operator{NS: "list", Name: "slice", Params: []*value.Type{value.ListOf(nil), value.TypeInt()}, Returns: value.ListOf(nil), Pure: true, Impl: func(args []value.Value) value.Value {
		l, err := asList("list:slice", args[0])
		if err != nil {
			return *err
		}
		if args[1].Kind != value.KInt {
			return value.Error("TypeError", "list:slice requires an int start index", nil)
		}
		start := args[1].I
		if start < 0 || start > int64(len(l)) {
			return value.Error("DomainError", fmt.Sprintf("list:slice start %d out of range [0,%d]", start, len(l)), nil)
		}
		out := make([]value.Value, len(l)-int(start))
		copy(out, l[start:])
		return value.List(out)
	}})

	r.Register(Operator{NS: "list", Name: "cons", Params: []*value.Type{nil, value.ListOf(nil)}, Returns: value.ListOf(nil), Pure: true, Impl: func(args []value.Value) value.Value {
		l, err := asList("list:cons", args[1])
		if err != nil {
			return *err
		}
		out := make([]value.Value, 0, len(l)+1)
		out = append(out, args[0])
		out = append(out, l...)
		return value.List(out)
	}})
}

func asList(opName string, v value.Value) ([]value.Value, *value.Value) {
	if v.Kind != value.KList {
		errv := value.Error("TypeError", opName+" requires a list argument, got "+string(v.Kind), nil)
		return nil, &errv
	}
	return v.List, nil
}
