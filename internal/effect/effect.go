// Package effect implements C5: the effect registry and its built-ins.
// Shaped on mbflow's callback registration style
// (internal/application/executor/callback.go's named-hook map) narrowed to
// a flat name -> Effect registry, since CAIRS effects have no node
// lifecycle to hook into.
package effect

import (
	"sync"

	"github.com/smilemakc/cairs/internal/value"
)

// Impl is an effect implementation. Per spec.md §4.4 "the impl returns a
// placeholder value; the occurrence of the effect is what matters" — the
// evaluator, not Impl, is responsible for logging the occurrence.
type Impl func(args []value.Value) value.Value

// Effect is {name, params, returns, pure:false, impl}.
type Effect struct {
	Name    string
	Params  []*value.Type
	Returns *value.Type
	Impl    Impl
}

// Registry is a name -> Effect map.
type Registry struct {
	mu      sync.RWMutex
	effects map[string]Effect
}

func NewRegistry() *Registry {
	return &Registry{effects: make(map[string]Effect)}
}

func (r *Registry) Register(e Effect) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.effects[e.Name] = e
}

func (r *Registry) Lookup(name string) (Effect, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.effects[name]
	return e, ok
}

// Standard returns a registry with the built-ins from spec.md §4.4:
// print, printInt, readLine, readInt, getState, setState. readLine/readInt
// return the zero value ("" / 0) since the standard registry has no input
// source; use NewQueuedRegistry for deterministic replay.
func Standard() *Registry {
	r := NewRegistry()
	var state string
	var mu sync.Mutex

	r.Register(Effect{Name: "print", Params: []*value.Type{value.TypeString()}, Returns: value.TypeVoid(), Impl: func(args []value.Value) value.Value {
		return value.Void()
	}})
	r.Register(Effect{Name: "printInt", Params: []*value.Type{value.TypeInt()}, Returns: value.TypeVoid(), Impl: func(args []value.Value) value.Value {
		return value.Void()
	}})
	r.Register(Effect{Name: "readLine", Params: nil, Returns: value.TypeString(), Impl: func(args []value.Value) value.Value {
		return value.String("")
	}})
	r.Register(Effect{Name: "readInt", Params: nil, Returns: value.TypeInt(), Impl: func(args []value.Value) value.Value {
		return value.Int(0)
	}})
	r.Register(Effect{Name: "getState", Params: nil, Returns: value.TypeString(), Impl: func(args []value.Value) value.Value {
		mu.Lock()
		defer mu.Unlock()
		return value.String(state)
	}})
	r.Register(Effect{Name: "setState", Params: []*value.Type{value.TypeString()}, Returns: value.TypeVoid(), Impl: func(args []value.Value) value.Value {
		mu.Lock()
		defer mu.Unlock()
		if len(args) > 0 {
			state = args[0].S
		}
		return value.Void()
	}})

	return r
}
