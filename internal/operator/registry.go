// Package operator implements C4: the operator registry and the required
// domains (core, bool, list, set). Shaped on mbflow's
// internal/node/registry.go Registry (byID/byName maps guarded by a
// mutex, reject-on-duplicate Register) and
// internal/application/executor/engine.go's nodeExecutors map +
// RegisterNodeExecutor/registerDefaultExecutors wiring pattern.
package operator

import (
	"fmt"
	"sync"

	"github.com/smilemakc/cairs/internal/value"
)

// Impl is an operator implementation. Per spec.md §4.2 "operators MUST NOT
// throw": Impl never panics on domain errors, it returns an error Value.
type Impl func(args []value.Value) value.Value

// Operator is {ns, name, params, returns, pure, impl} per spec.md §4.3.
type Operator struct {
	NS      string
	Name    string
	Params  []*value.Type
	Returns *value.Type
	Pure    bool
	Impl    Impl
}

// Key returns the registry key "ns:name".
func (o Operator) Key() string { return o.NS + ":" + o.Name }

// Registry is a mutex-guarded ns:name -> Operator map.
type Registry struct {
	mu  sync.RWMutex
	ops map[string]Operator
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{ops: make(map[string]Operator)}
}

// Register adds op, overwriting any prior operator under the same key.
// Unlike mbflow's node registry (which rejects duplicate ids),
// operator registration is idempotent-by-overwrite so that Merge can layer
// a caller's domain over the standard ones.
func (r *Registry) Register(op Operator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops[op.Key()] = op
}

// RegisterAll registers every operator in ops.
func (r *Registry) RegisterAll(ops []Operator) {
	for _, op := range ops {
		r.Register(op)
	}
}

// Lookup finds an operator by ns and name.
func (r *Registry) Lookup(ns, name string) (Operator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	op, ok := r.ops[ns+":"+name]
	return op, ok
}

// Merge returns a new registry containing r's operators overlaid by
// other's, pointwise (spec.md §4.3: "Merging two registries is
// pointwise").
func (r *Registry) Merge(other *Registry) *Registry {
	out := NewRegistry()
	r.mu.RLock()
	for k, v := range r.ops {
		out.ops[k] = v
	}
	r.mu.RUnlock()
	other.mu.RLock()
	for k, v := range other.ops {
		out.ops[k] = v
	}
	other.mu.RUnlock()
	return out
}

// Call looks up ns:name, checks arity, and invokes impl. Any arg that is
// already an error short-circuits per spec.md §4.2.
func (r *Registry) Call(ns, name string, args []value.Value) value.Value {
	op, ok := r.Lookup(ns, name)
	if !ok {
		return value.Error("UnknownOperator", fmt.Sprintf("unknown operator %s:%s", ns, name), nil)
	}
	for _, a := range args {
		if a.IsError() {
			return a
		}
	}
	if len(op.Params) != len(args) {
		return value.Error("ArityError", fmt.Sprintf("%s:%s expects %d args, got %d", ns, name, len(op.Params), len(args)), nil)
	}
	return op.Impl(args)
}

// Standard returns a registry preloaded with every required domain
// (core, bool, list, set).
func Standard() *Registry {
	r := NewRegistry()
	RegisterCoreDomain(r)
	RegisterBoolDomain(r)
	RegisterListDomain(r)
	RegisterSetDomain(r)
	return r
}
