// Package env implements C3: the three persistent, immutable-on-extend
// environments (TypeEnv, ValueEnv, Defs) shared by every evaluator.
//
// Grounded in mbflow's internal/domain/variables.go VariableSchema,
// but made genuinely persistent: extend always returns a new map rather
// than mutating the receiver, because CAIRS closures capture a ValueEnv
// snapshot that must survive later extension of the enclosing scope
// (spec.md §4.1).
package env

import "github.com/smilemakc/cairs/internal/value"

// ValueEnv is a persistent name -> value.Value mapping.
type ValueEnv struct {
	parent *ValueEnv
	name   string
	val    value.Value
}

// EmptyValueEnv returns the empty environment.
func EmptyValueEnv() *ValueEnv {
	return nil
}

// Lookup walks the parent chain; the most recent Extend shadows older
// bindings of the same name. Implements value.Environment.
func (e *ValueEnv) Lookup(name string) (value.Value, bool) {
	for cur := e; cur != nil; cur = cur.parent {
		if cur.name == name {
			return cur.val, true
		}
	}
	return value.Value{}, false
}

// Extend returns a new environment with name bound to v; e itself is
// unchanged, so any closure holding e as its snapshot is unaffected.
func (e *ValueEnv) Extend(name string, v value.Value) *ValueEnv {
	return &ValueEnv{parent: e, name: name, val: v}
}

// WithBinding implements value.Environment, letting callers outside this
// package (the evaluator, applying a closure over its captured env) grow
// an environment without depending on *ValueEnv directly.
func (e *ValueEnv) WithBinding(name string, v value.Value) value.Environment {
	return e.Extend(name, v)
}

// ExtendMany extends with several bindings in order, later ones shadowing
// earlier ones (and duplicates of ones already in e).
func (e *ValueEnv) ExtendMany(pairs []Binding) *ValueEnv {
	cur := e
	for _, p := range pairs {
		cur = cur.Extend(p.Name, p.Value)
	}
	return cur
}

// Binding is a single name/value pair used by ExtendMany.
type Binding struct {
	Name  string
	Value value.Value
}

// TypeEnv is a persistent name -> value.Type mapping, structurally
// identical to ValueEnv but kept as a distinct type since Γ and ρ are
// never interchangeable.
type TypeEnv struct {
	parent *TypeEnv
	name   string
	typ    *value.Type
}

func EmptyTypeEnv() *TypeEnv { return nil }

func (e *TypeEnv) Lookup(name string) (*value.Type, bool) {
	for cur := e; cur != nil; cur = cur.parent {
		if cur.name == name {
			return cur.typ, true
		}
	}
	return nil, false
}

func (e *TypeEnv) Extend(name string, t *value.Type) *TypeEnv {
	return &TypeEnv{parent: e, name: name, typ: t}
}

// Def is a named, globally addressable definition (spec.md §3: "Defs are
// globally addressable by ns:name").
type Def struct {
	NS     string
	Name   string
	Params []string
	Result *value.Type
	Body   string // node id of the body expression
}

func (d Def) Key() string { return d.NS + ":" + d.Name }

// Defs is a persistent ns:name -> Def mapping.
type Defs struct {
	parent *Defs
	key    string
	def    Def
}

func EmptyDefs() *Defs { return nil }

func (d *Defs) Lookup(ns, name string) (Def, bool) {
	key := ns + ":" + name
	for cur := d; cur != nil; cur = cur.parent {
		if cur.key == key {
			return cur.def, true
		}
	}
	return Def{}, false
}

// RegisterDef returns a new Defs with def added, shadowing any prior
// definition under the same ns:name.
func (d *Defs) RegisterDef(def Def) *Defs {
	return &Defs{parent: d, key: def.Key(), def: def}
}
