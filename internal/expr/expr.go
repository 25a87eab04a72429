// Package expr is the CAIRS expression AST and document model shared by
// every IR layer. A document is a flat table of nodes addressed by string
// id; expressions refer to each other by id rather than nesting, mirroring
// mbflow's graph-of-nodes-with-edges convention (internal/node +
// internal/engine/graph.go) generalized from a workflow DAG to an
// expression tree/graph.
package expr

import (
	"encoding/json"

	"github.com/smilemakc/cairs/internal/value"
)

// Kind is the closed set of expression tags across all layers.
type Kind string

const (
	// AIR
	KindLit       Kind = "lit"
	KindRef       Kind = "ref"
	KindVar       Kind = "var"
	KindCall      Kind = "call"
	KindIf        Kind = "if"
	KindLet       Kind = "let"
	KindAirRef    Kind = "airRef"
	KindPredicate Kind = "predicate"

	// CIR
	KindLambda   Kind = "lambda"
	KindCallExpr Kind = "callExpr"
	KindFix      Kind = "fix"

	// EIR
	KindSeq     Kind = "seq"
	KindAssign  Kind = "assign"
	KindWhile   Kind = "while"
	KindFor     Kind = "for"
	KindIter    Kind = "iter"
	KindEffect  Kind = "effect"
	KindRefCell Kind = "refCell"
	KindDeref   Kind = "deref"
	KindTry     Kind = "try"

	// PIR
	KindSpawn   Kind = "spawn"
	KindAwait   Kind = "await"
	KindChannel Kind = "channel"
	KindSend    Kind = "send"
	KindRecv    Kind = "recv"
	KindSelect  Kind = "select"
	KindRace    Kind = "race"
	KindPar     Kind = "par"
)

// kindLayer records the minimal layer each kind first becomes legal in.
var kindLayer = map[Kind]value.Layer{
	KindLit: value.LayerAIR, KindRef: value.LayerAIR, KindVar: value.LayerAIR,
	KindCall: value.LayerAIR, KindIf: value.LayerAIR, KindLet: value.LayerAIR,
	KindAirRef: value.LayerAIR, KindPredicate: value.LayerAIR,

	KindLambda: value.LayerCIR, KindCallExpr: value.LayerCIR, KindFix: value.LayerCIR,

	KindSeq: value.LayerEIR, KindAssign: value.LayerEIR, KindWhile: value.LayerEIR,
	KindFor: value.LayerEIR, KindIter: value.LayerEIR, KindEffect: value.LayerEIR,
	KindRefCell: value.LayerEIR, KindDeref: value.LayerEIR, KindTry: value.LayerEIR,

	KindSpawn: value.LayerPIR, KindAwait: value.LayerPIR, KindChannel: value.LayerPIR,
	KindSend: value.LayerPIR, KindRecv: value.LayerPIR, KindSelect: value.LayerPIR,
	KindRace: value.LayerPIR, KindPar: value.LayerPIR,
}

// layerIncludes says whether layer l's legal-kind set contains a kind first
// introduced at layer "at" — every higher layer is a conservative extension
// of AIR/CIR/EIR, while PIR extends CIR+EIR (not LIR, which is orthogonal).
func layerIncludes(l, at value.Layer) bool {
	rank := map[value.Layer]int{value.LayerAIR: 0, value.LayerCIR: 1, value.LayerEIR: 2, value.LayerPIR: 3}
	lr, ok1 := rank[l]
	ar, ok2 := rank[at]
	if !ok1 || !ok2 {
		return false
	}
	return lr >= ar
}

// LegalForLayer reports whether an expression kind may appear in a
// document declaring layer l (spec.md §4.5 check 5).
func (k Kind) LegalForLayer(l value.Layer) bool {
	at, ok := kindLayer[k]
	if !ok {
		return false
	}
	if l == value.LayerLIR {
		// LIR nodes are block-form; an LIR document's hybrid expr-form
		// nodes are legal for any non-PIR kind plus the PIR extensions
		// block terminators reuse (fork/suspend are terminators, not
		// expression kinds, so no PIR expr kind is legal here).
		return at != value.LayerPIR
	}
	return layerIncludes(l, at)
}

// Source is one entry of a phi instruction's sources list.
type Source struct {
	Block string `json:"block"`
	ID    string `json:"id"`
}

// Expr is the tagged-union expression node. Only the fields relevant to
// Kind are populated. JSON field names match spec.md §2's shorthand
// grammar exactly so documents round-trip without translation.
type Expr struct {
	Kind Kind `json:"kind"`

	Type *value.Type `json:"type,omitempty"`

	// ValueField backs two unrelated JSON uses of the "value" key:
	// lit's literal payload (arbitrary JSON, parsed via Literal()) and
	// let/assign/predicate/send's node-id reference (a plain JSON string, parsed via
	// ValueRef()). Both share one Go field because both serialize under
	// the same key.
	ValueField json.RawMessage `json:"value,omitempty"`

	ID   string `json:"id,omitempty"`   // ref.id
	Name string `json:"name,omitempty"` // var/call/airRef/let/predicate.name

	NS   string   `json:"ns,omitempty"`   // call/airRef.ns
	Args []string `json:"args,omitempty"` // call/airRef/callExpr/effect.args

	Cond string `json:"cond,omitempty"` // if/while/for.cond
	Then string `json:"then,omitempty"` // if.then, seq.then
	Else string `json:"else,omitempty"` // if.else

	Body string `json:"body,omitempty"` // let/lambda/while/for/iter.body

	Params []string `json:"params,omitempty"` // lambda.params
	Fn     string    `json:"fn,omitempty"`     // callExpr.fn, fix.fn

	First string `json:"first,omitempty"` // seq.first

	Target string `json:"target,omitempty"` // assign/refCell/deref.target

	Var    string `json:"var,omitempty"`    // for/iter.var
	Init   string `json:"init,omitempty"`   // for.init
	Update string `json:"update,omitempty"` // for.update
	Iter   string `json:"iter,omitempty"`   // iter.iter

	Op string `json:"op,omitempty"` // effect.op

	TryBody    string `json:"tryBody,omitempty"`
	CatchParam string `json:"catchParam,omitempty"`
	CatchBody  string `json:"catchBody,omitempty"`
	Fallback   string `json:"fallback,omitempty"` // try/await/select.fallback

	Task        string `json:"task,omitempty"`        // spawn.task
	Future      string `json:"future,omitempty"`      // await.future
	Timeout     string `json:"timeout,omitempty"`     // await/select.timeout
	ReturnIndex *bool  `json:"returnIndex,omitempty"` // await/select.returnIndex

	ChannelType string `json:"channelType,omitempty"`
	BufferSize  string `json:"bufferSize,omitempty"` // channel.bufferSize, id

	Channel string `json:"channel,omitempty"` // send/recv.channel

	Futures []string `json:"futures,omitempty"` // select.futures
	Tasks   []string `json:"tasks,omitempty"`    // race.tasks
	Branches []string `json:"branches,omitempty"` // par.branches
}

// Literal decodes a lit{type,value} expression into a runtime Value. Only
// valid for Kind == KindLit.
func (e *Expr) Literal() (value.Value, error) {
	if e.Type == nil {
		return value.Value{}, errMissingField("lit.type")
	}
	return literalOfType(e.Type, e.ValueField)
}

// mapEntryWire is the wire shape of one map<K,V> literal entry: {"key":...,
// "value":...}, each side itself a nested literal value for t.Key/t.Val.
type mapEntryWire struct {
	Key   json.RawMessage `json:"key"`
	Value json.RawMessage `json:"value"`
}

// literalOfType decodes raw against t, recursing into list/set/map/option
// element types. Containers carry their element type(s) on t itself (spec.md
// §3's list<T>/set<T>/map<K,V>/option<T>), so decoding is driven entirely by
// the type, never by sniffing the JSON shape.
func literalOfType(t *value.Type, raw json.RawMessage) (value.Value, error) {
	switch t.Kind {
	case value.TBool:
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return value.Value{}, err
		}
		return value.Bool(b), nil
	case value.TInt:
		var i int64
		if err := json.Unmarshal(raw, &i); err != nil {
			return value.Value{}, err
		}
		return value.Int(i), nil
	case value.TFloat:
		var f float64
		if err := json.Unmarshal(raw, &f); err != nil {
			return value.Value{}, err
		}
		return value.Float(f), nil
	case value.TString:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return value.Value{}, err
		}
		return value.String(s), nil
	case value.TVoid:
		return value.Void(), nil
	case value.TList, value.TSet:
		if t.Elem == nil {
			return value.Value{}, errMissingField("lit.type.elem")
		}
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return value.Value{}, err
		}
		vals := make([]value.Value, len(items))
		for i, it := range items {
			v, err := literalOfType(t.Elem, it)
			if err != nil {
				return value.Value{}, err
			}
			vals[i] = v
		}
		if t.Kind == value.TSet {
			return value.NewSet(vals), nil
		}
		return value.List(vals), nil
	case value.TMap:
		if t.Key == nil || t.Val == nil {
			return value.Value{}, errMissingField("lit.type.key/val")
		}
		var entries []mapEntryWire
		if err := json.Unmarshal(raw, &entries); err != nil {
			return value.Value{}, err
		}
		out := make([]value.MapEntry, len(entries))
		for i, e := range entries {
			k, err := literalOfType(t.Key, e.Key)
			if err != nil {
				return value.Value{}, err
			}
			v, err := literalOfType(t.Val, e.Value)
			if err != nil {
				return value.Value{}, err
			}
			out[i] = value.MapEntry{Key: k, Val: v}
		}
		return value.NewMap(out), nil
	case value.TOption:
		if t.Elem == nil {
			return value.Value{}, errMissingField("lit.type.elem")
		}
		if len(raw) == 0 || string(raw) == "null" {
			return value.None(), nil
		}
		v, err := literalOfType(t.Elem, raw)
		if err != nil {
			return value.Value{}, err
		}
		return value.Some(v), nil
	default:
		return value.Value{}, errUnsupportedLiteralType(string(t.Kind))
	}
}

// ValueRef decodes the "value" field as a node-id reference, used by
// let{name,value,body}, assign{target,value}, predicate{name,value} and
// send{channel,value}.
func (e *Expr) ValueRef() (string, error) {
	var id string
	if err := json.Unmarshal(e.ValueField, &id); err != nil {
		return "", err
	}
	return id, nil
}

type fieldError struct{ field string }

func (e *fieldError) Error() string { return "expr: missing field " + e.field }

func errMissingField(field string) error { return &fieldError{field} }

type literalTypeError struct{ kind string }

func (e *literalTypeError) Error() string { return "expr: unsupported literal type " + e.kind }

func errUnsupportedLiteralType(kind string) error { return &literalTypeError{kind} }
