package value

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
)

// Kind is the closed set of value tags (spec.md §3 "Values").
type Kind string

const (
	KBool    Kind = "bool"
	KInt     Kind = "int"
	KFloat   Kind = "float"
	KString  Kind = "string"
	KVoid    Kind = "void"
	KList    Kind = "list"
	KSet     Kind = "set"
	KMap     Kind = "map"
	KOption  Kind = "option"
	KClosure Kind = "closure"
	KRefCell Kind = "refCell"
	KChannel Kind = "channel"
	KFuture  Kind = "future"
	KError   Kind = "error"
)

var identitySeq uint64

func nextIdentity() uint64 {
	return atomic.AddUint64(&identitySeq, 1)
}

// Environment is the minimal read/extend surface a closure needs from its
// captured scope. package env's ValueEnv implements it; value never
// imports env, avoiding a cycle between the C1 algebra and the C3
// environments it is captured by. WithBinding mirrors ValueEnv.Extend but
// returns the interface type so callers outside package env (the
// evaluator, applying a closure) can grow an environment without knowing
// its concrete type.
type Environment interface {
	Lookup(name string) (Value, bool)
	WithBinding(name string, v Value) Environment
}

// Closure is a function value: formal parameter names, a reference to its
// body by node id (never copied, per spec.md §9 "Closures as snapshot +
// body reference"), and an immutable snapshot of the defining environment.
type Closure struct {
	Params  []string
	BodyRef string
	Env     Environment
	// Name labels closures built by `fix`. It is not read during evaluation:
	// fix resolves self-reference through Native; see evaluator's fix
	// implementation.
	Name string
	// Native, when set, is invoked directly instead of resolving BodyRef
	// to a document node. Only the evaluator's `fix` combinator builds
	// closures this way, since the recursive closure `fix` produces has
	// no body of its own in the document — it is defined purely in terms
	// of calling back into `f`.
	Native func(args []Value) Value
}

// RefCell is a mutable single-value cell (EIR+).
type RefCell struct {
	id    uuid.UUID
	Value Value
}

func NewRefCell(v Value) *RefCell {
	return &RefCell{id: uuid.New(), Value: v}
}

func (r *RefCell) ID() uuid.UUID { return r.id }

// ChannelHandle and FutureHandle are opaque runtime handles; their actual
// behavior lives in package async / package scheduler. Values here only
// carry the identity needed to look the live object up.
type ChannelHandle struct {
	ID uuid.UUID
}

type FutureHandle struct {
	ID     uuid.UUID
	Status string // "pending", "completed", "failed"
}

// ErrorInfo is the first-class error carrier (spec.md §3, §7): errors are
// values, never exceptions.
type ErrorInfo struct {
	Code    string
	Message string
	Meta    map[string]Value
}

// MapEntry is one key/value pair of a map<K,V> value. Maps are
// insertion-order-irrelevant per spec.md, so entries are kept in a slice
// for deterministic iteration; keys are deduplicated by Hash when the map
// is built, and no separate hash index is stored.
type MapEntry struct {
	Key Value
	Val Value
}

// Value is the tagged-sum runtime value. Only the fields relevant to Kind
// are populated; this mirrors the corpus's closed-enum-plus-struct
// convention (domain.VariableType / InferType in mbflow) generalized
// into a full recursive algebra.
type Value struct {
	Kind Kind

	B bool
	I int64
	F float64
	S string

	List []Value
	Set  []Value // deduplicated by Hash at construction time (NewSet)
	Map  []MapEntry

	Option *Value // nil means "none"

	Closure *Closure
	Ref     *RefCell
	Channel *ChannelHandle
	Future  *FutureHandle
	Err     *ErrorInfo

	// identity backs Hash() for compound kinds, which are not
	// content-hashable per spec.md §3 and fall back to a fresh identity
	// assigned at construction.
	identity uint64
}

func Void() Value  { return Value{Kind: KVoid} }
func Bool(b bool) Value { return Value{Kind: KBool, B: b} }
func Int(i int64) Value { return Value{Kind: KInt, I: i} }
func Float(f float64) Value { return Value{Kind: KFloat, F: f} }
func String(s string) Value { return Value{Kind: KString, S: s} }

func List(items []Value) Value {
	return Value{Kind: KList, List: items, identity: nextIdentity()}
}

// NewSet builds a set value, deduplicating items by Hash as spec.md §3
// requires ("set<T> — unordered, deduplicated by a stable hash").
func NewSet(items []Value) Value {
	seen := make(map[string]bool, len(items))
	out := make([]Value, 0, len(items))
	for _, it := range items {
		h := it.Hash()
		if seen[h] {
			continue
		}
		seen[h] = true
		out = append(out, it)
	}
	return Value{Kind: KSet, Set: out, identity: nextIdentity()}
}

// NewMap builds a map value; later entries with a colliding key hash
// overwrite earlier ones, matching ordinary map construction semantics.
func NewMap(entries []MapEntry) Value {
	byHash := make(map[string]int, len(entries))
	out := make([]MapEntry, 0, len(entries))
	for _, e := range entries {
		h := e.Key.Hash()
		if idx, ok := byHash[h]; ok {
			out[idx] = e
			continue
		}
		byHash[h] = len(out)
		out = append(out, e)
	}
	return Value{Kind: KMap, Map: out, identity: nextIdentity()}
}

func Some(v Value) Value {
	cp := v
	return Value{Kind: KOption, Option: &cp, identity: nextIdentity()}
}

func None() Value {
	return Value{Kind: KOption, Option: nil, identity: nextIdentity()}
}

func NewClosure(c *Closure) Value {
	return Value{Kind: KClosure, Closure: c, identity: nextIdentity()}
}

func NewRefCellValue(r *RefCell) Value {
	return Value{Kind: KRefCell, Ref: r, identity: nextIdentity()}
}

func NewChannelValue(h *ChannelHandle) Value {
	return Value{Kind: KChannel, Channel: h, identity: nextIdentity()}
}

func NewFutureValue(h *FutureHandle) Value {
	return Value{Kind: KFuture, Future: h, identity: nextIdentity()}
}

func Error(code, message string, meta map[string]Value) Value {
	return Value{Kind: KError, Err: &ErrorInfo{Code: code, Message: message, Meta: meta}, identity: nextIdentity()}
}

func (v Value) IsError() bool { return v.Kind == KError }

// Type returns the value's runtime type; compound element types are
// inferred from the first element where relevant, else left nil (the
// empty list/set/map/option carries no recoverable element type at
// runtime, consistent with spec.md's "types are carried in expressions
// where required" non-goal on inference).
func (v Value) Type() *Type {
	switch v.Kind {
	case KBool:
		return TypeBool()
	case KInt:
		return TypeInt()
	case KFloat:
		return TypeFloat()
	case KString:
		return TypeString()
	case KVoid:
		return TypeVoid()
	case KList:
		if len(v.List) > 0 {
			return ListOf(v.List[0].Type())
		}
		return ListOf(nil)
	case KSet:
		if len(v.Set) > 0 {
			return SetOf(v.Set[0].Type())
		}
		return SetOf(nil)
	case KMap:
		if len(v.Map) > 0 {
			return MapOf(v.Map[0].Key.Type(), v.Map[0].Val.Type())
		}
		return MapOf(nil, nil)
	case KOption:
		if v.Option != nil {
			return OptionOf(v.Option.Type())
		}
		return OptionOf(nil)
	case KClosure:
		params := make([]*Type, len(v.Closure.Params))
		return Fn(params, nil)
	case KRefCell:
		return RefOf(v.Ref.Value.Type())
	case KChannel:
		return Opaque("channel")
	case KFuture:
		return Opaque("future")
	case KError:
		return Opaque("error")
	default:
		return nil
	}
}

// Hash implements spec.md §3's value hashing rule: primitives hash to a
// prefixed textual form; compounds are not content-hashable and fall back
// to their construction-time identity, so two syntactically identical
// compound values occupy two distinct set/map slots.
func (v Value) Hash() string {
	switch v.Kind {
	case KInt:
		return "i:" + strconv.FormatInt(v.I, 10)
	case KFloat:
		return "f:" + strconv.FormatFloat(v.F, 'g', -1, 64)
	case KString:
		return "s:" + v.S
	case KBool:
		return "b:" + strconv.FormatBool(v.B)
	case KVoid:
		return "v:void"
	case KOption:
		if v.Option == nil {
			return "o:none"
		}
		return "o:some:" + v.Option.Hash()
	default:
		return "id:" + strconv.FormatUint(v.identity, 10)
	}
}

// Equal is structural equality for primitives (per the core:eq operator's
// semantics) and identity equality for compounds, matching Hash.
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		if isNumeric(a.Kind) && isNumeric(b.Kind) {
			return asFloat(a) == asFloat(b)
		}
		return false
	}
	return a.Hash() == b.Hash()
}

func isNumeric(k Kind) bool { return k == KInt || k == KFloat }

func asFloat(v Value) float64 {
	if v.Kind == KInt {
		return float64(v.I)
	}
	return v.F
}

// String renders a value for diagnostics/logging (zerolog fields, CLI
// output); not used by the evaluator's semantics.
func (v Value) String() string {
	switch v.Kind {
	case KBool:
		return strconv.FormatBool(v.B)
	case KInt:
		return strconv.FormatInt(v.I, 10)
	case KFloat:
		return strconv.FormatFloat(v.F, 'g', -1, 64)
	case KString:
		return v.S
	case KVoid:
		return "void"
	case KList:
		parts := make([]string, len(v.List))
		for i, e := range v.List {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KSet:
		parts := make([]string, len(v.Set))
		for i, e := range v.Set {
			parts[i] = e.String()
		}
		sort.Strings(parts)
		return "{" + strings.Join(parts, ", ") + "}"
	case KMap:
		parts := make([]string, len(v.Map))
		for i, e := range v.Map {
			parts[i] = fmt.Sprintf("%s: %s", e.Key.String(), e.Val.String())
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case KOption:
		if v.Option == nil {
			return "none"
		}
		return "some(" + v.Option.String() + ")"
	case KClosure:
		return fmt.Sprintf("closure(%s)", strings.Join(v.Closure.Params, ","))
	case KRefCell:
		return fmt.Sprintf("refCell(%s)", v.Ref.Value.String())
	case KChannel:
		return fmt.Sprintf("channel(%s)", v.Channel.ID)
	case KFuture:
		return fmt.Sprintf("future(%s,%s)", v.Future.ID, v.Future.Status)
	case KError:
		return fmt.Sprintf("error{%s: %s}", v.Err.Code, v.Err.Message)
	default:
		return "<unknown>"
	}
}
