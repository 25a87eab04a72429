// Package cairs is the root facade over the internal IR stack: value/type
// algebra, the AIR/CIR/EIR/LIR/PIR expression forms, the operator/effect
// registries, and the document-level orchestrator. It re-exports the pieces
// a caller needs to load a document and run it without reaching into
// internal/*, mirroring mbflow's mbflow.go facade (type aliases plus a
// handful of small wrapper functions).
package cairs

import (
	"github.com/smilemakc/cairs/internal/async"
	"github.com/smilemakc/cairs/internal/asyncevaluator"
	"github.com/smilemakc/cairs/internal/effect"
	"github.com/smilemakc/cairs/internal/env"
	"github.com/smilemakc/cairs/internal/evaluator"
	"github.com/smilemakc/cairs/internal/expr"
	"github.com/smilemakc/cairs/internal/lir"
	"github.com/smilemakc/cairs/internal/operator"
	"github.com/smilemakc/cairs/internal/orchestrator"
	"github.com/smilemakc/cairs/internal/scheduler"
	"github.com/smilemakc/cairs/internal/validate"
	"github.com/smilemakc/cairs/internal/value"
)

// Value is a single reduced value: the tagged sum over bool/int/float/
// string/list/set/option/map/closure/ref-cell/channel/future/error.
type Value = value.Value

// Kind tags a Value's variant.
type Kind = value.Kind

// Kind constants, re-exported so callers can switch on a Value's Kind
// without importing internal/value directly.
const (
	KBool    = value.KBool
	KInt     = value.KInt
	KFloat   = value.KFloat
	KString  = value.KString
	KList    = value.KList
	KSet     = value.KSet
	KOption  = value.KOption
	KMap     = value.KMap
	KClosure = value.KClosure
	KRefCell = value.KRefCell
	KChannel = value.KChannel
	KFuture  = value.KFuture
	KVoid    = value.KVoid
	KError   = value.KError
)

// Value constructors, re-exported so callers can build bindings (e.g. for
// Options.Env) without importing internal/value directly.
func Void() Value                 { return value.Void() }
func Bool(b bool) Value           { return value.Bool(b) }
func Int(i int64) Value           { return value.Int(i) }
func Float(f float64) Value       { return value.Float(f) }
func String(s string) Value       { return value.String(s) }
func List(items []Value) Value    { return value.List(items) }
func NewSet(items []Value) Value  { return value.NewSet(items) }

// ErrorValue builds an error-kind Value (the carrier used throughout the
// evaluator's error-as-values path, not a Go error).
func ErrorValue(code, message string, meta map[string]Value) Value {
	return value.Error(code, message, meta)
}

// Type is a value's static type tag, carried on literal nodes.
type Type = value.Type

// Layer identifies which IR layer a document belongs to: AIR, CIR, EIR,
// LIR, or PIR. Each layer is a strict superset of the expression kinds
// legal in the one below it (LIR and PIR both build on EIR, orthogonally).
type Layer = value.Layer

// Layer constants.
const (
	LayerAIR = value.LayerAIR
	LayerCIR = value.LayerCIR
	LayerEIR = value.LayerEIR
	LayerLIR = value.LayerLIR
	LayerPIR = value.LayerPIR
)

// Document is a parsed IR document: a node table, an optional AIR
// definition table, and a result node id to reduce.
type Document = expr.Document

// Node is one entry in a document's node table — either an expression form
// or, for LIR, a block-form node (a CFG of basic blocks).
type Node = expr.Node

// Expr is a single expression node's payload (its kind plus kind-specific
// fields).
type Expr = expr.Expr

// Def is an AIR-level named definition (params, body, optional result
// type), looked up via "ns:name" airRef calls.
type Def = expr.Def

// Environment is a persistent, immutable-extend variable binding scope.
type Environment = value.Environment

// EmptyEnv returns an empty Environment suitable as Options.Env or as the
// base of a caller-built binding chain.
func EmptyEnv() Environment { return env.EmptyValueEnv() }

// Defs holds a document's AIR-level named definitions, keyed by ns:name.
type Defs = env.Defs

// OperatorRegistry resolves "ns:name" operator calls to Go implementations.
type OperatorRegistry = operator.Registry

// StandardOperators returns the built-in operator domains (core/bool/
// list/set), the default merged into every orchestrator run.
func StandardOperators() *OperatorRegistry { return operator.Standard() }

// EffectRegistry resolves named effect operations (print, readLine, ...).
type EffectRegistry = effect.Registry

// StandardEffects returns the built-in effect set.
func StandardEffects() *EffectRegistry { return effect.Standard() }

// EvalState is the synchronous evaluator's post-run bookkeeping: final
// environment, step count, and effect log.
type EvalState = evaluator.EvalState

// LIRState is the block interpreter's post-run bookkeeping.
type LIRState = lir.State

// ConcurrentEffectLog is the PIR evaluator's thread-safe, task-tagged
// effect log.
type ConcurrentEffectLog = async.ConcurrentEffectLog

// Concurrency selects how an async evaluator runs race/par branches.
type Concurrency = asyncevaluator.Concurrency

// Concurrency constants.
const (
	Sequential  = asyncevaluator.Sequential
	Parallel    = asyncevaluator.Parallel
	Speculative = asyncevaluator.Speculative
)

// Scheduler abstracts task spawn/await/cancel over the async evaluator.
type Scheduler = scheduler.Scheduler

// NewScheduler returns the real goroutine-backed scheduler used by default
// when running PIR documents (0 picks the default step budget/yield
// interval).
func NewScheduler(globalMaxSteps, yieldInterval int64) Scheduler {
	return scheduler.NewDefault(globalMaxSteps, yieldInterval)
}

// DeterministicMode selects a replayable scheduler's fork/join discipline.
type DeterministicMode = scheduler.Mode

// DeterministicMode constants.
const (
	ModeSequential   = scheduler.ModeSequential
	ModeParallel     = scheduler.ModeParallel
	ModeBreadthFirst = scheduler.ModeBreadthFirst
	ModeDepthFirst   = scheduler.ModeDepthFirst
)

// NewDeterministicScheduler returns a scheduler whose spawn/await ordering
// follows one fixed discipline, for reproducible tests.
func NewDeterministicScheduler(mode DeterministicMode, globalMaxSteps int64) *scheduler.DeterministicScheduler {
	return scheduler.NewDeterministic(mode, globalMaxSteps)
}

// ValidateError is one validator finding: a JSON-pointer-ish path plus a
// human-readable message.
type ValidateError = validate.Error

// ValidateResult is a validator's full verdict.
type ValidateResult = validate.Result

// ValidateAIR/ValidateCIR/ValidateEIR/ValidateLIR/ValidatePIR check a
// document against the structural and type rules of the named layer,
// without reducing anything.
func ValidateAIR(doc *Document) ValidateResult { return validate.ValidateAIR(doc) }
func ValidateCIR(doc *Document) ValidateResult { return validate.ValidateCIR(doc) }
func ValidateEIR(doc *Document) ValidateResult { return validate.ValidateEIR(doc) }
func ValidateLIR(doc *Document) ValidateResult { return validate.ValidateLIR(doc) }
func ValidatePIR(doc *Document) ValidateResult { return validate.ValidatePIR(doc) }

// Options configures a single Run/RunJSON call: a caller-supplied operator
// registry (merged on top of the standard one) and effect registry (used in
// place of the standard one), an input
// environment, validation/step-budget overrides, and the async concurrency
// mode.
type Options = orchestrator.Options

// DefaultOptions mirrors each evaluator's own built-in defaults.
func DefaultOptions() Options { return orchestrator.DefaultOptions() }

// Result carries a run's reduced value plus whichever evaluator's
// bookkeeping actually ran (SyncState for AIR/CIR/EIR, LIRState for LIR,
// EffectLog for PIR), and any validation errors that short-circuited the run.
type Result = orchestrator.Result

// Load parses raw document JSON.
func Load(raw []byte) (*Document, error) { return orchestrator.Load(raw) }

// Run validates (unless Options.SkipValidation), selects the evaluator
// matching doc.Layer, and reduces doc.Result.
func Run(doc *Document, opts Options) Result { return orchestrator.Run(doc, opts) }

// RunJSON is the Load+Run convenience wrapper the CLI uses.
func RunJSON(raw []byte, opts Options) (Result, error) { return orchestrator.RunJSON(raw, opts) }
