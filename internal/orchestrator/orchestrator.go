// Package orchestrator implements C12: parses a document, builds its
// definitions and operator/effect registries, picks the evaluator that
// matches the document's declared layer, and reduces its result node.
// Grounded in mbflow's factory.go + engine.go pairing (a thin
// "wire everything up and run" entry point sitting above the lower-level
// executor), generalized from "run a workflow" to "evaluate a document."
package orchestrator

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/smilemakc/cairs/internal/async"
	"github.com/smilemakc/cairs/internal/asyncevaluator"
	"github.com/smilemakc/cairs/internal/effect"
	"github.com/smilemakc/cairs/internal/env"
	"github.com/smilemakc/cairs/internal/evaluator"
	"github.com/smilemakc/cairs/internal/expr"
	"github.com/smilemakc/cairs/internal/lir"
	"github.com/smilemakc/cairs/internal/operator"
	"github.com/smilemakc/cairs/internal/scheduler"
	"github.com/smilemakc/cairs/internal/validate"
	"github.com/smilemakc/cairs/internal/value"
)

// Options configures a single run. Ops/Effects, when nil, default to the
// layer-standard registries. A caller-supplied Ops is merged on top of (not
// instead of) the standard operator domains; a caller-supplied Effects
// registry is used as-is, in place of the standard effect set.
type Options struct {
	Ops             *operator.Registry
	Effects         *effect.Registry
	Env             value.Environment
	SkipValidation  bool
	SyncMaxSteps    int
	AsyncMaxSteps   int
	AsyncConcurrency asyncevaluator.Concurrency
}

// DefaultOptions mirrors each evaluator's own defaults.
func DefaultOptions() Options {
	return Options{
		SyncMaxSteps:     evaluator.DefaultOptions().MaxSteps,
		AsyncMaxSteps:    asyncevaluator.DefaultOptions().MaxSteps,
		AsyncConcurrency: asyncevaluator.DefaultOptions().Concurrency,
	}
}

// Result carries the reduced value plus whatever bookkeeping the chosen
// evaluator produced, so a caller can inspect effects or the async
// machinery after the fact regardless of which evaluator actually ran.
type Result struct {
	Value        value.Value
	SyncState    *evaluator.EvalState      // set for AIR/CIR/EIR
	LIRState     *lir.State                // set for LIR
	EffectLog    *async.ConcurrentEffectLog // set for PIR
	ValidateErrs []validate.Error
}

// Load parses raw document JSON.
func Load(raw []byte) (*expr.Document, error) {
	var doc expr.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("orchestrator: invalid document JSON: %w", err)
	}
	log.Debug().Str("layer", string(doc.Layer)).Int("nodes", len(doc.Nodes)).Msg("orchestrator: document loaded")
	return &doc, nil
}

func buildDefs(doc *expr.Document) *env.Defs {
	var defs *env.Defs
	for _, d := range doc.AirDefs {
		defs = defs.RegisterDef(env.Def{NS: d.NS, Name: d.Name, Params: d.Params, Result: d.Result, Body: d.Body})
	}
	return defs
}

func mergedOps(custom *operator.Registry) *operator.Registry {
	std := operator.Standard()
	if custom == nil {
		return std
	}
	return std.Merge(custom)
}

func mergedEffects(custom *effect.Registry) *effect.Registry {
	if custom == nil {
		return effect.Standard()
	}
	return custom
}

func validateForLayer(doc *expr.Document) validate.Result {
	switch doc.Layer {
	case value.LayerAIR, "":
		return validate.ValidateAIR(doc)
	case value.LayerCIR:
		return validate.ValidateCIR(doc)
	case value.LayerEIR:
		return validate.ValidateEIR(doc)
	case value.LayerLIR:
		return validate.ValidateLIR(doc)
	case value.LayerPIR:
		return validate.ValidatePIR(doc)
	default:
		return validate.Result{Valid: false, Errors: []validate.Error{{Path: "/layer", Message: fmt.Sprintf("unknown layer %q", doc.Layer)}}}
	}
}

// Run builds the document's effective defs and registries, validates it
// (unless skipped), selects the evaluator matching doc.Layer, and reduces
// doc.Result (spec.md §4.11).
func Run(doc *expr.Document, opts Options) Result {
	if !opts.SkipValidation {
		vr := validateForLayer(doc)
		if !vr.Valid {
			return Result{Value: value.Error("ValidationError", "document failed validation", nil), ValidateErrs: vr.Errors}
		}
	}

	ops := mergedOps(opts.Ops)
	effects := mergedEffects(opts.Effects)
	defs := buildDefs(doc)

	syncMaxSteps := opts.SyncMaxSteps
	if syncMaxSteps == 0 {
		syncMaxSteps = evaluator.DefaultOptions().MaxSteps
	}
	asyncMaxSteps := opts.AsyncMaxSteps
	if asyncMaxSteps == 0 {
		asyncMaxSteps = asyncevaluator.DefaultOptions().MaxSteps
	}
	concurrency := opts.AsyncConcurrency
	if concurrency == "" {
		concurrency = asyncevaluator.DefaultOptions().Concurrency
	}

	switch doc.Layer {
	case value.LayerAIR, value.LayerCIR, value.LayerEIR, "":
		log.Debug().Str("evaluator", "sync").Str("layer", string(doc.Layer)).Msg("orchestrator: evaluator selected")
		ev := evaluator.New(doc, ops, effects, defs, opts.Env, evaluator.Options{MaxSteps: syncMaxSteps})
		v := ev.Evaluate()
		logResult(v)
		return Result{Value: v, SyncState: ev.State}

	case value.LayerLIR:
		log.Debug().Str("evaluator", "lir").Msg("orchestrator: evaluator selected")
		in := lir.New(doc, ops, effects, defs, lir.Options{MaxSteps: syncMaxSteps})
		v, st := in.Run(doc.Result, opts.Env)
		logResult(v)
		return Result{Value: v, LIRState: st}

	case value.LayerPIR:
		log.Debug().Str("evaluator", "pir").Str("concurrency", string(concurrency)).Msg("orchestrator: evaluator selected")
		sched := scheduler.NewDefault(0, 0)
		ae := asyncevaluator.New(doc, ops, effects, defs, opts.Env, asyncevaluator.Options{Concurrency: concurrency, MaxSteps: asyncMaxSteps}, sched)
		v := ae.Evaluate()
		logResult(v)
		return Result{Value: v, EffectLog: ae.EffectLog}

	default:
		return Result{Value: value.Error("ValidationError", fmt.Sprintf("unknown layer %q", doc.Layer), nil)}
	}
}

// logResult emits the orchestrator lifecycle's final event (spec.md §2.1
// "result produced"); error-kind results still log at debug since an
// error value here is an ordinary evaluation outcome, not a Go error.
func logResult(v value.Value) {
	if v.IsError() {
		log.Debug().Str("kind", string(v.Kind)).Str("code", v.Err.Code).Msg("orchestrator: result produced")
		return
	}
	log.Debug().Str("kind", string(v.Kind)).Msg("orchestrator: result produced")
}

// RunJSON is the Load+Run convenience wrapper the CLI uses.
func RunJSON(raw []byte, opts Options) (Result, error) {
	doc, err := Load(raw)
	if err != nil {
		return Result{}, err
	}
	return Run(doc, opts), nil
}
