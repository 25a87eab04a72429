package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/smilemakc/cairs"
	"github.com/smilemakc/cairs/internal/watch"
)

// runOptions gathers everything a single `cairs <name>` invocation needs,
// assembled from flags in main.go.
type runOptions struct {
	verbose      bool
	validateOnly bool
	inputs       cairs.Value
	hasInputs    bool
	watchAddr    string // "" disables --watch
}

// runExample loads, optionally validates, and (unless validateOnly) runs
// one bundled example, returning the process exit code (spec.md §6:
// "Exit codes: 0 success, 1 evaluation or validation failure").
func runExample(cw *colorWriter, name string, opts runOptions) int {
	raw, err := loadExample(name)
	if err != nil {
		cw.fail("cairs: no such example %q: %v", name, err)
		return 1
	}

	doc, err := cairs.Load(raw)
	if err != nil {
		cw.fail("cairs: %v", err)
		return 1
	}

	vr := cairs.ValidateResult{}
	switch doc.Layer {
	case cairs.LayerAIR, "":
		vr = cairs.ValidateAIR(doc)
	case cairs.LayerCIR:
		vr = cairs.ValidateCIR(doc)
	case cairs.LayerEIR:
		vr = cairs.ValidateEIR(doc)
	case cairs.LayerLIR:
		vr = cairs.ValidateLIR(doc)
	case cairs.LayerPIR:
		vr = cairs.ValidatePIR(doc)
	}
	if !vr.Valid {
		cw.fail("validation failed for %q:", name)
		for _, e := range vr.Errors {
			cw.fail("  %s: %s", e.Path, e.Message)
		}
		return 1
	}
	if opts.verbose {
		cw.ok("validation passed for %q (layer=%s)", name, doc.Layer)
	}
	if opts.validateOnly {
		return 0
	}

	runOpts := cairs.DefaultOptions()
	runOpts.SkipValidation = true // already validated above
	if opts.hasInputs {
		runOpts.Env = cairs.EmptyEnv().WithBinding("inputs", opts.inputs)
	}

	var hub *watch.Hub
	var stopWatch chan struct{}
	if opts.watchAddr != "" {
		hub = watch.NewHub()
		stopWatch = make(chan struct{})
		go hub.Run(stopWatch)
		srv := &http.Server{Addr: opts.watchAddr, Handler: hub}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("cairs: watch server failed")
			}
		}()
		if opts.verbose {
			cw.ok("watching on ws://%s", opts.watchAddr)
		}
		defer func() {
			close(stopWatch)
			_ = srv.Close()
		}()
	}

	result := cairs.Run(doc, runOpts)

	if hub != nil {
		streamEffects(hub, result)
	}

	if result.Value.IsError() {
		cw.fail("%s", name+": "+result.Value.String())
		return 1
	}

	cw.ok("%s => %s", name, result.Value.String())
	printEffects(cw, result)
	return 0
}

// streamEffects pushes every effect entry (and the final result) from a
// completed run to connected --watch clients. A real live stream would
// need the evaluator itself to notify mid-run; this CLI pushes the whole
// recorded history once the run is done, which is enough to drive a
// browser-side replay.
func streamEffects(hub *watch.Hub, result cairs.Result) {
	if result.EffectLog != nil {
		for _, e := range result.EffectLog.GetOrdered() {
			hub.Broadcast(watch.Event{Type: "effect", Seq: e.SeqNum, TaskID: e.TaskID, Op: e.Op, Value: e.Result.String(), Timestamp: e.Timestamp})
		}
	} else if result.SyncState != nil {
		for _, e := range result.SyncState.EffectLog {
			hub.Broadcast(watch.Event{Type: "effect", Seq: uint64(e.Seq), Op: e.Op, Value: e.Result.String(), Timestamp: e.Timestamp})
		}
	}
	hub.Broadcast(watch.Event{Type: "result", Value: result.Value.String(), Timestamp: time.Now()})
	// Give the broadcast goroutine a moment to flush before the server
	// that owns the hub is torn down by the caller's deferred Close.
	time.Sleep(50 * time.Millisecond)
}

func printEffects(cw *colorWriter, result cairs.Result) {
	if result.EffectLog != nil {
		for _, e := range result.EffectLog.GetOrdered() {
			cw.Println(fmt.Sprintf("  effect[%d] task=%s op=%s", e.SeqNum, e.TaskID, e.Op))
		}
	} else if result.SyncState != nil {
		for _, e := range result.SyncState.EffectLog {
			cw.Println(fmt.Sprintf("  effect[%d] op=%s", e.Seq, e.Op))
		}
	}
}
