// Package validate implements C6: the five per-layer validators. Each
// collects every problem it finds rather than aborting on the first,
// mirroring mbflow's ExecutionPlanner pre-flight checks
// (internal/application/executor/planner.go) and the cycle/edge-resolution
// passes in internal/engine/graph.go, generalized from workflow graphs to
// IR documents.
package validate

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/smilemakc/cairs/internal/expr"
	"github.com/smilemakc/cairs/internal/value"
)

// Error is one {path, message} validation finding.
type Error struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Result is {valid, errors[]}.
type Result struct {
	Valid  bool    `json:"valid"`
	Errors []Error `json:"errors"`
}

func (r *Result) add(path, format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, Error{Path: path, Message: fmt.Sprintf(format, args...)})
}

var semverPattern = regexp.MustCompile(`^\d+\.\d+\.\d+(-\w+)?$`)

// ValidateAIR validates a document declaring layer AIR.
func ValidateAIR(doc *expr.Document) Result { return validateLayer(doc, value.LayerAIR) }

// ValidateCIR validates a document declaring layer CIR.
func ValidateCIR(doc *expr.Document) Result { return validateLayer(doc, value.LayerCIR) }

// ValidateEIR validates a document declaring layer EIR.
func ValidateEIR(doc *expr.Document) Result { return validateLayer(doc, value.LayerEIR) }

// ValidatePIR validates a document declaring layer PIR.
func ValidatePIR(doc *expr.Document) Result { return validateLayer(doc, value.LayerPIR) }

// ValidateLIR validates a document of block-form nodes.
func ValidateLIR(doc *expr.Document) Result { return validateLayer(doc, value.LayerLIR) }

func validateLayer(doc *expr.Document, layer value.Layer) Result {
	res := Result{Valid: true}

	// 1. version present and semver.
	if doc.Version == "" {
		res.add("version", "MissingRequiredField: version is required")
	} else if !semverPattern.MatchString(doc.Version) {
		res.add("version", "InvalidIdFormat: version %q does not match semver pattern", doc.Version)
	}

	// 2 & 7. nodes present, each with a unique id.
	if len(doc.Nodes) == 0 {
		res.add("nodes", "MissingRequiredField: nodes must be non-empty")
	}
	seen := make(map[string]bool, len(doc.Nodes))
	index := make(map[string]*expr.Node, len(doc.Nodes))
	for i := range doc.Nodes {
		n := &doc.Nodes[i]
		path := fmt.Sprintf("nodes[%d]", i)
		if n.ID == "" {
			res.add(path+".id", "MissingRequiredField: node id is required")
			continue
		}
		if seen[n.ID] {
			res.add(path+".id", "DuplicateNodeId: duplicate node id %q", n.ID)
			continue
		}
		seen[n.ID] = true
		index[n.ID] = n
	}

	// 3. result resolves to an existing node.
	if doc.Result == "" {
		res.add("result", "MissingRequiredField: result is required")
	} else if _, ok := index[doc.Result]; !ok {
		res.add("result", "InvalidResultReference: result %q does not resolve to a node", doc.Result)
	}

	// Walk doc.Nodes (not the index map) so errors come out in document
	// order rather than Go's randomized map iteration order; duplicates
	// and nodes with no id were already reported above and are skipped
	// here via seenOnce, since index only keeps the first occurrence.
	seenOnce := make(map[string]bool, len(index))
	for i := range doc.Nodes {
		n := &doc.Nodes[i]
		if n.ID == "" || seenOnce[n.ID] || index[n.ID] != n {
			continue
		}
		seenOnce[n.ID] = true
		path := fmt.Sprintf("nodes[%s]", n.ID)
		if n.IsBlockForm() {
			validateBlockNode(&res, path, n, layer, index)
		} else if n.Expr != nil {
			validateExprNode(&res, path, n.Expr, index, layer)
		} else {
			res.add(path, "InvalidExprFormat: node has neither expr nor blocks")
		}
	}

	sort.Slice(res.Errors, func(i, j int) bool {
		if res.Errors[i].Path != res.Errors[j].Path {
			return res.Errors[i].Path < res.Errors[j].Path
		}
		return res.Errors[i].Message < res.Errors[j].Message
	})

	return res
}

// idRefsOf returns the ids referenced by e so the caller can resolve them
// against the document's node index (spec.md §4.5 check 4).
func idRefsOf(e *expr.Expr) []string {
	var refs []string
	add := func(ids ...string) {
		for _, id := range ids {
			if id != "" {
				refs = append(refs, id)
			}
		}
	}
	switch e.Kind {
	case expr.KindRef:
		add(e.ID)
	case expr.KindCall, expr.KindAirRef:
		add(e.Args...)
	case expr.KindIf:
		add(e.Cond, e.Then, e.Else)
	case expr.KindLet:
		add(e.Body)
		if id, err := e.ValueRef(); err == nil {
			add(id)
		}
	case expr.KindPredicate:
		if id, err := e.ValueRef(); err == nil {
			add(id)
		}
	case expr.KindLambda:
		add(e.Body)
	case expr.KindCallExpr:
		add(e.Fn)
		add(e.Args...)
	case expr.KindFix:
		add(e.Fn)
	case expr.KindSeq:
		add(e.First, e.Then)
	case expr.KindAssign:
		if id, err := e.ValueRef(); err == nil {
			add(id)
		}
	case expr.KindWhile:
		add(e.Cond, e.Body)
	case expr.KindFor:
		add(e.Init, e.Cond, e.Update, e.Body)
	case expr.KindIter:
		add(e.Iter, e.Body)
	case expr.KindEffect:
		add(e.Args...)
	case expr.KindTry:
		add(e.TryBody, e.CatchBody, e.Fallback)
	case expr.KindSpawn:
		add(e.Task)
	case expr.KindAwait:
		add(e.Future, e.Timeout, e.Fallback)
	case expr.KindChannel:
		add(e.BufferSize)
	case expr.KindSend:
		add(e.Channel)
		if id, err := e.ValueRef(); err == nil {
			add(id)
		}
	case expr.KindRecv:
		add(e.Channel)
	case expr.KindSelect:
		add(e.Futures...)
		add(e.Timeout, e.Fallback)
	case expr.KindRace:
		add(e.Tasks...)
	case expr.KindPar:
		add(e.Branches...)
	}
	return refs
}

func validateExprNode(res *Result, path string, e *expr.Expr, index map[string]*expr.Node, layer value.Layer) {
	// 5. expression kind legal for this layer.
	if !e.Kind.LegalForLayer(layer) {
		res.add(path+".kind", "InvalidExprFormat: kind %q is not legal for layer %s", e.Kind, layer)
	}
	// 4. every id reference resolves, except lambda param names, which
	// are names bound at call time, not node ids (known CIR quirk, not a
	// validation failure per spec.md §4.5).
	for _, id := range idRefsOf(e) {
		if _, ok := index[id]; !ok {
			res.add(path, "CyclicReference: reference %q does not resolve to a node", id)
		}
	}
}

func validateBlockNode(res *Result, path string, n *expr.Node, layer value.Layer, index map[string]*expr.Node) {
	if n.Entry == "" {
		res.add(path+".entry", "MissingRequiredField: block-form node requires entry")
		return
	}
	blocks := make(map[string]*expr.Block, len(n.Blocks))
	for i := range n.Blocks {
		blocks[n.Blocks[i].ID] = &n.Blocks[i]
	}
	// 6. entry resolves.
	if _, ok := blocks[n.Entry]; !ok {
		res.add(path+".entry", "InvalidResultReference: entry %q does not resolve to a block", n.Entry)
	}
	for bid, b := range blocks {
		bpath := fmt.Sprintf("%s.blocks[%s]", path, bid)
		for ii, instr := range b.Instructions {
			ipath := fmt.Sprintf("%s.instructions[%d]", bpath, ii)
			switch instr.Kind {
			case expr.InstrPhi:
				for _, src := range instr.Sources {
					if _, ok := blocks[src.Block]; !ok {
						res.add(ipath, "CyclicReference: phi source block %q not in this block set", src.Block)
					}
					// src.ID names a local bound by some instruction's
					// target, or an input-environment binding (package
					// lir's runInstruction falls back to st.Eval.Env for
					// exactly this case) — not a document node id, so it
					// isn't statically resolvable here any more than a
					// bare var node's name is in validateExprNode.
				}
			case expr.InstrAssign, expr.InstrAssignRef:
				// value is a genuine embedded sub-expression (spec.md §4.7
				// "assign{target, value:Expr}"), not a bare name — its own
				// internal id-references resolve against the document's
				// node table exactly like an expression-form node's.
				if instr.Value != nil {
					validateExprNode(res, ipath+".value", instr.Value, index, layer)
				}
			case expr.InstrOp, expr.InstrEffect, expr.InstrCall:
				// Args name locals or input-environment bindings, same as
				// phi's Source.ID above — not document node ids.
			}
		}
		validateTerminator(res, bpath+".terminator", b.Terminator, blocks, layer)
	}
}

func validateTerminator(res *Result, path string, t expr.Terminator, blocks map[string]*expr.Block, layer value.Layer) {
	switch t.Kind {
	case expr.TermJump:
		if _, ok := blocks[t.To]; !ok {
			res.add(path, "InvalidResultReference: jump target %q not in this block set", t.To)
		}
	case expr.TermBranch:
		if _, ok := blocks[t.Then]; !ok {
			res.add(path, "InvalidResultReference: branch then-target %q not in this block set", t.Then)
		}
		if _, ok := blocks[t.Else]; !ok {
			res.add(path, "InvalidResultReference: branch else-target %q not in this block set", t.Else)
		}
	case expr.TermReturn, expr.TermExit:
		// value/code name a local or an input-environment binding (see
		// package lir's dispatchTerminator, which falls back from
		// st.Locals to st.Eval.Env exactly as op/effect/call args do),
		// not a document node id — nothing here is statically resolvable.
	case expr.TermFork:
		if layer != value.LayerPIR {
			res.add(path, "InvalidExprFormat: fork terminator is only legal for PIR-layer LIR")
		}
		for _, b := range t.Branches {
			if _, ok := blocks[b]; !ok {
				res.add(path, "InvalidResultReference: fork branch %q not in this block set", b)
			}
		}
		if _, ok := blocks[t.Continuation]; !ok {
			res.add(path, "InvalidResultReference: fork continuation %q not in this block set", t.Continuation)
		}
	case expr.TermSuspend:
		if layer != value.LayerPIR {
			res.add(path, "InvalidExprFormat: suspend terminator is only legal for PIR-layer LIR")
		}
		if _, ok := blocks[t.ResumeBlock]; !ok {
			res.add(path, "InvalidResultReference: suspend resumeBlock %q not in this block set", t.ResumeBlock)
		}
	default:
		res.add(path, "InvalidExprFormat: unknown terminator kind %q", t.Kind)
	}
}
