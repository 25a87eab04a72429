package scheduler

import (
	"sync"

	"github.com/smilemakc/cairs/internal/value"
)

// Mode selects how a DeterministicScheduler orders task execution. Tests
// use this to pin down an otherwise nondeterministic concurrent schedule
// (spec.md §4.9).
type Mode string

const (
	ModeSequential   Mode = "sequential"
	ModeParallel     Mode = "parallel"
	ModeBreadthFirst Mode = "breadth-first"
	ModeDepthFirst   Mode = "depth-first"
)

// DeterministicScheduler runs tasks under one of four fixed orderings
// instead of the default scheduler's real concurrency, so that tests
// asserting on interleaving and effect-log order are reproducible.
type DeterministicScheduler struct {
	mu             sync.Mutex
	mode           Mode
	tasks          map[string]*taskState
	fns            map[string]func() value.Value
	order          []string // spawn order (recorded only; scheduling reads pending)
	pending        []string // not-yet-run queue; stack for depth-first
	disposed       bool
	disposedCh     chan struct{}
	globalSteps    int64
	globalMaxSteps int64
}

func NewDeterministic(mode Mode, globalMaxSteps int64) *DeterministicScheduler {
	if globalMaxSteps <= 0 {
		globalMaxSteps = 1000000
	}
	return &DeterministicScheduler{
		mode:           mode,
		tasks:          make(map[string]*taskState),
		fns:            make(map[string]func() value.Value),
		disposedCh:     make(chan struct{}),
		globalMaxSteps: globalMaxSteps,
	}
}

func (s *DeterministicScheduler) Spawn(id string, fn func() value.Value) {
	ts := newTaskState()
	s.mu.Lock()
	s.tasks[id] = ts
	s.fns[id] = fn
	s.order = append(s.order, id)
	s.pending = append(s.pending, id)
	mode := s.mode
	s.mu.Unlock()

	if mode == ModeSequential {
		s.runOne(id)
	}
}

// runOne executes fn(id) synchronously to completion, if it hasn't already
// run. Safe to call more than once for the same id.
func (s *DeterministicScheduler) runOne(id string) {
	s.mu.Lock()
	ts, ok := s.tasks[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	ts.mu.Lock()
	already := ts.completed
	ts.mu.Unlock()
	if already {
		s.mu.Unlock()
		return
	}
	fn := s.fns[id]
	s.removePending(id)
	s.mu.Unlock()

	v := fn()
	ts.finish(v)
}

func (s *DeterministicScheduler) removePending(id string) {
	out := s.pending[:0]
	for _, p := range s.pending {
		if p != id {
			out = append(out, p)
		}
	}
	s.pending = out
}

// runBatch runs every currently pending task concurrently and waits for
// all of them (breadth-first mode: "snapshot the queue, run all
// concurrently, then next batch").
func (s *DeterministicScheduler) runBatch() {
	s.mu.Lock()
	batch := make([]string, len(s.pending))
	copy(batch, s.pending)
	s.pending = nil
	s.mu.Unlock()

	var wg sync.WaitGroup
	for _, id := range batch {
		id := id
		s.mu.Lock()
		ts := s.tasks[id]
		fn := s.fns[id]
		s.mu.Unlock()
		wg.Add(1)
		go func() {
			defer wg.Done()
			v := fn()
			ts.finish(v)
		}()
	}
	wg.Wait()
}

// runStackUntil pops the depth-first stack (LIFO — the most recently
// spawned task runs next) to completion, one at a time, until target has
// completed or the stack is drained.
func (s *DeterministicScheduler) runStackUntil(target string) {
	for {
		s.mu.Lock()
		ts, ok := s.tasks[target]
		if ok {
			ts.mu.Lock()
			done := ts.completed
			ts.mu.Unlock()
			if done {
				s.mu.Unlock()
				return
			}
		}
		if len(s.pending) == 0 {
			s.mu.Unlock()
			return
		}
		next := s.pending[len(s.pending)-1]
		s.pending = s.pending[:len(s.pending)-1]
		fn := s.fns[next]
		nts := s.tasks[next]
		s.mu.Unlock()

		v := fn()
		nts.finish(v)
	}
}

func (s *DeterministicScheduler) Await(id string) value.Value {
	s.mu.Lock()
	ts, ok := s.tasks[id]
	mode := s.mode
	s.mu.Unlock()
	if !ok {
		return value.Error("UnknownDefinition", "scheduler: no task with id "+id, nil)
	}

	driven := make(chan struct{})
	go func() {
		defer close(driven)
		switch mode {
		case ModeParallel:
			s.runOne(id)
		case ModeBreadthFirst:
			for {
				ts.mu.Lock()
				done := ts.completed
				ts.mu.Unlock()
				if done {
					break
				}
				s.mu.Lock()
				empty := len(s.pending) == 0
				s.mu.Unlock()
				if empty {
					break
				}
				s.runBatch()
			}
		case ModeDepthFirst:
			s.runStackUntil(id)
		case ModeSequential:
			// already ran eagerly at Spawn time.
		}
	}()
	select {
	case <-driven:
	case <-s.disposedCh:
		return value.Error("DomainError", (&DisposedError{}).Error(), nil)
	}

	select {
	case <-ts.done:
	case <-s.disposedCh:
		return value.Error("DomainError", (&DisposedError{}).Error(), nil)
	}

	ts.mu.Lock()
	cancelled, result := ts.cancelled, ts.result
	ts.mu.Unlock()
	if cancelled {
		return value.Error("TimeoutError", (&CancelledError{TaskID: id}).Error(), nil)
	}
	return result
}

func (s *DeterministicScheduler) Cancel(id string) {
	s.mu.Lock()
	ts, ok := s.tasks[id]
	s.removePending(id)
	s.mu.Unlock()
	if !ok {
		return
	}
	ts.mu.Lock()
	ts.cancelled = true
	already := ts.completed
	ts.mu.Unlock()
	if !already {
		ts.finish(value.Void())
	}
}

func (s *DeterministicScheduler) IsComplete(id string) bool {
	s.mu.Lock()
	ts, ok := s.tasks[id]
	s.mu.Unlock()
	if !ok {
		return false
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.completed
}

func (s *DeterministicScheduler) CheckGlobalSteps() value.Value {
	s.mu.Lock()
	s.globalSteps++
	n := s.globalSteps
	max := s.globalMaxSteps
	s.mu.Unlock()
	if n > max {
		return value.Error("NonTermination", "scheduler: globalMaxSteps exceeded", nil)
	}
	return value.Void()
}

func (s *DeterministicScheduler) CurrentTaskID() string {
	return ""
}

func (s *DeterministicScheduler) ActiveTaskCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, ts := range s.tasks {
		ts.mu.Lock()
		if !ts.completed {
			n++
		}
		ts.mu.Unlock()
	}
	return n
}

func (s *DeterministicScheduler) GlobalSteps() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.globalSteps
}

// Dispose disables further polling: any in-flight or future Await call
// fails with DisposedError. Tests must call this in cleanup to prevent
// hung goroutines from a breadth-first batch that never completes.
func (s *DeterministicScheduler) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	s.disposed = true
	close(s.disposedCh)
}

func (s *DeterministicScheduler) IsDisposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}
