package scheduler

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/smilemakc/cairs/internal/value"
)

// DefaultScheduler spawns tasks eagerly as goroutines; await is cached and
// idempotent; a global step budget bounds total work across all tasks
// (spec.md §4.9).
type DefaultScheduler struct {
	mu             sync.Mutex
	tasks          map[string]*taskState
	globalSteps    int64
	globalMaxSteps int64
	yieldInterval  int64
	current        string
	activeCount    int32
}

// NewDefault builds a default scheduler. globalMaxSteps defaults to
// 1 000 000 and yieldInterval to 100 when zero (spec.md §4.9).
func NewDefault(globalMaxSteps, yieldInterval int64) *DefaultScheduler {
	if globalMaxSteps <= 0 {
		globalMaxSteps = 1000000
	}
	if yieldInterval <= 0 {
		yieldInterval = 100
	}
	return &DefaultScheduler{
		tasks:          make(map[string]*taskState),
		globalMaxSteps: globalMaxSteps,
		yieldInterval:  yieldInterval,
	}
}

func (s *DefaultScheduler) Spawn(id string, fn func() value.Value) {
	ts := newTaskState()
	s.mu.Lock()
	s.tasks[id] = ts
	s.mu.Unlock()
	log.Debug().Str("taskId", id).Msg("scheduler: task spawned")

	atomic.AddInt32(&s.activeCount, 1)
	go func() {
		defer atomic.AddInt32(&s.activeCount, -1)
		s.mu.Lock()
		s.current = id
		s.mu.Unlock()
		v := fn()
		ts.finish(v)
		log.Debug().Str("taskId", id).Bool("error", v.IsError()).Msg("scheduler: task completed")
	}()
}

func (s *DefaultScheduler) Await(id string) value.Value {
	s.mu.Lock()
	ts, ok := s.tasks[id]
	s.mu.Unlock()
	if !ok {
		return value.Error("UnknownDefinition", "scheduler: no task with id "+id, nil)
	}
	<-ts.done
	ts.mu.Lock()
	cancelled, result := ts.cancelled, ts.result
	ts.mu.Unlock()
	if cancelled {
		return value.Error("TimeoutError", (&CancelledError{TaskID: id}).Error(), nil)
	}
	return result
}

// Cancel marks id cancelled; per spec.md §5 this is best-effort — the
// underlying goroutine keeps running, but awaiters see a cancelled error
// from this point on.
func (s *DefaultScheduler) Cancel(id string) {
	s.mu.Lock()
	ts, ok := s.tasks[id]
	s.mu.Unlock()
	if !ok {
		return
	}
	ts.mu.Lock()
	ts.cancelled = true
	alreadyDone := ts.completed
	ts.mu.Unlock()
	log.Debug().Str("taskId", id).Msg("scheduler: task cancelled")
	if !alreadyDone {
		ts.finish(value.Void())
	}
}

func (s *DefaultScheduler) IsComplete(id string) bool {
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

// CheckGlobalSteps increments the shared step counter and yields the
// scheduler to other goroutines every yieldInterval steps (spec.md §4.9).
func (s *DefaultScheduler) CheckGlobalSteps() value.Value {
	n := atomic.AddInt64(&s.globalSteps, 1)
	if n > s.globalMaxSteps {
		return value.Error("NonTermination", "scheduler: globalMaxSteps exceeded", nil)
	}
	if n%s.yieldInterval == 0 {
		runtime.Gosched()
	}
	return value.Void()
}

func (s *DefaultScheduler) CurrentTaskID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *DefaultScheduler) ActiveTaskCount() int {
	return int(atomic.LoadInt32(&s.activeCount))
}

func (s *DefaultScheduler) GlobalSteps() int64 {
	return atomic.LoadInt64(&s.globalSteps)
}
