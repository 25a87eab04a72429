// Package scheduler implements C10: the default cooperative task
// scheduler, a deterministic scheduler for tests, and AsyncBarrier.
// Grounded in mbflow's semaphore-bounded goroutine-per-wave executor
// (internal/application/executor/engine.go's graph_executor.go wave
// dispatch) for the default scheduler's eager-spawn-and-collect shape, and
// internal/application/executor/circuit_breaker.go's explicit state-
// machine-under-mutex for the deterministic scheduler's dispose()
// lifecycle.
package scheduler

import (
	"fmt"
	"sync"

	"github.com/smilemakc/cairs/internal/value"
)

// DisposedError is returned by any in-flight or future await once a
// deterministic scheduler has been disposed (spec.md §4.9).
type DisposedError struct{}

func (e *DisposedError) Error() string { return "scheduler: disposed" }

// CancelledError is returned to awaiters of a cancelled task.
type CancelledError struct{ TaskID string }

func (e *CancelledError) Error() string { return fmt.Sprintf("scheduler: task %q cancelled", e.TaskID) }

// Scheduler is the interface both the default and deterministic
// schedulers implement (spec.md §4.9).
type Scheduler interface {
	Spawn(id string, fn func() value.Value)
	Await(id string) value.Value
	Cancel(id string)
	IsComplete(id string) bool
	CheckGlobalSteps() value.Value
	CurrentTaskID() string
	ActiveTaskCount() int
	GlobalSteps() int64
}

type taskState struct {
	mu        sync.Mutex
	done      chan struct{}
	result    value.Value
	completed bool
	cancelled bool
}

func newTaskState() *taskState {
	return &taskState{done: make(chan struct{})}
}

func (t *taskState) finish(v value.Value) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.completed {
		return
	}
	t.completed = true
	t.result = v
	close(t.done)
}
