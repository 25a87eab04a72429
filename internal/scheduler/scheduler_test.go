package scheduler

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smilemakc/cairs/internal/value"
)

func TestDefaultSchedulerReAwaitIsIdempotent(t *testing.T) {
	s := NewDefault(0, 0)
	s.Spawn("t1", func() value.Value { return value.Int(42) })
	first := s.Await("t1")
	second := s.Await("t1")
	assert.Equal(t, first, second)
	assert.Equal(t, int64(42), first.I)
	assert.True(t, s.IsComplete("t1"))
}

func TestDefaultSchedulerCancelIsBestEffort(t *testing.T) {
	s := NewDefault(0, 0)
	started := make(chan struct{})
	release := make(chan struct{})
	s.Spawn("slow", func() value.Value {
		close(started)
		<-release
		return value.Int(1)
	})
	<-started
	s.Cancel("slow")
	got := s.Await("slow")
	assert.True(t, got.IsError())
	close(release)
}

func TestDefaultSchedulerGlobalStepBudget(t *testing.T) {
	s := NewDefault(3, 100)
	require.False(t, s.CheckGlobalSteps().IsError())
	require.False(t, s.CheckGlobalSteps().IsError())
	require.False(t, s.CheckGlobalSteps().IsError())
	assert.True(t, s.CheckGlobalSteps().IsError())
}

func TestDeterministicSequentialRunsEagerlyInSpawnOrder(t *testing.T) {
	var order []string
	var mu sync.Mutex
	s := NewDeterministic(ModeSequential, 0)
	defer s.Dispose()
	for _, id := range []string{"a", "b", "c"} {
		id := id
		s.Spawn(id, func() value.Value {
			mu.Lock()
			order = append(order, id)
			mu.Unlock()
			return value.Int(0)
		})
	}
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestDeterministicParallelRunsOnlyWhenAwaited(t *testing.T) {
	ran := false
	s := NewDeterministic(ModeParallel, 0)
	defer s.Dispose()
	s.Spawn("t1", func() value.Value { ran = true; return value.Int(1) })
	assert.False(t, ran, "parallel mode must not run a task before it is awaited")
	v := s.Await("t1")
	assert.True(t, ran)
	assert.Equal(t, int64(1), v.I)
}

func TestDeterministicBreadthFirstRunsBatchConcurrently(t *testing.T) {
	s := NewDeterministic(ModeBreadthFirst, 0)
	defer s.Dispose()
	for _, id := range []string{"a", "b", "c"} {
		s.Spawn(id, func() value.Value { return value.Int(1) })
	}
	v := s.Await("b")
	assert.Equal(t, int64(1), v.I)
	assert.True(t, s.IsComplete("a"))
	assert.True(t, s.IsComplete("c"))
}

func TestDeterministicDepthFirstRunsLatestSpawnNext(t *testing.T) {
	var order []string
	s := NewDeterministic(ModeDepthFirst, 0)
	defer s.Dispose()
	for _, id := range []string{"a", "b", "c"} {
		id := id
		s.Spawn(id, func() value.Value {
			order = append(order, id)
			return value.Int(0)
		})
	}
	s.Await("a")
	assert.Equal(t, []string{"c", "b", "a"}, order)
}

func TestDeterministicDisposeFailsInFlightAwait(t *testing.T) {
	s := NewDeterministic(ModeParallel, 0)
	s.Spawn("stuck", func() value.Value {
		select {}
	})

	resultCh := make(chan value.Value, 1)
	go func() { resultCh <- s.Await("stuck") }()

	time.Sleep(10 * time.Millisecond)
	s.Dispose()

	select {
	case v := <-resultCh:
		assert.True(t, v.IsError())
	case <-time.After(time.Second):
		t.Fatal("Await did not return after Dispose")
	}
}

func TestAsyncBarrierReleasesAllWaitersOnFork(t *testing.T) {
	b := NewAsyncBarrier(3)
	var wg sync.WaitGroup
	done := make(chan struct{})
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Wait()
		}()
	}
	go func() { wg.Wait(); close(done) }()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("barrier did not release all three waiters")
	}
}

func TestAsyncBarrierResetAllowsReuse(t *testing.T) {
	b := NewAsyncBarrier(1)
	b.Wait() // immediately satisfied, count was 1
	b.Reset(2)

	done := make(chan struct{})
	go func() {
		b.Wait()
		close(done)
	}()
	select {
	case <-done:
		t.Fatal("barrier released before the reset count was reached")
	case <-time.After(20 * time.Millisecond):
	}
	b.Wait()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("barrier did not release after reaching the reset count")
	}
}
