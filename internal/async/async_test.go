package async

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smilemakc/cairs/internal/value"
)

func TestChannelProducerConsumer(t *testing.T) {
	ch, err := NewAsyncChannel(SPSC, 1)
	require.NoError(t, err)
	require.NoError(t, ch.Send(value.Int(42)))
	got, err := ch.Recv()
	require.NoError(t, err)
	assert.Equal(t, value.Int(42), got)
}

func TestChannelNegativeCapacityErrors(t *testing.T) {
	_, err := NewAsyncChannel(SPSC, -1)
	assert.Error(t, err)
}

func TestChannelBlockingSendUnblocksOnRecv(t *testing.T) {
	ch, _ := NewAsyncChannel(SPSC, 0)
	done := make(chan error, 1)
	go func() { done <- ch.Send(value.Int(7)) }()

	time.Sleep(10 * time.Millisecond) // give the sender time to block
	got, err := ch.Recv()
	require.NoError(t, err)
	assert.Equal(t, value.Int(7), got)
	require.NoError(t, <-done)
}

func TestChannelCloseDrainsThenErrors(t *testing.T) {
	ch, _ := NewAsyncChannel(SPSC, 2)
	require.NoError(t, ch.Send(value.Int(1)))
	ch.Close()

	got, err := ch.Recv()
	require.NoError(t, err)
	assert.Equal(t, value.Int(1), got)

	_, err = ch.Recv()
	require.Error(t, err)
}

func TestChannelSizeInvariant(t *testing.T) {
	ch, _ := NewAsyncChannel(MPMC, 3)
	for i := 0; i < 3; i++ {
		require.NoError(t, ch.Send(value.Int(int64(i))))
	}
	assert.Equal(t, 3, ch.Size())
	ok, err := ch.TrySend(value.Int(99))
	require.NoError(t, err)
	assert.False(t, ok, "a full channel with no waiting receiver must reject TrySend")
}

func TestMutexWithLockReleasesOnPanic(t *testing.T) {
	m := NewAsyncMutex()
	func() {
		defer func() { recover() }()
		m.WithLock(func() { panic("boom") })
	}()
	acquired := make(chan struct{})
	go func() { m.Acquire(); close(acquired) }()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("mutex was not released after a panic inside WithLock")
	}
}

func TestAsyncRefCellUpdateIsAtomic(t *testing.T) {
	cell := NewAsyncRefCell(value.Int(0))
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cell.Update(func(v value.Value) value.Value { return value.Int(v.I + 1) })
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(100), cell.Read().I)
}

func TestEffectLogSeqNumsStrictlyIncreasing(t *testing.T) {
	log := NewConcurrentEffectLog()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			log.Append("t1", "print", nil, value.Void())
		}(i)
	}
	wg.Wait()
	entries := log.GetOrdered()
	require.Len(t, entries, 50)
	seen := make(map[uint64]bool)
	for _, e := range entries {
		assert.False(t, seen[e.SeqNum], "sequence numbers must be unique")
		seen[e.SeqNum] = true
	}
}

func TestChannelStoreDeleteClosesChannel(t *testing.T) {
	store := NewChannelStore()
	ch, err := store.GetOrCreate("ch_0", SPSC, 1)
	require.NoError(t, err)
	assert.True(t, store.Delete("ch_0"))
	assert.True(t, ch.IsClosed())
	assert.False(t, store.Delete("ch_0"), "deleting twice reports no-op")
}
