package async

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/smilemakc/cairs/internal/value"
)

// LogEntry is one {taskId, seqNum, timestamp, effect} record.
type LogEntry struct {
	TaskID    string
	SeqNum    uint64
	Timestamp time.Time
	Op        string
	Args      []value.Value
	Result    value.Value
	Err       error
}

// ConcurrentEffectLog is an append-only, internally serialized effect log
// with monotonically assigned sequence numbers (spec.md §4.8, §5 "effect
// log sequence numbers establish a total order across all logged effects
// regardless of task").
type ConcurrentEffectLog struct {
	mu      sync.RWMutex
	seq     uint64
	entries []LogEntry
}

func NewConcurrentEffectLog() *ConcurrentEffectLog {
	return &ConcurrentEffectLog{}
}

func (l *ConcurrentEffectLog) nextSeq() uint64 {
	return atomic.AddUint64(&l.seq, 1) - 1
}

func (l *ConcurrentEffectLog) Append(taskID, op string, args []value.Value, result value.Value) LogEntry {
	l.mu.Lock()
	e := LogEntry{TaskID: taskID, SeqNum: l.nextSeq(), Timestamp: time.Now(), Op: op, Args: args, Result: result}
	l.entries = append(l.entries, e)
	l.mu.Unlock()
	return e
}

func (l *ConcurrentEffectLog) AppendWithResult(taskID, op string, args []value.Value, result value.Value) LogEntry {
	return l.Append(taskID, op, args, result)
}

func (l *ConcurrentEffectLog) AppendWithError(taskID, op string, args []value.Value, err error) LogEntry {
	l.mu.Lock()
	e := LogEntry{TaskID: taskID, SeqNum: l.nextSeq(), Timestamp: time.Now(), Op: op, Args: args, Err: err}
	l.entries = append(l.entries, e)
	l.mu.Unlock()
	return e
}

// GetOrdered returns all entries ordered by SeqNum (append order already
// satisfies this, but callers should not rely on that implementation
// detail).
func (l *ConcurrentEffectLog) GetOrdered() []LogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]LogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *ConcurrentEffectLog) GetByTask(taskID string) []LogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []LogEntry
	for _, e := range l.entries {
		if e.TaskID == taskID {
			out = append(out, e)
		}
	}
	return out
}

// DiscardTask removes every entry for taskID (e.g. on cancellation).
func (l *ConcurrentEffectLog) DiscardTask(taskID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.entries[:0]
	for _, e := range l.entries {
		if e.TaskID != taskID {
			out = append(out, e)
		}
	}
	l.entries = out
}

// Stats is per-op, per-task occurrence counts.
type Stats struct {
	ByTask map[string]int
	ByOp   map[string]int
}

func (l *ConcurrentEffectLog) GetStats() Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s := Stats{ByTask: make(map[string]int), ByOp: make(map[string]int)}
	for _, e := range l.entries {
		s.ByTask[e.TaskID]++
		s.ByOp[e.Op]++
	}
	return s
}
