package effect

import (
	"sync"

	"github.com/smilemakc/cairs/internal/value"
)

// QueuedRegistry wraps Standard with a FIFO of scalar inputs served to
// successive readLine/readInt calls, draining to ""/0 once exhausted.
// Per spec.md §4.4 this is "the only mechanism for deterministic
// interactive replay".
type QueuedRegistry struct {
	*Registry
	mu     sync.Mutex
	lines  []string
	ints   []int64
}

// NewQueuedRegistry seeds the FIFO queues consumed by readLine and
// readInt respectively; all other effects behave as in Standard.
func NewQueuedRegistry(lines []string, ints []int64) *QueuedRegistry {
	qr := &QueuedRegistry{
		Registry: Standard(),
		lines:    append([]string(nil), lines...),
		ints:     append([]int64(nil), ints...),
	}

	qr.Registry.Register(Effect{Name: "readLine", Params: nil, Returns: value.TypeString(), Impl: func(args []value.Value) value.Value {
		qr.mu.Lock()
		defer qr.mu.Unlock()
		if len(qr.lines) == 0 {
			return value.String("")
		}
		next := qr.lines[0]
		qr.lines = qr.lines[1:]
		return value.String(next)
	}})
	qr.Registry.Register(Effect{Name: "readInt", Params: nil, Returns: value.TypeInt(), Impl: func(args []value.Value) value.Value {
		qr.mu.Lock()
		defer qr.mu.Unlock()
		if len(qr.ints) == 0 {
			return value.Int(0)
		}
		next := qr.ints[0]
		qr.ints = qr.ints[1:]
		return value.Int(next)
	}})

	return qr
}
