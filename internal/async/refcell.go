package async

import "github.com/smilemakc/cairs/internal/value"

// AsyncRefCell is a mutex-guarded holder of one Value (spec.md §4.8).
type AsyncRefCell struct {
	mu  AsyncMutex
	val value.Value
}

func NewAsyncRefCell(initial value.Value) *AsyncRefCell {
	return &AsyncRefCell{val: initial}
}

func (c *AsyncRefCell) Read() value.Value {
	var out value.Value
	c.mu.WithLock(func() { out = c.val })
	return out
}

func (c *AsyncRefCell) Write(v value.Value) {
	c.mu.WithLock(func() { c.val = v })
}

// Update performs an atomic read-modify-write (spec.md §5: "read-modify-
// write via update(fn) is atomic").
func (c *AsyncRefCell) Update(fn func(value.Value) value.Value) {
	c.mu.WithLock(func() { c.val = fn(c.val) })
}

// UnsafeGet reads without acquiring the lock, for diagnostics only
// (spec.md §4.8: "plus unsafe direct accessors for diagnostics").
func (c *AsyncRefCell) UnsafeGet() value.Value { return c.val }
