// Package async implements C9: the async channel, mutex, ref cell, and
// effect log primitives backing the PIR evaluator. Grounded in mbflow's
// internal/infrastructure/websocket connection registry (a
// mutex-guarded set of receivers with FIFO broadcast) and
// internal/application/executor/circuit_breaker.go's state-machine-under-
// mutex style, generalized from "broadcast a websocket frame" to "hand off
// a Value between cooperating tasks."
package async

import (
	"fmt"
	"sync"

	"github.com/smilemakc/cairs/internal/value"
)

// ChannelType is advisory metadata for the type system (spec.md §4.8).
type ChannelType string

const (
	SPSC      ChannelType = "spsc"
	MPSC      ChannelType = "mpsc"
	MPMC      ChannelType = "mpmc"
	Broadcast ChannelType = "broadcast"
)

// ClosedError is returned by send/recv once a channel is closed and
// drained.
type ClosedError struct{ Op string }

func (e *ClosedError) Error() string { return fmt.Sprintf("async: channel closed during %s", e.Op) }

type waiter struct {
	done chan struct{}
	v    value.Value // recv: filled in by the wake path; send: the pending value
	err  error
}

// AsyncChannel is a bounded, FIFO-fair hand-off buffer of Values. All
// methods are internally serialized (spec.md §5 "AsyncChannel is
// internally serialized").
type AsyncChannel struct {
	mu          sync.Mutex
	channelType ChannelType
	capacity    int
	buf         []value.Value
	closed      bool

	recvQueue []*waiter // FIFO queue of blocked receivers
	sendQueue []*waiter // FIFO queue of blocked senders, paired with pending value

	// broadcastSubs holds one queue per registered receiver for
	// Broadcast-type channels, which deliver each sent value to every
	// currently registered receiver rather than to a single one.
	broadcastSubs []*AsyncChannel
}

// NewAsyncChannel constructs a channel. Capacity must be non-negative;
// spec.md §4.8: "negative -> immediate error at construction" is enforced
// by returning an error rather than panicking.
func NewAsyncChannel(channelType ChannelType, capacity int) (*AsyncChannel, error) {
	if capacity < 0 {
		return nil, fmt.Errorf("async: channel capacity must be non-negative, got %d", capacity)
	}
	return &AsyncChannel{channelType: channelType, capacity: capacity}, nil
}

func (c *AsyncChannel) GetCapacity() int { return c.capacity }

func (c *AsyncChannel) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *AsyncChannel) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buf)
}

// Send delivers v, blocking if the buffer is full and no receiver is
// currently waiting (spec.md §4.8: direct hand-off / buffered / blocking).
func (c *AsyncChannel) Send(v value.Value) error {
	c.mu.Lock()
	if c.channelType == Broadcast {
		// sendBroadcast takes over unlocking c.mu; it must be the only
		// path taken once channelType == Broadcast.
		return c.sendBroadcast(v)
	}
	if c.closed {
		c.mu.Unlock()
		return &ClosedError{Op: "send"}
	}
	if len(c.recvQueue) > 0 {
		w := c.recvQueue[0]
		c.recvQueue = c.recvQueue[1:]
		w.v = v
		close(w.done)
		c.mu.Unlock()
		return nil
	}
	if len(c.buf) < c.capacity {
		c.buf = append(c.buf, v)
		c.mu.Unlock()
		return nil
	}
	w := &waiter{done: make(chan struct{}), v: v}
	c.sendQueue = append(c.sendQueue, w)
	c.mu.Unlock()
	<-w.done
	return w.err
}

func (c *AsyncChannel) sendBroadcast(v value.Value) error {
	subs := append([]*AsyncChannel(nil), c.broadcastSubs...)
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return &ClosedError{Op: "send"}
	}
	for _, sub := range subs {
		_ = sub.Send(v)
	}
	return nil
}

// Subscribe registers a new receiver on a Broadcast-type channel; only
// meaningful for channelType == Broadcast.
func (c *AsyncChannel) Subscribe(capacity int) (*AsyncChannel, error) {
	sub, err := NewAsyncChannel(MPSC, capacity)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.broadcastSubs = append(c.broadcastSubs, sub)
	c.mu.Unlock()
	return sub, nil
}

// Recv removes and returns the next value, blocking until one is
// available or the channel is closed and drained.
func (c *AsyncChannel) Recv() (value.Value, error) {
	c.mu.Lock()
	if len(c.buf) > 0 {
		v := c.buf[0]
		c.buf = c.buf[1:]
		c.wakeOneSenderLocked()
		c.mu.Unlock()
		return v, nil
	}
	if len(c.sendQueue) > 0 {
		w := c.sendQueue[0]
		c.sendQueue = c.sendQueue[1:]
		close(w.done)
		c.mu.Unlock()
		return w.v, nil
	}
	if c.closed {
		c.mu.Unlock()
		return value.Value{}, &ClosedError{Op: "recv"}
	}
	w := &waiter{done: make(chan struct{})}
	c.recvQueue = append(c.recvQueue, w)
	c.mu.Unlock()
	<-w.done
	if w.err != nil {
		return value.Value{}, w.err
	}
	return w.v, nil
}

// wakeOneSenderLocked grants the buffer slot just freed to the
// longest-waiting blocked sender, if any, by appending its pending value
// and releasing it. Caller holds c.mu.
func (c *AsyncChannel) wakeOneSenderLocked() {
	if len(c.sendQueue) == 0 {
		return
	}
	w := c.sendQueue[0]
	c.sendQueue = c.sendQueue[1:]
	c.buf = append(c.buf, w.v)
	close(w.done)
}

// TrySend attempts a non-blocking send; returns false if it would block.
func (c *AsyncChannel) TrySend(v value.Value) (bool, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false, &ClosedError{Op: "send"}
	}
	if len(c.recvQueue) > 0 {
		w := c.recvQueue[0]
		c.recvQueue = c.recvQueue[1:]
		w.v = v
		close(w.done)
		c.mu.Unlock()
		return true, nil
	}
	if len(c.buf) < c.capacity {
		c.buf = append(c.buf, v)
		c.mu.Unlock()
		return true, nil
	}
	c.mu.Unlock()
	return false, nil
}

// TryRecv attempts a non-blocking receive; returns false if nothing is
// available.
func (c *AsyncChannel) TryRecv() (value.Value, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.buf) > 0 {
		v := c.buf[0]
		c.buf = c.buf[1:]
		c.wakeOneSenderLocked()
		return v, true, nil
	}
	if c.closed {
		return value.Value{}, false, &ClosedError{Op: "recv"}
	}
	return value.Value{}, false, nil
}

// Close rejects all current and future waiters; already-buffered values
// remain receivable until drained (spec.md §4.8).
func (c *AsyncChannel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	for _, w := range c.recvQueue {
		w.err = &ClosedError{Op: "recv"}
		close(w.done)
	}
	c.recvQueue = nil
	for _, w := range c.sendQueue {
		w.err = &ClosedError{Op: "send"}
		close(w.done)
	}
	c.sendQueue = nil
}
