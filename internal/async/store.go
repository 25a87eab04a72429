package async

import (
	"sync"

	"github.com/smilemakc/cairs/internal/value"
)

// ChannelStore is a named collection of channels with get-or-create,
// delete (closing the channel), clear, and size.
type ChannelStore struct {
	mu       sync.Mutex
	channels map[string]*AsyncChannel
}

func NewChannelStore() *ChannelStore {
	return &ChannelStore{channels: make(map[string]*AsyncChannel)}
}

// Get looks up an existing channel without creating one.
func (s *ChannelStore) Get(id string) (*AsyncChannel, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.channels[id]
	return c, ok
}

func (s *ChannelStore) GetOrCreate(id string, channelType ChannelType, capacity int) (*AsyncChannel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.channels[id]; ok {
		return c, nil
	}
	c, err := NewAsyncChannel(channelType, capacity)
	if err != nil {
		return nil, err
	}
	s.channels[id] = c
	return c, nil
}

// Delete closes and removes the channel id. Reports whether anything was
// removed — a reimplementation should not reproduce the deterministic
// scheduler's original size()-path bug where deletion ignored its own
// existence check (spec.md §9 open question); this deletes by id and
// reports success honestly.
func (s *ChannelStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.channels[id]
	if !ok {
		return false
	}
	c.Close()
	delete(s.channels, id)
	return true
}

func (s *ChannelStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.channels {
		c.Close()
	}
	s.channels = make(map[string]*AsyncChannel)
}

func (s *ChannelStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.channels)
}

// RefCellStore is the analogous named collection for AsyncRefCells.
type RefCellStore struct {
	mu    sync.Mutex
	cells map[string]*AsyncRefCell
}

func NewRefCellStore() *RefCellStore {
	return &RefCellStore{cells: make(map[string]*AsyncRefCell)}
}

func (s *RefCellStore) GetOrCreate(id string, initial value.Value) *AsyncRefCell {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.cells[id]; ok {
		return c
	}
	c := NewAsyncRefCell(initial)
	s.cells[id] = c
	return c
}

func (s *RefCellStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cells[id]; !ok {
		return false
	}
	delete(s.cells, id)
	return true
}

func (s *RefCellStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cells = make(map[string]*AsyncRefCell)
}

func (s *RefCellStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cells)
}
