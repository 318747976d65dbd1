package storage

import (
	"context"
	"sync"
)

// MemorySlots keeps slots in process memory. Nothing survives a restart.
// GetErr and PutErr, when set, are returned by every call to simulate an
// unavailable medium.
type MemorySlots struct {
	mu     sync.Mutex
	data   map[string][]byte
	writes map[string]int

	GetErr error
	PutErr error
}

// NewMemorySlots returns an empty in-memory backend.
func NewMemorySlots() *MemorySlots {
	return &MemorySlots{
		data:   make(map[string][]byte),
		writes: make(map[string]int),
	}
}

// Get reads the raw content of a slot.
func (m *MemorySlots) Get(_ context.Context, slot string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	data, ok := m.data[slot]
	if !ok {
		return nil, ErrSlotNotFound
	}
	return append([]byte(nil), data...), nil
}

// Put overwrites the content of a slot.
func (m *MemorySlots) Put(_ context.Context, slot string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes[slot]++
	if m.PutErr != nil {
		return m.PutErr
	}
	m.data[slot] = append([]byte(nil), data...)
	return nil
}

// Writes reports how many times Put was called for slot, failed calls included.
func (m *MemorySlots) Writes(slot string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes[slot]
}

// Close is a no-op.
func (m *MemorySlots) Close() error {
	return nil
}
