package device

import (
	"context"
	"slices"
	"sync"
)

// Store persists opaque snapshots under named slots.
//
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the slot's bytes, or ErrSlotNotFound.
	Get(ctx context.Context, slot string) ([]byte, error)

	// Put overwrites the slot.
	Put(ctx context.Context, slot string, value []byte) error

	// Delete removes the slot. Deleting a missing slot is not an error.
	Delete(ctx context.Context, slot string) error
}

// MemoryStore is a Store backed by a map. Contents are lost on exit.
type MemoryStore struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{slots: make(map[string][]byte)}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, slot string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.slots[slot]
	if !ok {
		return nil, ErrSlotNotFound
	}
	return slices.Clone(v), nil
}

// Put implements Store.
func (s *MemoryStore) Put(_ context.Context, slot string, value []byte) error {
	s.mu.Lock()
	s.slots[slot] = slices.Clone(value)
	s.mu.Unlock()
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, slot string) error {
	s.mu.Lock()
	delete(s.slots, slot)
	s.mu.Unlock()
	return nil
}
