// ABOUTME: In-memory status Store for tests and single-process use
// ABOUTME: Starts empty, so Get reports ErrUnavailable until the first Set

package status

import (
	"context"
	"sync"
)

// MemoryStore is a Store held in process memory.
type MemoryStore struct {
	mu sync.RWMutex
	s  *Status
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Get(ctx context.Context) (*Status, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.s == nil {
		return nil, ErrUnavailable
	}
	c := *m.s
	return &c, nil
}

func (m *MemoryStore) Set(ctx context.Context, s *Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := *s
	m.s = &c
	return nil
}

var _ Store = (*MemoryStore)(nil)
