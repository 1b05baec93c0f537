package blobs

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/svgkeeper/internal/common"
)

// MemoryStore is an in-process Store. It backs the "memory" blob backend;
// objects are lost when the process exits.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func (m *MemoryStore) Put(_ context.Context, key string, content []byte) error {
	c := make([]byte, len(content))
	copy(c, content)
	m.mu.Lock()
	m.objects[key] = c
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.objects[key]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := make([]byte, len(b))
	copy(c, b)
	return c, nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

// Len reports the number of stored objects.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
