package boundstore

import (
	"context"
	"sync"

	"github.com/starford/protweight/internal/bounds"
)

// Memory keeps bounds in a map. Nothing survives Close.
type Memory struct {
	mu      sync.RWMutex
	entries map[Key]bounds.Bounds
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[Key]bounds.Bounds)}
}

func (m *Memory) Get(_ context.Context, key Key) (bounds.Bounds, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.entries[key]
	return b, ok, nil
}

func (m *Memory) Put(_ context.Context, key Key, b bounds.Bounds) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = b
	return nil
}

func (m *Memory) Keys(context.Context) ([]Key, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Key, 0, len(m.entries))
	for k := range m.entries {
		out = append(out, k)
	}
	return out, nil
}

func (m *Memory) Delete(_ context.Context, key Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *Memory) DeleteAccession(_ context.Context, accession string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.entries {
		if k.Accession == accession {
			delete(m.entries, k)
		}
	}
	return nil
}

func (m *Memory) Close() error { return nil }
