package table

import (
	"context"
	"slices"
	"sync"

	"github.com/ShoMaruoka/color-size-tool/internal/domain"
)

// MemoryStore is a Persistence that keeps entries in process memory.
// It backs ephemeral tables (TABLE_BACKEND=memory) and tests.
type MemoryStore struct {
	mu       sync.Mutex
	entries  []domain.ConversionEntry
	saves    int
	failNext error
}

// NewMemoryStore creates a store holding the given entries.
func NewMemoryStore(entries ...domain.ConversionEntry) *MemoryStore {
	return &MemoryStore{entries: slices.Clone(entries)}
}

// LoadEntries implements Persistence.
func (m *MemoryStore) LoadEntries(_ context.Context) ([]domain.ConversionEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.entries), nil
}

// SaveEntries implements Persistence.
func (m *MemoryStore) SaveEntries(_ context.Context, entries []domain.ConversionEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return err
	}
	m.entries = slices.Clone(entries)
	m.saves++
	return nil
}

// Saves returns how many snapshots were written.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// FailNextSave makes the next SaveEntries call return err.
func (m *MemoryStore) FailNextSave(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = err
}
