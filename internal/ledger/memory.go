package ledger

import (
	"context"
	"sync"
)

// DefaultCapacity bounds the memory ledger when no capacity is configured.
const DefaultCapacity = 1000

// Memory is an in-process, bounded FIFO delivery ledger.
//
// It holds at most capacity identifiers; on overflow the oldest-inserted
// tenth is evicted. State lives only for the process lifetime, so a
// redelivery shortly after a restart will be reprocessed. That is a known
// limitation of the memory backend; use Postgres when history must
// survive restarts.
type Memory struct {
	mu       sync.Mutex
	seen     map[string]struct{}
	order    []string // insertion order, oldest first
	capacity int
}

// NewMemory creates an empty ledger holding up to capacity identifiers.
// Non-positive capacity falls back to DefaultCapacity.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Memory{
		seen:     make(map[string]struct{}, capacity),
		capacity: capacity,
	}
}

// CheckAndRecord implements Ledger. The check and the record happen under
// one lock acquisition so concurrent duplicates race on the mutex, not on
// the answer.
func (m *Memory) CheckAndRecord(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, dup := m.seen[id]; dup {
		return false, nil
	}

	m.seen[id] = struct{}{}
	m.order = append(m.order, id)
	if len(m.order) > m.capacity {
		m.evictOldest()
	}
	return true, nil
}

// evictOldest removes the oldest tenth of entries, at least one.
// Caller holds the lock. Eviction is strictly insertion-ordered; the
// slice is the single source of truth for age.
func (m *Memory) evictOldest() {
	batch := m.capacity / 10
	if batch < 1 {
		batch = 1
	}
	if batch > len(m.order) {
		batch = len(m.order)
	}
	for _, old := range m.order[:batch] {
		delete(m.seen, old)
	}
	m.order = append(m.order[:0], m.order[batch:]...)
}

// Size implements Ledger.
func (m *Memory) Size(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.seen), nil
}

// Close implements Ledger. The memory ledger holds no external resources.
func (m *Memory) Close() {}
