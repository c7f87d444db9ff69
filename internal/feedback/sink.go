// Package feedback implements the append-only user-rating stream from
// spec.md §6: a "+"/"-" rating correlated to a query id, with an optional
// free-text detail.
package feedback

import (
	"context"
	"sync"

	"github.com/wealthlens/ragpipe/internal/domain"
)

// Memory is an in-memory domain.FeedbackSink for tests and local runs.
type Memory struct {
	mu      sync.Mutex
	records []domain.FeedbackRecord
}

func (m *Memory) Record(_ context.Context, rec domain.FeedbackRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

// Snapshot returns a copy of the recorded feedback, oldest first.
func (m *Memory) Snapshot() []domain.FeedbackRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.FeedbackRecord, len(m.records))
	copy(out, m.records)
	return out
}
