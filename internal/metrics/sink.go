// Package metrics implements the append-only observability stream from
// spec.md §6: one MetricsRecord per query, fanned out to an in-memory ring
// buffer for local inspection and, in production, a Kafka topic.
package metrics

import (
	"context"
	"sync"

	"github.com/wealthlens/ragpipe/internal/domain"
)

// RingBuffer is an in-memory domain.MetricsSink holding the last N records,
// grounded on manifold's chat_store_memory.go ring-style bounded history
// (a mutex-guarded slice trimmed from the front once it exceeds capacity).
type RingBuffer struct {
	mu       sync.Mutex
	capacity int
	records  []domain.MetricsRecord
}

// NewRingBuffer builds a RingBuffer holding at most capacity records
// (capacity <= 0 means unbounded).
func NewRingBuffer(capacity int) *RingBuffer {
	return &RingBuffer{capacity: capacity}
}

func (b *RingBuffer) Record(_ context.Context, rec domain.MetricsRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.records = append(b.records, rec)
	if b.capacity > 0 && len(b.records) > b.capacity {
		b.records = b.records[len(b.records)-b.capacity:]
	}
	return nil
}

// Snapshot returns a copy of the currently held records, oldest first.
func (b *RingBuffer) Snapshot() []domain.MetricsRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.MetricsRecord, len(b.records))
	copy(out, b.records)
	return out
}

// Multi fans a record out to multiple sinks, continuing past individual
// failures and returning the first error encountered, if any.
type Multi []domain.MetricsSink

func (m Multi) Record(ctx context.Context, rec domain.MetricsRecord) error {
	var first error
	for _, sink := range m {
		if err := sink.Record(ctx, rec); err != nil && first == nil {
			first = err
		}
	}
	return first
}
