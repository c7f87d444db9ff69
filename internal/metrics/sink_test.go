package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/wealthlens/ragpipe/internal/domain"
)

func TestRingBufferTrimsToCapacity(t *testing.T) {
	b := NewRingBuffer(2)
	for i, id := range []string{"q1", "q2", "q3"} {
		_ = i
		if err := b.Record(context.Background(), domain.MetricsRecord{ID: id}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	snap := b.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected 2 records after trimming, got %d", len(snap))
	}
	if snap[0].ID != "q2" || snap[1].ID != "q3" {
		t.Fatalf("expected oldest record evicted, got %+v", snap)
	}
}

func TestRingBufferUnboundedWhenCapacityZero(t *testing.T) {
	b := NewRingBuffer(0)
	for i := 0; i < 10; i++ {
		_ = b.Record(context.Background(), domain.MetricsRecord{ID: "q"})
	}
	if len(b.Snapshot()) != 10 {
		t.Fatalf("expected unbounded buffer to retain all records")
	}
}

type erroringSink struct{ err error }

func (e erroringSink) Record(context.Context, domain.MetricsRecord) error { return e.err }

func TestMultiFansOutAndReturnsFirstError(t *testing.T) {
	b1 := NewRingBuffer(0)
	b2 := NewRingBuffer(0)
	failing := erroringSink{err: errors.New("boom")}
	m := Multi{b1, failing, b2}

	err := m.Record(context.Background(), domain.MetricsRecord{ID: "q1"})
	if err == nil {
		t.Fatalf("expected first error to propagate")
	}
	if len(b1.Snapshot()) != 1 || len(b2.Snapshot()) != 1 {
		t.Fatalf("expected both ring buffers to still receive the record despite one sink failing")
	}
}
