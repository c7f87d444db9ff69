package obs

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/wealthlens/ragpipe/internal/domain"
)

// OtelMetricsSink adapts domain.MetricsSink to OpenTelemetry instruments,
// grounded on manifold's internal/rag/obs.OtelMetrics (lazily-created,
// name-cached counters/histograms over the global meter provider).
type OtelMetricsSink struct {
	meter metric.Meter

	mu         sync.RWMutex
	counters   map[string]metric.Int64Counter
	histograms map[string]metric.Float64Histogram
}

// NewOtelMetricsSink constructs a sink using the global meter provider
// under the "ragpipe" instrumentation name.
func NewOtelMetricsSink() *OtelMetricsSink {
	return &OtelMetricsSink{
		meter:      otel.Meter("ragpipe"),
		counters:   make(map[string]metric.Int64Counter),
		histograms: make(map[string]metric.Float64Histogram),
	}
}

// Record emits the request-count, duration, and (when applicable)
// error-count instruments for one MetricsRecord, per spec §6's
// observability requirements.
func (s *OtelMetricsSink) Record(ctx context.Context, rec domain.MetricsRecord) error {
	labels := map[string]string{
		"domain":   rec.Domain,
		"intent":   string(rec.Intent),
		"quality":  string(rec.Quality),
		"endpoint": string(rec.Endpoint),
	}
	s.incCounter(ctx, "ragpipe_requests_total", labels)
	s.observeHistogram(ctx, "ragpipe_request_duration_seconds", rec.Timings.Total.Seconds(), labels)
	s.observeHistogram(ctx, "ragpipe_retrieve_duration_seconds", rec.Timings.Retrieve.Seconds(), labels)
	s.observeHistogram(ctx, "ragpipe_grade_duration_seconds", rec.Timings.Grade.Seconds(), labels)
	s.observeHistogram(ctx, "ragpipe_generate_duration_seconds", rec.Timings.Generate.Seconds(), labels)
	if rec.Error != "" {
		s.incCounter(ctx, "ragpipe_errors_total", labels)
	}
	return nil
}

func (s *OtelMetricsSink) incCounter(ctx context.Context, name string, labels map[string]string) {
	c, ok := s.getCounter(name)
	if !ok {
		return
	}
	c.Add(ctx, 1, metric.WithAttributes(toAttrs(labels)...))
}

func (s *OtelMetricsSink) observeHistogram(ctx context.Context, name string, value float64, labels map[string]string) {
	h, ok := s.getHistogram(name)
	if !ok {
		return
	}
	h.Record(ctx, value, metric.WithAttributes(toAttrs(labels)...))
}

func (s *OtelMetricsSink) getCounter(name string) (metric.Int64Counter, bool) {
	s.mu.RLock()
	c, ok := s.counters[name]
	s.mu.RUnlock()
	if ok {
		return c, true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok = s.counters[name]; ok {
		return c, true
	}
	ctr, err := s.meter.Int64Counter(name)
	if err != nil {
		return ctr, false
	}
	s.counters[name] = ctr
	return ctr, true
}

func (s *OtelMetricsSink) getHistogram(name string) (metric.Float64Histogram, bool) {
	s.mu.RLock()
	h, ok := s.histograms[name]
	s.mu.RUnlock()
	if ok {
		return h, true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok = s.histograms[name]; ok {
		return h, true
	}
	hist, err := s.meter.Float64Histogram(name)
	if err != nil {
		return hist, false
	}
	s.histograms[name] = hist
	return hist, true
}

func toAttrs(labels map[string]string) []attribute.KeyValue {
	if len(labels) == 0 {
		return nil
	}
	out := make([]attribute.KeyValue, 0, len(labels))
	for k, v := range labels {
		out = append(out, attribute.String(k, v))
	}
	return out
}
