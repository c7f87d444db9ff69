// Package prom implements domain.MetricsSink over
// github.com/prometheus/client_golang, exposing the same request-count and
// per-stage-duration series the OTel sink emits but as a pollable /metrics
// endpoint, and a Serve helper for the health/readiness/metrics HTTP server.
// Grounded on antflydb-antfly-go/libaf's healthserver package
// (promhttp.Handler mounted alongside /healthz and /readyz on a background
// HTTP server).
package prom

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wealthlens/ragpipe/internal/domain"
)

// Sink implements domain.MetricsSink backed by Prometheus counter/histogram
// vectors registered on construction.
type Sink struct {
	requests *prometheus.CounterVec
	errors   *prometheus.CounterVec
	total    *prometheus.HistogramVec
	retrieve *prometheus.HistogramVec
	grade    *prometheus.HistogramVec
	generate *prometheus.HistogramVec
}

// NewSink registers the pipeline's metric families against reg. Pass
// prometheus.DefaultRegisterer to expose them on the default /metrics
// handler.
func NewSink(reg prometheus.Registerer) *Sink {
	labels := []string{"domain", "intent", "quality", "endpoint"}
	s := &Sink{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ragpipe_requests_total", Help: "Total pipeline requests.",
		}, labels),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ragpipe_errors_total", Help: "Total pipeline requests that errored.",
		}, labels),
		total: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "ragpipe_request_duration_seconds", Help: "End-to-end request latency.",
		}, labels),
		retrieve: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "ragpipe_retrieve_duration_seconds", Help: "Hybrid retrieval phase latency.",
		}, labels),
		grade: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "ragpipe_grade_duration_seconds", Help: "Grading fan-out phase latency.",
		}, labels),
		generate: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "ragpipe_generate_duration_seconds", Help: "Cited-answer generation phase latency.",
		}, labels),
	}
	reg.MustRegister(s.requests, s.errors, s.total, s.retrieve, s.grade, s.generate)
	return s
}

// Record implements domain.MetricsSink.
func (s *Sink) Record(_ context.Context, rec domain.MetricsRecord) error {
	lv := prometheus.Labels{
		"domain": rec.Domain, "intent": string(rec.Intent),
		"quality": string(rec.Quality), "endpoint": string(rec.Endpoint),
	}
	s.requests.With(lv).Inc()
	if rec.Error != "" {
		s.errors.With(lv).Inc()
	}
	s.total.With(lv).Observe(rec.Timings.Total.Seconds())
	s.retrieve.With(lv).Observe(rec.Timings.Retrieve.Seconds())
	s.grade.With(lv).Observe(rec.Timings.Grade.Seconds())
	s.generate.With(lv).Observe(rec.Timings.Generate.Seconds())
	return nil
}

// Serve starts the health/readiness/metrics HTTP server in a background
// goroutine and returns immediately, matching libaf's healthserver.Start
// shape (non-blocking, fire-and-log on failure).
func Serve(addr string, readyCheck func() bool, onError func(error)) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if readyCheck == nil || readyCheck() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
	})
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if onError != nil {
				onError(fmt.Errorf("metrics/prom: server: %w", err))
			}
		}
	}()
}
