package pipeline

import (
	"context"
	"time"

	"github.com/wealthlens/ragpipe/internal/breaker"
	"github.com/wealthlens/ragpipe/internal/cache"
	"github.com/wealthlens/ragpipe/internal/domain"
	"github.com/wealthlens/ragpipe/internal/pipeline/grade"
	"github.com/wealthlens/ragpipe/internal/pipeline/intent"
	"github.com/wealthlens/ragpipe/internal/prompt"
	"github.com/wealthlens/ragpipe/internal/retrieve"
)

// Logger is a minimal structured-logging interface, grounded on
// manifold's internal/rag/service.Logger so call sites can hand in a
// zerolog-backed adapter without this package importing zerolog
// directly.
type Logger interface {
	Info(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
	Debug(msg string, fields map[string]any)
}

type noopLogger struct{}

func (noopLogger) Info(string, map[string]any)  {}
func (noopLogger) Error(string, map[string]any) {}
func (noopLogger) Debug(string, map[string]any) {}

type noopMetrics struct{}

func (noopMetrics) Record(context.Context, domain.MetricsRecord) error { return nil }

type noopFeedback struct{}

func (noopFeedback) Record(context.Context, domain.FeedbackRecord) error { return nil }

// Option configures a Pipeline during construction, mirroring manifold's
// internal/rag/service.Option functional-options pattern.
type Option func(*Pipeline)

// WithLogger sets a structured logger.
func WithLogger(l Logger) Option { return func(p *Pipeline) { p.log = l } }

// WithMetrics sets the metrics sink.
func WithMetrics(m domain.MetricsSink) Option { return func(p *Pipeline) { p.metrics = m } }

// WithFeedback sets the feedback sink.
func WithFeedback(f domain.FeedbackSink) Option { return func(p *Pipeline) { p.feedback = f } }

// WithCache sets the response cache.
func WithCache(c cache.Cache) Option { return func(p *Pipeline) { p.cache = c } }

// WithBreaker sets the circuit breaker guarding the main path.
func WithBreaker(b *breaker.Breaker) Option { return func(p *Pipeline) { p.mainBreaker = b } }

// WithReranker overrides the default ConfidenceReranker.
func WithReranker(r retrieve.Reranker) Option { return func(p *Pipeline) { p.reranker = r } }

// WithIntentClassifier overrides the default LLM-then-keyword classifier.
func WithIntentClassifier(c intent.Classifier) Option { return func(p *Pipeline) { p.intentClassifier = c } }

// WithPromptRegistry overrides the default builtin template registry.
func WithPromptRegistry(r *prompt.Registry) Option { return func(p *Pipeline) { p.registry = r } }

// WithRetrieveOptions overrides hybrid-retrieval fusion weights/k.
func WithRetrieveOptions(o retrieve.Options) Option { return func(p *Pipeline) { p.retrieveOpts = o } }

// WithInflightCap overrides the default global concurrent-request cap.
func WithInflightCap(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.inflight = make(chan struct{}, n)
		}
	}
}

// WithRequestDeadline overrides the default main-path request deadline.
func WithRequestDeadline(d time.Duration) Option { return func(p *Pipeline) { p.requestDeadline = d } }

// WithFallbackDeadline overrides the default fallback-path request deadline.
func WithFallbackDeadline(d time.Duration) Option { return func(p *Pipeline) { p.fallbackDeadline = d } }

// WithCacheTTL overrides the TTL written on every response-cache Put,
// which otherwise defaults to defaultCacheTTL.
func WithCacheTTL(d time.Duration) Option { return func(p *Pipeline) { p.cacheTTL = d } }

// WithGradeOptions overrides the grader's parallelism/per-call timeout.
func WithGradeOptions(opt grade.Options) Option { return func(p *Pipeline) { p.gradeOpts = opt } }

// WithKRetrieve overrides the number of candidates fetched per source.
func WithKRetrieve(k int) Option { return func(p *Pipeline) { p.kRetrieve = k } }

// WithKRerank overrides the number of survivors kept after reranking.
func WithKRerank(k int) Option { return func(p *Pipeline) { p.kRerank = k } }

// WithFallbackK overrides the fallback path's candidate count.
func WithFallbackK(k int) Option { return func(p *Pipeline) { p.fallbackK = k } }

// WithGraderModel sets a distinct ChatModel for the grading stage, falling
// back to the main ChatModel when unset.
func WithGraderModel(m domain.ChatModel) Option { return func(p *Pipeline) { p.graderModel = m } }

// WithIntentModel sets a distinct ChatModel for LLM-based intent
// classification, falling back to the main ChatModel when unset.
func WithIntentModel(m domain.ChatModel) Option { return func(p *Pipeline) { p.intentModel = m } }

// WithExpansion enables query expansion using the given ChatModel.
func WithExpansion(m domain.ChatModel) Option { return func(p *Pipeline) { p.expandModel = m } }
