// Package pipeline implements the single PipelineState-owning entry point
// described in spec.md §5: Pipeline.Handle runs the fixed stage order
// (cache -> intent -> expand -> retrieve -> grade -> rerank -> quality ->
// generate) for every query, routes to the linear fallback path when the
// main-path breaker is open or the main path fails, and enforces the global inflight cap and
// request deadline. The functional-options constructor and the
// Clock/Logger/Metrics seams are grounded on manifold's
// internal/rag/service.Service and its accompanying options.go.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/wealthlens/ragpipe/internal/breaker"
	"github.com/wealthlens/ragpipe/internal/cache"
	"github.com/wealthlens/ragpipe/internal/domain"
	"github.com/wealthlens/ragpipe/internal/pipeline/expand"
	"github.com/wealthlens/ragpipe/internal/pipeline/fallback"
	"github.com/wealthlens/ragpipe/internal/pipeline/generate"
	"github.com/wealthlens/ragpipe/internal/pipeline/grade"
	"github.com/wealthlens/ragpipe/internal/pipeline/intent"
	"github.com/wealthlens/ragpipe/internal/pipeline/quality"
	"github.com/wealthlens/ragpipe/internal/prompt"
	"github.com/wealthlens/ragpipe/internal/retrieve"
)

const (
	defaultInflightCap      = 32
	defaultRequestDeadline  = 15 * time.Second
	defaultFallbackDeadline = 5 * time.Second
	defaultCacheTTL         = 15 * time.Minute
)

// Pipeline is the agentic retrieval-and-grading entry point. Construct one
// with New and call Handle per query; a Pipeline is safe for concurrent use.
type Pipeline struct {
	retriever domain.Retriever
	model     domain.ChatModel // used for generation, and as the default for grading/intent/expansion

	graderModel domain.ChatModel
	intentModel domain.ChatModel
	expandModel domain.ChatModel

	intentClassifier intent.Classifier
	reranker         retrieve.Reranker
	registry         *prompt.Registry

	cache       cache.Cache
	mainBreaker *breaker.Breaker
	metrics     domain.MetricsSink
	feedback    domain.FeedbackSink
	log         Logger

	retrieveOpts retrieve.Options
	gradeOpts    grade.Options
	kRetrieve    int
	kRerank      int
	fallbackK    int

	requestDeadline  time.Duration
	fallbackDeadline time.Duration
	cacheTTL         time.Duration
	inflight         chan struct{}
}

// New builds a Pipeline over the given retriever and default chat model,
// applying defaults first and then every Option, mirroring manifold's
// service.New(mgr, opts...) construction order.
func New(retriever domain.Retriever, model domain.ChatModel, opts ...Option) *Pipeline {
	p := &Pipeline{
		retriever:        retriever,
		model:            model,
		intentClassifier: intent.KeywordClassifier{},
		reranker:         retrieve.ConfidenceReranker{},
		registry:         defaultRegistry(),
		cache:            cache.NewMemory(1024),
		mainBreaker:      breaker.New(5, 60*time.Second),
		metrics:          noopMetrics{},
		feedback:         noopFeedback{},
		log:              noopLogger{},
		retrieveOpts:     retrieve.DefaultOptions(),
		gradeOpts:        grade.DefaultOptions(),
		kRetrieve:        10,
		kRerank:          5,
		fallbackK:        10,
		requestDeadline:  defaultRequestDeadline,
		fallbackDeadline: defaultFallbackDeadline,
		cacheTTL:         defaultCacheTTL,
		inflight:         make(chan struct{}, defaultInflightCap),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.graderModel == nil {
		p.graderModel = p.model
	}
	if p.intentModel != nil {
		p.intentClassifier = intent.LLMClassifier{Model: p.intentModel, Fallback: intent.KeywordClassifier{}}
	}
	return p
}

func defaultRegistry() *prompt.Registry {
	r := prompt.NewRegistry()
	// Builtin() templates were validated at authoring time; a load error
	// here would mean the builtin set itself regressed.
	if err := r.Load(prompt.Builtin()...); err != nil {
		panic("pipeline: builtin prompt templates failed validation: " + err.Error())
	}
	return r
}

// Warmup performs any startup work the pipeline needs before serving
// traffic: reading the retriever's collection stats, embedding a throwaway
// query once so the first real request does not pay a cold-start cost,
// failing with ErrDimensionMismatch when that embedding's length differs
// from the collection's reported dimension, and issuing one trivial chat
// call to the generation model.
func (p *Pipeline) Warmup(ctx context.Context, domainName string) error {
	stats, err := p.retriever.Stats(ctx, domainName)
	if err != nil {
		return domain.NewPipelineError(domain.ErrKindRetrieverEmpty, err)
	}
	vector, err := p.retriever.Embed(ctx, "warmup")
	if err != nil {
		return domain.NewPipelineError(domain.ErrKindTransientLLM, err)
	}
	if stats.EmbeddingDim > 0 && len(vector) != stats.EmbeddingDim {
		return domain.NewPipelineError(domain.ErrKindDimensionMismatch, domain.ErrDimensionMismatch)
	}
	if _, err := p.model.Chat(ctx, "warmup", domain.ChatOptions{MaxTokens: 1}); err != nil {
		return domain.NewPipelineError(domain.ErrKindTransientLLM, err)
	}
	return nil
}

// Handle runs one query through the full pipeline, returning a Response on
// both success and on degraded-but-answerable paths. Overload returns
// ErrOverloaded; any error from the main path is answered by the fallback
// path, and the fallback path's own error, if any, is returned.
func (p *Pipeline) Handle(ctx context.Context, q domain.Query) (domain.Response, error) {
	select {
	case p.inflight <- struct{}{}:
		defer func() { <-p.inflight }()
	default:
		return domain.Response{}, domain.ErrOverloaded
	}

	deadline := p.requestDeadline
	if p.mainBreaker.State() == breaker.StateOpen {
		deadline = p.fallbackDeadline
	}
	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	t0 := time.Now()

	// Single Allow() call: it is state-mutating, so a second call here would
	// silently consume the one half-open trial and route the probe itself to
	// the fallback path, leaving the breaker stuck in half_open forever.
	if !p.mainBreaker.Allow() {
		resp, err := p.runFallback(ctx, q)
		p.recordMetrics(ctx, q, resp, domain.EndpointFallback, err, time.Since(t0))
		return resp, err
	}

	bypass := cache.ShouldBypass(q)
	var fp string
	if !bypass {
		fp = cache.Fingerprint(q.Domain, q.PromptName, q.Text)
		if entry, ok := p.cache.Get(ctx, fp); ok {
			resp := domain.Response{
				ID: q.ID, Answer: entry.Answer, Citations: entry.Citations,
				Quality: entry.Quality, Endpoint: domain.EndpointMain,
				Timings: domain.Timings{Total: time.Since(t0)},
			}
			p.recordMetrics(ctx, q, resp, domain.EndpointMain, nil, time.Since(t0))
			return resp, nil
		}
	}

	resp, err := p.runMain(ctx, q, t0)
	if err != nil {
		// Spec §7's propagation policy records breaker failures only for
		// generator/startup errors; a flaky vector store or a grader call
		// failing must not push the main-path breaker toward open.
		var pe *domain.PipelineError
		if errors.As(err, &pe) && pe.Kind == domain.ErrKindGeneratorFailed {
			p.mainBreaker.RecordFailure()
		}
		fbResp, fbErr := p.runFallback(ctx, q)
		p.recordMetrics(ctx, q, fbResp, domain.EndpointFallback, fbErr, time.Since(t0))
		return fbResp, fbErr
	}
	p.mainBreaker.RecordSuccess()

	if !bypass {
		_ = p.cache.Put(ctx, fp, domain.CacheEntry{
			Answer: resp.Answer, Citations: resp.Citations, Quality: resp.Quality,
			CreatedAt: time.Now(), TTL: p.cacheTTL,
		})
	}
	p.recordMetrics(ctx, q, resp, domain.EndpointMain, nil, time.Since(t0))
	return resp, nil
}

func (p *Pipeline) runMain(ctx context.Context, q domain.Query, t0 time.Time) (domain.Response, error) {
	tIntent := time.Now()
	queryIntent := p.intentClassifier.Classify(ctx, q.Text)
	_ = time.Since(tIntent)

	retrievalText := q.Text
	if p.expandModel != nil {
		retrievalText = expand.Expander{Model: p.expandModel}.Expand(ctx, q.Text, queryIntent)
	}

	tRetrieve := time.Now()
	vector, err := p.retriever.Embed(ctx, retrievalText)
	if err != nil {
		return domain.Response{}, domain.NewPipelineError(domain.ErrKindTransientLLM, err)
	}
	sem, lex, _, err := retrieve.ParallelCandidates(ctx, p.retriever, q.Domain, retrievalText, vector, p.kRetrieve, p.kRetrieve)
	if err != nil {
		return domain.Response{}, domain.NewPipelineError(domain.ErrKindRetrieverEmpty, err)
	}
	opt := p.retrieveOpts
	opt.KRetrieve = p.kRetrieve
	opt.Domain = q.Domain
	candidates := retrieve.Fuse(sem, lex, opt)
	if len(candidates) > p.kRetrieve {
		candidates = candidates[:p.kRetrieve]
	}
	retrieveElapsed := time.Since(tRetrieve)

	var survivors []domain.Passage
	var gradeElapsed time.Duration
	forcedPoor := false
	if len(candidates) > 0 {
		tGrade := time.Now()
		grader := grade.Grader{Model: p.graderModel, Opts: p.gradeOpts}
		graded, gErr := grader.Grade(ctx, q.Text, candidates)
		gradeElapsed = time.Since(tGrade)
		if gErr != nil && !errors.Is(gErr, domain.ErrAllGradersFailed) {
			return domain.Response{}, domain.NewPipelineError(domain.ErrKindGraderFailed, gErr)
		}
		if errors.Is(gErr, domain.ErrAllGradersFailed) {
			// Soft-degrade: proceed ungraded so the pipeline still answers,
			// per spec §4.6 quality forces to poor since no survivor was
			// ever confirmed relevant.
			survivors = candidates
			if len(survivors) > p.kRerank {
				survivors = survivors[:p.kRerank]
			}
			forcedPoor = true
		} else {
			tRerank := time.Now()
			reranked, rErr := p.reranker.Rerank(ctx, q.Text, graded, p.kRerank)
			_ = time.Since(tRerank)
			if rErr != nil {
				survivors, _ = retrieve.ConfidenceReranker{}.Rerank(ctx, q.Text, graded, p.kRerank)
			} else {
				survivors = reranked
			}
		}
	}

	qual := quality.Classify(survivors)
	if forcedPoor {
		qual = domain.QualityPoor
	}

	tGenerate := time.Now()
	gen := generate.Generator{Model: p.model, Registry: p.registry}
	result, err := gen.Generate(ctx, q, queryIntent, survivors, qual)
	generateElapsed := time.Since(tGenerate)
	timings := domain.Timings{
		Retrieve: retrieveElapsed, Grade: gradeElapsed, Generate: generateElapsed, Total: time.Since(t0),
	}
	if err != nil {
		return domain.Response{
			ID: q.ID, Answer: result.Answer, Quality: domain.QualityPoor,
			Intent: queryIntent, Endpoint: domain.EndpointMain, Timings: timings,
		}, err
	}

	return domain.Response{
		ID: q.ID, Answer: result.Answer, Citations: result.Citations,
		Quality: qual, Intent: queryIntent, Endpoint: domain.EndpointMain, Timings: timings,
	}, nil
}

func (p *Pipeline) runFallback(ctx context.Context, q domain.Query) (domain.Response, error) {
	runner := fallback.Runner{Retriever: p.retriever, Model: p.model, Registry: p.registry, K: p.fallbackK}
	return runner.Run(ctx, q)
}

func (p *Pipeline) recordMetrics(ctx context.Context, q domain.Query, resp domain.Response, endpoint domain.Endpoint, err error, total time.Duration) {
	rec := domain.MetricsRecord{
		ID: q.ID, Timestamp: time.Now(), Domain: q.Domain, Intent: resp.Intent,
		Quality: resp.Quality, Timings: resp.Timings, Endpoint: endpoint,
	}
	rec.Timings.Total = total
	if err != nil {
		rec.Error = err.Error()
	}
	if len(resp.Citations) > 0 {
		rec.DocCount = len(resp.Citations)
		rec.TopScore = resp.Citations[0].Score
	}
	if recErr := p.metrics.Record(ctx, rec); recErr != nil {
		p.log.Error("metrics record failed", map[string]any{"error": recErr.Error(), "query_id": q.ID})
	}
}

// RecordFeedback forwards a user rating to the configured feedback sink.
func (p *Pipeline) RecordFeedback(ctx context.Context, rec domain.FeedbackRecord) error {
	return p.feedback.Record(ctx, rec)
}
