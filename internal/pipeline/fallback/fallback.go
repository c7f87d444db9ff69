// Package fallback implements the linear v1 path from spec.md §4.10:
// semantic-only retrieval, no grading, no rerank, direct generation with
// a single template. It is invoked whenever the main pipeline's breaker
// is open or an uncaught main-pipeline error escapes, and must preserve
// the main path's response schema, cache rules, and metrics schema.
package fallback

import (
	"context"
	"time"

	"github.com/wealthlens/ragpipe/internal/domain"
	"github.com/wealthlens/ragpipe/internal/pipeline/generate"
	"github.com/wealthlens/ragpipe/internal/pipeline/quality"
	"github.com/wealthlens/ragpipe/internal/prompt"
	"github.com/wealthlens/ragpipe/internal/retrieve"
)

// defaultK is the number of semantic-only candidates the fallback path
// retrieves.
const defaultK = 10

// FallbackTemplateName is the single template the fallback path uses,
// regardless of intent or prompt_name.
const FallbackTemplateName = "fallback_default"

// Runner executes the fallback path.
type Runner struct {
	Retriever domain.Retriever
	Model     domain.ChatModel
	Registry  *prompt.Registry
	K         int
}

// Run retrieves semantically, skips grading/reranking entirely, and
// generates directly from the raw fused candidates (degenerately reusing
// internal/retrieve's fusion with WBM25=0 and a lexical k of 0, per
// SPEC_FULL §4.10).
func (r Runner) Run(ctx context.Context, q domain.Query) (domain.Response, error) {
	t0 := time.Now()
	k := r.K
	if k <= 0 {
		k = defaultK
	}

	vector, err := r.Retriever.Embed(ctx, q.Text)
	if err != nil {
		return domain.Response{}, domain.NewPipelineError(domain.ErrKindTransientLLM, err)
	}

	sem, lex, _, err := retrieve.ParallelCandidates(ctx, r.Retriever, q.Domain, q.Text, vector, k, 0)
	if err != nil {
		return domain.Response{}, domain.NewPipelineError(domain.ErrKindRetrieverEmpty, err)
	}
	opt := retrieve.Options{KRetrieve: k, WSemantic: 1, WBM25: 0, Kappa: 60, Domain: q.Domain}
	candidates := retrieve.Fuse(sem, lex, opt)
	if len(candidates) > k {
		candidates = candidates[:k]
	}

	q2 := q
	q2.PromptName = FallbackTemplateName
	gen := generate.Generator{Model: r.Model, Registry: r.Registry}
	result, err := gen.Generate(ctx, q2, domain.IntentGeneral, candidates, quality.Classify(candidates))
	if err != nil {
		return domain.Response{
			ID: q.ID, Answer: result.Answer, Quality: domain.QualityPoor,
			Intent: domain.IntentGeneral, Endpoint: domain.EndpointFallback,
			Timings: domain.Timings{Total: time.Since(t0)},
		}, err
	}

	return domain.Response{
		ID:        q.ID,
		Answer:    result.Answer,
		Citations: result.Citations,
		Quality:   quality.Classify(candidates),
		Intent:    domain.IntentGeneral,
		Endpoint:  domain.EndpointFallback,
		Timings:   domain.Timings{Retrieve: time.Since(t0), Total: time.Since(t0)},
	}, nil
}
