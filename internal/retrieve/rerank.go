package retrieve

import (
	"context"
	"sort"

	"github.com/wealthlens/ragpipe/internal/domain"
)

// dropConfidence is the grade-confidence floor below which a passage is
// dropped regardless of grade, per spec §4.7.
const dropConfidence = 0.3

// defaultKRerank is the maximum number of passages kept after reranking.
const defaultKRerank = 5

// Reranker narrows graded candidates down to the passages that go into
// generation. The two-method-free shape (a single Rerank call) carries over
// from manifold's retrieve.Reranker interface.
type Reranker interface {
	Rerank(ctx context.Context, query string, passages []domain.Passage, kRerank int) ([]domain.Passage, error)
}

// NoopReranker returns the input passages unchanged, truncated to kRerank.
// Kept in the shape of manifold's pass-through reranker; the fallback path
// does not call a reranker at all.
type NoopReranker struct{}

func (NoopReranker) Rerank(_ context.Context, _ string, passages []domain.Passage, kRerank int) ([]domain.Passage, error) {
	if kRerank <= 0 || kRerank >= len(passages) {
		return passages, nil
	}
	return passages[:kRerank], nil
}

// ConfidenceReranker orders graded passages by grade confidence (fused score
// as tie-break), drops grade=irrelevant and anything below dropConfidence,
// and keeps at most kRerank survivors. This is the default reranker per
// spec §4.7.
type ConfidenceReranker struct{}

func (ConfidenceReranker) Rerank(_ context.Context, _ string, passages []domain.Passage, kRerank int) ([]domain.Passage, error) {
	if kRerank <= 0 {
		kRerank = defaultKRerank
	}
	kept := make([]domain.Passage, 0, len(passages))
	for _, p := range passages {
		if p.Grade == domain.GradeIrrelevant {
			continue
		}
		if p.GradeConf < dropConfidence {
			continue
		}
		kept = append(kept, p)
	}
	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].GradeConf != kept[j].GradeConf {
			return kept[i].GradeConf > kept[j].GradeConf
		}
		return kept[i].FusedScore > kept[j].FusedScore
	})
	if len(kept) > kRerank {
		kept = kept[:kRerank]
	}
	return kept, nil
}

// Reranking is the capability ExternalReranker needs. domain.ChatModel
// satisfies it structurally, as does a standalone HTTP reranker client that
// has no Chat method at all.
type Reranking interface {
	Rerank(ctx context.Context, query string, passages []string) ([]float64, error)
}

// ExternalReranker delegates scoring to a Reranking capability call,
// substituting the returned scores for grade confidence before applying the
// same drop/keep rules as ConfidenceReranker. Callers that construct one
// should fall back to ConfidenceReranker when the model errors or does not
// support reranking.
type ExternalReranker struct {
	Model Reranking
}

func (r ExternalReranker) Rerank(ctx context.Context, query string, passages []domain.Passage, kRerank int) ([]domain.Passage, error) {
	if len(passages) == 0 {
		return nil, nil
	}
	texts := make([]string, len(passages))
	for i, p := range passages {
		texts[i] = p.Text
	}
	scores, err := r.Model.Rerank(ctx, query, texts)
	if err != nil {
		return nil, err
	}
	scored := make([]domain.Passage, len(passages))
	copy(scored, passages)
	for i := range scored {
		if i < len(scores) {
			scored[i].GradeConf = scores[i]
		}
	}
	return ConfidenceReranker{}.Rerank(ctx, query, scored, kRerank)
}
