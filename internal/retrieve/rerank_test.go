package retrieve

import (
	"context"
	"errors"
	"testing"

	"github.com/wealthlens/ragpipe/internal/domain"
)

func TestConfidenceRerankerDropsIrrelevantAndLowConfidence(t *testing.T) {
	passages := []domain.Passage{
		{ID: "keep-high", Grade: domain.GradeRelevant, GradeConf: 0.9, FusedScore: 0.5},
		{ID: "drop-irrelevant", Grade: domain.GradeIrrelevant, GradeConf: 0.9, FusedScore: 0.5},
		{ID: "drop-low-conf", Grade: domain.GradePartial, GradeConf: 0.1, FusedScore: 0.9},
		{ID: "keep-partial", Grade: domain.GradePartial, GradeConf: 0.5, FusedScore: 0.2},
	}
	out, err := ConfidenceReranker{}.Rerank(context.Background(), "q", passages, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 survivors, got %d: %v", len(out), out)
	}
	if out[0].ID != "keep-high" || out[1].ID != "keep-partial" {
		t.Fatalf("unexpected order: %v", out)
	}
}

func TestConfidenceRerankerTruncatesToKRerank(t *testing.T) {
	passages := make([]domain.Passage, 10)
	for i := range passages {
		passages[i] = domain.Passage{ID: string(rune('a' + i)), Grade: domain.GradeRelevant, GradeConf: 0.8, FusedScore: float64(10 - i)}
	}
	out, err := ConfidenceReranker{}.Rerank(context.Background(), "q", passages, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 5 {
		t.Fatalf("expected 5 survivors, got %d", len(out))
	}
}

func TestConfidenceRerankerDefaultsKRerank(t *testing.T) {
	passages := make([]domain.Passage, 7)
	for i := range passages {
		passages[i] = domain.Passage{ID: string(rune('a' + i)), Grade: domain.GradeRelevant, GradeConf: 0.8}
	}
	out, _ := ConfidenceReranker{}.Rerank(context.Background(), "q", passages, 0)
	if len(out) != defaultKRerank {
		t.Fatalf("expected default kRerank of %d, got %d", defaultKRerank, len(out))
	}
}

func TestNoopRerankerPassesThrough(t *testing.T) {
	passages := []domain.Passage{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	out, _ := NoopReranker{}.Rerank(context.Background(), "q", passages, 0)
	if len(out) != 3 {
		t.Fatalf("expected unchanged passthrough, got %d", len(out))
	}
}

func TestNoopRerankerTruncates(t *testing.T) {
	passages := []domain.Passage{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	out, _ := NoopReranker{}.Rerank(context.Background(), "q", passages, 2)
	if len(out) != 2 {
		t.Fatalf("expected truncation to 2, got %d", len(out))
	}
}

type fakeRerankModel struct {
	scores []float64
	err    error
}

func (f fakeRerankModel) Chat(context.Context, string, domain.ChatOptions) (string, error) {
	return "", errors.New("not used")
}

func (f fakeRerankModel) Rerank(context.Context, string, []string) ([]float64, error) {
	return f.scores, f.err
}

func TestExternalRerankerSubstitutesScores(t *testing.T) {
	// Both substituted scores stay above dropConfidence (0.3), so both
	// passages survive and only their order changes.
	model := fakeRerankModel{scores: []float64{0.4, 0.95}}
	passages := []domain.Passage{
		{ID: "low", Grade: domain.GradeRelevant, GradeConf: 0.99},
		{ID: "high", Grade: domain.GradeRelevant, GradeConf: 0.01},
	}
	out, err := ExternalReranker{Model: model}.Rerank(context.Background(), "q", passages, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 || out[0].ID != "high" {
		t.Fatalf("expected external score to reorder, got %v", out)
	}
}

func TestExternalRerankerPropagatesError(t *testing.T) {
	model := fakeRerankModel{err: errors.New("unsupported")}
	_, err := ExternalReranker{Model: model}.Rerank(context.Background(), "q", []domain.Passage{{ID: "a"}}, 5)
	if err == nil {
		t.Fatalf("expected error to propagate")
	}
}
