package fallback

import (
	"context"
	"testing"

	"github.com/wealthlens/ragpipe/internal/domain"
	"github.com/wealthlens/ragpipe/internal/domain/testdoubles"
	"github.com/wealthlens/ragpipe/internal/prompt"
)

func newRegistry(t *testing.T) *prompt.Registry {
	t.Helper()
	r := prompt.NewRegistry()
	if err := r.Load(prompt.Builtin()...); err != nil {
		t.Fatalf("failed to load builtin templates: %v", err)
	}
	return r
}

func TestRunProducesResponseWithMainSchema(t *testing.T) {
	retriever := testdoubles.NewFakeRetriever(16)
	retriever.Seed("wealth",
		domain.Passage{ID: "p1", Text: "the fund expense ratio is 0.1%", SourcePath: "faq.md"},
	)
	model := &testdoubles.ScriptedChatModel{Default: "The expense ratio is 0.1% [1]."}
	r := Runner{Retriever: retriever, Model: model, Registry: newRegistry(t), K: 5}

	q := domain.Query{ID: "q1", Text: "what is the expense ratio", Domain: "wealth"}
	resp, err := r.Run(context.Background(), q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Endpoint != domain.EndpointFallback {
		t.Fatalf("expected fallback endpoint, got %s", resp.Endpoint)
	}
	if resp.ID != "q1" {
		t.Fatalf("expected echoed id, got %s", resp.ID)
	}
	if resp.Answer == "" {
		t.Fatalf("expected a non-empty answer")
	}
}

func TestRunEmptyCorpusYieldsPoorQuality(t *testing.T) {
	retriever := testdoubles.NewFakeRetriever(16)
	model := &testdoubles.ScriptedChatModel{Default: "no info available"}
	r := Runner{Retriever: retriever, Model: model, Registry: newRegistry(t)}

	q := domain.Query{ID: "q2", Text: "what is the expense ratio", Domain: "wealth"}
	resp, err := r.Run(context.Background(), q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Quality != domain.QualityPoor {
		t.Fatalf("expected poor quality with empty corpus, got %s", resp.Quality)
	}
}
