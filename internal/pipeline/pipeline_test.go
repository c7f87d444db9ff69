package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/wealthlens/ragpipe/internal/breaker"
	"github.com/wealthlens/ragpipe/internal/domain"
	"github.com/wealthlens/ragpipe/internal/domain/testdoubles"
)

func seededRetriever() *testdoubles.FakeRetriever {
	r := testdoubles.NewFakeRetriever(16)
	r.Seed("wealth",
		domain.Passage{ID: "p1", Text: "the fund expense ratio is 0.1 percent annually", SourcePath: "faq.md"},
		domain.Passage{ID: "p2", Text: "our office hours are nine to five", SourcePath: "hours.md"},
	)
	return r
}

func gradingModel(defaultAnswer string) *testdoubles.ScriptedChatModel {
	return &testdoubles.ScriptedChatModel{
		Default: defaultAnswer,
		Responses: []testdoubles.ScriptedResponse{
			{Contains: "Rate this passage's relevance", Reply: "grade: relevant\nconfidence: 0.9"},
		},
	}
}

func TestHandleProducesCitedAnswerOnMainPath(t *testing.T) {
	model := gradingModel("The expense ratio is 0.1% [1].")
	p := New(seededRetriever(), model)

	resp, err := p.Handle(context.Background(), domain.Query{ID: "q1", Text: "what is the expense ratio", Domain: "wealth"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Endpoint != domain.EndpointMain {
		t.Fatalf("expected main endpoint, got %s", resp.Endpoint)
	}
	if len(resp.Citations) == 0 {
		t.Fatalf("expected at least one citation")
	}
	if resp.Quality != domain.QualityGood {
		t.Fatalf("expected good quality, got %s", resp.Quality)
	}
}

func TestHandleServesFromCacheOnSecondCall(t *testing.T) {
	model := gradingModel("The expense ratio is 0.1% [1].")
	p := New(seededRetriever(), model)
	q := domain.Query{ID: "q1", Text: "what is the expense ratio", Domain: "wealth"}

	if _, err := p.Handle(context.Background(), q); err != nil {
		t.Fatalf("unexpected error on first call: %v", err)
	}
	callsBefore := model.Calls

	q.ID = "q2" // different id, same text/domain/prompt_name -> same fingerprint
	resp, err := p.Handle(context.Background(), q)
	if err != nil {
		t.Fatalf("unexpected error on second call: %v", err)
	}
	if resp.ID != "q2" {
		t.Fatalf("expected echoed id from second request, got %s", resp.ID)
	}
	if model.Calls != callsBefore {
		t.Fatalf("expected no additional model calls on cache hit, before=%d after=%d", callsBefore, model.Calls)
	}
	if p.cache.Stats().Hits == 0 {
		t.Fatalf("expected at least one cache hit")
	}
}

func TestHandleBypassesCacheWhenAppContextPresent(t *testing.T) {
	model := gradingModel("Your balance is $10,000 [1].")
	p := New(seededRetriever(), model)
	q := domain.Query{ID: "q1", Text: "what is my balance", Domain: "wealth", AppContext: map[string]float64{"balance": 10000}}

	if _, err := p.Handle(context.Background(), q); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.cache.Stats().Size != 0 {
		t.Fatalf("expected app_context query to bypass the cache, got size %d", p.cache.Stats().Size)
	}
}

func TestHandleRoutesToFallbackWhenBreakerOpen(t *testing.T) {
	model := gradingModel("The expense ratio is 0.1% [1].")
	p := New(seededRetriever(), model, WithBreaker(breaker.New(1, time.Hour)))
	p.mainBreaker.RecordFailure() // threshold=1, single failure opens the circuit

	resp, err := p.Handle(context.Background(), domain.Query{ID: "q1", Text: "what is the expense ratio", Domain: "wealth"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Endpoint != domain.EndpointFallback {
		t.Fatalf("expected fallback endpoint with breaker open, got %s", resp.Endpoint)
	}
}

func TestHandleRecoversFromOpenBreakerOnSuccessfulHalfOpenProbe(t *testing.T) {
	model := gradingModel("The expense ratio is 0.1% [1].")
	b := breaker.New(1, time.Millisecond)
	p := New(seededRetriever(), model, WithBreaker(b))
	b.RecordFailure() // threshold=1, single failure opens the circuit
	time.Sleep(2 * time.Millisecond) // let the reset timeout elapse

	resp, err := p.Handle(context.Background(), domain.Query{ID: "q1", Text: "what is the expense ratio", Domain: "wealth"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Endpoint != domain.EndpointMain {
		t.Fatalf("expected the half-open trial to run the main path, got %s", resp.Endpoint)
	}
	if b.State() != breaker.StateClosed {
		t.Fatalf("expected a successful half-open probe to close the breaker, got %s", b.State())
	}

	// With the breaker closed again, a second call should also hit the main path.
	resp2, err := p.Handle(context.Background(), domain.Query{ID: "q2", Text: "what is the expense ratio", Domain: "wealth"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp2.Endpoint != domain.EndpointMain {
		t.Fatalf("expected the main endpoint once the breaker is closed, got %s", resp2.Endpoint)
	}
}

// failingRetriever embeds a working FakeRetriever but fails both search
// calls, simulating a flaky vector/lexical store independent of the
// generator.
type failingRetriever struct {
	*testdoubles.FakeRetriever
}

func (f failingRetriever) SearchSemantic(context.Context, string, []float32, int) ([]domain.SemanticHit, error) {
	return nil, errors.New("vector store unavailable")
}

func (f failingRetriever) SearchLexical(context.Context, string, string, int) ([]domain.LexicalHit, error) {
	return nil, errors.New("lexical index unavailable")
}

func TestHandleRetrieverFailureDoesNotOpenBreaker(t *testing.T) {
	model := gradingModel("The expense ratio is 0.1% [1].")
	b := breaker.New(1, time.Hour)
	p := New(failingRetriever{seededRetriever()}, model, WithBreaker(b))

	if _, err := p.Handle(context.Background(), domain.Query{ID: "q1", Text: "what is the expense ratio", Domain: "wealth"}); err == nil {
		t.Fatalf("expected an error from the failing retriever")
	}
	if b.State() != breaker.StateClosed {
		t.Fatalf("retriever failures must not open the main-path breaker (spec §7: only generator/startup failures count), got %s", b.State())
	}
}

func TestHandleOverloadedReturnsErrWhenInflightFull(t *testing.T) {
	model := gradingModel("answer")
	p := New(seededRetriever(), model, WithInflightCap(1))
	p.inflight <- struct{}{} // saturate the single slot

	_, err := p.Handle(context.Background(), domain.Query{ID: "q1", Text: "what is the expense ratio", Domain: "wealth"})
	if !errors.Is(err, domain.ErrOverloaded) {
		t.Fatalf("expected ErrOverloaded, got %v", err)
	}
}

func TestHandlePoorQualityWithEmptyCorpus(t *testing.T) {
	model := gradingModel("I don't know.")
	p := New(testdoubles.NewFakeRetriever(16), model)

	resp, err := p.Handle(context.Background(), domain.Query{ID: "q1", Text: "what is the expense ratio", Domain: "wealth"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Quality != domain.QualityPoor {
		t.Fatalf("expected poor quality with an empty corpus, got %s", resp.Quality)
	}
}

func TestHandleAllGradersFailedDegradesToUngraded(t *testing.T) {
	model := &testdoubles.ScriptedChatModel{
		Default: "some answer [1].",
		Responses: []testdoubles.ScriptedResponse{
			{Contains: "Rate this passage's relevance", Err: errors.New("grader down")},
		},
	}
	p := New(seededRetriever(), model)

	resp, err := p.Handle(context.Background(), domain.Query{ID: "q1", Text: "what is the expense ratio", Domain: "wealth"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Endpoint != domain.EndpointMain {
		t.Fatalf("expected main endpoint even when grading degrades, got %s", resp.Endpoint)
	}
	if resp.Quality != domain.QualityPoor {
		t.Fatalf("expected poor quality when all graders failed, got %s", resp.Quality)
	}
}

func TestHandleRecordsMetricsForEveryCall(t *testing.T) {
	model := gradingModel("The expense ratio is 0.1% [1].")
	sink := &testdoubles.MemoryMetricsSink{}
	p := New(seededRetriever(), model, WithMetrics(sink))

	if _, err := p.Handle(context.Background(), domain.Query{ID: "q1", Text: "what is the expense ratio", Domain: "wealth"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sink.Snapshot()) != 1 {
		t.Fatalf("expected exactly one metrics record, got %d", len(sink.Snapshot()))
	}
}

func TestWarmupSucceedsAgainstSeededCollection(t *testing.T) {
	p := New(seededRetriever(), gradingModel("answer"))
	if err := p.Warmup(context.Background(), "wealth"); err != nil {
		t.Fatalf("unexpected warmup error: %v", err)
	}
}
