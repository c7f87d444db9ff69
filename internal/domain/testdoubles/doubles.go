// Package testdoubles provides deterministic fakes for domain.Retriever,
// domain.ChatModel, domain.MetricsSink, and domain.FeedbackSink, grounded on
// the teacher's embedder.NewDeterministic test-double pattern.
package testdoubles

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/wealthlens/ragpipe/internal/domain"
)

// FakeRetriever serves semantic and lexical hits from an in-memory corpus
// keyed by collection name, with a deterministic hash-based embedder.
type FakeRetriever struct {
	mu   sync.RWMutex
	Dim  int
	Docs map[string][]domain.Passage // collection -> passages
}

// NewFakeRetriever constructs a FakeRetriever with the given embedding
// dimension (0 defaults to 32).
func NewFakeRetriever(dim int) *FakeRetriever {
	if dim <= 0 {
		dim = 32
	}
	return &FakeRetriever{Dim: dim, Docs: map[string][]domain.Passage{}}
}

// Seed adds passages to a collection for subsequent search calls.
func (f *FakeRetriever) Seed(collection string, passages ...domain.Passage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Docs[collection] = append(f.Docs[collection], passages...)
}

func (f *FakeRetriever) Embed(_ context.Context, text string) ([]float32, error) {
	v := make([]float32, f.Dim)
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum64()
	for i := range v {
		h2 := fnv.New64a()
		_, _ = fmt.Fprintf(h2, "%d:%s", i, text)
		hv := h2.Sum64() ^ seed
		v[i] = float32(int32(hv>>32)) / float32(1<<31)
	}
	return v, nil
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	cos := dot / (math.Sqrt(na) * math.Sqrt(nb))
	// map [-1,1] -> [0,1]
	return (cos + 1) / 2
}

func (f *FakeRetriever) SearchSemantic(ctx context.Context, collection string, vector []float32, k int) ([]domain.SemanticHit, error) {
	if len(vector) != f.Dim {
		return nil, domain.ErrDimensionMismatch
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	passages := f.Docs[collection]
	hits := make([]domain.SemanticHit, 0, len(passages))
	for _, p := range passages {
		pv, _ := f.Embed(ctx, p.Text)
		hits = append(hits, domain.SemanticHit{ID: p.ID, Text: p.Text, Metadata: p.Metadata, Score: cosine(vector, pv)})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (f *FakeRetriever) SearchLexical(_ context.Context, collection string, text string, k int) ([]domain.LexicalHit, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	terms := strings.Fields(strings.ToLower(text))
	passages := f.Docs[collection]
	hits := make([]domain.LexicalHit, 0, len(passages))
	for _, p := range passages {
		lt := strings.ToLower(p.Text)
		score := 0.0
		for _, t := range terms {
			score += float64(strings.Count(lt, t))
		}
		if score <= 0 {
			continue
		}
		hits = append(hits, domain.LexicalHit{ID: p.ID, Text: p.Text, Metadata: p.Metadata, Score: score})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (f *FakeRetriever) Stats(_ context.Context, collection string) (domain.CollectionStats, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return domain.CollectionStats{DocCount: len(f.Docs[collection]), EmbeddingDim: f.Dim}, nil
}

// ScriptedChatModel returns canned responses keyed by a substring of the
// prompt (the first matching entry wins), falling back to a default response. Useful for grader
// and generator tests that need deterministic LLM behaviour.
type ScriptedChatModel struct {
	mu        sync.Mutex
	Responses []ScriptedResponse
	Default   string
	Calls     int
	FailNext  int // number of subsequent Chat calls to fail before succeeding
}

// ScriptedResponse pairs a substring matcher with the text to return.
type ScriptedResponse struct {
	Contains string
	Reply    string
	Err      error
}

func (m *ScriptedChatModel) Chat(_ context.Context, prompt string, _ domain.ChatOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.FailNext > 0 {
		m.FailNext--
		return "", fmt.Errorf("scripted transient failure")
	}
	for _, r := range m.Responses {
		if r.Contains == "" || strings.Contains(prompt, r.Contains) {
			if r.Err != nil {
				return "", r.Err
			}
			return r.Reply, nil
		}
	}
	return m.Default, nil
}

func (m *ScriptedChatModel) Rerank(_ context.Context, _ string, passages []string) ([]float64, error) {
	out := make([]float64, len(passages))
	for i := range passages {
		out[i] = 1.0 / float64(i+1)
	}
	return out, nil
}

// MemoryMetricsSink collects metrics records in memory for assertions.
type MemoryMetricsSink struct {
	mu      sync.Mutex
	Records []domain.MetricsRecord
}

func (s *MemoryMetricsSink) Record(_ context.Context, rec domain.MetricsRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Records = append(s.Records, rec)
	return nil
}

func (s *MemoryMetricsSink) Snapshot() []domain.MetricsRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.MetricsRecord, len(s.Records))
	copy(out, s.Records)
	return out
}

// MemoryFeedbackSink collects feedback records in memory for assertions.
type MemoryFeedbackSink struct {
	mu      sync.Mutex
	Records []domain.FeedbackRecord
}

func (s *MemoryFeedbackSink) Record(_ context.Context, rec domain.FeedbackRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Records = append(s.Records, rec)
	return nil
}
