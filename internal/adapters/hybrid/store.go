// Package hybrid composes the semantic (internal/adapters/qdrant), lexical
// (internal/lexical), and embedding (internal/adapters/embed) adapters into
// a single domain.Retriever, the concrete wiring spec.md §6 describes as
// "Retriever ... capability interfaces live in internal/domain (ports)" with
// adapters supplying the implementations. Indexing a corpus (ingestion,
// chunking) is explicitly out of scope per spec.md §1's Non-goals; Index
// here only keeps the semantic and lexical backends in sync for the demo/
// warmup corpus a deployment loads at startup.
package hybrid

import (
	"context"
	"fmt"
	"sync"

	"github.com/wealthlens/ragpipe/internal/domain"
	"github.com/wealthlens/ragpipe/internal/lexical"
)

// Embedder is the capability internal/adapters/embed.Client provides.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// SemanticStore is the capability internal/adapters/qdrant.Store provides;
// narrowed to an interface so tests can substitute a fake vector backend
// without a live Qdrant connection.
type SemanticStore interface {
	Upsert(ctx context.Context, p domain.Passage, vector []float32) error
	SearchSemantic(ctx context.Context, collection string, vector []float32, k int) ([]domain.SemanticHit, error)
	CollectionInfo(ctx context.Context, collection string) (domain.CollectionStats, error)
}

// Store implements domain.Retriever by fanning a query out to a vector
// store and a local BM25 index, keeping enough passage metadata locally to
// reconstruct domain.LexicalHit (the BM25 index itself only tracks terms).
type Store struct {
	semantic SemanticStore
	lexical  *lexical.Index
	embedder Embedder

	mu   sync.RWMutex
	docs map[string]domain.Passage
}

// New wires the three backends into one domain.Retriever.
func New(semantic SemanticStore, lex *lexical.Index, embedder Embedder) *Store {
	return &Store{semantic: semantic, lexical: lex, embedder: embedder, docs: map[string]domain.Passage{}}
}

// Index embeds and upserts a passage into both the vector and lexical
// backends, and keeps a local copy for lexical-hit reconstruction.
func (s *Store) Index(ctx context.Context, p domain.Passage) error {
	vector, err := s.embedder.Embed(ctx, p.Text)
	if err != nil {
		return fmt.Errorf("hybrid: embed passage %s: %w", p.ID, err)
	}
	if err := s.semantic.Upsert(ctx, p, vector); err != nil {
		return fmt.Errorf("hybrid: upsert passage %s: %w", p.ID, err)
	}
	s.lexical.Add(lexical.Doc{ID: p.ID, Text: p.Text})
	s.mu.Lock()
	s.docs[p.ID] = p
	s.mu.Unlock()
	return nil
}

// Embed implements domain.Retriever.
func (s *Store) Embed(ctx context.Context, text string) ([]float32, error) {
	return s.embedder.Embed(ctx, text)
}

// SearchSemantic implements domain.Retriever.
func (s *Store) SearchSemantic(ctx context.Context, collection string, vector []float32, k int) ([]domain.SemanticHit, error) {
	return s.semantic.SearchSemantic(ctx, collection, vector, k)
}

// SearchLexical implements domain.Retriever.
func (s *Store) SearchLexical(_ context.Context, _ string, text string, k int) ([]domain.LexicalHit, error) {
	hits := lexical.NormalizeScores(s.lexical.Search(text, k))
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.LexicalHit, 0, len(hits))
	for _, h := range hits {
		p, ok := s.docs[h.ID]
		if !ok {
			continue
		}
		out = append(out, domain.LexicalHit{ID: h.ID, Text: p.Text, Metadata: p.Metadata, Score: h.Score})
	}
	return out, nil
}

// Stats implements domain.Retriever, reporting the smaller of the two
// backends' document counts (a mismatch signals the lexical/semantic
// indexes drifted out of sync) and the semantic store's embedding
// dimension.
func (s *Store) Stats(ctx context.Context, collection string) (domain.CollectionStats, error) {
	info, err := s.semantic.CollectionInfo(ctx, collection)
	if err != nil {
		return domain.CollectionStats{}, err
	}
	if n := s.lexical.Size(); n < info.DocCount {
		info.DocCount = n
	}
	return info, nil
}
