package domain

import "context"

// SemanticHit is one nearest-neighbour result from the vector store.
type SemanticHit struct {
	ID       string
	Text     string
	Metadata PassageMetadata
	Score    float64
}

// LexicalHit is one result from the lexical (BM25) index.
type LexicalHit struct {
	ID       string
	Text     string
	Metadata PassageMetadata
	Score    float64
}

// CollectionStats describes a retrieval collection's shape, used to enforce
// the embedding-dimension invariant at startup and on first query.
type CollectionStats struct {
	DocCount      int
	EmbeddingDim  int
}

// Retriever is the external capability boundary for hybrid search: semantic
// nearest-neighbour lookup via an embedding plus lexical (BM25) lookup, both
// scoped to a domain/collection.
type Retriever interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	SearchSemantic(ctx context.Context, collection string, vector []float32, k int) ([]SemanticHit, error)
	SearchLexical(ctx context.Context, collection string, text string, k int) ([]LexicalHit, error)
	Stats(ctx context.Context, collection string) (CollectionStats, error)
}

// ChatModel is the external capability boundary for language-model calls.
type ChatModel interface {
	Chat(ctx context.Context, prompt string, options ChatOptions) (string, error)
	// Rerank is optional; implementations that do not support it should
	// return an error so callers fall back to confidence-based reranking.
	Rerank(ctx context.Context, query string, passages []string) ([]float64, error)
}

// ChatOptions configures one ChatModel.Chat call.
type ChatOptions struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// MetricsSink is the append-only observability stream described in spec §6.
type MetricsSink interface {
	Record(ctx context.Context, rec MetricsRecord) error
}

// FeedbackSink is the append-only user-feedback stream described in spec §6.
type FeedbackSink interface {
	Record(ctx context.Context, rec FeedbackRecord) error
}
