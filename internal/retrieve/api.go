// Package retrieve implements hybrid (semantic + lexical) retrieval:
// parallel candidate gathering, weighted reciprocal-rank fusion with a
// priority tie-break, and confidence-based reranking. It is adapted from
// manifold's internal/rag/retrieve package, generalized from a single Alpha
// fusion weight to the independent w_semantic/w_bm25 weights spec §4.4
// requires, and extended with the priority-boost tie-break. It has no
// separate query-planning step, and it does not check embedding dimensions
// itself; that check lives in the Retriever implementation and in
// pipeline.Warmup.
package retrieve

// Options configures one retrieval operation.
type Options struct {
	// KRetrieve is the number of candidates returned after fusion.
	KRetrieve int
	// WSemantic, WBM25 are the fusion weights; callers must ensure they sum
	// to 1 (internal/config.Config.Validate enforces this at load time).
	WSemantic float64
	WBM25     float64
	// Kappa is the RRF rank-fusion constant (default 60).
	Kappa int
	// Domain selects the collection/namespace to search.
	Domain string
}

// DefaultOptions returns the spec-documented defaults.
func DefaultOptions() Options {
	return Options{KRetrieve: 10, WSemantic: 0.6, WBM25: 0.4, Kappa: 60}
}
