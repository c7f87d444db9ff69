package retrieve

import (
	"context"
	"time"

	"github.com/wealthlens/ragpipe/internal/domain"
)

// Diagnostics carries per-source retrieval timings and counts, used for
// metrics and debug output.
type Diagnostics struct {
	SemanticLatency time.Duration
	LexicalLatency  time.Duration
	SemanticCount   int
	LexicalCount    int
}

// ParallelCandidates queries the semantic and lexical sources concurrently,
// the way manifold's retrieve.ParallelCandidates fires FTS and vector
// lookups on separate goroutines and joins on two single-slot channels.
// Per spec §4.4 edge cases: if either retriever yields zero results, the
// other's ranking is used unaltered by the caller (fusion handles absence
// naturally); if either search errors, that error is returned (the
// semantic one when both fail).
func ParallelCandidates(ctx context.Context, r domain.Retriever, domainName string, query string, vector []float32, kSemantic, kLexical int) ([]domain.SemanticHit, []domain.LexicalHit, Diagnostics, error) {
	type semOut struct {
		res []domain.SemanticHit
		dur time.Duration
		err error
	}
	type lexOut struct {
		res []domain.LexicalHit
		dur time.Duration
		err error
	}

	semCh := make(chan semOut, 1)
	lexCh := make(chan lexOut, 1)

	if kSemantic > 0 && len(vector) > 0 {
		go func() {
			t0 := time.Now()
			res, err := r.SearchSemantic(ctx, domainName, vector, kSemantic)
			semCh <- semOut{res: res, dur: time.Since(t0), err: err}
		}()
	} else {
		semCh <- semOut{}
	}

	if kLexical > 0 {
		go func() {
			t0 := time.Now()
			res, err := r.SearchLexical(ctx, domainName, query, kLexical)
			lexCh <- lexOut{res: res, dur: time.Since(t0), err: err}
		}()
	} else {
		lexCh <- lexOut{}
	}

	so := <-semCh
	lo := <-lexCh

	if so.err != nil {
		return nil, nil, Diagnostics{}, so.err
	}
	if lo.err != nil {
		return nil, nil, Diagnostics{}, lo.err
	}
	diag := Diagnostics{
		SemanticLatency: so.dur,
		LexicalLatency:  lo.dur,
		SemanticCount:   len(so.res),
		LexicalCount:    len(lo.res),
	}
	return so.res, lo.res, diag, nil
}
