// Package quality classifies the overall confidence of one retrieval pass
// from its surviving passages, per spec.md §4.8. Kept as a pure function
// with no I/O, the way manifold's retrieve.AssembleResults keeps
// pure-assembly logic synchronous and separate from the I/O-bound stages
// around it.
package quality

import "github.com/wealthlens/ragpipe/internal/domain"

// goodConfidenceFloor is the top-confidence threshold at or above which a
// non-empty survivor set is classified good rather than ambiguous.
const goodConfidenceFloor = 0.7

// Classify reports the quality signal for a reranked survivor set:
// zero survivors is poor, a top confidence at or above goodConfidenceFloor
// is good, anything else is ambiguous.
func Classify(survivors []domain.Passage) domain.Quality {
	if len(survivors) == 0 {
		return domain.QualityPoor
	}
	top := survivors[0].GradeConf
	for _, p := range survivors[1:] {
		if p.GradeConf > top {
			top = p.GradeConf
		}
	}
	if top >= goodConfidenceFloor {
		return domain.QualityGood
	}
	return domain.QualityAmbiguous
}
