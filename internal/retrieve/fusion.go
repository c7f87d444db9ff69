package retrieve

import (
	"sort"

	"github.com/wealthlens/ragpipe/internal/domain"
)

// Fuse performs weighted reciprocal-rank fusion over semantic and lexical
// candidate lists, per spec §4.4:
//
//	fused(d) = w_sem * (1/(kappa+rank_sem(d))) + w_bm * (1/(kappa+rank_bm(d)))
//
// followed by a priority tie-break: candidates whose fused scores are within
// 5% of each other are re-ordered by a priority multiplier
// (1.0/0.85/0.5/0.3 for critical/high/normal/low), applied at the fusion
// level per spec §9's resolution of that open question. Adapted from
// manifold's retrieve.FuseRRF, generalized to two independent weights.
func Fuse(sem []domain.SemanticHit, lex []domain.LexicalHit, opt Options) []domain.Passage {
	wSem, wBM := opt.WSemantic, opt.WBM25
	if wSem == 0 && wBM == 0 {
		wSem, wBM = 0.6, 0.4
	}
	kappa := opt.Kappa
	if kappa <= 0 {
		kappa = 60
	}

	semRank := make(map[string]int, len(sem))
	semByID := make(map[string]domain.SemanticHit, len(sem))
	for i, h := range sem {
		semRank[h.ID] = i + 1
		semByID[h.ID] = h
	}

	lexRank := make(map[string]int, len(lex))
	lexByID := make(map[string]domain.LexicalHit, len(lex))
	for i, h := range lex {
		lexRank[h.ID] = i + 1
		lexByID[h.ID] = h
	}

	seen := map[string]struct{}{}
	ids := make([]string, 0, len(sem)+len(lex))
	add := func(id string) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, h := range sem {
		add(h.ID)
	}
	for _, h := range lex {
		add(h.ID)
	}

	out := make([]domain.Passage, 0, len(ids))
	for _, id := range ids {
		sr, sOK := semRank[id]
		lr, lOK := lexRank[id]

		semContrib, lexContrib := 0.0, 0.0
		if sr > 0 {
			semContrib = 1.0 / float64(kappa+sr)
		}
		if lr > 0 {
			lexContrib = 1.0 / float64(kappa+lr)
		}
		fused := wSem*semContrib + wBM*lexContrib

		var text, source string
		var md domain.PassageMetadata
		var semScore, lexScore float64
		if sOK {
			sh := semByID[id]
			text = sh.Text
			md = sh.Metadata
			semScore = sh.Score
		}
		if lOK {
			lh := lexByID[id]
			if text == "" {
				text = lh.Text
			}
			if md.Priority == "" {
				md = lh.Metadata
			}
			lexScore = lh.Score
		}
		source = md.Fields["source_path"]

		out = append(out, domain.Passage{
			ID:            id,
			Text:          text,
			SourcePath:    source,
			Metadata:      md,
			SemanticScore: semScore,
			LexicalScore:  lexScore,
			FusedScore:    fused,
			Grade:         domain.GradeUngraded,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].FusedScore != out[j].FusedScore {
			return out[i].FusedScore > out[j].FusedScore
		}
		return out[i].ID < out[j].ID
	})

	applyPriorityTieBreak(out)
	return out
}

// applyPriorityTieBreak re-orders passages whose fused scores are within 5%
// of a local cluster's top score by a priority multiplier, per spec §4.4.
func applyPriorityTieBreak(passages []domain.Passage) {
	n := len(passages)
	i := 0
	for i < n {
		j := i + 1
		top := passages[i].FusedScore
		for j < n && withinFivePercent(passages[j].FusedScore, top) {
			j++
		}
		if j-i > 1 {
			cluster := passages[i:j]
			sort.SliceStable(cluster, func(a, b int) bool {
				ba := cluster[a].FusedScore * domain.PriorityBoost(cluster[a].Metadata.Priority)
				bb := cluster[b].FusedScore * domain.PriorityBoost(cluster[b].Metadata.Priority)
				return ba > bb
			})
		}
		i = j
	}
}

func withinFivePercent(score, top float64) bool {
	if top == 0 {
		return score == 0
	}
	return (top-score)/top <= 0.05
}
