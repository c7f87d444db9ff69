// Package lexical maintains a local, in-process BM25 term index over the
// corpus, mirroring the indexing responsibility manifold's
// internal/rag/ingest/index_search.go hands off to a Postgres-backed FTS
// table, but kept in memory since this pipeline treats the lexical index as
// write-once-after-load, read-parallel infrastructure (spec §5) rather than
// a persistent store.
package lexical

import (
	"math"
	"sort"
	"strings"
	"sync"
)

const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// Doc is one document added to the index.
type Doc struct {
	ID   string
	Text string
}

// Hit is one scored result from Search.
type Hit struct {
	ID    string
	Score float64
}

// Index is a BM25 term index over a fixed corpus. It is safe for concurrent
// readers once Load/Add calls have completed; callers must not mutate it
// concurrently with reads (spec §5: write-once after load, read-parallel).
type Index struct {
	mu        sync.RWMutex
	docs      map[string][]string   // docID -> terms
	postings  map[string]map[string]int // term -> docID -> term frequency
	docLen    map[string]int
	totalLen  int
	avgLen    float64
	docFreq   map[string]int // term -> number of docs containing it
}

// New constructs an empty Index.
func New() *Index {
	return &Index{
		docs:     map[string][]string{},
		postings: map[string]map[string]int{},
		docLen:   map[string]int{},
		docFreq:  map[string]int{},
	}
}

// Load resets the index and adds every document in one pass, then computes
// corpus statistics (average document length). Intended to be called once at
// warmup.
func (idx *Index) Load(docs []Doc) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.docs = make(map[string][]string, len(docs))
	idx.postings = map[string]map[string]int{}
	idx.docLen = make(map[string]int, len(docs))
	idx.docFreq = map[string]int{}
	idx.totalLen = 0
	for _, d := range docs {
		idx.addLocked(d)
	}
	if len(idx.docLen) > 0 {
		idx.avgLen = float64(idx.totalLen) / float64(len(idx.docLen))
	}
}

// Add inserts or replaces a single document and updates corpus statistics.
// Safe to call before any Search, but concurrent Add+Search is not
// supported (see package doc).
func (idx *Index) Add(d Doc) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.addLocked(d)
	if len(idx.docLen) > 0 {
		idx.avgLen = float64(idx.totalLen) / float64(len(idx.docLen))
	}
}

func (idx *Index) addLocked(d Doc) {
	if old, ok := idx.docs[d.ID]; ok {
		idx.totalLen -= len(old)
		for _, t := range uniq(old) {
			delete(idx.postings[t], d.ID)
			if len(idx.postings[t]) == 0 {
				delete(idx.postings, t)
			}
			idx.docFreq[t]--
			if idx.docFreq[t] <= 0 {
				delete(idx.docFreq, t)
			}
		}
	}
	terms := tokenize(d.Text)
	idx.docs[d.ID] = terms
	idx.docLen[d.ID] = len(terms)
	idx.totalLen += len(terms)

	seen := map[string]struct{}{}
	tf := map[string]int{}
	for _, t := range terms {
		tf[t]++
		seen[t] = struct{}{}
	}
	for t, f := range tf {
		if idx.postings[t] == nil {
			idx.postings[t] = map[string]int{}
		}
		idx.postings[t][d.ID] = f
	}
	for t := range seen {
		idx.docFreq[t]++
	}
}

// Search returns the top-k BM25 matches for query, raw scores in [0, inf).
// Normalisation to [0,1] by batch maximum is the caller's responsibility
// (spec §4.4), since that normalisation only makes sense relative to the
// rest of a specific candidate set.
func (idx *Index) Search(query string, k int) []Hit {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if len(idx.docLen) == 0 {
		return nil
	}
	terms := tokenize(query)
	if len(terms) == 0 {
		return nil
	}
	n := float64(len(idx.docLen))
	scores := map[string]float64{}
	for _, t := range uniq(terms) {
		posting := idx.postings[t]
		if len(posting) == 0 {
			continue
		}
		df := float64(idx.docFreq[t])
		idf := math.Log(1 + (n-df+0.5)/(df+0.5))
		for docID, f := range posting {
			dl := float64(idx.docLen[docID])
			denom := float64(f) + bm25K1*(1-bm25B+bm25B*dl/idx.avgLen)
			scores[docID] += idf * (float64(f) * (bm25K1 + 1)) / denom
		}
	}
	hits := make([]Hit, 0, len(scores))
	for id, s := range scores {
		if s <= 0 {
			continue
		}
		hits = append(hits, Hit{ID: id, Score: s})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// Size returns the number of documents currently indexed.
func (idx *Index) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.docLen)
}

func tokenize(s string) []string {
	s = strings.ToLower(s)
	return strings.FieldsFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
}

func uniq(terms []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// NormalizeScores divides every hit's score by the batch maximum, producing
// scores in [0,1], per spec §4.4.
func NormalizeScores(hits []Hit) []Hit {
	if len(hits) == 0 {
		return hits
	}
	max := hits[0].Score
	for _, h := range hits {
		if h.Score > max {
			max = h.Score
		}
	}
	if max <= 0 {
		return hits
	}
	out := make([]Hit, len(hits))
	for i, h := range hits {
		out[i] = Hit{ID: h.ID, Score: h.Score / max}
	}
	return out
}
