package generate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/wealthlens/ragpipe/internal/domain"
)

// BuildContext concatenates survivor passages with source tags, the
// {context} placeholder value spec.md §4.9 describes, using a stable
// pre-renumbering index (1-based position in the survivor slice) so the
// model's [n] citations line up with RenumberCitations below.
func BuildContext(survivors []domain.Passage) string {
	var b strings.Builder
	for i, p := range survivors {
		fmt.Fprintf(&b, "[%d] (%s) %s\n\n", i+1, p.SourcePath, p.Text)
	}
	return strings.TrimSpace(b.String())
}

var citationPattern = regexp.MustCompile(`\[(\d+)\]`)

// RenumberCitations rewrites the [n] markers the model emitted into a
// sequential 1..m prefix (per spec.md §4.9's testable property 5: the
// distinct citation indices form a gapless 1..m prefix) and returns the
// rewritten answer plus the ordered Citation list those indices resolve
// to against the (already 1-indexed) survivor slice.
func RenumberCitations(answer string, survivors []domain.Passage) (string, []domain.Citation) {
	order := []int{}
	seen := map[int]int{} // original index -> new sequential index
	rewritten := citationPattern.ReplaceAllStringFunc(answer, func(m string) string {
		n, err := strconv.Atoi(m[1 : len(m)-1])
		if err != nil || n < 1 || n > len(survivors) {
			return m
		}
		if _, ok := seen[n]; !ok {
			order = append(order, n)
			seen[n] = len(order)
		}
		return fmt.Sprintf("[%d]", seen[n])
	})

	citations := make([]domain.Citation, 0, len(order))
	for _, n := range order {
		p := survivors[n-1]
		citations = append(citations, domain.Citation{SourcePath: p.SourcePath, ChunkIndex: p.ChunkIndex, Score: p.FusedScore})
	}
	return rewritten, citations
}
