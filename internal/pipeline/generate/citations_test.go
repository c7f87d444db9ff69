package generate

import (
	"strings"
	"testing"

	"github.com/wealthlens/ragpipe/internal/domain"
)

func TestBuildContextIncludesSequentialIndices(t *testing.T) {
	survivors := []domain.Passage{
		{SourcePath: "faq.md", Text: "expense ratios are fees"},
		{SourcePath: "fund.md", Text: "the fund charges 0.2%"},
	}
	ctx := BuildContext(survivors)
	if !containsAll(ctx, "[1]", "faq.md", "[2]", "fund.md") {
		t.Fatalf("expected numbered source tags in context, got %q", ctx)
	}
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}

func TestRenumberCitationsProducesGaplessPrefix(t *testing.T) {
	survivors := []domain.Passage{
		{SourcePath: "a.md"}, {SourcePath: "b.md"}, {SourcePath: "c.md"},
	}
	answer := "Fees are described in [3] and again in [1]. See also [3]."
	rewritten, citations := RenumberCitations(answer, survivors)

	if !strings.Contains(rewritten, "[1]") || !strings.Contains(rewritten, "[2]") {
		t.Fatalf("expected renumbered citations, got %q", rewritten)
	}
	if strings.Contains(rewritten, "[3]") {
		t.Fatalf("did not expect original index 3 to survive renumbering: %q", rewritten)
	}
	if len(citations) != 2 {
		t.Fatalf("expected 2 distinct citations, got %d", len(citations))
	}
	if citations[0].SourcePath != "c.md" || citations[1].SourcePath != "a.md" {
		t.Fatalf("unexpected citation order: %+v", citations)
	}
}

func TestRenumberCitationsIgnoresOutOfRangeIndices(t *testing.T) {
	survivors := []domain.Passage{{SourcePath: "a.md"}}
	answer := "See [1] and also [99]."
	rewritten, citations := RenumberCitations(answer, survivors)
	if !strings.Contains(rewritten, "[99]") {
		t.Fatalf("expected out-of-range marker left unchanged, got %q", rewritten)
	}
	if len(citations) != 1 {
		t.Fatalf("expected 1 citation, got %d", len(citations))
	}
}
