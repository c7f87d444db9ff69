// Package expand implements the optional query-expansion pre-retrieval
// step from spec.md §4.5: for short or under-specified queries, ask an LLM
// for a handful of domain-relevant expansion terms and append them to the
// retrieval query, leaving the query displayed/logged to the user
// unchanged. Failures are non-fatal, per the grounding manifold's
// tools/web/search.go uses for optional LLM-assisted query rewriting
// steps — a best-effort enhancement the caller proceeds without on error.
package expand

import (
	"context"
	"fmt"
	"strings"

	"github.com/wealthlens/ragpipe/internal/domain"
)

// shortQueryWordThreshold is the word count at or below which a query is
// considered "short" and eligible for expansion.
const shortQueryWordThreshold = 6

// fewKeywordsThreshold is the word count at or below which a general-intent
// query is considered to have "few keywords".
const fewKeywordsThreshold = 4

// ShouldExpand reports whether a query is eligible for expansion per
// spec.md §4.5: short queries, or general-intent queries with few words.
func ShouldExpand(text string, intent domain.Intent) bool {
	words := len(strings.Fields(text))
	if words <= shortQueryWordThreshold {
		return true
	}
	return intent == domain.IntentGeneral && words <= fewKeywordsThreshold
}

const expandPrompt = "Give 3 to 8 short, domain-relevant search terms (comma separated, no explanation) " +
	"that would help retrieve wealth-management documents relevant to this question:\n\n%s"

// Expander produces an expanded retrieval query string.
type Expander struct {
	Model domain.ChatModel
}

// Expand returns the retrieval query to use: the original text with
// expansion terms appended when expansion is warranted and the model call
// succeeds, or the original text unchanged otherwise. It never returns an
// error — expansion is a best-effort enhancement, not a required stage.
func (e Expander) Expand(ctx context.Context, text string, intent domain.Intent) string {
	if e.Model == nil || !ShouldExpand(text, intent) {
		return text
	}
	reply, err := e.Model.Chat(ctx, fmt.Sprintf(expandPrompt, text), domain.ChatOptions{MaxTokens: 64, Temperature: 0.2})
	if err != nil {
		return text
	}
	terms := parseTerms(reply)
	if len(terms) == 0 {
		return text
	}
	return text + " " + strings.Join(terms, " ")
}

func parseTerms(reply string) []string {
	fields := strings.Split(reply, ",")
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		t := strings.TrimSpace(f)
		if t != "" {
			terms = append(terms, t)
		}
	}
	if len(terms) > 8 {
		terms = terms[:8]
	}
	return terms
}
