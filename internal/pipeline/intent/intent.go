// Package intent classifies a query into the fixed tag set
// { archetype, portfolio, risk, monte_carlo, esg, general }, per spec.md
// §4.3: an LLM call by default, a deterministic keyword table as a
// degraded mode, with classification failure always falling back to
// general. The LLM-then-keyword-fallback shape follows manifold's
// agentd specialist-routing pattern of trying a model call and falling
// back to a static table on error.
package intent

import (
	"context"
	"fmt"
	"strings"

	"github.com/wealthlens/ragpipe/internal/domain"
)

// Classifier maps query text to an Intent.
type Classifier interface {
	Classify(ctx context.Context, text string) domain.Intent
}

// keywordTable maps a small set of telltale terms to intents, checked in
// the order below so the first matching row wins ties.
var keywordTable = []struct {
	intent   domain.Intent
	keywords []string
}{
	{domain.IntentMonteCarlo, []string{"monte carlo", "percentile", "simulation", "success probability"}},
	{domain.IntentESG, []string{"esg", "sustainab", "carbon", "emissions", "governance score"}},
	{domain.IntentRisk, []string{"risk", "volatility", "drawdown", "sharpe", "standard deviation"}},
	{domain.IntentArchetype, []string{"archetype", "investor profile", "persona"}},
	{domain.IntentPortfolio, []string{"portfolio", "allocation", "holdings", "rebalance", "diversif"}},
}

// KeywordClassifier is the degraded-mode classifier: a deterministic
// keyword table, always available, never fails.
type KeywordClassifier struct{}

func (KeywordClassifier) Classify(_ context.Context, text string) domain.Intent {
	lower := strings.ToLower(text)
	for _, row := range keywordTable {
		for _, kw := range row.keywords {
			if strings.Contains(lower, kw) {
				return row.intent
			}
		}
	}
	return domain.IntentGeneral
}

// LLMClassifier asks a ChatModel to pick one of the closed intent tags,
// falling back to KeywordClassifier on any error or unrecognised reply so
// the pipeline can proceed per spec's "failure falls back to general"
// rule without actually discarding a usable keyword signal.
type LLMClassifier struct {
	Model    domain.ChatModel
	Fallback Classifier
}

const classifyPrompt = `Classify the following wealth-management question into exactly one of these tags: archetype, portfolio, risk, monte_carlo, esg, general. Respond with only the tag.

Question: %s`

func (c LLMClassifier) Classify(ctx context.Context, text string) domain.Intent {
	fallback := c.Fallback
	if fallback == nil {
		fallback = KeywordClassifier{}
	}
	if c.Model == nil {
		return fallback.Classify(ctx, text)
	}
	reply, err := c.Model.Chat(ctx, fmt.Sprintf(classifyPrompt, text), domain.ChatOptions{MaxTokens: 8, Temperature: 0})
	if err != nil {
		return fallback.Classify(ctx, text)
	}
	tag := domain.Intent(strings.TrimSpace(strings.ToLower(reply)))
	switch tag {
	case domain.IntentArchetype, domain.IntentPortfolio, domain.IntentRisk,
		domain.IntentMonteCarlo, domain.IntentESG, domain.IntentGeneral:
		return tag
	default:
		return fallback.Classify(ctx, text)
	}
}
