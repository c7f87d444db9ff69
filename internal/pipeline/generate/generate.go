// Package generate produces the final cited answer from survivor
// passages, per spec.md §4.9: template resolution, context injection,
// the brevity contract, and citation renumbering. The retry-wrapped chat
// call mirrors internal/pipeline/grade's use of internal/retrywrap so
// both LLM-calling stages share one backoff policy.
package generate

import (
	"context"
	"strings"

	"github.com/wealthlens/ragpipe/internal/domain"
	"github.com/wealthlens/ragpipe/internal/prompt"
	"github.com/wealthlens/ragpipe/internal/retrywrap"
)

// maxBrevityWords is the word ceiling for non-formula answers, per
// spec.md §4.9's testable property 10.
const maxBrevityWords = 80

// unavailableMessage is returned when the generator LLM call fails after
// retries, per spec.md §4.9's failure semantics.
const unavailableMessage = "The assistant is temporarily unavailable."

// Generator produces cited answers from a resolved template and survivor
// set.
type Generator struct {
	Model    domain.ChatModel
	Registry *prompt.Registry
}

// Result is the generator's output before it is folded into a Response.
type Result struct {
	Answer    string
	Citations []domain.Citation
	Failed    bool
}

// Generate resolves the template for query/intent, applies context
// injection and the poor-quality disclaimer, calls the model, and
// renumbers citations against the survivor list.
func (g Generator) Generate(ctx context.Context, q domain.Query, intent domain.Intent, survivors []domain.Passage, overallQuality domain.Quality) (Result, error) {
	tpl, err := g.Registry.Resolve(q.PromptName, intent)
	if err != nil {
		return Result{}, err
	}

	queryText := q.Text
	if q.HasAppContext() {
		queryText = InjectAppContext(q.Text, q.AppContext)
	}

	contextText := BuildContext(survivors)
	rendered := tpl.Render(contextText, queryText)

	retryOpt := retrywrap.DefaultOptions("generator")
	var reply string
	err = retrywrap.Do(ctx, retryOpt, func(c context.Context) error {
		r, err := g.Model.Chat(c, rendered, domain.ChatOptions{MaxTokens: 512, Temperature: 0.3})
		if err != nil {
			return err
		}
		reply = r
		return nil
	})
	if err != nil {
		return Result{Answer: unavailableMessage, Failed: true}, domain.NewPipelineError(domain.ErrKindGeneratorFailed, err)
	}

	answer, citations := RenumberCitations(reply, survivors)
	answer = ApplyQualityDisclaimer(answer, overallQuality)

	if !prompt.IsFormulaFamily(tpl.Name) {
		answer = enforceBrevity(answer, maxBrevityWords)
	}

	return Result{Answer: answer, Citations: citations}, nil
}

// enforceBrevity truncates an answer to at most maxWords words, preserving
// any trailing citation markers that fall within the limit. Truncation is
// a last resort — templates are instructed to stay within budget; this
// only protects the invariant when a model overruns it.
func enforceBrevity(answer string, maxWords int) string {
	words := strings.Fields(answer)
	if len(words) <= maxWords {
		return answer
	}
	return strings.Join(words[:maxWords], " ")
}
