package generate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/wealthlens/ragpipe/internal/domain"
	"github.com/wealthlens/ragpipe/internal/domain/testdoubles"
	"github.com/wealthlens/ragpipe/internal/prompt"
)

func newRegistry(t *testing.T) *prompt.Registry {
	t.Helper()
	r := prompt.NewRegistry()
	if err := r.Load(prompt.Builtin()...); err != nil {
		t.Fatalf("failed to load builtin templates: %v", err)
	}
	return r
}

func TestGenerateProducesCitedAnswer(t *testing.T) {
	model := &testdoubles.ScriptedChatModel{Default: "The expense ratio is low [1]."}
	g := Generator{Model: model, Registry: newRegistry(t)}
	survivors := []domain.Passage{{SourcePath: "faq.md", Text: "the expense ratio is 0.1%"}}
	q := domain.Query{Text: "what is the expense ratio", Domain: "wealth"}

	result, err := g.Generate(context.Background(), q, domain.IntentGeneral, survivors, domain.QualityGood)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result.Answer, "[1]") {
		t.Fatalf("expected citation marker in answer, got %q", result.Answer)
	}
	if len(result.Citations) != 1 || result.Citations[0].SourcePath != "faq.md" {
		t.Fatalf("unexpected citations: %+v", result.Citations)
	}
}

func TestGeneratePrependsDisclaimerOnPoorQuality(t *testing.T) {
	model := &testdoubles.ScriptedChatModel{Default: "No relevant info found."}
	g := Generator{Model: model, Registry: newRegistry(t)}
	q := domain.Query{Text: "how do I calculate financed intensity", PromptName: "esg_analysis_cited"}

	result, err := g.Generate(context.Background(), q, domain.IntentESG, nil, domain.QualityPoor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(result.Answer, disclaimerPoor) {
		t.Fatalf("expected poor-quality disclaimer, got %q", result.Answer)
	}
}

func TestGenerateEnforcesBrevityForNonFormulaTemplates(t *testing.T) {
	longReply := strings.Repeat("word ", 200)
	model := &testdoubles.ScriptedChatModel{Default: longReply}
	g := Generator{Model: model, Registry: newRegistry(t)}
	q := domain.Query{Text: "what is my risk"}

	result, err := g.Generate(context.Background(), q, domain.IntentRisk, nil, domain.QualityAmbiguous)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if words := strings.Fields(result.Answer); len(words) > maxBrevityWords {
		t.Fatalf("expected answer truncated to %d words, got %d", maxBrevityWords, len(words))
	}
}

func TestGenerateSkipsBrevityForFormulaTemplates(t *testing.T) {
	longReply := "COMPONENTS: ... " + strings.Repeat("word ", 200)
	model := &testdoubles.ScriptedChatModel{Default: longReply}
	g := Generator{Model: model, Registry: newRegistry(t)}
	q := domain.Query{Text: "how do I calculate the esg score", PromptName: "esg_analysis_cited"}

	result, err := g.Generate(context.Background(), q, domain.IntentESG, nil, domain.QualityGood)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if words := strings.Fields(result.Answer); len(words) <= maxBrevityWords {
		t.Fatalf("expected formula answer left untruncated, got %d words", len(words))
	}
}

func TestGenerateReturnsCannedMessageOnFailure(t *testing.T) {
	model := &testdoubles.ScriptedChatModel{Responses: []testdoubles.ScriptedResponse{{Contains: "", Err: errors.New("down")}}}
	g := Generator{Model: model, Registry: newRegistry(t)}
	q := domain.Query{Text: "what is my portfolio allocation"}

	result, err := g.Generate(context.Background(), q, domain.IntentPortfolio, nil, domain.QualityPoor)
	if err == nil {
		t.Fatalf("expected error on generator failure")
	}
	if result.Answer != unavailableMessage {
		t.Fatalf("expected canned unavailable message, got %q", result.Answer)
	}
	var pe *domain.PipelineError
	if !errors.As(err, &pe) || pe.Kind != domain.ErrKindGeneratorFailed {
		t.Fatalf("expected PipelineError with ErrKindGeneratorFailed, got %v", err)
	}
}

func TestGenerateUnknownTemplateErrors(t *testing.T) {
	model := &testdoubles.ScriptedChatModel{Default: "answer"}
	g := Generator{Model: model, Registry: newRegistry(t)}
	q := domain.Query{Text: "q", PromptName: "does_not_exist"}
	_, err := g.Generate(context.Background(), q, domain.IntentGeneral, nil, domain.QualityGood)
	if !errors.Is(err, domain.ErrUnknownTemplate) {
		t.Fatalf("expected ErrUnknownTemplate, got %v", err)
	}
}
