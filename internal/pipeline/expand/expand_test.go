package expand

import (
	"context"
	"errors"
	"testing"

	"github.com/wealthlens/ragpipe/internal/domain"
	"github.com/wealthlens/ragpipe/internal/domain/testdoubles"
)

func TestShouldExpandShortQuery(t *testing.T) {
	if !ShouldExpand("esg funds", domain.IntentGeneral) {
		t.Fatalf("expected short query to be eligible for expansion")
	}
}

func TestShouldExpandLongSpecificQueryIsNotEligible(t *testing.T) {
	if ShouldExpand("what is the risk adjusted return of my current portfolio allocation over the last year", domain.IntentRisk) {
		t.Fatalf("did not expect a long, specifically-intented query to be eligible")
	}
}

func TestExpandAppendsTermsOnSuccess(t *testing.T) {
	model := &testdoubles.ScriptedChatModel{Default: "expense ratio, fund fees, annual cost"}
	e := Expander{Model: model}
	got := e.Expand(context.Background(), "fees", domain.IntentGeneral)
	if got == "fees" {
		t.Fatalf("expected expansion terms to be appended")
	}
}

func TestExpandReturnsOriginalWhenNotEligible(t *testing.T) {
	model := &testdoubles.ScriptedChatModel{Default: "x, y, z"}
	e := Expander{Model: model}
	text := "what is the risk adjusted return of my current portfolio allocation over the last year"
	got := e.Expand(context.Background(), text, domain.IntentRisk)
	if got != text {
		t.Fatalf("expected unchanged text for ineligible query, got %q", got)
	}
}

func TestExpandReturnsOriginalOnModelError(t *testing.T) {
	model := &testdoubles.ScriptedChatModel{Responses: []testdoubles.ScriptedResponse{{Contains: "", Err: errors.New("down")}}}
	e := Expander{Model: model}
	got := e.Expand(context.Background(), "fees", domain.IntentGeneral)
	if got != "fees" {
		t.Fatalf("expected unchanged text on model error, got %q", got)
	}
}

func TestExpandReturnsOriginalWithNilModel(t *testing.T) {
	e := Expander{}
	got := e.Expand(context.Background(), "fees", domain.IntentGeneral)
	if got != "fees" {
		t.Fatalf("expected unchanged text with nil model, got %q", got)
	}
}
