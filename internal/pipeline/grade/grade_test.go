package grade

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/wealthlens/ragpipe/internal/domain"
	"github.com/wealthlens/ragpipe/internal/domain/testdoubles"
)

func candidates(n int) []domain.Passage {
	out := make([]domain.Passage, n)
	for i := range out {
		out[i] = domain.Passage{ID: string(rune('a' + i)), Text: "passage text"}
	}
	return out
}

func TestGradeAnnotatesEachCandidate(t *testing.T) {
	model := &testdoubles.ScriptedChatModel{Default: "grade: relevant\nconfidence: 0.9"}
	g := Grader{Model: model, Opts: DefaultOptions()}
	out, err := g.Grade(context.Background(), "what is the expense ratio", candidates(5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 5 {
		t.Fatalf("expected 5 graded passages, got %d", len(out))
	}
	for _, p := range out {
		if p.Grade != domain.GradeRelevant || p.GradeConf != 0.9 {
			t.Fatalf("unexpected grade result: %+v", p)
		}
	}
}

func TestGradePreservesOriginalOrder(t *testing.T) {
	model := &testdoubles.ScriptedChatModel{Default: "grade: partial\nconfidence: 0.5"}
	g := Grader{Model: model, Opts: DefaultOptions()}
	cs := candidates(8)
	out, err := g.Grade(context.Background(), "q", cs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, p := range out {
		if p.ID != cs[i].ID {
			t.Fatalf("order mismatch at index %d: got %s want %s", i, p.ID, cs[i].ID)
		}
	}
}

func TestGradeSoftDropsFailedCandidate(t *testing.T) {
	model := &testdoubles.ScriptedChatModel{
		Responses: []testdoubles.ScriptedResponse{
			{Contains: "FAIL_ME", Err: errors.New("transient")},
			{Contains: "", Reply: "grade: relevant\nconfidence: 0.8"},
		},
	}
	opt := DefaultOptions()
	g := Grader{Model: model, Opts: opt}
	cs := []domain.Passage{
		{ID: "bad", Text: "FAIL_ME passage"},
		{ID: "good", Text: "fine passage"},
	}
	out, err := g.Grade(context.Background(), "q", cs)
	if err != nil {
		t.Fatalf("expected no error since not all candidates failed: %v", err)
	}
	var bad, good domain.Passage
	for _, p := range out {
		if p.ID == "bad" {
			bad = p
		}
		if p.ID == "good" {
			good = p
		}
	}
	if bad.Grade != domain.GradeIrrelevant || bad.GradeConf != 0 {
		t.Fatalf("expected soft-dropped candidate, got %+v", bad)
	}
	if good.Grade != domain.GradeRelevant {
		t.Fatalf("expected good candidate graded relevant, got %+v", good)
	}
}

func TestGradeReturnsErrAllGradersFailedWhenEveryCallFails(t *testing.T) {
	model := &testdoubles.ScriptedChatModel{Responses: []testdoubles.ScriptedResponse{{Contains: "", Err: errors.New("down")}}}
	opt := DefaultOptions()
	opt.CallTimeout = 50 * time.Millisecond
	g := Grader{Model: model, Opts: opt}
	out, err := g.Grade(context.Background(), "q", candidates(3))
	if !errors.Is(err, domain.ErrAllGradersFailed) {
		t.Fatalf("expected ErrAllGradersFailed, got %v", err)
	}
	for _, p := range out {
		if p.Grade != domain.GradeIrrelevant {
			t.Fatalf("expected all candidates irrelevant on total failure, got %+v", p)
		}
	}
}

func TestGradeEmptyCandidatesReturnsNil(t *testing.T) {
	model := &testdoubles.ScriptedChatModel{Default: "grade: relevant\nconfidence: 1"}
	g := Grader{Model: model}
	out, err := g.Grade(context.Background(), "q", nil)
	if err != nil || out != nil {
		t.Fatalf("expected nil, nil for empty candidates, got %v, %v", out, err)
	}
}

func TestParseGradeReplyClampsConfidence(t *testing.T) {
	grade, conf, _, err := parseGradeReply("grade: relevant\nconfidence: 1.5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if grade != domain.GradeRelevant || conf != 1 {
		t.Fatalf("expected confidence clamped to 1, got %f", conf)
	}
}

func TestParseGradeReplyUnparseableErrors(t *testing.T) {
	_, _, _, err := parseGradeReply("not a valid reply at all")
	if err == nil {
		t.Fatalf("expected error for unparseable reply")
	}
}
