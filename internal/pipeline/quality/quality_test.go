package quality

import (
	"testing"

	"github.com/wealthlens/ragpipe/internal/domain"
)

func TestClassifyPoorWhenNoSurvivors(t *testing.T) {
	if got := Classify(nil); got != domain.QualityPoor {
		t.Fatalf("expected poor, got %s", got)
	}
}

func TestClassifyGoodWhenTopConfidenceHigh(t *testing.T) {
	survivors := []domain.Passage{{GradeConf: 0.9}, {GradeConf: 0.4}}
	if got := Classify(survivors); got != domain.QualityGood {
		t.Fatalf("expected good, got %s", got)
	}
}

func TestClassifyAmbiguousWhenTopConfidenceLow(t *testing.T) {
	survivors := []domain.Passage{{GradeConf: 0.5}, {GradeConf: 0.4}}
	if got := Classify(survivors); got != domain.QualityAmbiguous {
		t.Fatalf("expected ambiguous, got %s", got)
	}
}

func TestClassifyGoodAtExactThreshold(t *testing.T) {
	survivors := []domain.Passage{{GradeConf: 0.7}}
	if got := Classify(survivors); got != domain.QualityGood {
		t.Fatalf("expected good at exact threshold, got %s", got)
	}
}
