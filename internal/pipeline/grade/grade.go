// Package grade implements the parallel relevance-grading fan-out from
// spec.md §4.6: one LLM call per candidate passage, bounded by a
// configurable parallelism, each call independently timed out and
// retried, soft-dropping passages that exhaust retries instead of
// failing the whole phase. The bounded-fan-out-into-a-preallocated-slice
// shape is grounded on manifold's tools/web/fetch_tool.go
// (errgroup.Group with SetLimit, writing results[i] from each goroutine).
package grade

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wealthlens/ragpipe/internal/domain"
	"github.com/wealthlens/ragpipe/internal/retrywrap"
)

// defaultParallelism caps the number of concurrent grading calls when the
// candidate count exceeds it, per spec §4.6 (P default = all candidates,
// at most 16).
const defaultParallelism = 16

// defaultCallTimeout is the per-grading-call timeout, per spec §4.6.
const defaultCallTimeout = 3 * time.Second

// Options configures one grading pass.
type Options struct {
	Parallelism int
	CallTimeout time.Duration
}

// DefaultOptions returns the spec-documented defaults.
func DefaultOptions() Options {
	return Options{Parallelism: defaultParallelism, CallTimeout: defaultCallTimeout}
}

const gradePrompt = `Question: %s

Passage:
%s

Rate this passage's relevance to the question. Respond with exactly two lines:
grade: relevant|partial|irrelevant
confidence: <number between 0 and 1>`

// Grader evaluates each candidate passage's relevance to a query.
type Grader struct {
	Model domain.ChatModel
	Opts  Options
}

// Grade runs one grading call per candidate, bounded by Opts.Parallelism,
// and returns the candidates annotated with Grade/GradeConf/GradeReason in
// their original order. It returns domain.ErrAllGradersFailed only when
// every single candidate's call failed after retries; per-candidate
// failures otherwise soft-drop to grade=irrelevant, confidence=0.
func (g Grader) Grade(ctx context.Context, query string, candidates []domain.Passage) ([]domain.Passage, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	parallelism := g.Opts.Parallelism
	if parallelism <= 0 {
		parallelism = defaultParallelism
	}
	if parallelism > len(candidates) {
		parallelism = len(candidates)
	}
	callTimeout := g.Opts.CallTimeout
	if callTimeout <= 0 {
		callTimeout = defaultCallTimeout
	}

	out := make([]domain.Passage, len(candidates))
	copy(out, candidates)

	failed := make([]bool, len(candidates))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(parallelism)

	for i, c := range candidates {
		i, c := i, c
		eg.Go(func() error {
			grade, conf, reason, err := g.gradeOne(egCtx, callTimeout, query, c.Text)
			if err != nil {
				failed[i] = true
				out[i].Grade = domain.GradeIrrelevant
				out[i].GradeConf = 0
				out[i].GradeReason = "grader call failed: " + err.Error()
				return nil
			}
			out[i].Grade = grade
			out[i].GradeConf = conf
			out[i].GradeReason = reason
			return nil
		})
	}
	// The goroutines above always return nil, so Wait always returns nil;
	// it only blocks until every grading call has finished.
	_ = eg.Wait()

	allFailed := true
	for _, f := range failed {
		if !f {
			allFailed = false
			break
		}
	}
	if allFailed {
		return out, domain.ErrAllGradersFailed
	}
	return out, nil
}

func (g Grader) gradeOne(ctx context.Context, timeout time.Duration, query, passageText string) (domain.Grade, float64, string, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reply string
	retryOpt := retrywrap.DefaultOptions("grader")
	err := retrywrap.Do(callCtx, retryOpt, func(c context.Context) error {
		r, err := g.Model.Chat(c, fmt.Sprintf(gradePrompt, query, passageText), domain.ChatOptions{MaxTokens: 32, Temperature: 0})
		if err != nil {
			return err
		}
		reply = r
		return nil
	})
	if err != nil {
		return domain.GradeIrrelevant, 0, "", err
	}
	return parseGradeReply(reply)
}

func parseGradeReply(reply string) (domain.Grade, float64, string, error) {
	var grade domain.Grade
	var conf float64
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(strings.ToLower(line), "grade:"):
			v := strings.TrimSpace(strings.SplitN(line, ":", 2)[1])
			switch domain.Grade(strings.ToLower(v)) {
			case domain.GradeRelevant, domain.GradePartial, domain.GradeIrrelevant:
				grade = domain.Grade(strings.ToLower(v))
			default:
				grade = domain.GradeIrrelevant
			}
		case strings.HasPrefix(strings.ToLower(line), "confidence:"):
			v := strings.TrimSpace(strings.SplitN(line, ":", 2)[1])
			fmt.Sscanf(v, "%f", &conf)
		}
	}
	if grade == "" {
		return domain.GradeIrrelevant, 0, reply, fmt.Errorf("grade: unparseable reply %q", reply)
	}
	if conf < 0 {
		conf = 0
	}
	if conf > 1 {
		conf = 1
	}
	return grade, conf, reply, nil
}
