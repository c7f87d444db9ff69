// Package retrywrap wraps a call in jittered exponential backoff retries,
// per spec §4.6/§5: 250ms initial interval, ±25% jitter, at most 2 retries.
// The retry-then-give-up shape is grounded on manifold's orchestrator/kafka.go
// command-handling loop (attempt counter, backoff sleep, give up after
// maxAttempts); the backoff math itself comes from
// github.com/cenkalti/backoff/v4 rather than the teacher's hand-rolled
// doubling, since the spec requires randomized jitter the teacher's loop
// does not have.
package retrywrap

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
)

// Options configures one retry-wrapped call.
type Options struct {
	InitialInterval     time.Duration
	MaxRetries          int
	RandomizationFactor float64
	Multiplier          float64
	MaxInterval         time.Duration
	// Name is attached to log lines so retries on different dependencies
	// (the grader model, the generator model, the vector store) are
	// distinguishable.
	Name string
}

// DefaultOptions returns the spec-documented defaults: 250ms initial
// interval, 2 retries, 25% jitter.
func DefaultOptions(name string) Options {
	return Options{
		InitialInterval:     250 * time.Millisecond,
		MaxRetries:          2,
		RandomizationFactor: 0.25,
		Multiplier:          2.0,
		MaxInterval:         4 * time.Second,
		Name:                name,
	}
}

// Do runs fn, retrying transient failures (fn returns a non-nil error) with
// jittered exponential backoff up to opt.MaxRetries additional attempts.
// The context's deadline bounds the whole retry sequence, including sleeps
// between attempts.
func Do(ctx context.Context, opt Options, fn func(context.Context) error) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = opt.InitialInterval
	eb.RandomizationFactor = opt.RandomizationFactor
	eb.Multiplier = opt.Multiplier
	eb.MaxInterval = opt.MaxInterval
	eb.MaxElapsedTime = 0 // bounded by ctx instead, not by wall-clock budget

	bo := backoff.WithMaxRetries(eb, uint64(opt.MaxRetries))
	withCtx := backoff.WithContext(bo, ctx)

	attempt := 0
	op := func() error {
		attempt++
		err := fn(ctx)
		if err != nil && attempt <= opt.MaxRetries {
			log.Debug().Err(err).Str("dependency", opt.Name).Int("attempt", attempt).Msg("ragpipe_retry_transient_error")
		}
		return err
	}

	return backoff.Retry(op, withCtx)
}
