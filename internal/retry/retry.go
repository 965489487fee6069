// Package retry classifies provider failures and retries the recoverable
// ones after a fixed delay.
package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"

	"tweetgraph/hunter/internal/provider"
)

// Outcome is the retry decision for the result of one provider call.
type Outcome int

const (
	Success Outcome = iota
	Transient
	RateLimited
	// TerminalEmpty means the target yields nothing; the call is treated as
	// an empty successful result.
	TerminalEmpty
	Fatal
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Transient:
		return "transient"
	case RateLimited:
		return "rate_limited"
	case TerminalEmpty:
		return "terminal_empty"
	case Fatal:
		return "fatal"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Classify maps an error returned by a provider call onto an Outcome.
// Cancellation of the caller's context is always Fatal.
func Classify(err error) Outcome {
	if err == nil {
		return Success
	}
	var (
		tne *provider.TransientNetworkError
		rle *provider.RateLimitError
		tie *provider.TargetInaccessibleError
		ne  net.Error
	)
	// Typed provider errors come first: a request timeout is transient even
	// though it wraps context.DeadlineExceeded.
	switch {
	case errors.As(err, &rle):
		return RateLimited
	case errors.As(err, &tie):
		return TerminalEmpty
	case errors.As(err, &tne):
		return Transient
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return Fatal
	case errors.As(err, &ne):
		return Transient
	}
	return Fatal
}

// Policy retries transient failures and rate limits indefinitely after a
// fixed delay. Nothing else is retried.
type Policy struct {
	TransientDelay time.Duration
	RateLimitDelay time.Duration

	// Sleep waits for d or until ctx is done. Defaults to SleepContext.
	Sleep  func(ctx context.Context, d time.Duration) error
	Logger *zap.Logger
}

// SleepContext blocks for d, returning early with ctx.Err() on cancellation.
func SleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Do calls fn until it succeeds, the target turns out to be inaccessible
// (zero value, nil error), or it fails in a way that is not retried. op
// names the call in logs.
func Do[T any](ctx context.Context, p Policy, op string, fn func(context.Context) (T, error)) (T, error) {
	sleep := p.Sleep
	if sleep == nil {
		sleep = SleepContext
	}
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var zero T
	for {
		v, err := fn(ctx)
		outcome := Classify(err)

		var delay time.Duration
		switch outcome {
		case Success:
			return v, nil
		case TerminalEmpty:
			logger.Info("target inaccessible, treating as empty", zap.String("op", op), zap.Error(err))
			return zero, nil
		case Transient:
			delay = p.TransientDelay
		case RateLimited:
			delay = p.RateLimitDelay
		default:
			return zero, err
		}

		retrySleeps.WithLabelValues(outcome.String()).Inc()
		logger.Info("backing off",
			zap.String("op", op),
			zap.Stringer("kind", outcome),
			zap.Duration("delay", delay),
			zap.Error(err))
		if err := sleep(ctx, delay); err != nil {
			return zero, err
		}
	}
}
