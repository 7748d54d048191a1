package scrape

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// RetryPolicy bounds retries of a single transition or pagination step.
// Zero Attempts means one try, no retry.
type RetryPolicy struct {
	Attempts    int
	Backoff     time.Duration
	Exponential bool
}

// Permanent marks an error as not worth retrying: Do returns it at once,
// unwrapped. Site rejections (bad phone number, bad code) are permanent;
// timeouts and load failures are not.
func Permanent(err error) error {
	return permanentError{err}
}

type permanentError struct{ err error }

func (p permanentError) Error() string { return p.err.Error() }
func (p permanentError) Unwrap() error { return p.err }

// Do runs fn up to Attempts times, sleeping Backoff between tries
// (doubling when Exponential). Context cancellation stops the loop
// immediately and returns ctx.Err().
func (p RetryPolicy) Do(ctx context.Context, log *slog.Logger, op string, fn func() error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	delay := p.Backoff
	var last error
	for i := 1; i <= attempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		last = fn()
		if last == nil {
			return nil
		}
		var perm permanentError
		if errors.As(last, &perm) {
			return perm.err
		}
		if i == attempts {
			break
		}
		log.Warn("step failed, retrying", "op", op, "attempt", i, "of", attempts, "backoff", delay, "error", last)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		if p.Exponential {
			delay *= 2
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", op, attempts, last)
}
