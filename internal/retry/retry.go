// Package retry runs an operation under a bounded attempt policy.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hotelpartner/internal/clock"
)

// ErrGaveUp is returned (wrapping the last error) once every attempt failed.
var ErrGaveUp = errors.New("retry: gave up")

// Policy bounds a retry loop. Delay is the wait before the second attempt;
// each later wait is multiplied by Multiplier (values <= 1 keep it fixed).
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
	Multiplier  float64
	Clock       clock.Clock
}

// DefaultPolicy mirrors the profile screen: three attempts two seconds apart.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, Delay: 2 * time.Second}
}

type permanentError struct{ err error }

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying. Do returns it unwrapped.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Do calls fn until it succeeds, returns a Permanent error, ctx ends, or the
// attempts run out. attempt is 1-based.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context, attempt int) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	clk := p.Clock
	if clk == nil {
		clk = clock.Real()
	}

	delay := p.Delay
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		lastErr = err

		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("retry interrupted after %d attempts: %w", attempt, ctx.Err())
		case <-clk.After(delay):
		}
		if p.Multiplier > 1 {
			delay = time.Duration(float64(delay) * p.Multiplier)
		}
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrGaveUp, attempts, lastErr)
}
