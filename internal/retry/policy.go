package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/companion/internal/config"
	"git.home.luguber.info/inful/companion/internal/foundation/errors"
	"git.home.luguber.info/inful/companion/internal/logfields"
)

// Policy describes how often and how patiently a failed operation is
// retried. The zero value never retries.
type Policy struct {
	Mode       config.RetryBackoffMode
	Initial    time.Duration // delay before the first retry
	Max        time.Duration // upper bound for any single delay
	MaxRetries int           // retries after the first attempt
}

// DefaultPolicy is linear backoff starting at 1s, capped at 30s, with two
// retries.
func DefaultPolicy() Policy {
	return Policy{
		Mode:       config.RetryBackoffLinear,
		Initial:    time.Second,
		Max:        30 * time.Second,
		MaxRetries: 2,
	}
}

// NewPolicy starts from DefaultPolicy and overrides every field given a
// usable value. An initial delay above max is lowered to max.
func NewPolicy(mode config.RetryBackoffMode, initial, maxDelay time.Duration, maxRetries int) Policy {
	p := DefaultPolicy()
	switch mode {
	case config.RetryBackoffFixed, config.RetryBackoffLinear, config.RetryBackoffExponential:
		p.Mode = mode
	}
	if initial > 0 {
		p.Initial = initial
	}
	if maxDelay > 0 {
		p.Max = maxDelay
	}
	if maxRetries >= 0 {
		p.MaxRetries = maxRetries
	}
	p.Initial = min(p.Initial, p.Max)
	return p
}

// FromConfig builds the policy described by a retry section.
func FromConfig(c config.RetryConfig) Policy {
	return NewPolicy(c.Backoff, c.Initial.Std(), c.Max.Std(), c.MaxRetries)
}

// Delay is the wait before retry number n (1-based). It never exceeds Max.
func (p Policy) Delay(n int) time.Duration {
	if n < 1 {
		return 0
	}
	var d time.Duration
	switch p.Mode {
	case config.RetryBackoffFixed:
		d = p.Initial
	case config.RetryBackoffExponential:
		if n > 30 {
			return p.Max
		}
		d = p.Initial << (n - 1)
		if d <= 0 {
			return p.Max
		}
	default:
		d = time.Duration(n) * p.Initial
	}
	return min(d, p.Max)
}

// Validate reports a policy that cannot be applied.
func (p Policy) Validate() error {
	switch {
	case p.Initial <= 0:
		return fmt.Errorf("retry: initial delay must be positive, got %v", p.Initial)
	case p.Max <= 0:
		return fmt.Errorf("retry: max delay must be positive, got %v", p.Max)
	case p.MaxRetries < 0:
		return fmt.Errorf("retry: max retries must not be negative, got %d", p.MaxRetries)
	}
	return nil
}

// Do runs op until it succeeds, the retries are used up or ctx is done.
// Classified errors that forbid retrying end the loop immediately. The last
// error is returned.
func (p Policy) Do(ctx context.Context, name string, op func(context.Context) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		if err = op(ctx); err == nil {
			return nil
		}
		if c, ok := errors.AsClassified(err); ok && !c.CanRetry() {
			return err
		}
		if attempt >= p.MaxRetries {
			return err
		}

		delay := p.Delay(attempt + 1)
		slog.Warn("Operation failed; retrying",
			slog.String("operation", name),
			slog.Int("attempt", attempt+1),
			logfields.Elapsed(delay),
			logfields.Error(err))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
}
