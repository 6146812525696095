// Where: internal/wait/wait.go
// What: Bounded exponential-backoff polling for remote readiness.
// Why: Resource visibility after IAM and function mutations lags the API response.
package wait

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrTimeout is returned when the predicate never reports ready
// within the configured window.
var ErrTimeout = errors.New("wait: condition not met before timeout")

// Predicate reports whether the awaited condition holds. Returning an
// error aborts the wait immediately; transient lookups should report
// (false, nil) instead.
type Predicate func(ctx context.Context) (bool, error)

// Config bounds a polling loop. Interval is the first delay between
// attempts; it doubles after each miss up to MaxInterval.
type Config struct {
	Interval    time.Duration
	MaxInterval time.Duration
	Timeout     time.Duration
}

// DefaultConfig returns the polling bounds used for role and function
// propagation waits.
func DefaultConfig() Config {
	return Config{
		Interval:    500 * time.Millisecond,
		MaxInterval: 5 * time.Second,
		Timeout:     30 * time.Second,
	}
}

func (c Config) normalized() Config {
	out := c
	if out.Interval <= 0 {
		out.Interval = 500 * time.Millisecond
	}
	if out.MaxInterval < out.Interval {
		out.MaxInterval = out.Interval
	}
	if out.Timeout <= 0 {
		out.Timeout = 30 * time.Second
	}
	return out
}

// Until polls check until it reports ready, the configured timeout
// elapses, or the context is canceled. The predicate is always
// evaluated at least once, immediately.
func Until(ctx context.Context, cfg Config, check Predicate) error {
	cfg = cfg.normalized()

	deadline := time.Now().Add(cfg.Timeout)
	interval := cfg.Interval

	for {
		ready, err := check(ctx)
		if err != nil {
			return err
		}
		if ready {
			return nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return fmt.Errorf("%w (%s)", ErrTimeout, cfg.Timeout)
		}
		if interval > remaining {
			interval = remaining
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		interval *= 2
		if interval > cfg.MaxInterval {
			interval = cfg.MaxInterval
		}
	}
}
