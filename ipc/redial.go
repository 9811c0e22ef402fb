package ipc

import (
	"context"
	"io"
	"math"
	"time"

	"github.com/younglifestyle/rilbridge/common"
)

// Backoff configures RetryDialer. Device nodes show up only once the modem
// has booted, so opening them is retried.
type Backoff struct {
	// MaxAttempts bounds the number of dials (0 = unlimited).
	MaxAttempts int `yaml:"max_attempts"`

	// Base is the delay after the first failure. It doubles per attempt.
	Base time.Duration `yaml:"base"`

	// Max caps the delay.
	Max time.Duration `yaml:"max"`
}

// Delay returns the wait after the given failed attempt (1-based).
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := float64(b.Base) * math.Pow(2, float64(attempt-1))
	if b.Max > 0 && delay > float64(b.Max) {
		delay = float64(b.Max)
	}
	return time.Duration(delay)
}

// RetryDialer wraps a Dialer with exponential backoff.
type RetryDialer struct {
	Dialer  Dialer
	Backoff Backoff
	Logger  common.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// Dial retries until a dial succeeds, the attempts run out or ctx ends.
// The last dial error is returned.
func (r RetryDialer) Dial(ctx context.Context) (io.ReadWriteCloser, error) {
	logger := common.OrNop(r.Logger)
	sleep := r.sleep
	if sleep == nil {
		sleep = sleepContext
	}

	for attempt := 1; ; attempt++ {
		rw, err := r.Dialer.Dial(ctx)
		if err == nil {
			if attempt > 1 {
				logger.Info("modem device opened", "attempts", attempt)
			}
			return rw, nil
		}
		if ctx.Err() != nil || (r.Backoff.MaxAttempts > 0 && attempt >= r.Backoff.MaxAttempts) {
			return nil, err
		}

		delay := r.Backoff.Delay(attempt)
		logger.Warn("modem device open failed", "attempt", attempt, "retryIn", delay, "error", err)
		if serr := sleep(ctx, delay); serr != nil {
			return nil, err
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
