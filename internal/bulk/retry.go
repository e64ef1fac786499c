package bulk

import (
	"context"
	"errors"
	"math/rand/v2"
	"net"
	"strings"
	"time"
)

// DefaultRetryAttempts is the attempt ceiling for retryable job failures.
const DefaultRetryAttempts = 3

var retryableMarkers = []string{"429", "rate limit", "500", "502", "503", "504"}

// IsRetryable reports whether err looks like a rate limit, a server error or a transient network fault.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, m := range retryableMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// RetryPolicy is exponential backoff with jitter: attempt k (0-based) waits BaseDelay*2^k*(0.5+rand).
type RetryPolicy struct {
	Attempts  int
	BaseDelay time.Duration

	// Rand returns a value in [0,1). Defaults to math/rand/v2.
	Rand func() float64
	// Sleep waits for d or until ctx is done.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy returns three attempts from a one second base.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: DefaultRetryAttempts, BaseDelay: time.Second}
}

func (p RetryPolicy) delay(attempt int) time.Duration {
	r := rand.Float64
	if p.Rand != nil {
		r = p.Rand
	}
	factor := float64(uint(1)<<uint(attempt)) * (0.5 + r())
	return time.Duration(float64(p.BaseDelay) * factor)
}

func (p RetryPolicy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// retry calls fn until it succeeds, fails with a non-retryable error, or the attempt ceiling is hit.
// It returns the number of attempts made. onRetry runs before each backoff sleep.
func retry[T any](ctx context.Context, p RetryPolicy, fn func(context.Context) (T, error), onRetry func(attempt int, delay time.Duration, err error)) (T, int, error) {
	attempts := max(p.Attempts, 1)
	var zero T
	for attempt := 0; ; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, attempt + 1, nil
		}
		if attempt == attempts-1 || !IsRetryable(err) || ctx.Err() != nil {
			return zero, attempt + 1, err
		}
		d := p.delay(attempt)
		if onRetry != nil {
			onRetry(attempt+1, d, err)
		}
		if serr := p.sleep(ctx, d); serr != nil {
			return zero, attempt + 1, err
		}
	}
}
