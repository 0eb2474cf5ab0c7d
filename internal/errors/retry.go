package errors

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"
)

// RetryConfig configures how transient fetch failures are retried.
type RetryConfig struct {
	MaxRetries   int           `json:"max_retries" yaml:"max_retries"`
	InitialDelay time.Duration `json:"initial_delay" yaml:"initial_delay"`
	MaxDelay     time.Duration `json:"max_delay" yaml:"max_delay"`
	Multiplier   float64       `json:"multiplier" yaml:"multiplier"`
	Jitter       float64       `json:"jitter" yaml:"jitter"` // fraction of the delay, 0-1
}

// DefaultRetryConfig returns the retry policy used for page fetches.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   2,
		InitialDelay: 300 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		Jitter:       0.2,
	}
}

// Retrier re-runs an operation while it fails with a retryable error.
// It is safe for concurrent use.
type Retrier struct {
	config RetryConfig

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRetrier creates a retrier. A multiplier below 1 is treated as 1.
func NewRetrier(config RetryConfig) *Retrier {
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.Multiplier < 1 {
		config.Multiplier = 1
	}
	return &Retrier{
		config: config,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Backoff returns the wait before retry number n (1-based).
func (r *Retrier) Backoff(n int) time.Duration {
	if n < 1 {
		return 0
	}

	base := float64(r.config.InitialDelay) * math.Pow(r.config.Multiplier, float64(n-1))
	if limit := float64(r.config.MaxDelay); limit > 0 && base > limit {
		base = limit
	}

	if r.config.Jitter > 0 {
		r.mu.Lock()
		base += (r.rng.Float64()*2 - 1) * r.config.Jitter * base
		r.mu.Unlock()
	}
	return time.Duration(base)
}

// Do calls fn until it succeeds, fails permanently or retries run out.
// It returns the number of attempts made and the last error. A context
// that ends while waiting yields a Cancelled error for url.
func (r *Retrier) Do(ctx context.Context, url string, fn func(ctx context.Context) error) (int, error) {
	attempts := 0
	for {
		attempts++
		err := fn(ctx)
		if err == nil {
			return attempts, nil
		}
		if ctx.Err() != nil {
			return attempts, NewCancelledError(url, "fetch", ctx.Err())
		}
		if attempts > r.config.MaxRetries || !IsRetryable(err) {
			return attempts, err
		}

		timer := time.NewTimer(r.Backoff(attempts))
		select {
		case <-ctx.Done():
			timer.Stop()
			return attempts, NewCancelledError(url, "fetch", ctx.Err())
		case <-timer.C:
		}
	}
}

// Retry is Do for operations that produce a value. The value from the last
// attempt is returned even when it failed.
func Retry[T any](ctx context.Context, r *Retrier, url string, fn func(ctx context.Context) (T, error)) (T, error) {
	var value T
	_, err := r.Do(ctx, url, func(ctx context.Context) error {
		var err error
		value, err = fn(ctx)
		return err
	})
	return value, err
}
