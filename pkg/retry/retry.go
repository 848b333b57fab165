// Package retry provides exponential backoff with jitter for operations that
// may fail transiently, such as lock acquisition and startup connections.
// Backoff scheduling is delegated to github.com/sethvargo/go-retry.
package retry

import (
	"context"
	"errors"
	"time"

	goretry "github.com/sethvargo/go-retry"
)

// RetryableError indicates that an error is retryable.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string { return e.Err.Error() }

func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable wraps an error to indicate it should be retried.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var retryableErr *RetryableError
	return errors.As(err, &retryableErr)
}

// Config holds retry configuration.
type Config struct {
	// MaxAttempts is the maximum number of attempts, the first one included.
	MaxAttempts int

	// InitialDelay is the delay before the first retry.
	InitialDelay time.Duration

	// MaxDelay caps the delay between retries.
	MaxDelay time.Duration

	// JitterPercent randomizes each delay by up to this many percent.
	JitterPercent uint64

	// RetryIf decides whether an error is retried.
	// If nil, only RetryableError errors are retried.
	RetryIf func(error) bool

	// OnRetry is called before each retry attempt.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:   3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      30 * time.Second,
		JitterPercent: 10,
	}
}

// Option is a functional option for configuring retries.
type Option func(*Config)

// WithMaxAttempts sets the maximum number of attempts.
func WithMaxAttempts(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.MaxAttempts = n
		}
	}
}

// WithInitialDelay sets the delay before the first retry.
func WithInitialDelay(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.InitialDelay = d
		}
	}
}

// WithMaxDelay sets the maximum delay between retries.
func WithMaxDelay(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.MaxDelay = d
		}
	}
}

// WithJitter sets the jitter percentage (0-100).
func WithJitter(percent uint64) Option {
	return func(c *Config) {
		if percent <= 100 {
			c.JitterPercent = percent
		}
	}
}

// WithRetryIf sets a custom function to determine if an error should be retried.
func WithRetryIf(fn func(error) bool) Option {
	return func(c *Config) {
		c.RetryIf = fn
	}
}

// WithOnRetry sets a callback function called before each retry.
func WithOnRetry(fn func(attempt int, err error, delay time.Duration)) Option {
	return func(c *Config) {
		c.OnRetry = fn
	}
}

// Retrier runs operations under a retry policy.
type Retrier struct {
	config Config
}

// New creates a new Retrier with the given options.
func New(opts ...Option) *Retrier {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	return &Retrier{config: config}
}

func (r *Retrier) backoff() goretry.Backoff {
	b := goretry.NewExponential(r.config.InitialDelay)
	if r.config.JitterPercent > 0 {
		b = goretry.WithJitterPercent(r.config.JitterPercent, b)
	}
	b = goretry.WithCappedDuration(r.config.MaxDelay, b)
	return goretry.WithMaxRetries(uint64(r.config.MaxAttempts-1), b)
}

// Do executes the operation until it succeeds, returns a non-retryable error,
// runs out of attempts, or ctx is done. The returned error is never wrapped in
// RetryableError.
func (r *Retrier) Do(ctx context.Context, operation func(ctx context.Context) error) error {
	var (
		attempt int
		lastErr error
	)

	base := r.backoff()
	b := goretry.BackoffFunc(func() (time.Duration, bool) {
		delay, stop := base.Next()
		if !stop && r.config.OnRetry != nil {
			r.config.OnRetry(attempt, lastErr, delay)
		}
		return delay, stop
	})

	err := goretry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		err := operation(ctx)
		if err == nil {
			return nil
		}
		lastErr = unwrapRetryable(err)
		if r.shouldRetry(err) {
			return goretry.RetryableError(lastErr)
		}
		return lastErr
	})
	if err != nil && lastErr != nil && errors.Is(err, ctx.Err()) {
		return lastErr
	}
	return err
}

func (r *Retrier) shouldRetry(err error) bool {
	if r.config.RetryIf != nil {
		return r.config.RetryIf(err)
	}
	return IsRetryable(err)
}

func unwrapRetryable(err error) error {
	var re *RetryableError
	if errors.As(err, &re) && re == err {
		return re.Err
	}
	return err
}

// Do is a convenience function that creates a Retrier and executes the operation.
func Do(ctx context.Context, operation func(ctx context.Context) error, opts ...Option) error {
	return New(opts...).Do(ctx, operation)
}

// DoWithData is a helper for operations that return data.
func DoWithData[T any](ctx context.Context, operation func(ctx context.Context) (T, error), opts ...Option) (T, error) {
	var result T
	err := New(opts...).Do(ctx, func(ctx context.Context) error {
		var opErr error
		result, opErr = operation(ctx)
		return opErr
	})
	return result, err
}

// LockRetrier returns a Retrier tuned for contended lock acquisition.
func LockRetrier(attempts int) *Retrier {
	return New(
		WithMaxAttempts(attempts),
		WithInitialDelay(20*time.Millisecond),
		WithMaxDelay(500*time.Millisecond),
		WithJitter(20),
	)
}

// ConnectRetrier returns a Retrier for establishing connections at startup.
func ConnectRetrier() *Retrier {
	return New(
		WithMaxAttempts(5),
		WithInitialDelay(500*time.Millisecond),
		WithMaxDelay(5*time.Second),
		WithJitter(10),
		WithRetryIf(func(error) bool { return true }),
	)
}
