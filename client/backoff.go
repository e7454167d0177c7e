package client

import (
	"math"
	"math/rand"
	"time"
)

// BackoffStrategy decides how long to wait between connection attempts and
// how many attempts to make.
type BackoffStrategy interface {
	// NextDelay returns the delay before the given attempt. Attempts are
	// numbered from 1.
	NextDelay(attempt int) time.Duration
	// MaxAttempts returns the total number of attempts allowed.
	MaxAttempts() int
}

// ExponentialBackoff grows the delay by a factor per attempt, with jitter,
// capped at a maximum.
type ExponentialBackoff struct {
	initialDelay time.Duration
	maxDelay     time.Duration
	factor       float64
	jitter       float64
	maxAttempts  int
	randomSource *rand.Rand
}

// NewExponentialBackoff creates an exponential backoff strategy with factor
// 2.0 and 20% jitter.
func NewExponentialBackoff(initialDelay, maxDelay time.Duration, maxAttempts int) *ExponentialBackoff {
	return &ExponentialBackoff{
		initialDelay: initialDelay,
		maxDelay:     maxDelay,
		factor:       2.0,
		jitter:       0.2,
		maxAttempts:  maxAttempts,
		randomSource: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// WithFactor sets the exponential factor (default 2.0).
func (b *ExponentialBackoff) WithFactor(factor float64) *ExponentialBackoff {
	b.factor = factor
	return b
}

// WithJitter sets the jitter fraction used to randomize delays (default
// 0.2).
func (b *ExponentialBackoff) WithJitter(jitter float64) *ExponentialBackoff {
	b.jitter = jitter
	return b
}

// NextDelay implements BackoffStrategy.
func (b *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	delay := float64(b.initialDelay) * math.Pow(b.factor, float64(attempt-1))
	if b.jitter > 0 {
		jitterRange := delay * b.jitter
		delay += (b.randomSource.Float64() - 0.5) * jitterRange
	}
	if delay > float64(b.maxDelay) {
		delay = float64(b.maxDelay)
	}
	return time.Duration(delay)
}

// MaxAttempts implements BackoffStrategy.
func (b *ExponentialBackoff) MaxAttempts() int {
	return b.maxAttempts
}

// ConstantBackoff waits a fixed delay between attempts, with jitter.
type ConstantBackoff struct {
	delay        time.Duration
	maxAttempts  int
	jitter       float64
	randomSource *rand.Rand
}

// NewConstantBackoff creates a constant backoff strategy with 10% jitter.
func NewConstantBackoff(delay time.Duration, maxAttempts int) *ConstantBackoff {
	return &ConstantBackoff{
		delay:        delay,
		maxAttempts:  maxAttempts,
		jitter:       0.1,
		randomSource: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// WithJitter sets the jitter fraction used to randomize delays (default
// 0.1).
func (b *ConstantBackoff) WithJitter(jitter float64) *ConstantBackoff {
	b.jitter = jitter
	return b
}

// NextDelay implements BackoffStrategy.
func (b *ConstantBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	delay := float64(b.delay)
	if b.jitter > 0 {
		jitterRange := delay * b.jitter
		delay += (b.randomSource.Float64() - 0.5) * jitterRange
	}
	return time.Duration(delay)
}

// MaxAttempts implements BackoffStrategy.
func (b *ConstantBackoff) MaxAttempts() int {
	return b.maxAttempts
}

// NoBackoff retries immediately. Useful in tests.
type NoBackoff struct {
	maxAttempts int
}

// NewNoBackoff creates a strategy with no delay between attempts.
func NewNoBackoff(maxAttempts int) *NoBackoff {
	return &NoBackoff{maxAttempts: maxAttempts}
}

// NextDelay implements BackoffStrategy.
func (b *NoBackoff) NextDelay(attempt int) time.Duration {
	return 0
}

// MaxAttempts implements BackoffStrategy.
func (b *NoBackoff) MaxAttempts() int {
	return b.maxAttempts
}
