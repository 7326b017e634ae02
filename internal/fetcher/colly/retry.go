package collyfetcher

import (
	"crypto/rand"
	"math"
	"math/big"
	"net/http"
	"time"

	"github.com/brandloom/shopify-insights/internal/insights"
)

// RetryConfig tunes the backoff schedule for transient fetch failures.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// RetryPolicy decides whether a classified fetch failure is worth another
// attempt, with jittered exponential backoff. Definitive 4xx responses are
// never retried except 429, which gets exactly one extra attempt honoring
// the server's Retry-After hint when parseable.
type RetryPolicy struct {
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
}

// NewRetryPolicy builds a policy, filling unset fields with sane defaults.
func NewRetryPolicy(cfg RetryConfig) *RetryPolicy {
	p := &RetryPolicy{
		maxAttempts: cfg.MaxAttempts,
		baseDelay:   cfg.BaseDelay,
		maxDelay:    cfg.MaxDelay,
	}
	if p.maxAttempts <= 0 {
		p.maxAttempts = 3
	}
	if p.baseDelay <= 0 {
		p.baseDelay = 250 * time.Millisecond
	}
	if p.maxDelay <= 0 {
		p.maxDelay = 5 * time.Second
	}
	return p
}

// Next reports whether attempt+1 should happen and after what delay.
func (p *RetryPolicy) Next(result insights.FetchResult, retryAfter string, attempt int) (time.Duration, bool) {
	if result.StatusCode == http.StatusTooManyRequests {
		if attempt >= 1 {
			return 0, false
		}
		if d, ok := ParseRetryAfter(retryAfter, time.Now()); ok && d <= p.maxDelay {
			return d, true
		}
		return p.Backoff(attempt), true
	}
	if attempt >= p.maxAttempts-1 {
		return 0, false
	}
	switch result.Failure {
	case insights.FailureTimeout, insights.FailureServerError, insights.FailureUnreachable:
		return p.Backoff(attempt), true
	default:
		return 0, false
	}
}

// Backoff returns the wait duration before the next attempt.
func (p *RetryPolicy) Backoff(attempt int) time.Duration {
	delay := float64(p.baseDelay) * math.Pow(2, float64(attempt))
	if delay > float64(p.maxDelay) {
		delay = float64(p.maxDelay)
	}
	jitter := randomJitter(time.Duration(delay) / 2)
	return time.Duration(delay/2) + jitter
}

func randomJitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	bound := big.NewInt(int64(limit))
	n, err := rand.Int(rand.Reader, bound)
	if err != nil {
		return limit / 2
	}
	return time.Duration(n.Int64())
}
