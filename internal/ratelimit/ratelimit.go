package ratelimit

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Limiter gates outbound model calls. Acquire blocks until the call may be
// sent, where tokens is the estimated token cost of the request.
type Limiter interface {
	Acquire(ctx context.Context, tokens int) error
}

// clock abstracts time so the budget math can be exercised without
// wall-clock waits.
type clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type budgetLimiter struct {
	requests  *rate.Limiter
	tokens    *rate.Limiter
	maxTokens int
	clk       clock
}

// NewBudgetLimiter enforces a requests-per-minute and a tokens-per-minute
// ceiling with token buckets. Bursts are capped at one request and at the
// largest single request the token budget allows.
func NewBudgetLimiter(requestsPerMinute, tokensPerMinute, maxTokensPerRequest int) Limiter {
	return newBudgetLimiter(requestsPerMinute, tokensPerMinute, maxTokensPerRequest, realClock{})
}

func newBudgetLimiter(requestsPerMinute, tokensPerMinute, maxTokensPerRequest int, clk clock) *budgetLimiter {
	return &budgetLimiter{
		requests:  rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), 1),
		tokens:    rate.NewLimiter(rate.Limit(float64(tokensPerMinute)/60.0), maxTokensPerRequest),
		maxTokens: maxTokensPerRequest,
		clk:       clk,
	}
}

func (l *budgetLimiter) Acquire(ctx context.Context, tokens int) error {
	if tokens > l.maxTokens {
		tokens = l.maxTokens
	}
	if tokens < 1 {
		tokens = 1
	}
	if err := l.waitN(ctx, l.requests, 1); err != nil {
		return fmt.Errorf("waiting for request budget: %w", err)
	}
	if err := l.waitN(ctx, l.tokens, tokens); err != nil {
		return fmt.Errorf("waiting for token budget: %w", err)
	}
	return nil
}

// waitN reserves n units against lim at the clock's current time and sleeps
// out the delay on the clock, so a fake clock observes the same budget
// arithmetic a real one would.
func (l *budgetLimiter) waitN(ctx context.Context, lim *rate.Limiter, n int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	res := lim.ReserveN(l.clk.Now(), n)
	if !res.OK() {
		return fmt.Errorf("%d units exceed the limiter burst", n)
	}
	delay := res.DelayFrom(l.clk.Now())
	if delay <= 0 {
		return nil
	}
	if err := l.clk.Sleep(ctx, delay); err != nil {
		res.CancelAt(l.clk.Now())
		return err
	}
	return nil
}

// Unlimited never blocks. Used by tests and by the one-shot CLI when the
// caller opts out of throttling.
type Unlimited struct{}

func (Unlimited) Acquire(context.Context, int) error { return nil }
