package model

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// DefaultTimeout bounds a single model call when none is configured.
const DefaultTimeout = 10 * time.Minute

// Response is the generated text and the wall-clock time the call took.
type Response struct {
	Text    string
	Latency time.Duration
}

// Invoker wraps a provider with a timeout, a clock and an optional limiter.
type Invoker struct {
	Provider Provider
	Timeout  time.Duration
	Now      func() time.Time
	Limiter  *rate.Limiter
}

// Invoke sends req and measures latency from request start to completion.
// Time spent waiting on the limiter is not counted.
func (i Invoker) Invoke(ctx context.Context, req Request) (Response, error) {
	if i.Provider == nil {
		return Response{}, fmt.Errorf("invoke %s: provider is nil", req.Model)
	}
	now := i.Now
	if now == nil {
		now = time.Now
	}
	timeout := i.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if i.Limiter != nil {
		if err := i.Limiter.Wait(ctx); err != nil {
			return Response{}, fmt.Errorf("invoke %s: rate limit: %w", req.Model, err)
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := now()
	text, err := i.Provider.Invoke(callCtx, req)
	latency := now().Sub(start)
	if latency < 0 {
		latency = 0
	}
	if err != nil {
		if ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return Response{}, fmt.Errorf("invoke %s: %w after %s", req.Model, ErrTimeout, timeout)
		}
		return Response{}, fmt.Errorf("invoke %s: %w", req.Model, err)
	}
	return Response{Text: text, Latency: latency}, nil
}

// NewLimiter returns a limiter allowing requestsPerMinute calls, or nil when
// the rate is not positive.
func NewLimiter(requestsPerMinute int) *rate.Limiter {
	if requestsPerMinute <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1)
}
