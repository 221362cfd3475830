package llm

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"
)

const (
	defaultBaseDelay = 500 * time.Millisecond
	defaultMaxDelay  = 8 * time.Second
)

// RetryClient retries transient failures of the wrapped Client with
// jittered exponential backoff.
type RetryClient struct {
	next       Client
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// NewRetryClient wraps next so each Generate call is attempted at most
// maxRetries+1 times.
func NewRetryClient(next Client, maxRetries int) *RetryClient {
	return &RetryClient{
		next:       next,
		maxRetries: maxRetries,
		baseDelay:  defaultBaseDelay,
		maxDelay:   defaultMaxDelay,
	}
}

// Generate implements Client.
func (c *RetryClient) Generate(ctx context.Context, messages []Message, opts Options) (*Response, error) {
	var lastErr error
	for attempt := 0; ; attempt++ {
		resp, err := c.next.Generate(ctx, messages, opts)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if attempt >= c.maxRetries || !retryable(ctx, err) {
			return nil, lastErr
		}

		delay := c.backoff(attempt)
		slog.Warn("retrying llm call", "attempt", attempt+1, "max_retries", c.maxRetries, "delay", delay, "error", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, lastErr
		case <-timer.C:
		}
	}
}

// backoff returns a random delay in [d/2, d) where d doubles per attempt.
func (c *RetryClient) backoff(attempt int) time.Duration {
	d := c.baseDelay << attempt
	if d <= 0 || d > c.maxDelay {
		d = c.maxDelay
	}
	half := d / 2
	if half <= 0 {
		return d
	}
	return half + rand.N(half)
}

// retryable reports whether err is worth another attempt: rate limiting,
// server errors and transport failures are; client errors and cancellation
// are not.
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= http.StatusInternalServerError
	}
	return true
}
