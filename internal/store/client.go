package store

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Backoff returns the wait before retry number attempt (0-based).
type Backoff func(attempt int) time.Duration

// FixedBackoff waits d between every attempt.
func FixedBackoff(d time.Duration) Backoff {
	return func(int) time.Duration { return d }
}

// RetryPolicy bounds the attempts made for one logical request.
type RetryPolicy struct {
	Attempts int
	Backoff  Backoff
}

// DefaultRetryPolicy makes three attempts two seconds apart.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, Backoff: FixedBackoff(2 * time.Second)}
}

// BaseClient wraps an *http.Client with a circuit breaker and a retry
// policy. Network errors, 5xx and 429 are retried; any other response is
// returned to the caller as-is.
type BaseClient struct {
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*http.Response]
	policy  RetryPolicy
	sleepFn func(time.Duration)
}

// BaseClientOption configures a BaseClient.
type BaseClientOption func(*BaseClient)

// WithSleepFunc overrides the sleep used between retries.
func WithSleepFunc(fn func(time.Duration)) BaseClientOption {
	return func(c *BaseClient) { c.sleepFn = fn }
}

// WithBreaker replaces the default circuit breaker.
func WithBreaker(cb *gobreaker.CircuitBreaker[*http.Response]) BaseClientOption {
	return func(c *BaseClient) { c.breaker = cb }
}

// NewBaseClient creates a client. The breaker opens after more than five
// consecutive failed attempts and probes again after 30 seconds.
func NewBaseClient(httpClient *http.Client, name string, policy RetryPolicy, opts ...BaseClientOption) *BaseClient {
	if policy.Attempts < 1 {
		policy.Attempts = 1
	}
	if policy.Backoff == nil {
		policy.Backoff = FixedBackoff(0)
	}
	c := &BaseClient{
		client:  httpClient,
		breaker: NewBreaker(name),
		policy:  policy,
		sleepFn: time.Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewBreaker returns the breaker settings used by NewBaseClient.
func NewBreaker(name string) *gobreaker.CircuitBreaker[*http.Response] {
	return gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})
}

// Do sends req, retrying transient failures. The caller closes the returned
// body. Exhausted retries and an open breaker return an error wrapping
// ErrTransient.
func (c *BaseClient) Do(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		var err error
		body, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("read request body: %w", err)
		}
		req.Body.Close()
	}

	var lastErr error
	for attempt := 0; attempt < c.policy.Attempts; attempt++ {
		if body != nil {
			req.Body = io.NopCloser(bytes.NewReader(body))
			req.ContentLength = int64(len(body))
		}

		resp, err := c.breaker.Execute(func() (*http.Response, error) {
			r, doErr := c.client.Do(req)
			if doErr != nil {
				return nil, doErr
			}
			if retryable(r.StatusCode) {
				r.Body.Close()
				return nil, &StatusError{Method: req.Method, URL: req.URL.String(), Code: r.StatusCode}
			}
			return r, nil
		})
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			break
		}
		if attempt < c.policy.Attempts-1 {
			c.sleepFn(c.policy.Backoff(attempt))
		}
	}
	return nil, fmt.Errorf("%w: %s %s: %w", ErrTransient, req.Method, req.URL.Redacted(), lastErr)
}
