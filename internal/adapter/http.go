package adapter

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/feral-file/ff-media-library/internal/logger"
)

// RequestFactory builds a fresh request for every attempt so request bodies can be replayed
type RequestFactory func(ctx context.Context) (*http.Request, error)

// HTTPClient defines an interface for HTTP client operations to enable mocking
//
//go:generate mockgen -source=http.go -destination=../mocks/http.go -package=mocks -mock_names=HTTPClient=MockHTTPClient
type HTTPClient interface {
	// Do executes the request built by newRequest, retrying transient failures.
	// The caller is responsible for closing the response body.
	Do(ctx context.Context, newRequest RequestFactory) (*http.Response, error)
}

// RetryPolicy configures the exponential backoff used by RealHTTPClient
type RetryPolicy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
}

// DefaultRetryPolicy returns the policy used for API calls
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     10 * time.Second,
		MaxElapsedTime:  time.Minute,
	}
}

// RealHTTPClient implements HTTPClient using the standard http package
type RealHTTPClient struct {
	client *http.Client
	policy RetryPolicy
}

// NewHTTPClient creates a new real HTTP client. A zero timeout disables the client timeout,
// which long running uploads and compressions need.
func NewHTTPClient(timeout time.Duration, policy RetryPolicy) HTTPClient {
	return &RealHTTPClient{
		client: &http.Client{Timeout: timeout},
		policy: policy,
	}
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// Do retries network errors and 429/502/503/504 responses with exponential backoff.
// Any other response, successful or not, is returned to the caller as is.
func (c *RealHTTPClient) Do(ctx context.Context, newRequest RequestFactory) (*http.Response, error) {
	var resp *http.Response

	operation := func() error {
		req, err := newRequest(ctx)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}

		r, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return fmt.Errorf("failed to perform request: %w", err)
		}

		if retryableStatus(r.StatusCode) {
			_, _ = io.Copy(io.Discard, r.Body)
			_ = r.Body.Close()
			logger.WarnCtx(ctx, "transient response, retrying with backoff",
				zap.String("url", req.URL.String()),
				zap.Int("status", r.StatusCode),
			)
			return fmt.Errorf("transient status %d", r.StatusCode)
		}

		resp = r
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.policy.InitialInterval
	b.MaxInterval = c.policy.MaxInterval
	b.MaxElapsedTime = c.policy.MaxElapsedTime
	b.Multiplier = 2.0
	b.RandomizationFactor = 0.5

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return nil, fmt.Errorf("request failed after retries: %w", err)
	}

	return resp, nil
}
