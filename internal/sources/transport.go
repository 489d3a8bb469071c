package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
)

const userAgent = "idea-planner-agent/0.1.0"

// shouldRetry retries on network errors, server errors (5xx), and rate limits (429).
func shouldRetry(resp *http.Response, err error) bool {
	if err != nil {
		return true
	}
	if resp == nil {
		return true
	}
	switch resp.StatusCode {
	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
		http.StatusTooManyRequests:
		return true
	default:
		return false
	}
}

// newExecutor builds the failsafe executor shared by the marketplace clients:
// exponential backoff with jitter plus a circuit breaker so a misbehaving
// provider is cut off instead of hammered.
//
//nolint:bodyclose // false positive: [*http.Response] is a generic type parameter, not an actual response
func newExecutor(maxRetries int) failsafe.Executor[*http.Response] {
	if maxRetries < 0 {
		maxRetries = 0
	}

	retry := retrypolicy.NewBuilder[*http.Response]().
		WithBackoff(200*time.Millisecond, 5*time.Second).
		WithMaxRetries(maxRetries).
		WithJitterFactor(0.1).
		HandleIf(func(resp *http.Response, err error) bool {
			return shouldRetry(resp, err)
		}).
		Build()

	breaker := circuitbreaker.NewBuilder[*http.Response]().
		WithFailureThresholdRatio(5, 10).
		WithDelay(30 * time.Second).
		WithSuccessThreshold(1).
		HandleIf(func(resp *http.Response, err error) bool {
			if err != nil {
				return true
			}
			return resp != nil && resp.StatusCode >= 500
		}).
		Build()

	return failsafe.With(retry, breaker)
}

// doJSON executes the request through the executor and decodes a 2xx JSON
// body into out. The response body is always closed.
func doJSON(ctx context.Context, client *http.Client, executor failsafe.Executor[*http.Response], req *http.Request, out interface{}) error {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := executor.WithContext(ctx).Get(func() (*http.Response, error) {
		resp, err := client.Do(req.Clone(ctx))
		if resp != nil && shouldRetry(resp, err) {
			// Drain and close retryable responses here: the executor discards
			// them on retry and nobody else gets a chance to release the
			// pooled connection.
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}
		return resp, err
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
