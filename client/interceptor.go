// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"time"
)

// Interceptor defines a middleware function that can intercept and modify requests/responses.
type Interceptor func(ctx context.Context, req *http.Request, invoker Invoker) (*http.Response, error)

// Invoker represents the next handler in the interceptor chain.
type Invoker func(ctx context.Context, req *http.Request) (*http.Response, error)

// chainInterceptors chains multiple interceptors together.
func chainInterceptors(interceptors []Interceptor, invoker Invoker) Invoker {
	if len(interceptors) == 0 {
		return invoker
	}

	// Build the chain from right to left
	for i := len(interceptors) - 1; i >= 0; i-- {
		interceptor := interceptors[i]
		next := invoker
		invoker = func(ctx context.Context, req *http.Request) (*http.Response, error) {
			return interceptor(ctx, req, next)
		}
	}

	return invoker
}

// LoggingInterceptor logs requests and responses.
func LoggingInterceptor(logger *slog.Logger) Interceptor {
	return func(ctx context.Context, req *http.Request, invoker Invoker) (*http.Response, error) {
		start := time.Now()
		resp, err := invoker(ctx, req)
		if err != nil {
			logger.ErrorContext(ctx, "request failed",
				slog.String("method", req.Method), slog.String("url", req.URL.String()), slog.Any("error", err))
			return nil, err
		}
		logger.DebugContext(ctx, "request done",
			slog.String("method", req.Method),
			slog.String("url", req.URL.String()),
			slog.Int("status", resp.StatusCode),
			slog.Duration("duration", time.Since(start)))
		return resp, nil
	}
}

// RetryPolicy configures [RetryInterceptor].
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultRetryPolicy returns a policy of three attempts with exponential backoff.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     2 * time.Second,
		Multiplier:   2,
	}
}

// RetryInterceptor retries requests that failed in transport or answered a
// retryable status. Request bodies are replayed through [http.Request.GetBody].
func RetryInterceptor(policy *RetryPolicy) Interceptor {
	return func(ctx context.Context, req *http.Request, invoker Invoker) (*http.Response, error) {
		var (
			resp    *http.Response
			lastErr error
		)
		for attempt := range max(policy.MaxAttempts, 1) {
			if attempt > 0 && req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, err
				}
				req.Body = body
			}

			resp, lastErr = invoker(ctx, req)
			if lastErr == nil {
				if !shouldRetry(resp.StatusCode) {
					return resp, nil
				}
				if attempt < policy.MaxAttempts-1 {
					resp.Body.Close()
				}
			}

			// Don't wait after the last attempt
			if attempt < policy.MaxAttempts-1 {
				timer := time.NewTimer(calculateDelay(policy, attempt))
				select {
				case <-ctx.Done():
					timer.Stop()
					return nil, ctx.Err()
				case <-timer.C:
				}
			}
		}

		return resp, lastErr
	}
}

// HeaderInterceptor adds custom headers to requests.
func HeaderInterceptor(headers map[string]string) Interceptor {
	return func(ctx context.Context, req *http.Request, invoker Invoker) (*http.Response, error) {
		for key, value := range headers {
			req.Header.Set(key, value)
		}
		return invoker(ctx, req)
	}
}

// shouldRetry determines if a response should be retried based on status code.
func shouldRetry(statusCode int) bool {
	return statusCode >= 500 || statusCode == http.StatusRequestTimeout || statusCode == http.StatusTooManyRequests
}

// calculateDelay calculates the delay for the next retry attempt.
func calculateDelay(policy *RetryPolicy, attempt int) time.Duration {
	return min(time.Duration(float64(policy.InitialDelay)*math.Pow(policy.Multiplier, float64(attempt))), policy.MaxDelay)
}
