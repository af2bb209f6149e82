// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/hex"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/macdroidapps/WorknoteChallenge/internal/config"
)

// Configuration constants shared by both providers.
const (
	// DefaultTimeout bounds a whole request including reading the body.
	DefaultTimeout = 120 * time.Second

	// DefaultConnectTimeout bounds TCP connect.
	DefaultConnectTimeout = 30 * time.Second

	// DefaultSocketTimeout bounds the wait for response headers.
	DefaultSocketTimeout = 120 * time.Second

	// DefaultMaxRetries is the default number of retries after the first attempt.
	DefaultMaxRetries = 3

	// retryBaseDelay is the base delay for exponential backoff.
	retryBaseDelay = 500 * time.Millisecond

	// retryMaxDelay is the maximum delay for exponential backoff.
	retryMaxDelay = 10 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	MaxResponseSize = 10 * 1024 * 1024

	userAgent = "worknote/1.0"
)

// =============================================================================
// HTTP OPTIONS
// =============================================================================

// HTTPOptions configures transport timeouts, retries and rate limiting.
type HTTPOptions struct {
	Timeout        time.Duration
	ConnectTimeout time.Duration
	SocketTimeout  time.Duration
	MaxRetries     int
	// RequestsPerSecond limits outgoing attempts. Zero disables limiting.
	RequestsPerSecond float64
	Burst             int
}

// DefaultHTTPOptions returns the built-in transport settings.
func DefaultHTTPOptions() HTTPOptions {
	return HTTPOptions{
		Timeout:        DefaultTimeout,
		ConnectTimeout: DefaultConnectTimeout,
		SocketTimeout:  DefaultSocketTimeout,
		MaxRetries:     DefaultMaxRetries,
	}
}

// HTTPOptionsFromConfig converts the [http] config section.
func HTTPOptionsFromConfig(c config.HTTPConfig) HTTPOptions {
	return HTTPOptions{
		Timeout:           c.Timeout(),
		ConnectTimeout:    c.ConnectTimeout(),
		SocketTimeout:     c.SocketTimeout(),
		MaxRetries:        c.MaxRetries,
		RequestsPerSecond: c.RequestsPerSecond,
		Burst:             c.Burst,
	}
}

// NewHTTPClient builds an HTTP client with pooled connections and the
// configured timeouts.
func NewHTTPClient(opts HTTPOptions) *http.Client {
	dialer := &net.Dialer{
		Timeout:   opts.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}
	return &http.Client{
		Timeout: opts.Timeout,
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           dialer.DialContext,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: opts.SocketTimeout,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
}

// =============================================================================
// RETRY POLICY
// =============================================================================

// retrier runs an operation with rate limiting and exponential backoff.
type retrier struct {
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	limiter    *rate.Limiter
	logger     *zap.Logger
}

func newRetrier(opts HTTPOptions, logger *zap.Logger) *retrier {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &retrier{
		maxRetries: opts.MaxRetries,
		baseDelay:  retryBaseDelay,
		maxDelay:   retryMaxDelay,
		logger:     logger,
	}
	if r.maxRetries < 0 {
		r.maxRetries = 0
	}
	if opts.RequestsPerSecond > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		r.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}
	return r
}

// calculateBackoff returns the delay to wait before retry number attempt (1-based).
func (r *retrier) calculateBackoff(attempt int) time.Duration {
	// Exponential backoff: 500ms, 1s, 2s, 4s... capped.
	delay := r.baseDelay * time.Duration(1<<uint(attempt-1))
	if delay > r.maxDelay || delay <= 0 {
		delay = r.maxDelay
	}
	return delay
}

// do runs op until it succeeds, fails with a non-retryable error, or the
// retry budget is spent.
func (r *retrier) do(ctx context.Context, op func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			delay := r.calculateBackoff(attempt)
			r.logger.Debug("retrying request",
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(lastErr))
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// =============================================================================
// HELPERS
// =============================================================================

// readResponse reads the response body with a size limit.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// keyFingerprint returns a short SHA-256 identifier of an API key for logging.
func keyFingerprint(apiKey string) string {
	if apiKey == "" {
		return "none"
	}
	h := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(h[:4])
}

// maskKey returns a display form of an API key that never exposes key material.
func maskKey(apiKey string) string {
	if apiKey == "" {
		return "[not set]"
	}
	return fmt.Sprintf("[REDACTED, length=%d, fingerprint=%s]", len(apiKey), keyFingerprint(apiKey))
}
