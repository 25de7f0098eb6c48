package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/wheat4714/downgraderr/internal/logging"
	"github.com/wheat4714/downgraderr/internal/services"
)

// Defaults applied when Config fields are zero.
const (
	DefaultAttempts       = 3
	DefaultRetryDelay     = 2 * time.Second
	DefaultRequestTimeout = 15 * time.Second
)

// Config describes the retry policy applied to every request.
type Config struct {
	// Attempts is the total request budget, including the first try.
	Attempts int
	// RetryDelay is the fixed pause between attempts.
	RetryDelay time.Duration
	// RequestTimeout bounds a single attempt.
	RequestTimeout time.Duration
	// RatePerSecond throttles outgoing requests when positive.
	RatePerSecond float64
}

// HTTPDoer describes the HTTP client used by the fetcher.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client performs JSON requests against remote services with bounded retries.
// Only transient transport failures and remote overload responses are
// retried; well-formed error responses surface immediately.
type Client struct {
	httpClient HTTPDoer
	attempts   int
	retryDelay time.Duration
	timeout    time.Duration
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) {
		if doer != nil {
			c.httpClient = doer
		}
	}
}

// New creates a fetch client with the supplied retry policy.
func New(cfg Config, logger *slog.Logger, opts ...Option) *Client {
	attempts := cfg.Attempts
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	delay := cfg.RetryDelay
	if delay <= 0 {
		delay = DefaultRetryDelay
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	client := &Client{
		httpClient: &http.Client{Timeout: timeout},
		attempts:   attempts,
		retryDelay: delay,
		timeout:    timeout,
		logger:     logging.NewComponentLogger(logger, "fetch"),
	}
	if cfg.RatePerSecond > 0 {
		client.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1)
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// ExhaustedError reports that every attempt against a URL failed transiently.
type ExhaustedError struct {
	URL      string
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("fetch %s: exhausted %d attempts: %v", e.URL, e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

// GetJSON issues a GET request and decodes the JSON response into out.
func (c *Client) GetJSON(ctx context.Context, rawURL string, params url.Values, headers http.Header, out any) error {
	return c.do(ctx, http.MethodGet, rawURL, params, headers, nil, out)
}

// PutJSON issues a PUT request with a JSON body and decodes the response into
// out when out is non-nil. Updates are idempotent, so PUTs share the GET
// retry policy.
func (c *Client) PutJSON(ctx context.Context, rawURL string, headers http.Header, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request body: %w", err)
	}
	return c.do(ctx, http.MethodPut, rawURL, nil, headers, payload, out)
}

func (c *Client) do(ctx context.Context, method, rawURL string, params url.Values, headers http.Header, body []byte, out any) error {
	endpoint, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse url %q: %w", rawURL, err)
	}
	if len(params) > 0 {
		query := endpoint.Query()
		for key, values := range params {
			for _, value := range values {
				query.Add(key, value)
			}
		}
		endpoint.RawQuery = query.Encode()
	}
	target := endpoint.String()

	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		err := c.doOnce(ctx, method, target, headers, body, out)
		if err == nil {
			return nil
		}
		if !isRetriable(err) {
			return err
		}
		lastErr = err

		if attempt == c.attempts {
			break
		}
		c.logger.Warn("transient fetch failure, retrying",
			logging.String("url", endpoint.Redacted()),
			logging.Int("attempt", attempt),
			logging.Int("budget", c.attempts),
			logging.Error(err))
		if err := sleepContext(ctx, c.retryDelay); err != nil {
			return err
		}
	}
	return &ExhaustedError{URL: endpoint.Redacted(), Attempts: c.attempts, Last: lastErr}
}

func (c *Client) doOnce(ctx context.Context, method, target string, headers http.Header, body []byte, out any) error {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(attemptCtx, method, target, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	for key, values := range headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "fetch", method, "execute request", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return services.Wrap(services.ErrTransient, "fetch", method, fmt.Sprintf("remote returned %d", resp.StatusCode), nil)
	default:
		return services.Wrap(services.ErrRemote, "fetch", method, fmt.Sprintf("remote returned %d", resp.StatusCode), nil)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return services.Wrap(services.ErrRemote, "fetch", method, "decode response", err)
	}
	return nil
}

// sleepContext blocks for the given duration, returning early if the context
// is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// isRetriable reports whether err represents a transient condition that
// warrants an automatic retry.
func isRetriable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, services.ErrRemote) {
		return false
	}
	if errors.Is(err, services.ErrTransient) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	message := strings.ToLower(err.Error())
	for _, token := range []string{
		"timeout",
		"deadline exceeded",
		"connection reset",
		"connection refused",
		"temporary failure",
		"awaiting headers",
	} {
		if strings.Contains(message, token) {
			return true
		}
	}
	return false
}
