// Package fetch provides the HTTP transport used to talk to the curriculum service.
// Every round trip gets its own timeout, transient failures are retried with
// backoff, and cookies are passed explicitly rather than through a jar.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/graduation-audit/internal/types"
)

// DefaultTimeout is the default per-request timeout.
const DefaultTimeout = 20 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (compatible; GraduationAudit/1.0)"

// DefaultMaxRetries is the number of retries after the first attempt.
const DefaultMaxRetries = 2

// DefaultRetryBackoff is the delay before the first retry; it doubles each attempt.
const DefaultRetryBackoff = 500 * time.Millisecond

// Result holds the response of one round trip.
type Result struct {
	URL        string
	HTML       string
	StatusCode int
	Cookies    []*http.Cookie
}

// Cookie returns the value of the named response cookie.
func (r *Result) Cookie(name string) (string, bool) {
	for _, c := range r.Cookies {
		if c.Name == name && c.Value != "" {
			return c.Value, true
		}
	}
	return "", false
}

// Options configures the client.
type Options struct {
	Timeout      time.Duration
	UserAgent    string
	MaxRetries   int
	RetryBackoff time.Duration
	Headers      map[string]string
	Logger       *zap.Logger
}

// DefaultOptions returns sensible defaults for fetching.
func DefaultOptions() *Options {
	return &Options{
		Timeout:      DefaultTimeout,
		UserAgent:    DefaultUserAgent,
		MaxRetries:   DefaultMaxRetries,
		RetryBackoff: DefaultRetryBackoff,
	}
}

// Request describes one round trip. Step names the protocol step for error context.
type Request struct {
	Step            string
	Method          string
	URL             string
	JSONBody        any
	Cookies         []*http.Cookie
	FollowRedirects bool
}

// Client performs requests with per-attempt timeouts and bounded retries.
type Client struct {
	http    *http.Client
	options *Options
	logger  *zap.Logger
	sleep   func(context.Context, time.Duration) error
}

// NewClient creates a client. A nil opts uses DefaultOptions.
func NewClient(opts *Options) *Client {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		// No jar: session cookies travel in Request.Cookies.
		http:    &http.Client{},
		options: opts,
		logger:  logger,
		sleep:   sleepContext,
	}
}

// Do executes req, retrying network failures and 5xx responses.
// Non-2xx/3xx responses that exhaust retries are returned as *types.NetworkError
// alongside the last Result.
func (c *Client) Do(ctx context.Context, req Request) (*Result, error) {
	parsedURL, err := url.Parse(req.URL)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, &types.NetworkError{
			Step:    req.Step,
			URL:     req.URL,
			Message: "invalid URL",
			Cause:   err,
		}
	}

	var body []byte
	if req.JSONBody != nil {
		body, err = json.Marshal(req.JSONBody)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body for %s: %w", req.Step, err)
		}
	}

	backoff := c.options.RetryBackoff
	var lastErr error
	var lastResult *Result

	for attempt := 0; attempt <= c.options.MaxRetries; attempt++ {
		if attempt > 0 {
			c.logger.Debug("retrying request",
				zap.String("step", req.Step),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
				zap.Error(lastErr))
			if err := c.sleep(ctx, backoff); err != nil {
				return lastResult, &types.NetworkError{Step: req.Step, URL: req.URL, Message: "cancelled while waiting to retry", Cause: err}
			}
			backoff *= 2
		}

		result, err := c.once(ctx, req, body)
		if err == nil {
			return result, nil
		}
		lastErr, lastResult = err, result

		if !retryable(ctx, err) {
			break
		}
	}

	return lastResult, lastErr
}

// Get is shorthand for a GET request.
func (c *Client) Get(ctx context.Context, step, urlStr string, cookies []*http.Cookie) (*Result, error) {
	return c.Do(ctx, Request{Step: step, Method: http.MethodGet, URL: urlStr, Cookies: cookies, FollowRedirects: true})
}

func (c *Client) once(ctx context.Context, req Request, body []byte) (*Result, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.options.Timeout)
	defer cancel()

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(attemptCtx, method, req.URL, reader)
	if err != nil {
		return nil, &types.NetworkError{Step: req.Step, URL: req.URL, Message: "failed to create request", Cause: err}
	}

	httpReq.Header.Set("User-Agent", c.options.UserAgent)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for key, value := range c.options.Headers {
		httpReq.Header.Set(key, value)
	}
	for _, cookie := range req.Cookies {
		httpReq.AddCookie(cookie)
	}

	client := c.http
	if !req.FollowRedirects {
		noRedirect := *c.http
		noRedirect.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
		client = &noRedirect
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, &types.NetworkError{Step: req.Step, URL: req.URL, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &types.NetworkError{Step: req.Step, URL: req.URL, Message: "failed to read response body", Cause: err}
	}

	result := &Result{
		URL:        req.URL,
		HTML:       string(bodyBytes),
		StatusCode: resp.StatusCode,
		Cookies:    resp.Cookies(),
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return result, &types.NetworkError{
			Step:       req.Step,
			URL:        req.URL,
			Message:    fmt.Sprintf("HTTP status %d", resp.StatusCode),
			StatusCode: resp.StatusCode,
		}
	}

	return result, nil
}

// retryable reports whether a failed attempt is worth repeating.
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var netErr *types.NetworkError
	if !errors.As(err, &netErr) {
		return false
	}
	if netErr.StatusCode == 0 {
		return true
	}
	return netErr.StatusCode >= http.StatusInternalServerError || netErr.StatusCode == http.StatusTooManyRequests
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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
