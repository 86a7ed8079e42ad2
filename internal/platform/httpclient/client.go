package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"route-planner-service/internal/domain"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultUserAgent = "router-maps-app/1.0"
	maxErrorBody     = 4 << 10
)

// StatusError is a non-2xx upstream response.
// It matches the domain sentinels under errors.Is by status code.
type StatusError struct {
	Code       int
	Body       string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Code %d: %s", e.Code, e.Body)
}

func (e *StatusError) Is(target error) bool {
	switch target {
	case domain.ErrNotFound:
		return e.Code == http.StatusNotFound
	case domain.ErrRateLimited:
		return e.Code == http.StatusTooManyRequests
	case domain.ErrUpstreamTimeout:
		return e.Code == http.StatusRequestTimeout || e.Code == http.StatusGatewayTimeout
	case domain.ErrUpstreamUnavailable:
		return e.Code >= 500 && e.Code != http.StatusGatewayTimeout
	}
	return false
}

type Options struct {
	// Timeout bounds a whole request including reading the body. Zero means 5s.
	Timeout time.Duration
	// RequestsPerSecond paces outbound calls. Zero disables pacing.
	RequestsPerSecond float64
	Burst             int
	UserAgent         string
	Transport         http.RoundTripper
}

// Client wraps http.Client with pacing, common headers, and error classification.
// It is safe for concurrent use.
type Client struct {
	session   *http.Client
	limiter   *rate.Limiter
	userAgent string
}

func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	c := &Client{
		session:   &http.Client{Timeout: opts.Timeout, Transport: opts.Transport},
		userAgent: opts.UserAgent,
	}
	if opts.RequestsPerSecond > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}
	return c
}

func (c *Client) NewRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// Do sends req. Transport failures come back wrapped in domain.ErrUpstreamTimeout
// or domain.ErrUpstreamUnavailable; responses with status >= 400 come back as *StatusError.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, classify(ctx, err)
		}
	}

	resp, err := c.session.Do(req)
	if err != nil {
		return nil, classify(ctx, err)
	}
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		return nil, &StatusError{
			Code:       resp.StatusCode,
			Body:       strings.TrimSpace(string(b)),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}
	return resp, nil
}

// GetJSON issues a GET and decodes a JSON body into out.
func (c *Client) GetJSON(ctx context.Context, url string, out any) error {
	req, err := c.NewRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", classify(ctx, err))
	}
	return nil
}

func classify(ctx context.Context, err error) error {
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return err
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %v", domain.ErrUpstreamTimeout, err)
	}
	return fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
