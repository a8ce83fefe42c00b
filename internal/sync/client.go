// Footfall - Retail Traffic Analytics and Dashboard Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package sync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/footfall/internal/logging"
	"github.com/tomtom215/footfall/internal/metrics"
)

// UserAgent is the browser identity the reporting API expects.
const UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/142.0.0.0 Safari/537.36 Edg/142.0.0.0"

// maxErrorBodySize limits how much of a failed response is kept for the error.
const maxErrorBodySize = 64 * 1024

// maxResponseSize caps a report download.
const maxResponseSize = 64 << 20

var (
	// ErrNotFile means a spreadsheet export was expected but the server
	// answered with JSON (usually an error message) or nothing.
	ErrNotFile = errors.New("server did not return file")

	// ErrNoData means a JSON reply carried no rows.
	ErrNoData = errors.New("server returned no data")

	// ErrRateLimited is returned when HTTP 429 persists past the retry budget.
	ErrRateLimited = errors.New("rate limit exceeded (HTTP 429)")
)

// StatusError is a non-2xx reply.
type StatusError struct {
	Report     string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s request failed with status %d: %s", e.Report, e.StatusCode, e.Body)
}

// ClientConfig configures Client. Zero values take the defaults noted.
type ClientConfig struct {
	BaseURL string
	Origin  string
	// Timeout per request, default 30s.
	Timeout time.Duration
	// MaxRetries on HTTP 429, default 0.
	MaxRetries int
	// RetryDelay is the first backoff step, doubled per attempt. Default 1s.
	RetryDelay time.Duration
	// RequestsPerSecond caps outbound calls; 0 means unlimited.
	RequestsPerSecond float64
	// HTTPClient replaces the default client (tests).
	HTTPClient *http.Client
}

// Client talks to the reporting API.
type Client struct {
	baseURL        string
	origin         string
	client         *http.Client
	maxRetries     int
	retryBaseDelay time.Duration
	limiter        *rate.Limiter
	breaker        *circuitBreaker
}

// Request is one report call.
type Request struct {
	// Report names the call in logs and metrics.
	Report string
	// Path is appended to the base URL.
	Path    string
	Referer string
	Token   string
	Payload interface{}
}

// Response is a successful (2xx) reply.
type Response struct {
	Body        []byte
	ContentType string
}

// IsJSON reports whether the reply declared a JSON media type.
func (r *Response) IsJSON() bool {
	mt, _, err := mime.ParseMediaType(r.ContentType)
	if err != nil {
		return strings.HasPrefix(strings.ToLower(strings.TrimSpace(r.ContentType)), "application/json")
	}
	return mt == "application/json"
}

// NewClient builds a Client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("report API base URL is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}

	c := &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/") + "/",
		origin:         cfg.Origin,
		client:         hc,
		maxRetries:     cfg.MaxRetries,
		retryBaseDelay: cfg.RetryDelay,
		breaker:        newCircuitBreaker("report-api"),
	}
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return c, nil
}

// Post sends req as JSON and returns the 2xx reply.
func (c *Client) Post(ctx context.Context, req Request) (*Response, error) {
	body, err := json.Marshal(req.Payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", req.Report, err)
	}
	url := c.baseURL + strings.TrimLeft(req.Path, "/")

	start := time.Now()
	result, err := c.breaker.execute(func() (interface{}, error) {
		return c.do(ctx, req, url, body)
	})
	resp, err := castResult[Response](result, err)
	metrics.RecordUpstreamCall(req.Report, outcome(err), time.Since(start))
	if err != nil {
		return nil, err
	}

	logging.Ctx(ctx).Debug().
		Str("report", req.Report).
		Str("content_type", resp.ContentType).
		Int("bytes", len(resp.Body)).
		Dur("duration", time.Since(start)).
		Msg("Report API call complete")
	return resp, nil
}

func (c *Client) do(ctx context.Context, req Request, url string, body []byte) (*Response, error) {
	httpResp, err := c.doRequestWithRateLimit(ctx, req, func() (*http.Request, error) {
		r, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		r.Header.Set("Accept", "application/json, text/plain, */*")
		r.Header.Set("Authorization", req.Token)
		r.Header.Set("Content-Type", "application/json")
		r.Header.Set("User-Agent", UserAgent)
		if c.origin != "" {
			r.Header.Set("Origin", c.origin)
		}
		if req.Referer != "" {
			r.Header.Set("Referer", req.Referer)
		}
		return r, nil
	})
	if err != nil {
		return nil, err
	}
	return readResponse(req.Report, httpResp)
}

// doRequestWithRateLimit sends the request built by newReq, waiting on the
// outbound limiter first and backing off on HTTP 429 up to maxRetries times.
// The delay doubles per attempt unless the server sends Retry-After.
func (c *Client) doRequestWithRateLimit(ctx context.Context, req Request, newReq func() (*http.Request, error)) (*http.Response, error) {
	return doWithRetry(ctx, c.client, c.limiter, c.maxRetries, c.retryBaseDelay, req.Report, newReq)
}

func doWithRetry(ctx context.Context, hc *http.Client, limiter *rate.Limiter, maxRetries int, baseDelay time.Duration, report string, newReq func() (*http.Request, error)) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("%s: outbound rate limiter: %w", report, err)
			}
		}

		httpReq, err := newReq()
		if err != nil {
			return nil, fmt.Errorf("failed to create %s request: %w", report, err)
		}
		resp, err := hc.Do(httpReq)
		if err != nil {
			return nil, fmt.Errorf("%s request failed: %w", report, err)
		}
		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		_ = resp.Body.Close()
		metrics.UpstreamRateLimitHits.WithLabelValues(report).Inc()
		if attempt >= maxRetries {
			return nil, fmt.Errorf("%s: %w after %d retries", report, ErrRateLimited, maxRetries)
		}

		delay := baseDelay * time.Duration(1<<uint(attempt))
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if secs, err := strconv.Atoi(strings.TrimSpace(ra)); err == nil && secs >= 0 {
				delay = time.Duration(secs) * time.Second
			}
		}
		logging.Ctx(ctx).Warn().
			Str("report", report).
			Int("attempt", attempt+1).
			Dur("delay", delay).
			Msg("Upstream rate limited, backing off")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// readResponse consumes resp. Non-2xx replies become *StatusError.
func readResponse(report string, resp *http.Response) (*Response, error) {
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			Report:     report,
			StatusCode: resp.StatusCode,
			Body:       string(readBodyForError(resp.Body)),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", report, err)
	}
	if len(body) > maxResponseSize {
		return nil, fmt.Errorf("%s response exceeds %d bytes", report, maxResponseSize)
	}
	return &Response{Body: body, ContentType: resp.Header.Get("Content-Type")}, nil
}

func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}

func outcome(err error) string {
	var se *StatusError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &se):
		return "http_error"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case isRejected(err):
		return "rejected"
	default:
		return "transport"
	}
}
