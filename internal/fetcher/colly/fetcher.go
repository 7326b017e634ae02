// Package collyfetcher implements insights.Fetcher using gocolly.
package collyfetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/brandloom/shopify-insights/internal/insights"
)

// Config controls collector behavior.
type Config struct {
	UserAgent    string
	Timeout      time.Duration
	MaxRedirects int
	Retry        RetryConfig
}

// Fetcher implements insights.Fetcher using the Colly collector. A single
// pooled transport is shared across all fetches; construct one Fetcher per
// process and pass it by reference.
type Fetcher struct {
	cfg           Config
	retry         *RetryPolicy
	transport     http.RoundTripper
	baseCollector *colly.Collector
}

// New builds a Fetcher with a pooled HTTP transport.
func New(cfg Config) *Fetcher {
	c := colly.NewCollector(colly.Async(false))
	c.AllowURLRevisit = true

	transport := newHTTPTransport()
	c.WithTransport(transport)

	return &Fetcher{
		cfg:           cfg,
		retry:         NewRetryPolicy(cfg.Retry),
		transport:     transport,
		baseCollector: c,
	}
}

// Fetch executes an HTTP GET with retries and classifies the outcome. The
// returned error is non-nil only for context cancellation; every transport
// or HTTP failure is reported through FetchResult.Failure.
func (f *Fetcher) Fetch(ctx context.Context, request insights.FetchRequest) (insights.FetchResult, error) {
	var last insights.FetchResult
	for attempt := 0; ; attempt++ {
		result, retryAfter, err := f.fetchOnce(ctx, request)
		if err != nil {
			return insights.FetchResult{}, err
		}
		last = result
		if result.OK() {
			return result, nil
		}
		delay, retry := f.retry.Next(result, retryAfter, attempt)
		if !retry {
			return last, nil
		}
		select {
		case <-ctx.Done():
			return insights.FetchResult{}, fmt.Errorf("fetch canceled: %w", ctx.Err())
		case <-time.After(delay):
		}
	}
}

func (f *Fetcher) fetchOnce(ctx context.Context, request insights.FetchRequest) (insights.FetchResult, string, error) {
	var (
		result     insights.FetchResult
		fetchErr   error
		retryAfter string
	)
	start := time.Now()
	collector := f.buildCollector(request, start, &result, &fetchErr, &retryAfter)

	if err := f.runCollector(ctx, collector, request.URL, &fetchErr); err != nil {
		return insights.FetchResult{}, "", err
	}
	result.URL = request.URL
	if result.FinalURL == "" {
		result.FinalURL = request.URL
	}
	if result.Duration == 0 {
		result.Duration = time.Since(start)
	}
	classify(&result, fetchErr)
	return result, retryAfter, nil
}

func (f *Fetcher) buildCollector(
	request insights.FetchRequest,
	start time.Time,
	result *insights.FetchResult,
	fetchErr *error,
	retryAfter *string,
) *colly.Collector {
	collector := f.baseCollector.Clone()
	collector.AllowURLRevisit = true
	collector.IgnoreRobotsTxt = true
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	timeout := f.cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	collector.SetRequestTimeout(timeout)
	collector.WithTransport(f.transport)

	maxRedirects := f.cfg.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = 5
	}
	collector.SetRedirectHandler(func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return http.ErrUseLastResponse
		}
		return nil
	})

	collector.OnRequest(func(r *colly.Request) {
		copyHeaders(request, r)
	})
	collector.OnResponse(func(r *colly.Response) {
		*result = insights.FetchResult{
			URL:         request.URL,
			FinalURL:    r.Request.URL.String(),
			StatusCode:  r.StatusCode,
			ContentType: r.Headers.Get("Content-Type"),
			Body:        append([]byte(nil), r.Body...),
			Duration:    time.Since(start),
		}
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			result.StatusCode = r.StatusCode
			// colly passes a Response with nil Headers on transport errors.
			if r.Headers != nil {
				result.ContentType = r.Headers.Get("Content-Type")
				*retryAfter = r.Headers.Get("Retry-After")
			}
			if u := r.Request.URL; u != nil {
				result.FinalURL = u.String()
			}
		}
		*fetchErr = err
	})
	return collector
}

func (f *Fetcher) runCollector(ctx context.Context, collector *colly.Collector, url string, fetchErr *error) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("colly fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil && *fetchErr == nil {
			*fetchErr = err
		}
		return nil
	}
}

// classify turns the raw status code and transport error into the failure
// taxonomy of insights.FetchResult.
func classify(result *insights.FetchResult, fetchErr error) {
	switch {
	case fetchErr == nil && result.StatusCode >= 200 && result.StatusCode < 300:
		if !supportedContent(result.ContentType) {
			result.Failure = insights.FailureBadContent
			return
		}
		result.Failure = insights.FailureNone
	case result.StatusCode == http.StatusNotFound:
		result.Failure = insights.FailureNotFound
	case result.StatusCode == http.StatusUnauthorized, result.StatusCode == http.StatusForbidden:
		result.Failure = insights.FailureForbidden
	case result.StatusCode == http.StatusTooManyRequests, result.StatusCode >= 500:
		result.Failure = insights.FailureServerError
	case isTimeout(fetchErr):
		result.Failure = insights.FailureTimeout
	default:
		result.Failure = insights.FailureUnreachable
	}
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return strings.Contains(err.Error(), "Client.Timeout")
}

func supportedContent(contentType string) bool {
	if contentType == "" {
		return true
	}
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "text/html"),
		strings.Contains(ct, "application/json"),
		strings.Contains(ct, "text/plain"),
		strings.Contains(ct, "application/xhtml"):
		return true
	default:
		return false
	}
}

func copyHeaders(request insights.FetchRequest, r *colly.Request) {
	if request.Headers == nil {
		return
	}
	for key, values := range request.Headers {
		for _, v := range values {
			r.Headers.Add(key, v)
		}
	}
}

// ParseRetryAfter interprets a Retry-After header as a delay. Both the
// delta-seconds and HTTP-date forms are accepted.
func ParseRetryAfter(value string, now time.Time) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(value); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second, true
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(now); d > 0 {
			return d, true
		}
		return 0, true
	}
	return 0, false
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
