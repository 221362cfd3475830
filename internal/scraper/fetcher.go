package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/gocolly/colly/v2/extensions"

	"github.com/hoanghai1803/aitracker/internal/metrics"
)

const (
	httpTimeout    = 30 * time.Second
	acceptHeader   = "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"
	acceptLanguage = "en-US,en;q=0.5"
)

// FetchOptions customizes a single Fetch call. The zero value issues a GET.
type FetchOptions struct {
	Method  string
	Headers http.Header
	Params  url.Values
}

// Response is the body and metadata of a successful fetch.
type Response struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Fetcher issues HTTP requests with a minimum interval between consecutive
// successful requests. Each scraper owns its own Fetcher, so the interval is
// per scraper rather than per host. Concurrent callers are served one at a
// time.
type Fetcher struct {
	rateLimit     time.Duration
	baseCollector *colly.Collector

	// gate holds one token; the holder owns the wait-and-request sequence.
	gate chan struct{}

	mu          sync.Mutex // protects lastRequest
	lastRequest time.Time
}

// NewFetcher creates a Fetcher that waits at least rateLimit between requests.
func NewFetcher(rateLimit time.Duration) *Fetcher {
	c := colly.NewCollector(colly.Async(false))
	c.WithTransport(newHTTPTransport())
	c.SetRequestTimeout(httpTimeout)

	return &Fetcher{
		rateLimit:     rateLimit,
		baseCollector: c,
		gate:          make(chan struct{}, 1),
	}
}

// Fetch requests rawURL and returns the response, or nil when the request
// failed for any reason (transport error, HTTP status >= 400, timeout or
// cancellation). A nil response means "skip this item" and is never fatal.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, opts FetchOptions) *Response {
	target, err := withParams(rawURL, opts.Params)
	if err != nil {
		slog.Error("failed to build request url", "url", rawURL, "error", err)
		metrics.ObserveFetchFailure(rawURL)
		return nil
	}

	select {
	case f.gate <- struct{}{}:
		defer func() { <-f.gate }()
	case <-ctx.Done():
		slog.Warn("fetch canceled while queued", "url", target, "error", ctx.Err())
		metrics.ObserveFetchFailure(target)
		return nil
	}

	if err := f.waitForRateLimit(ctx); err != nil {
		slog.Warn("fetch canceled while rate limited", "url", target, "error", err)
		metrics.ObserveFetchFailure(target)
		return nil
	}

	resp, err := f.do(ctx, target, opts)
	if err != nil {
		slog.Error("failed to fetch url", "url", target, "error", err)
		metrics.ObserveFetchFailure(target)
		return nil
	}

	f.mu.Lock()
	f.lastRequest = time.Now()
	f.mu.Unlock()

	return resp
}

// waitForRateLimit blocks until rateLimit has passed since the last
// successful request, or until ctx is done.
func (f *Fetcher) waitForRateLimit(ctx context.Context) error {
	if f.rateLimit <= 0 {
		return ctx.Err()
	}

	f.mu.Lock()
	last := f.lastRequest
	f.mu.Unlock()

	if last.IsZero() {
		return ctx.Err()
	}
	remaining := f.rateLimit - time.Since(last)
	if remaining <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(remaining)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (f *Fetcher) do(ctx context.Context, target string, opts FetchOptions) (*Response, error) {
	var (
		result   *Response
		fetchErr error
	)

	collector := f.baseCollector.Clone()
	collector.Context = ctx
	collector.AllowURLRevisit = true
	collector.ParseHTTPErrorResponse = true

	collector.OnRequest(func(r *colly.Request) {
		for key, values := range opts.Headers {
			r.Headers.Del(key)
			for _, v := range values {
				r.Headers.Add(key, v)
			}
		}
		r.Headers.Set("Accept", acceptHeader)
		r.Headers.Set("Accept-Language", acceptLanguage)
	})
	// Registered after the header merge so the random agent always wins.
	extensions.RandomUserAgent(collector)

	collector.OnResponse(func(r *colly.Response) {
		if r.StatusCode >= http.StatusBadRequest {
			fetchErr = fmt.Errorf("HTTP %d", r.StatusCode)
			return
		}
		result = &Response{
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Headers:    r.Headers.Clone(),
			Body:       append([]byte(nil), r.Body...),
		}
	})
	collector.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	err := collector.Request(method, target, nil, nil, nil)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("fetch canceled: %w", ctxErr)
	}
	if err != nil {
		return nil, fmt.Errorf("colly request failed: %w", err)
	}
	if fetchErr != nil {
		return nil, fmt.Errorf("colly response failed: %w", fetchErr)
	}
	if result == nil {
		return nil, errors.New("no response received")
	}
	return result, nil
}

// withParams merges params into the query string of rawURL.
func withParams(rawURL string, params url.Values) (string, error) {
	if len(params) == 0 {
		return rawURL, nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing url %q: %w", rawURL, err)
	}
	q := u.Query()
	for key, values := range params {
		for _, v := range values {
			q.Add(key, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
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
