// Package fetcher implements the outbound HTTP layer shared by the catalog
// reader, the provider adapters, and the detail resolver. Every fetch
// resolves to a Result value; the fetcher never returns an error, callers
// branch on the outcome.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/jonesrussell/gocatalog/internal/logger"
)

// Outcome classifies how a fetch ended.
type Outcome int

const (
	// OutcomeOK means the body was fetched successfully.
	OutcomeOK Outcome = iota
	// OutcomeNotFound means the server answered 404 and the caller asked to
	// handle it explicitly.
	OutcomeNotFound
	// OutcomeForbidden means the server answered 403. Treated as a durable
	// rate-limit or permission condition and never retried.
	OutcomeForbidden
	// OutcomeAbsent means no body is available: an expected 404, or retry
	// exhaustion on transient failures.
	OutcomeAbsent
)

// maxResponseBodyBytes limits the size of fetched responses.
const maxResponseBodyBytes = 10 * 1024 * 1024 // 10 MB

// defaultRequestTimeout bounds a single attempt.
const defaultRequestTimeout = 30 * time.Second

// Result is the value every fetch resolves to.
type Result struct {
	Outcome Outcome
	Body    []byte
}

// OK reports whether a body was fetched.
func (r Result) OK() bool {
	return r.Outcome == OutcomeOK
}

// Options control the outgoing identity and 404 handling of one fetch.
type Options struct {
	// UserAgent overrides the fetcher's default identity when non-empty.
	UserAgent string
	// BearerToken is sent as an Authorization bearer credential when non-empty.
	BearerToken string
	// APIVersion is sent as the X-Github-Api-Version header when non-empty.
	APIVersion string
	// SkipNotFound treats 404 as a valid terminal outcome (OutcomeAbsent)
	// instead of surfacing OutcomeNotFound.
	SkipNotFound bool
}

// Config configures the fetcher.
type Config struct {
	// MaxRetries is the attempt ceiling, including the initial attempt.
	MaxRetries int
	// RetryDelayBase is the base for the exponential backoff schedule:
	// delay = base * 2^(attempt-1).
	RetryDelayBase time.Duration
	// Proxy optionally routes all traffic through a forward proxy.
	Proxy string
	// UserAgent is the default outgoing identity.
	UserAgent string
	// RequestTimeout bounds a single attempt. Defaults to 30s.
	RequestTimeout time.Duration
}

// Fetcher issues outbound GET requests with retry and exponential backoff.
type Fetcher struct {
	client         *http.Client
	logger         logger.Logger
	maxRetries     int
	retryDelayBase time.Duration
	userAgent      string
}

// New creates a fetcher. An invalid proxy address is a construction error.
func New(cfg Config, log logger.Logger) (*Fetcher, error) {
	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = defaultRequestTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.Proxy != "" {
		proxyURL, err := url.Parse(cfg.Proxy)
		if err != nil {
			return nil, fmt.Errorf("parse proxy address: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	return &Fetcher{
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		logger:         log,
		maxRetries:     cfg.MaxRetries,
		retryDelayBase: cfg.RetryDelayBase,
		userAgent:      cfg.UserAgent,
	}, nil
}

// Fetch GETs the URL, retrying transient failures with exponential backoff.
// 403 short-circuits to OutcomeForbidden on the first response carrying it;
// 404 resolves per Options.SkipNotFound; anything else transient degrades to
// OutcomeAbsent once the retry ceiling is reached.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, opts Options) Result {
	var lastErr error

	for attempt := 1; attempt <= f.maxRetries; attempt++ {
		body, status, err := f.attempt(ctx, rawURL, opts)

		switch {
		case err == nil && status >= http.StatusOK && status < http.StatusMultipleChoices:
			return Result{Outcome: OutcomeOK, Body: body}

		case err == nil && status == http.StatusForbidden:
			return Result{Outcome: OutcomeForbidden}

		case err == nil && status == http.StatusNotFound:
			if opts.SkipNotFound {
				return Result{Outcome: OutcomeAbsent}
			}
			return Result{Outcome: OutcomeNotFound}

		default:
			if err == nil {
				err = fmt.Errorf("http status %d", status)
			}
			lastErr = err
		}

		if attempt == f.maxRetries {
			break
		}

		delay := f.retryDelayBase * time.Duration(1<<(attempt-1))
		f.logger.Warn("fetch attempt failed, retrying",
			logger.String("url", rawURL),
			logger.Int("attempt", attempt),
			logger.Duration("delay", delay),
			logger.Error(lastErr),
		)

		select {
		case <-ctx.Done():
			f.logger.Warn("fetch cancelled", logger.String("url", rawURL))
			return Result{Outcome: OutcomeAbsent}
		case <-time.After(delay):
		}
	}

	f.logger.Error("all fetch attempts failed",
		logger.String("url", rawURL),
		logger.Int("attempts", f.maxRetries),
		logger.Error(lastErr),
	)

	return Result{Outcome: OutcomeAbsent}
}

// attempt performs one GET request.
func (f *Fetcher) attempt(ctx context.Context, rawURL string, opts Options) (body []byte, status int, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = f.userAgent
	}
	req.Header.Set("User-Agent", userAgent)

	if opts.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+opts.BearerToken)
	}
	if opts.APIVersion != "" {
		req.Header.Set("X-Github-Api-Version", opts.APIVersion)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("http fetch: %w", err)
	}
	defer resp.Body.Close()

	limited := io.LimitReader(resp.Body, maxResponseBodyBytes)

	body, err = io.ReadAll(limited)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response body: %w", err)
	}

	return body, resp.StatusCode, nil
}
