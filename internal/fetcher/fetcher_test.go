package fetcher_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonesrussell/gocatalog/internal/fetcher"
	"github.com/jonesrussell/gocatalog/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFetcher(t *testing.T, cfg fetcher.Config) *fetcher.Fetcher {
	t.Helper()

	f, err := fetcher.New(cfg, logger.NewNopLogger())
	require.NoError(t, err)

	return f
}

func TestFetchSuccess(t *testing.T) {
	var gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("hello"))
	}))
	defer server.Close()

	f := newFetcher(t, fetcher.Config{MaxRetries: 3, RetryDelayBase: time.Millisecond, UserAgent: "test-agent"})

	result := f.Fetch(context.Background(), server.URL, fetcher.Options{})

	assert.Equal(t, fetcher.OutcomeOK, result.Outcome)
	assert.Equal(t, "hello", string(result.Body))
	assert.Equal(t, "test-agent", gotUserAgent)
}

func TestFetchForbiddenNeverRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	f := newFetcher(t, fetcher.Config{MaxRetries: 5, RetryDelayBase: time.Millisecond})

	result := f.Fetch(context.Background(), server.URL, fetcher.Options{})

	assert.Equal(t, fetcher.OutcomeForbidden, result.Outcome)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	f := newFetcher(t, fetcher.Config{MaxRetries: 3, RetryDelayBase: time.Millisecond})

	result := f.Fetch(context.Background(), server.URL, fetcher.Options{})
	assert.Equal(t, fetcher.OutcomeNotFound, result.Outcome)

	result = f.Fetch(context.Background(), server.URL, fetcher.Options{SkipNotFound: true})
	assert.Equal(t, fetcher.OutcomeAbsent, result.Outcome)
}

func TestFetchRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("recovered"))
	}))
	defer server.Close()

	base := 20 * time.Millisecond
	f := newFetcher(t, fetcher.Config{MaxRetries: 3, RetryDelayBase: base})

	start := time.Now()
	result := f.Fetch(context.Background(), server.URL, fetcher.Options{})
	elapsed := time.Since(start)

	assert.Equal(t, fetcher.OutcomeOK, result.Outcome)
	assert.Equal(t, "recovered", string(result.Body))
	assert.Equal(t, int32(3), calls.Load())
	// Backoff doubles: base after attempt one, 2*base after attempt two.
	assert.GreaterOrEqual(t, elapsed, 3*base)
}

func TestFetchExhaustionDegradesToAbsent(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	f := newFetcher(t, fetcher.Config{MaxRetries: 3, RetryDelayBase: time.Millisecond})

	result := f.Fetch(context.Background(), server.URL, fetcher.Options{})

	assert.Equal(t, fetcher.OutcomeAbsent, result.Outcome)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchSendsCredentialHeaders(t *testing.T) {
	var gotAuth, gotVersion string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotVersion = r.Header.Get("X-Github-Api-Version")
		_, _ = w.Write([]byte("{}"))
	}))
	defer server.Close()

	f := newFetcher(t, fetcher.Config{MaxRetries: 1, RetryDelayBase: time.Millisecond})

	result := f.Fetch(context.Background(), server.URL, fetcher.Options{
		BearerToken: "secret",
		APIVersion:  "2022-11-28",
	})

	assert.Equal(t, fetcher.OutcomeOK, result.Outcome)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "2022-11-28", gotVersion)
}

func TestFetchCancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	f := newFetcher(t, fetcher.Config{MaxRetries: 3, RetryDelayBase: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := f.Fetch(ctx, server.URL, fetcher.Options{})
	assert.Equal(t, fetcher.OutcomeAbsent, result.Outcome)
}

func TestNewRejectsBadProxy(t *testing.T) {
	_, err := fetcher.New(fetcher.Config{Proxy: "://bad"}, logger.NewNopLogger())
	require.Error(t, err)
}
