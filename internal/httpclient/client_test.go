package httpclient

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(baseURL string) Config {
	return Config{
		BaseURL:                   baseURL,
		Timeout:                   5 * time.Second,
		RetryMaxAttempts:          3,
		RetryInitialInterval:      5 * time.Millisecond,
		RetryMaxInterval:          20 * time.Millisecond,
		RetryMultiplier:           2.0,
		CircuitBreakerMaxFailures: 2,
		CircuitBreakerTimeout:     time.Minute,
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newRequest(t *testing.T, method, url, body string) *http.Request {
	t.Helper()
	var reader io.Reader = http.NoBody
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, url, reader)
	require.NoError(t, err)
	return req
}

func TestDo_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	t.Cleanup(srv.Close)

	client := New(testConfig(srv.URL), "reseller-api", nil, testLogger())

	resp, err := client.Do(context.Background(), newRequest(t, http.MethodGet, srv.URL+"/ping", ""))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, srv.URL, client.BaseURL())
	assert.Equal(t, "reseller-api", client.Name())
}

func TestDo_RetriesRetryableStatusAndReplaysBody(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, `{"domain":"example.com"}`, string(body))
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	t.Cleanup(srv.Close)

	client := New(testConfig(srv.URL), "reseller-api", nil, testLogger())

	resp, err := client.Do(context.Background(),
		newRequest(t, http.MethodPut, srv.URL+"/domains/example.com/nameservers", `{"domain":"example.com"}`))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestDo_NonIdempotentRequests(t *testing.T) {
	t.Run("server error is not replayed", func(t *testing.T) {
		var attempts atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if attempts.Add(1) == 1 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		t.Cleanup(srv.Close)

		client := New(testConfig(srv.URL), "reseller-api", nil, testLogger())

		resp, err := client.Do(context.Background(),
			newRequest(t, http.MethodPost, srv.URL+"/domains/example.com/renew", `{"years":1}`))
		require.Error(t, err)
		require.NotNil(t, resp)
		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
		assert.Equal(t, int32(1), attempts.Load())
	})

	t.Run("rate limit is replayed", func(t *testing.T) {
		var attempts atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if attempts.Add(1) == 1 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			w.WriteHeader(http.StatusCreated)
		}))
		t.Cleanup(srv.Close)

		client := New(testConfig(srv.URL), "reseller-api", nil, testLogger())

		resp, err := client.Do(context.Background(), newRequest(t, http.MethodPost, srv.URL+"/domains", `{}`))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Equal(t, int32(2), attempts.Load())
	})

	t.Run("transport failure is ambiguous", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		url := srv.URL
		srv.Close()

		client := New(testConfig(url), "reseller-api", nil, testLogger())

		resp, err := client.Do(context.Background(), newRequest(t, http.MethodPost, url+"/domains", `{}`))

		assert.Nil(t, resp)
		assert.ErrorIs(t, err, ErrOutcomeUnknown)
	})
}

func TestIsIdempotent(t *testing.T) {
	for _, method := range []string{http.MethodGet, http.MethodHead, http.MethodPut, http.MethodDelete} {
		assert.True(t, IsIdempotent(method), method)
	}
	assert.False(t, IsIdempotent(http.MethodPost))
	assert.False(t, IsIdempotent(http.MethodPatch))
}

func TestDo_DoesNotRetryClientErrors(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	t.Cleanup(srv.Close)

	client := New(testConfig(srv.URL), "reseller-api", nil, testLogger())

	resp, err := client.Do(context.Background(), newRequest(t, http.MethodPost, srv.URL, ""))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, int32(1), attempts.Load())
}

func TestDo_ExhaustedRetriesReturnResponseAndError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	t.Cleanup(srv.Close)

	client := New(testConfig(srv.URL), "reseller-api", nil, testLogger())

	resp, err := client.Do(context.Background(), newRequest(t, http.MethodGet, srv.URL, ""))
	require.Error(t, err)
	require.NotNil(t, resp)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "30", resp.Header.Get("Retry-After"))
}

func TestDo_CircuitBreakerOpens(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	cfg := testConfig(srv.URL)
	cfg.RetryMaxAttempts = 1
	client := New(cfg, "reseller-api", nil, testLogger())

	for range 2 {
		resp, err := client.Do(context.Background(), newRequest(t, http.MethodGet, srv.URL, ""))
		require.Error(t, err)
		_ = resp.Body.Close()
	}

	resp, err := client.Do(context.Background(), newRequest(t, http.MethodGet, srv.URL, ""))
	assert.Nil(t, resp)
	assert.True(t, IsCircuitOpen(err))
	assert.Equal(t, int32(2), attempts.Load())
	assert.Error(t, client.HealthCheck(context.Background()))
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, isRetryable(nil))
	assert.False(t, isRetryable(context.Canceled))
	assert.False(t, isRetryable(context.DeadlineExceeded))
	assert.True(t, isRetryable(errors.New("connection reset by peer")))
}

func TestIsRetryableStatus(t *testing.T) {
	assert.True(t, isRetryableStatus(http.StatusTooManyRequests))
	assert.True(t, isRetryableStatus(http.StatusBadGateway))
	assert.False(t, isRetryableStatus(http.StatusNotFound))
	assert.False(t, isRetryableStatus(http.StatusOK))
}

func TestBackoff(t *testing.T) {
	cfg := retryConfig{
		initialInterval: 100 * time.Millisecond,
		maxInterval:     300 * time.Millisecond,
		multiplier:      2.0,
	}

	first := backoff(1, cfg)
	assert.GreaterOrEqual(t, first, 75*time.Millisecond)
	assert.LessOrEqual(t, first, 125*time.Millisecond)

	capped := backoff(5, cfg)
	assert.GreaterOrEqual(t, capped, 225*time.Millisecond)
	assert.LessOrEqual(t, capped, 375*time.Millisecond)
}
