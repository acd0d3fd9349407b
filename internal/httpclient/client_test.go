package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() Config {
	return Config{
		RateLimit:     1000,
		BurstSize:     100,
		MaxRetries:    2,
		RetryDelay:    time.Millisecond,
		MaxRetryDelay: 5 * time.Millisecond,
	}
}

func TestNew(t *testing.T) {
	t.Run("applies default values", func(t *testing.T) {
		client := New(Config{})

		require.NotNil(t, client)
		assert.Equal(t, 10*time.Second, client.client.Timeout)
		assert.Equal(t, "Helixir-NameSimilarityService/1.0", client.Config().UserAgent)
		assert.Equal(t, 2, client.Config().MaxRetries)
		assert.Equal(t, 200*time.Millisecond, client.Config().RetryDelay)
		assert.Equal(t, float64(10), client.Config().RateLimit)
	})

	t.Run("negative retries disable retrying", func(t *testing.T) {
		client := New(Config{MaxRetries: -1})
		assert.Equal(t, 0, client.Config().MaxRetries)
	})
}

func TestClient_Do(t *testing.T) {
	t.Run("sets user agent", func(t *testing.T) {
		var receivedUserAgent string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			receivedUserAgent = r.Header.Get("User-Agent")
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		cfg := fastConfig()
		cfg.UserAgent = "TestAgent/2.0"
		client := New(cfg)

		req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL, nil)
		require.NoError(t, err)

		resp, err := client.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "TestAgent/2.0", receivedUserAgent)
	})

	t.Run("retries server errors and resends body", func(t *testing.T) {
		var attempts int32
		var lastBody string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b, _ := io.ReadAll(r.Body)
			lastBody = string(b)
			if atomic.AddInt32(&attempts, 1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := New(fastConfig())

		req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, server.URL, strings.NewReader("q=kim"))
		require.NoError(t, err)

		resp, err := client.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
		assert.Equal(t, "q=kim", lastBody)
	})

	t.Run("returns last response when retries are exhausted", func(t *testing.T) {
		var attempts int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&attempts, 1)
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"quota"}`))
		}))
		defer server.Close()

		client := New(fastConfig())

		req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL, nil)
		require.NoError(t, err)

		resp, err := client.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
		assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
		body, _ := io.ReadAll(resp.Body)
		assert.Contains(t, string(body), "quota")
	})

	t.Run("does not retry client errors", func(t *testing.T) {
		var attempts int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&attempts, 1)
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer server.Close()

		client := New(fastConfig())

		req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL, nil)
		require.NoError(t, err)

		resp, err := client.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
	})

	t.Run("stops on context cancellation", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "30")
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		client := New(fastConfig())

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
		require.NoError(t, err)

		start := time.Now()
		_, err = client.Do(req)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, time.Since(start), 5*time.Second)
	})
}

func TestRetryAfter(t *testing.T) {
	t.Parallel()

	fallback := 150 * time.Millisecond
	resp := &http.Response{Header: http.Header{}}
	assert.Equal(t, fallback, retryAfter(resp, fallback))

	resp.Header.Set("Retry-After", "2")
	assert.Equal(t, 2*time.Second, retryAfter(resp, fallback))

	resp.Header.Set("Retry-After", "0")
	assert.Equal(t, fallback, retryAfter(resp, fallback))

	resp.Header.Set("Retry-After", "garbage")
	assert.Equal(t, fallback, retryAfter(resp, fallback))
}

func TestShouldRetry(t *testing.T) {
	t.Parallel()

	assert.True(t, shouldRetry(http.StatusTooManyRequests))
	assert.True(t, shouldRetry(http.StatusBadGateway))
	assert.False(t, shouldRetry(http.StatusOK))
	assert.False(t, shouldRetry(http.StatusNotFound))
}

func TestRateLimiter(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(1, 1)
	assert.True(t, rl.Allow())
	assert.False(t, rl.Allow())

	rl.SetRate(1000)
	require.NoError(t, rl.Wait(context.Background()))
	assert.LessOrEqual(t, rl.Tokens(), 1.0)
}
