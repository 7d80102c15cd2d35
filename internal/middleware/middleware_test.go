package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/clefeel/storefront/internal/metrics"
	"github.com/clefeel/storefront/pkg/logger"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ok(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	h := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logger.RequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "upstream-1")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "upstream-1", seen)
}

func TestCORSPreflight(t *testing.T) {
	h := CORSMiddleware("https://clefeel.com")(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("preflight must not reach the handler")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/cart", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://clefeel.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestRecoverMiddleware(t *testing.T) {
	h := RecoverMiddleware(false)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "internal server error", body["error"])
	assert.NotContains(t, body, "detail")
}

func TestMetricsMiddlewareKeepsStatus(t *testing.T) {
	r := mux.NewRouter()
	r.Use(MetricsMiddleware(metrics.NewNoop()))
	r.HandleFunc("/items/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/7", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestLocalLimiter(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewLocalLimiter(time.Hour)
	l.now = func() time.Time { return now }
	limit := Limit{Rate: 2, Period: time.Minute}
	ctx := context.Background()

	for range 2 {
		res, err := l.Allow(ctx, "a", limit)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}
	res, err := l.Allow(ctx, "a", limit)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.InDelta(t, 30*time.Second, res.RetryAfter, float64(time.Second))

	// other keys have their own bucket
	res, err = l.Allow(ctx, "b", limit)
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	now = now.Add(30 * time.Second)
	res, err = l.Allow(ctx, "a", limit)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestLocalLimiterSweepsIdleBuckets(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewLocalLimiter(time.Minute)
	l.now = func() time.Time { return now }

	_, err := l.Allow(context.Background(), "a", Limit{Rate: 1, Period: time.Hour})
	require.NoError(t, err)
	now = now.Add(2 * time.Minute)
	_, err = l.Allow(context.Background(), "b", Limit{Rate: 1, Period: time.Hour})
	require.NoError(t, err)

	assert.NotContains(t, l.buckets, "a")
	assert.Contains(t, l.buckets, "b")
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string, Limit) (*Result, error) {
	return nil, errors.New("redis: connection refused")
}

func TestRateLimitMiddleware(t *testing.T) {
	h := RateLimitMiddleware(NewLocalLimiter(time.Hour), "auth", Limit{Rate: 1, Period: time.Hour}, false, metrics.NewNoop())(http.HandlerFunc(ok))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = "10.0.0.1:5555"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "too many requests, please try again later", body["error"])

	// a different client is unaffected
	other := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	other.RemoteAddr = "10.0.0.2:5555"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, other)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitFailsOpen(t *testing.T) {
	h := RateLimitMiddleware(failingLimiter{}, "api", Limit{Rate: 1, Period: time.Hour}, false, metrics.NewNoop())(http.HandlerFunc(ok))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/perfumes", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")

	assert.Equal(t, "192.0.2.1", ClientIP(req, false))
	assert.Equal(t, "203.0.113.9", ClientIP(req, true))
}
