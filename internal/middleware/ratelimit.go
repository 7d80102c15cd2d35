package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/clefeel/storefront/internal/apperr"
	"github.com/clefeel/storefront/internal/metrics"
	"github.com/clefeel/storefront/internal/respond"
	"github.com/go-redis/redis_rate/v10"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
)

// Limiter decides whether a request identified by key may proceed
type Limiter interface {
	Allow(ctx context.Context, key string, limit Limit) (*Result, error)
}

// Limit allows Rate requests per Period
type Limit struct {
	Rate   int
	Period time.Duration
}

// Result is the outcome of a limiter check
type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// RedisLimiter keeps counters in Redis so every instance shares them
type RedisLimiter struct {
	limiter *redis_rate.Limiter
}

// NewRedisLimiter creates a limiter backed by rdb
func NewRedisLimiter(rdb *redis.Client) *RedisLimiter {
	return &RedisLimiter{limiter: redis_rate.NewLimiter(rdb)}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, limit Limit) (*Result, error) {
	res, err := l.limiter.Allow(ctx, "ratelimit:"+key, redis_rate.Limit{
		Rate:   limit.Rate,
		Period: limit.Period,
		Burst:  limit.Rate,
	})
	if err != nil {
		return nil, fmt.Errorf("rate limit check failed: %w", err)
	}
	return &Result{
		Allowed:    res.Allowed > 0,
		Remaining:  res.Remaining,
		RetryAfter: res.RetryAfter,
	}, nil
}

// LocalLimiter keeps a token bucket per key in process memory. Buckets idle
// for longer than idle are dropped on a later call.
type LocalLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	idle      time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLocalLimiter creates an in-process limiter
func NewLocalLimiter(idle time.Duration) *LocalLimiter {
	return &LocalLimiter{
		buckets: make(map[string]*bucket),
		idle:    idle,
		now:     time.Now,
	}
}

func (l *LocalLimiter) Allow(_ context.Context, key string, limit Limit) (*Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	b, ok := l.buckets[key]
	if !ok {
		every := rate.Every(limit.Period / time.Duration(max(limit.Rate, 1)))
		b = &bucket{limiter: rate.NewLimiter(every, limit.Rate)}
		l.buckets[key] = b
	}
	b.lastSeen = now

	if b.limiter.AllowN(now, 1) {
		return &Result{Allowed: true, Remaining: int(b.limiter.TokensAt(now))}, nil
	}

	missing := 1 - b.limiter.TokensAt(now)
	wait := time.Duration(missing / float64(b.limiter.Limit()) * float64(time.Second))
	return &Result{Allowed: false, RetryAfter: wait}, nil
}

func (l *LocalLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.idle {
		return
	}
	l.lastSweep = now
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) >= l.idle {
			delete(l.buckets, key)
		}
	}
}

// RateLimitMiddleware applies limit per client IP under the given name.
// Backend errors let the request through.
func RateLimitMiddleware(l Limiter, name string, limit Limit, trustProxy bool, m *metrics.AppMetrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			ip := ClientIP(r, trustProxy)

			res, err := l.Allow(ctx, name+":"+ip, limit)
			if err != nil {
				slog.WarnContext(ctx, "rate limiter unavailable, allowing request", "limiter", name, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(limit.Rate))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(max(res.Remaining, 0)))
			if !res.Allowed {
				h.Set("Retry-After", strconv.Itoa(int(math.Ceil(res.RetryAfter.Seconds()))))
				m.RateLimited.Add(ctx, 1, m.Attrs(attribute.String("limiter", name)))
				respond.Error(w, apperr.RateLimited("too many requests, please try again later"), false)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the caller address. X-Forwarded-For is only honoured
// behind a trusted proxy.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
