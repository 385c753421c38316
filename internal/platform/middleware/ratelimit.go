package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// Rate limiting protects the billing and stock endpoints from a
// misbehaving frontend hammering commits. Each client gets a token
// bucket keyed on user id + IP, so one busy counter terminal cannot
// starve the others.

type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
}

const (
	defaultRPS   = 100
	defaultBurst = 200
)

// RateLimitFromConfig builds the limiter settings from the loaded
// configuration, falling back to the defaults for unset values.
func RateLimitFromConfig(rps float64, burst int) RateLimitConfig {
	cfg := RateLimitConfig{RequestsPerSecond: rps, BurstSize: burst}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = defaultRPS
	}
	if cfg.BurstSize <= 0 {
		cfg.BurstSize = defaultBurst
	}
	return cfg
}

// bucket is one client's token balance. Tokens refill continuously at
// the configured rate up to the burst size.
type bucket struct {
	mu     sync.Mutex
	tokens float64
	last   time.Time
}

type limiter struct {
	mu      sync.Mutex
	cfg     RateLimitConfig
	clients map[string]*bucket
}

func newLimiter(cfg RateLimitConfig) *limiter {
	return &limiter{cfg: cfg, clients: make(map[string]*bucket)}
}

func (l *limiter) bucketFor(key string) *bucket {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.clients[key]
	if !ok {
		b = &bucket{tokens: float64(l.cfg.BurstSize), last: time.Now()}
		l.clients[key] = b
	}
	return b
}

// take refills the bucket for the elapsed time and spends one token.
// It reports false when the bucket is empty.
func (l *limiter) take(b *bucket) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	b.tokens += now.Sub(b.last).Seconds() * l.cfg.RequestsPerSecond
	if max := float64(l.cfg.BurstSize); b.tokens > max {
		b.tokens = max
	}
	b.last = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// retryAfter estimates whole seconds until one token is available.
func (l *limiter) retryAfter(b *bucket) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if l.cfg.RequestsPerSecond <= 0 {
		return 1
	}
	return int((1-b.tokens)/l.cfg.RequestsPerSecond) + 1
}

// RateLimit rejects requests beyond the per-client budget with 429
// and a Retry-After hint.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	l := newLimiter(cfg)
	limitHeader := strconv.FormatFloat(cfg.RequestsPerSecond, 'f', 0, 64)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.RealIP()
			if userID, _ := c.Get("user_id").(string); userID != "" {
				key = userID + "@" + key
			}

			b := l.bucketFor(key)
			c.Response().Header().Set("X-RateLimit-Limit", limitHeader)
			if !l.take(b) {
				c.Response().Header().Set("Retry-After", strconv.Itoa(l.retryAfter(b)))
				c.Response().Header().Set("X-RateLimit-Remaining", "0")
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
