package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"invoicedesk/internal/common"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// RateLimiter applies a token bucket per actor, or per client IP for
// unauthenticated requests
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	rate     rate.Limit
	burst    int
	entryTTL time.Duration
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(requestsPerSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		rate:     rate.Limit(requestsPerSecond),
		burst:    burst,
		entryTTL: 10 * time.Minute,
	}
}

// Run evicts idle buckets until ctx is cancelled
func (rl *RateLimiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			rl.cleanup(now)
		}
	}
}

func (rl *RateLimiter) cleanup(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := now.Add(-rl.entryTTL)
	for key, entry := range rl.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(rl.limiters, key)
		}
	}
}

func (rl *RateLimiter) limiterFor(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	entry, ok := rl.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[key] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := "ip:" + c.RealIP()
			if actor := common.GetActorFromContext(c.Request().Context()); actor != nil {
				key = "actor:" + actor.ID.String()
			}

			limiter := rl.limiterFor(key)
			c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.burst))
			if !limiter.Allow() {
				c.Response().Header().Set("X-RateLimit-Remaining", "0")
				c.Response().Header().Set("Retry-After", "1")
				return c.JSON(http.StatusTooManyRequests, common.CreateErrorResponse("RATE_LIMITED", "Request was throttled. Please try again later.", nil))
			}
			c.Response().Header().Set("X-RateLimit-Remaining", strconv.Itoa(int(limiter.Tokens())))
			return next(c)
		}
	}
}
