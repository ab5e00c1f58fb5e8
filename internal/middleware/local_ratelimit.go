package middleware

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/iliyamo/desk-seat-reservation/internal/apperror"
	"github.com/iliyamo/desk-seat-reservation/internal/config"
)

type keyLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// localLimiter is the per-process token bucket used when redis is not
// available.  Limits are per instance, not global.
type localLimiter struct {
	cfg   config.RateLimitConfig
	limit rate.Limit
	burst int

	mu        sync.Mutex
	limiters  map[string]*keyLimiter
	lastPrune time.Time
	now       func() time.Time
}

func newLocalLimiter(cfg config.RateLimitConfig) *localLimiter {
	burst := cfg.Capacity
	if burst < 1 {
		burst = 1
	}
	limit := rate.Inf
	if cfg.RefillInterval > 0 && cfg.RefillTokens > 0 {
		limit = rate.Limit(float64(cfg.RefillTokens) / cfg.RefillInterval.Seconds())
	}
	return &localLimiter{
		cfg:      cfg,
		limit:    limit,
		burst:    burst,
		limiters: make(map[string]*keyLimiter),
		now:      time.Now,
	}
}

// NewLocalTokenBucket limits requests per key in memory with the same
// key strategy as the redis limiter.
func NewLocalTokenBucket(cfg config.RateLimitConfig) echo.MiddlewareFunc {
	if !cfg.Enabled {
		return passthrough
	}
	return newLocalLimiter(cfg).middleware
}

func (l *localLimiter) middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		now := l.now()
		lim := l.get(buildRateKey(l.cfg, c), now)

		res := lim.ReserveN(now, 1)
		delay := res.DelayFrom(now)
		c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(l.burst))
		if delay > 0 {
			res.CancelAt(now)
			secs := int(math.Ceil(delay.Seconds()))
			c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
			return apperror.RateLimited(secs)
		}
		remaining := int(lim.TokensAt(now))
		if remaining < 0 {
			remaining = 0
		}
		c.Response().Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		return next(c)
	}
}

func (l *localLimiter) get(key string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if ttl := l.cfg.TTL; ttl > 0 && now.Sub(l.lastPrune) >= ttl {
		for k, kl := range l.limiters {
			if now.Sub(kl.lastAccess) >= ttl {
				delete(l.limiters, k)
			}
		}
		l.lastPrune = now
	}

	kl, ok := l.limiters[key]
	if !ok {
		kl = &keyLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[key] = kl
	}
	kl.lastAccess = now
	return kl.limiter
}

func (l *localLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}
