package middleware

import (
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/shinyyama/storefront-rewards/internal/handler"
)

const maxTrackedLimiters = 10000

// RateLimiter throttles a route per caller. The key is the authenticated uid, or the client
// IP for anonymous requests.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
	log      logrus.FieldLogger
}

func NewRateLimiter(perSecond float64, burst int, log logrus.FieldLogger) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(perSecond),
		burst:    burst,
		log:      log,
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	l, ok := rl.limiters[key]
	if !ok {
		if len(rl.limiters) >= maxTrackedLimiters {
			rl.limiters = make(map[string]*rate.Limiter)
		}
		l = rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters[key] = l
	}
	return l
}

func (rl *RateLimiter) Handler(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		key, _ := c.Get("uid").(string)
		if key == "" {
			key = c.RealIP()
		}
		if !rl.limiter(key).Allow() {
			rl.log.WithFields(logrus.Fields{
				"key":  key,
				"path": c.Path(),
			}).Warn("rate limit exceeded")
			return c.JSON(http.StatusTooManyRequests, handler.NewErrorResponse("rate_limited", "too many requests"))
		}
		return next(c)
	}
}
