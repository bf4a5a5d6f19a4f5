package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/clinic-core/internal/handler"
)

type RateLimiterConfig struct {
	Rate  rate.Limit
	Burst int
	// Idle is how long an unused bucket is kept. Zero means ten minutes.
	Idle time.Duration
}

// RateLimiter keeps one token bucket per caller: the physician id once auth
// has run, the client address before that. One busy physician cannot starve
// the rest of the clinic.
type RateLimiter struct {
	cfg     RateLimiterConfig
	mu      sync.Mutex
	buckets *cache.Cache
}

func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.Burst <= 0 {
		config.Burst = 1
	}
	if config.Idle <= 0 {
		config.Idle = 10 * time.Minute
	}
	return &RateLimiter{
		cfg:     config,
		buckets: cache.New(config.Idle, 2*config.Idle),
	}
}

func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := callerKey(c)
		if !rl.limiter(key).Allow() {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, handler.NewErrorResponse("rate limit exceeded"))
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if l, ok := rl.buckets.Get(key); ok {
		// Touch so an active caller's bucket does not expire mid-burst.
		rl.buckets.SetDefault(key, l)
		return l.(*rate.Limiter)
	}
	l := rate.NewLimiter(rl.cfg.Rate, rl.cfg.Burst)
	rl.buckets.SetDefault(key, l)
	return l
}

func callerKey(c *gin.Context) string {
	if id := c.GetString(ContextPhysicianID); id != "" {
		return "physician:" + id
	}
	return "ip:" + c.ClientIP()
}
