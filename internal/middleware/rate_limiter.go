package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/medboard/bedside-api/pkg/httputil"
)

// clientIdleEviction is how long a client entry may sit unused before
// the next sweep drops it.
const clientIdleEviction = 10 * time.Minute

type RateLimiterConfig struct {
	Rate  rate.Limit
	Burst int
}

// RateLimiter throttles per client, keyed by remote IP, so one
// misbehaving bedside terminal cannot starve the rest of the ward.
// Idle entries are swept lazily on the request path.
type RateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*clientLimiter
	config    RateLimiterConfig
	lastSweep time.Time
	now       func() time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	return &RateLimiter{
		clients:   make(map[string]*clientLimiter),
		config:    config,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, httputil.Response{
				Success: false,
				Error: &httputil.Error{
					Code:    http.StatusTooManyRequests,
					Message: "rate limit exceeded",
				},
			})
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) >= clientIdleEviction {
		for k, client := range rl.clients {
			if now.Sub(client.lastSeen) >= clientIdleEviction {
				delete(rl.clients, k)
			}
		}
		rl.lastSweep = now
	}

	client, ok := rl.clients[key]
	if !ok {
		client = &clientLimiter{limiter: rate.NewLimiter(rl.config.Rate, rl.config.Burst)}
		rl.clients[key] = client
	}
	client.lastSeen = now
	return client.limiter.AllowN(now, 1)
}
