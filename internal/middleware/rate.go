package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// limiterIdleTTL is how long a client may stay quiet before its limiter
// entry is dropped.
const limiterIdleTTL = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter rate-limits per client IP. Applied to the polling endpoints so a
// misbehaving client cannot hammer the store. Entries for clients that went
// quiet are evicted, so the table does not grow with every IP ever seen.
func Limiter(r rate.Limit, b int) gin.HandlerFunc {
	var (
		mu        sync.Mutex
		clients   = make(map[string]*clientLimiter)
		lastSweep = time.Now()
	)
	return func(c *gin.Context) {
		now := time.Now()

		mu.Lock()
		if now.Sub(lastSweep) > limiterIdleTTL {
			evictStale(clients, now, limiterIdleTTL)
			lastSweep = now
		}
		cl, ok := clients[c.ClientIP()]
		if !ok {
			cl = &clientLimiter{limiter: rate.NewLimiter(r, b)}
			clients[c.ClientIP()] = cl
		}
		cl.lastSeen = now
		limiter := cl.limiter
		mu.Unlock()

		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}

func evictStale(clients map[string]*clientLimiter, now time.Time, ttl time.Duration) {
	for ip, cl := range clients {
		if now.Sub(cl.lastSeen) > ttl {
			delete(clients, ip)
		}
	}
}
