package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"elit21.com/shop/internal/shared/apperr"
)

// RateLimit applies a per-client-IP token bucket. Used on the login and
// checkout payment endpoints so a misbehaving client cannot hammer the
// provider through us.
func RateLimit(r rate.Limit, burst int) gin.HandlerFunc {
	type entry struct {
		lim  *rate.Limiter
		seen time.Time
	}

	var (
		mu      sync.Mutex
		clients = map[string]*entry{}
	)

	// occasional sweep so a long-running process does not accumulate
	// one limiter per IP forever
	sweep := func(now time.Time) {
		for ip, e := range clients {
			if now.Sub(e.seen) > 10*time.Minute {
				delete(clients, ip)
			}
		}
	}

	var lastSweep time.Time

	return func(c *gin.Context) {
		ip := c.ClientIP()
		now := time.Now()

		mu.Lock()
		if now.Sub(lastSweep) > time.Minute {
			sweep(now)
			lastSweep = now
		}
		e, ok := clients[ip]
		if !ok {
			e = &entry{lim: rate.NewLimiter(r, burst)}
			clients[ip] = e
		}
		e.seen = now
		allowed := e.lim.Allow()
		mu.Unlock()

		if !allowed {
			Fail(c, apperr.RateLimitedErr("Too many requests. Please slow down."))
			return
		}
		c.Next()
	}
}
