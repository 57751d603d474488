package mw

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// ClientLimiter hands out one token bucket per client address.
type ClientLimiter struct {
	clients map[string]*rate.Limiter
	mu      sync.RWMutex
	r       rate.Limit
	b       int
}

// NewClientLimiter creates a ClientLimiter allowing r requests per second
// with bursts of b for every client.
func NewClientLimiter(r rate.Limit, b int) *ClientLimiter {
	return &ClientLimiter{
		clients: make(map[string]*rate.Limiter),
		r:       r,
		b:       b,
	}
}

// Limiter returns the bucket for client, creating it on first use.
func (l *ClientLimiter) Limiter(client string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.clients[client]
	l.mu.RUnlock()
	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	// Another request may have created it between the two locks.
	if limiter, exists = l.clients[client]; exists {
		return limiter
	}
	limiter = rate.NewLimiter(l.r, l.b)
	l.clients[client] = limiter
	return limiter
}

// RateLimiter rejects requests over the per-client budget with 429.
func RateLimiter(r rate.Limit, b int) gin.HandlerFunc {
	limiter := NewClientLimiter(r, b)
	return func(c *gin.Context) {
		if !limiter.Limiter(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "too many requests",
				"code":  "rate_limited",
			})
			return
		}
		c.Next()
	}
}
