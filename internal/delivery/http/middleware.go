package http

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/storefront/backend/internal/domain"
)

// CORSMiddleware handles CORS for the storefront frontends
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		// Check if origin is allowed
		if isAllowedOrigin(origin, allowedOrigins) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
			c.Writer.Header().Set("Access-Control-Max-Age", "3600")
		}

		// Handle preflight requests
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// isAllowedOrigin checks if the origin is in the allowed list
func isAllowedOrigin(origin string, allowedOrigins []string) bool {
	for _, allowed := range allowedOrigins {
		// Support one wildcard such as https://*.storefront.dev or http://localhost:*
		if prefix, suffix, ok := strings.Cut(allowed, "*"); ok {
			if matchesWildcard(origin, prefix, suffix) {
				return true
			}
		} else if origin == allowed {
			return true
		}
	}
	return false
}

// matchesWildcard reports whether origin is prefix + something + suffix.
// A wildcard followed by a suffix only spans host labels, never a path.
func matchesWildcard(origin, prefix, suffix string) bool {
	if !strings.HasPrefix(origin, prefix) || !strings.HasSuffix(origin, suffix) {
		return false
	}
	if len(origin) < len(prefix)+len(suffix) {
		return false
	}
	if suffix == "" {
		return true
	}
	middle := origin[len(prefix) : len(origin)-len(suffix)]
	return middle != "" && !strings.ContainsAny(middle, "/@")
}

// LoggerMiddleware logs one line per request
func LoggerMiddleware(logger *logrus.Entry) gin.HandlerFunc {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := logger.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"latency":  time.Since(start).String(),
			"clientIP": c.ClientIP(),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("[HTTP] request completed")
			return
		}
		entry.Debug("[HTTP] request completed")
	}
}

// RecoveryMiddleware recovers from panics
func RecoveryMiddleware() gin.HandlerFunc {
	return gin.Recovery()
}

// maxTrackedClients bounds how many client buckets are kept at once
const maxTrackedClients = 10000

// ipLimiter hands out one token bucket per client IP. Buckets live in an LRU,
// so the least recently seen clients are evicted once the bound is reached.
type ipLimiter struct {
	mu       sync.Mutex
	limiters *lru.Cache[string, *rate.Limiter]
	limit    rate.Limit
	burst    int
}

func newIPLimiter(perMinute, maxClients int) *ipLimiter {
	limiters, err := lru.New[string, *rate.Limiter](max(1, maxClients))
	if err != nil {
		// Only returned for a non-positive size
		panic(err)
	}
	return &ipLimiter{
		limiters: limiters,
		limit:    rate.Limit(float64(perMinute) / 60),
		burst:    max(1, perMinute/6),
	}
}

func (l *ipLimiter) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.limiters.Get(ip)
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters.Add(ip, limiter)
	}
	return limiter
}

// tracked returns the number of client buckets currently held
func (l *ipLimiter) tracked() int {
	return l.limiters.Len()
}

// RateLimitMiddleware limits each client IP to perMinute requests.
// perMinute <= 0 disables limiting.
func RateLimitMiddleware(perMinute int) gin.HandlerFunc {
	if perMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	limiter := newIPLimiter(perMinute, maxTrackedClients)
	return func(c *gin.Context) {
		if !limiter.get(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": domain.ErrRateLimited.Error()})
			return
		}
		c.Next()
	}
}
