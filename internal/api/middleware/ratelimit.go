package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"photark/internal/config"
	"photark/internal/models"
	"photark/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RateLimiter holds per-client token buckets
type RateLimiter struct {
	limiters map[string]*clientLimiter
	mu       sync.Mutex
	config   *config.Config

	cleanup     *time.Ticker
	stopCleanup chan struct{}
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

var (
	globalRateLimiter *RateLimiter
	once              sync.Once
)

// RateLimit middleware applies per-IP, per-endpoint rate limiting
func RateLimit(cfg *config.Config) gin.HandlerFunc {
	once.Do(func() {
		globalRateLimiter = &RateLimiter{
			limiters:    make(map[string]*clientLimiter),
			config:      cfg,
			cleanup:     time.NewTicker(10 * time.Minute),
			stopCleanup: make(chan struct{}),
		}
		go globalRateLimiter.startCleanup()
	})

	return globalRateLimiter.middleware
}

func (rl *RateLimiter) middleware(c *gin.Context) {
	clientIP := c.ClientIP()
	endpoint := c.Request.Method + " " + c.FullPath()
	key := clientIP + ":" + endpoint

	limit := rl.getRateLimit(c.Request.Method, c.FullPath())
	if limit <= 0 {
		c.Next()
		return
	}

	limiter := rl.getLimiter(key, limit)
	if !limiter.Allow() {
		rl.handleRateLimitExceeded(c, clientIP, endpoint, limit)
		return
	}

	c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", limit))

	c.Next()
}

// getRateLimit returns the per-minute limit for an endpoint. Upload is the
// expensive path; tile and image reads are cheap and limited loosely.
func (rl *RateLimiter) getRateLimit(method, path string) int {
	if method == "POST" && strings.Contains(path, "/files") {
		return rl.config.RateLimit.Upload
	}
	if method == "GET" && strings.Contains(path, "/files/") {
		return rl.config.RateLimit.Download
	}
	return 0
}

func (rl *RateLimiter) getLimiter(key string, limit int) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cl, exists := rl.limiters[key]
	if !exists {
		// Burst of 2x the per-minute rate, refilled continuously
		cl = &clientLimiter{
			limiter: rate.NewLimiter(rate.Limit(float64(limit)/60.0), limit*2),
		}
		rl.limiters[key] = cl
	}
	cl.lastSeen = time.Now()

	return cl.limiter
}

func (rl *RateLimiter) handleRateLimitExceeded(c *gin.Context, clientIP, endpoint string, limit int) {
	logger.WarnWithContext(c.Request.Context(), "Rate limit exceeded",
		zap.String("client_ip", clientIP),
		zap.String("endpoint", endpoint),
		zap.Int("limit", limit))

	c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", limit))
	c.Header("X-RateLimit-Remaining", "0")
	c.Header("Retry-After", "60")

	c.JSON(http.StatusTooManyRequests, models.ErrorResponse{
		Error:   "rate_limited",
		Message: fmt.Sprintf("Too many requests. Limit: %d requests per minute", limit),
		Code:    http.StatusTooManyRequests,
	})
	c.Abort()
}

func (rl *RateLimiter) startCleanup() {
	for {
		select {
		case <-rl.cleanup.C:
			rl.cleanupOldLimiters()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanupOldLimiters drops buckets idle for over an hour
func (rl *RateLimiter) cleanupOldLimiters() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-time.Hour)
	removed := 0
	for key, cl := range rl.limiters {
		if cl.lastSeen.Before(cutoff) {
			delete(rl.limiters, key)
			removed++
		}
	}

	if removed > 0 {
		logger.Debug("Cleaned up idle rate limiters",
			zap.Int("removed", removed),
			zap.Int("remaining", len(rl.limiters)))
	}
}
