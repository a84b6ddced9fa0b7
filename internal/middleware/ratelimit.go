package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"typingspeed/internal/pkg/response"
	"typingspeed/internal/pkg/security"
	"typingspeed/internal/ratelimit"
)

const defaultRateLimitMessage = "Too many requests, please try again later."

// RateLimitRule is one route budget. Name namespaces the store keys so
// budgets do not share counters.
type RateLimitRule struct {
	Name    string
	Window  time.Duration
	Max     int
	Message string
}

// RateLimiter builds per-route limiters over a shared store.
type RateLimiter struct {
	store ratelimit.Store
	log   logrus.FieldLogger
	now   func() time.Time
}

func NewRateLimiter(store ratelimit.Store, log logrus.FieldLogger) *RateLimiter {
	return &RateLimiter{store: store, log: log, now: time.Now}
}

// Limit counts requests per client IP in fixed windows. The IP comes from
// gin, so forwarding headers only count when the peer is a trusted proxy.
// Store failures let the request through.
func (l *RateLimiter) Limit(rule RateLimitRule) gin.HandlerFunc {
	message := rule.Message
	if message == "" {
		message = defaultRateLimitMessage
	}

	return func(c *gin.Context) {
		ip := c.ClientIP()
		rec, err := l.store.Increment(c.Request.Context(), rule.Name+":"+ip, rule.Window)
		if err != nil {
			l.log.WithError(err).WithField("limiter", rule.Name).Error("rate limit store failed")
			c.Next()
			return
		}

		remaining := rule.Max - rec.Count
		if remaining < 0 {
			remaining = 0
		}
		h := c.Writer.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(rule.Max))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(rec.ResetAt.Unix(), 10))

		if rec.Count > rule.Max {
			retryAfter := int(math.Ceil(rec.ResetAt.Sub(l.now()).Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			h.Set("Retry-After", strconv.Itoa(retryAfter))

			l.log.WithFields(logrus.Fields{
				"limiter": rule.Name,
				"ip":      security.HashForLogging(ip),
				"count":   rec.Count,
			}).Warn("rate limit exceeded")

			response.AbortWithFields(c, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", message, gin.H{
				"retryAfter": retryAfter,
			})
			return
		}

		c.Next()
	}
}
