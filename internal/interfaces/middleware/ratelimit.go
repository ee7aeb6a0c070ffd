package middleware

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/voxhub/backend/internal/infrastructure/cache"
	"github.com/voxhub/backend/pkg/auth"
	"github.com/voxhub/backend/pkg/constants"
)

// limiterKey buckets authenticated traffic per tenant, platform operators per
// user, and anonymous traffic per client IP. Must run after RequireAuth for
// the authenticated buckets to apply.
func limiterKey(c *gin.Context) string {
	if userInterface, exists := c.Get(constants.ContextKeyUser); exists {
		if user, ok := userInterface.(auth.UserSession); ok {
			if user.TenantID != nil {
				return "tenant:" + *user.TenantID
			}
			return "user:" + user.ID
		}
	}
	return "ip:" + c.ClientIP()
}

// RateLimit applies a fixed-window limit per tenant, falling back to the
// client IP for unauthenticated routes. A nil Redis client disables limiting
// entirely.
func RateLimit(redisClient *cache.Client, maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if redisClient == nil {
			c.Next()
			return
		}

		result, err := redisClient.CheckRateLimit(c.Request.Context(), limiterKey(c), window, maxRequests)
		if err != nil {
			// Limiter outage must not take the API down.
			log.Printf("⚠️ Rate limiter unavailable: %v", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", result.Limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", result.Remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", result.ResetAt))

		if !result.Allowed {
			retryAfter := result.ResetAt - time.Now().Unix()
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
			c.JSON(http.StatusTooManyRequests, gin.H{
				constants.ResponseError: "Too Many Requests",
				constants.FieldMessage:  "Rate limit exceeded, slow down",
				"code":                  "RATE_LIMITED",
				"data":                  nil,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
