package middleware

import (
	"context"
	"net/http"
	"strconv"

	"truthgate-api/internal/redis"
	"truthgate-api/internal/services"
	"truthgate-api/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

type MessageLimiter interface {
	AllowMessage(ctx context.Context, userID string) (*redis.RateLimitResult, error)
}

// MessageRateLimitMiddleware limits message sends per user. It must run
// after AuthMiddleware. A limiter failure lets the request through.
func MessageRateLimitMiddleware(limiter MessageLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := services.ActorFromContext(c.Request.Context())
		if !ok || limiter == nil {
			c.Next()
			return
		}

		result, err := limiter.AllowMessage(c.Request.Context(), actor.ID.String())
		if err != nil {
			_ = c.Error(err)
			c.Next()
			return
		}

		setRateLimitHeaders(c, result)

		if !result.Allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, httpdto.NewErrorResponse("message rate limit exceeded", "RATE_LIMITED"))
			return
		}

		c.Next()
	}
}

func setRateLimitHeaders(c *gin.Context, result *redis.RateLimitResult) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(int64(result.ResetIn.Seconds()), 10))
}
