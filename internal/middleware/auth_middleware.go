package middleware

import (
	"context"
	"net/http"
	"strings"

	"truthgate-api/internal/domain/user"
	"truthgate-api/internal/services"
	"truthgate-api/internal/transport/httpdto"
	"truthgate-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (user.Actor, error)
}

func AuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearer(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
			return
		}

		actor, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
			return
		}

		ctx := services.WithActor(c.Request.Context(), actor)
		ctx = context.WithValue(ctx, logger.UserIdKey, actor.ID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireStaff hides staff routes from everyone else behind a 404.
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := services.ActorFromContext(c.Request.Context())
		if !ok || !actor.IsStaff {
			c.AbortWithStatusJSON(http.StatusNotFound, httpdto.NewErrorResponse("not found", "NOT_FOUND"))
			return
		}
		c.Next()
	}
}

func extractBearer(c *gin.Context) string {
	value := c.GetHeader("Authorization")
	parts := strings.SplitN(value, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
