package middleware

import (
	"net/http"

	"truthgate-api/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

// TrustedDeviceMiddleware only lets browsers carrying the trusted-device
// cookie reach the routes behind it. Requests without it see a 404 so the
// admin surface is not discoverable. Debug mode skips the check.
func TrustedDeviceMiddleware(cookieName string, debug bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if debug {
			c.Next()
			return
		}
		if v, err := c.Cookie(cookieName); err != nil || v == "" {
			c.AbortWithStatusJSON(http.StatusNotFound, httpdto.NewErrorResponse("not found", "NOT_FOUND"))
			return
		}
		c.Next()
	}
}
