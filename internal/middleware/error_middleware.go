package middleware

import (
	"truthgate-api/internal/services"
	"truthgate-api/internal/transport/httpdto"
	"truthgate-api/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorHandler renders the last error a handler attached with c.Error when
// nothing has been written yet.
func ErrorHandler(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		status := services.HTTPStatus(err)
		if l != nil && status >= 500 {
			l.FromContext(c.Request.Context()).Error("request failed", zap.Error(err))
		}
		if c.Writer.Written() {
			return
		}
		c.JSON(status, httpdto.NewErrorResponse(httpdto.ErrorMessage(status), httpdto.ErrorCode(status)))
	}
}
