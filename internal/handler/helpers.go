// Package handler provides HTTP handlers for API endpoints.
package handler

import (
	"net/http"
	"strconv"

	"truthgate-api/internal/domain/user"
	"truthgate-api/internal/services"
	"truthgate-api/internal/transport/httpdto"
	apperrors "truthgate-api/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// A malformed id is reported like an unknown one.
var errNotFound = apperrors.ErrNotFound

func parseUUID(value string) (uuid.UUID, error) {
	return uuid.Parse(value)
}

func parseInt(value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

// writeError maps a service error onto the response. 5xx errors are also
// attached to the context so ErrorHandler logs them.
func writeError(c *gin.Context, err error) {
	status := services.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, httpdto.NewErrorResponse(httpdto.ErrorMessage(status), httpdto.ErrorCode(status)))
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse(msg, "INVALID_REQUEST"))
}

func currentActor(c *gin.Context) (user.Actor, bool) {
	actor, ok := services.ActorFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return user.Actor{}, false
	}
	return actor, true
}

func pagination(c *gin.Context) (page, limit int, ok bool) {
	page, err := parseInt(c.Query("page"))
	if err != nil || page < 0 {
		badRequest(c, "invalid page")
		return 0, 0, false
	}
	limit, err = parseInt(c.Query("limit"))
	if err != nil || limit < 0 {
		badRequest(c, "invalid limit")
		return 0, 0, false
	}
	return page, limit, true
}
