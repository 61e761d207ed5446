package handler

import (
	"context"
	"io"
	"net/http"

	"truthgate-api/internal/gateway"

	"github.com/gin-gonic/gin"
)

// maxWebhookBody bounds what is read before the signature is checked.
const maxWebhookBody = 1 << 20

type WebhookProcessor interface {
	ProcessWebhookNotification(ctx context.Context, rawBody []byte, signature string) int
}

type WebhookHandler struct {
	processor WebhookProcessor
}

func NewWebhookHandler(processor WebhookProcessor) *WebhookHandler {
	return &WebhookHandler{processor: processor}
}

// PaymentGateway receives gateway notifications. The body is passed on
// untouched since the signature covers the exact bytes.
func (h *WebhookHandler) PaymentGateway(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody+1))
	if err != nil || len(body) > maxWebhookBody {
		c.Status(http.StatusBadRequest)
		return
	}

	status := h.processor.ProcessWebhookNotification(c.Request.Context(), body, c.GetHeader(gateway.SignatureHeader))
	c.Status(status)
}
