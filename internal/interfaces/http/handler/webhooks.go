package handler

import (
	"io"

	appsupply "github.com/giftbridge/backend/internal/application/supply"
	"github.com/gin-gonic/gin"
)

// SignatureHeader carries the HMAC-SHA256 digest of the webhook payload,
// hex encoded with an optional "sha256=" prefix
const SignatureHeader = "X-Webhook-Signature"

// WebhookHandler ingests supplier webhook deliveries
type WebhookHandler struct {
	BaseHandler
	webhookService *appsupply.WebhookService
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(webhookService *appsupply.WebhookService) *WebhookHandler {
	return &WebhookHandler{webhookService: webhookService}
}

// Receive processes one webhook delivery. Replayed deliveries return 200
// with a duplicate outcome so suppliers stop retrying; an unverifiable
// signature returns 401.
func (h *WebhookHandler) Receive(c *gin.Context) {
	supplierCode := c.Param("supplierCode")
	if supplierCode == "" {
		h.BadRequest(c, "Supplier code is required")
		return
	}

	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.BadRequest(c, "Failed to read request body")
		return
	}
	if len(payload) == 0 {
		h.BadRequest(c, "Request body is empty")
		return
	}

	result, err := h.webhookService.ProcessWebhook(
		c.Request.Context(),
		supplierCode,
		payload,
		c.GetHeader(SignatureHeader),
	)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
