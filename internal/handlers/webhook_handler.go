package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tutorhub/tutorhub-api/internal/models"
	"github.com/tutorhub/tutorhub-api/internal/services"
)

// SignatureHeaderName is the header carrying the payment provider's
// signature over the raw request body.
const SignatureHeaderName = "Paygate-Signature"

// WebhookHandler receives payment provider webhooks
type WebhookHandler struct {
	service *services.WebhookService
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(service *services.WebhookService) *WebhookHandler {
	return &WebhookHandler{service: service}
}

// HandlePaymentWebhook handles POST /api/payments/webhook
// The signature is verified over the raw body before any JSON decoding, so
// the body must not pass through a binding middleware first.
func (h *WebhookHandler) HandlePaymentWebhook(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		respondError(c, http.StatusBadRequest, "Failed to read request body", err)
		return
	}

	if err := h.service.HandleEvent(c.Request.Context(), payload, c.GetHeader(SignatureHeaderName)); err != nil {
		if isSignatureError(err) {
			respondError(c, http.StatusBadRequest, "Invalid webhook signature", err)
			return
		}
		// Transient failure: non-2xx makes the provider redeliver
		respondError(c, http.StatusInternalServerError, "Failed to process webhook", err)
		return
	}

	c.JSON(http.StatusOK, models.WebhookResponse{Received: true})
}
