package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tutorhub/tutorhub-api/internal/middleware"
	"github.com/tutorhub/tutorhub-api/internal/models"
	"github.com/tutorhub/tutorhub-api/internal/services"
)

// PaymentHandler handles payment intent endpoints
type PaymentHandler struct {
	service *services.BookingService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(service *services.BookingService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// CreatePaymentIntent handles POST /api/payments/create-payment-intent
func (h *PaymentHandler) CreatePaymentIntent(c *gin.Context) {
	session, err := middleware.GetUserSession(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	var req models.CreatePaymentIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	resp, err := h.service.CreatePaymentIntent(c.Request.Context(), session.UserID, &req)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
