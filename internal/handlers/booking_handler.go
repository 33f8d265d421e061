package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tutorhub/tutorhub-api/internal/middleware"
	"github.com/tutorhub/tutorhub-api/internal/models"
	"github.com/tutorhub/tutorhub-api/internal/services"
)

// BookingHandler handles booking endpoints
type BookingHandler struct {
	service *services.BookingService
}

// NewBookingHandler creates a new BookingHandler
func NewBookingHandler(service *services.BookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

// CreateBooking handles POST /api/bookings
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	session, err := middleware.GetUserSession(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	booking, err := h.service.CreateBooking(c.Request.Context(), session.UserID, &req)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, booking)
}

// GetBooking handles GET /api/bookings/:id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	session, err := middleware.GetUserSession(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	bookingID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid booking ID", err)
		return
	}

	booking, err := h.service.GetBooking(c.Request.Context(), session.UserID, bookingID)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

// ListBookings handles GET /api/bookings
// Students see their own bookings; trainers see bookings made with them.
func (h *BookingHandler) ListBookings(c *gin.Context) {
	session, err := middleware.GetUserSession(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	var bookings []*models.Booking
	if session.Role == models.RoleTrainer {
		bookings, err = h.service.ListTrainerBookings(c.Request.Context(), session.UserID)
	} else {
		bookings, err = h.service.ListStudentBookings(c.Request.Context(), session.UserID)
	}
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

// ConfirmPayment handles POST /api/bookings/confirm-payment
// The client reports the provider-side outcome; reconciliation with the
// webhook is first-writer-wins, so a repeat confirmation returns the
// already-settled booking.
func (h *BookingHandler) ConfirmPayment(c *gin.Context) {
	session, err := middleware.GetUserSession(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	var req models.ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	booking, err := h.service.ConfirmPayment(c.Request.Context(), session.UserID, &req)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}
