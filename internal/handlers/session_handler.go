package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tutorhub/tutorhub-api/internal/middleware"
	"github.com/tutorhub/tutorhub-api/internal/models"
	"github.com/tutorhub/tutorhub-api/internal/services"
)

// SessionHandler handles lesson session endpoints
type SessionHandler struct {
	service *services.SessionService
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(service *services.SessionService) *SessionHandler {
	return &SessionHandler{service: service}
}

// CreateSession handles POST /api/sessions
// Binds the listed bookings to a new session; if any booking is unpaid,
// already bound, or belongs to another trainer, nothing is created.
func (h *SessionHandler) CreateSession(c *gin.Context) {
	session, err := middleware.GetUserSession(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	var req models.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	created, err := h.service.CreateSession(c.Request.Context(), session.UserID, &req)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// UpdateStatus handles PUT /api/sessions/:id/status
func (h *SessionHandler) UpdateStatus(c *gin.Context) {
	session, err := middleware.GetUserSession(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	sessionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid session ID", err)
		return
	}

	var req models.UpdateSessionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	updated, err := h.service.UpdateStatus(c.Request.Context(), session.UserID, sessionID, req.Status)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// GetSession handles GET /api/sessions/:id
func (h *SessionHandler) GetSession(c *gin.Context) {
	session, err := middleware.GetUserSession(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	sessionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid session ID", err)
		return
	}

	found, err := h.service.GetSession(c.Request.Context(), session.UserID, sessionID)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, found)
}

// ListSessions handles GET /api/sessions (trainer's own sessions)
func (h *SessionHandler) ListSessions(c *gin.Context) {
	session, err := middleware.GetUserSession(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	sessions, err := h.service.ListTrainerSessions(c.Request.Context(), session.UserID)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}
