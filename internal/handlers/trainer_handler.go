package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tutorhub/tutorhub-api/internal/middleware"
	"github.com/tutorhub/tutorhub-api/internal/models"
	"github.com/tutorhub/tutorhub-api/internal/services"
)

// TrainerHandler handles trainer listing and verification endpoints
type TrainerHandler struct {
	trainerService      *services.TrainerService
	verificationService *services.VerificationService
}

// NewTrainerHandler creates a new TrainerHandler
func NewTrainerHandler(
	trainerService *services.TrainerService,
	verificationService *services.VerificationService,
) *TrainerHandler {
	return &TrainerHandler{
		trainerService:      trainerService,
		verificationService: verificationService,
	}
}

// ListVerified handles GET /api/trainers
// Only verified trainers are visible to the public listing.
func (h *TrainerHandler) ListVerified(c *gin.Context) {
	trainers, err := h.trainerService.ListVerified(c.Request.Context())
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trainers": trainers})
}

// GetTrainer handles GET /api/trainers/:id
func (h *TrainerHandler) GetTrainer(c *gin.Context) {
	trainerID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid trainer ID", err)
		return
	}

	trainer, err := h.trainerService.GetByID(c.Request.Context(), trainerID)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, trainer.ToPublicResponse())
}

// Apply handles POST /api/trainers/apply
// First-time applications create a pending profile; rejected trainers may
// reapply once the cooldown has elapsed.
func (h *TrainerHandler) Apply(c *gin.Context) {
	session, err := middleware.GetUserSession(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	var req models.ApplyTrainerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	profile, err := h.verificationService.Apply(c.Request.Context(), session.UserID, &req)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, profile)
}

// GetOwnProfile handles GET /api/trainers/me
func (h *TrainerHandler) GetOwnProfile(c *gin.Context) {
	session, err := middleware.GetUserSession(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	profile, err := h.trainerService.GetProfileForUser(c.Request.Context(), session.UserID)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// OverrideVerification handles PUT /api/admin/trainers/:id/verification
// Admin-only manual status change; the audited reason is mandatory.
func (h *TrainerHandler) OverrideVerification(c *gin.Context) {
	session, err := middleware.GetUserSession(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	trainerID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid trainer ID", err)
		return
	}

	var req models.OverrideVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	profile, err := h.verificationService.Override(c.Request.Context(), trainerID, session.Email, &req)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// AuditTrail handles GET /api/admin/trainers/:id/audit
func (h *TrainerHandler) AuditTrail(c *gin.Context) {
	trainerID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid trainer ID", err)
		return
	}

	entries, err := h.verificationService.AuditTrail(c.Request.Context(), trainerID)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
