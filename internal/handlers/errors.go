package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tutorhub/tutorhub-api/internal/models"
	"github.com/tutorhub/tutorhub-api/internal/paygate"
	"github.com/tutorhub/tutorhub-api/internal/services"
	apperrors "github.com/tutorhub/tutorhub-api/pkg/errors"
)

// attachError attaches err to the gin context so the observability middleware
// can include the reason in the request log. c.Error() returns *gin.Error (not
// the error interface), so we suppress errcheck here intentionally.
func attachError(c *gin.Context, err error) {
	if err != nil {
		_ = c.Error(err) //nolint:errcheck
	}
}

// respondError sends an error JSON response and attaches the error to the gin
// context so the observability middleware can include the reason in the log.
func respondError(c *gin.Context, status int, message string, err error) {
	attachError(c, err)
	c.JSON(status, gin.H{"error": message})
}

// respondDomainError maps a service error onto the HTTP taxonomy. Every
// response carries a machine-readable kind plus the human message.
func respondDomainError(c *gin.Context, err error) {
	attachError(c, err)

	var cooldownErr *services.CooldownError
	if errors.As(err, &cooldownErr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":         "Rejection cooldown has not elapsed",
			"kind":          "cooldown_not_elapsed",
			"remainingDays": cooldownErr.RemainingDays(),
		})
		return
	}

	switch {
	case apperrors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "kind": "not_found"})
	case apperrors.Is(err, apperrors.ErrAccessDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error(), "kind": "authorization"})
	case apperrors.Is(err, apperrors.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "kind": "unauthorized"})
	case apperrors.Is(err, apperrors.ErrConflict),
		apperrors.Is(err, models.ErrInvalidTransition),
		apperrors.Is(err, models.ErrPaymentStatusFinal),
		apperrors.Is(err, models.ErrBookingAlreadyBound),
		apperrors.Is(err, models.ErrReviewAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "kind": "state_conflict"})
	case apperrors.Is(err, models.ErrBookingNotPaid),
		apperrors.Is(err, models.ErrBookingWrongTrainer),
		apperrors.Is(err, models.ErrSessionNotCompleted):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": "validation"})
	case apperrors.Is(err, models.ErrNotSessionParticipant):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error(), "kind": "authorization"})
	case apperrors.Is(err, services.ErrTrainerNotVerified):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": "validation"})
	case apperrors.Is(err, apperrors.ErrProvider):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": "provider"})
	case isSignatureError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": "signature"})
	case apperrors.Is(err, apperrors.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": "validation"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "kind": "internal"})
	}
}

func isSignatureError(err error) bool {
	return errors.Is(err, paygate.ErrMissingSignature) ||
		errors.Is(err, paygate.ErrMalformedSignature) ||
		errors.Is(err, paygate.ErrBadSignature) ||
		errors.Is(err, paygate.ErrStaleTimestamp)
}

// respondValidationError sends a 400 with the parsed field errors attached.
func respondValidationError(c *gin.Context, err error) {
	attachError(c, err)
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Validation failed",
		"kind":    "validation",
		"details": ParseValidationErrors(err),
	})
}
