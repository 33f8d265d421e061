package handlers

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tutorhub/tutorhub-api/internal/middleware"
	"github.com/tutorhub/tutorhub-api/internal/models"
	"github.com/tutorhub/tutorhub-api/internal/services"
)

// AuthHandler handles registration, login and password reset endpoints
type AuthHandler struct {
	authService         *services.AuthService
	verificationService *services.VerificationService
	cookieDomain        string
	cookieSecure        bool
	sessionTTLSeconds   int
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(
	authService *services.AuthService,
	verificationService *services.VerificationService,
	cookieDomain string,
	cookieSecure bool,
	sessionTTLHours int,
) *AuthHandler {
	return &AuthHandler{
		authService:         authService,
		verificationService: verificationService,
		cookieDomain:        cookieDomain,
		cookieSecure:        cookieSecure,
		sessionTTLSeconds:   sessionTTLHours * 3600,
	}
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	resp, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	middleware.SetSessionCookie(c, resp.Token, h.sessionTTLSeconds, h.cookieDomain, h.cookieSecure)
	c.JSON(http.StatusCreated, resp)
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			respondError(c, http.StatusUnauthorized, "Invalid email or password", err)
			return
		}
		respondDomainError(c, err)
		return
	}

	middleware.SetSessionCookie(c, resp.Token, h.sessionTTLSeconds, h.cookieDomain, h.cookieSecure)
	c.JSON(http.StatusOK, resp)
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	middleware.ClearSessionCookie(c, h.cookieDomain, h.cookieSecure)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ForgotPassword handles POST /api/auth/forgot-password
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req models.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	if err := h.authService.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		respondDomainError(c, err)
		return
	}

	// Same response whether or not the email exists
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "If that email is registered, a reset link has been sent",
	})
}

// ResetPassword handles POST /api/auth/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req models.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	if err := h.authService.ResetPassword(c.Request.Context(), &req); err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

var decisionPageTmpl = template.Must(template.New("decision").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Trainer Verification</title></head>
<body style="font-family: sans-serif; max-width: 40em; margin: 4em auto;">
<h1>{{.Title}}</h1>
<p>{{.Message}}</p>
</body>
</html>
`))

type decisionPage struct {
	Title   string
	Message string
}

// VerifyTrainer handles GET /api/auth/verify-trainer/:token
// The decision link is opened from an email, so the response is a standalone
// HTML confirmation page rather than JSON. No session is required: the
// signed token itself is the authorization.
func (h *AuthHandler) VerifyTrainer(c *gin.Context) {
	token := c.Param("token")

	result, err := h.verificationService.Resolve(c.Request.Context(), token)
	if err != nil {
		attachError(c, err)
		if errors.Is(err, models.ErrDecisionAlreadyApplied) && result != nil {
			renderDecisionPage(c, http.StatusBadRequest, decisionPage{
				Title: "Already processed",
				Message: "This application has already been resolved. " +
					"The trainer's current status is \"" + result.NewStatus + "\".",
			})
			return
		}
		renderDecisionPage(c, http.StatusBadRequest, decisionPage{
			Title:   "Link is invalid",
			Message: "This verification link is invalid or has expired.",
		})
		return
	}

	title := "Application approved"
	message := result.TrainerName + " can now accept bookings."
	if result.NewStatus == models.VerificationRejected {
		title = "Application rejected"
		message = result.TrainerName + " has been notified and may reapply after the cooldown period."
	}
	renderDecisionPage(c, http.StatusOK, decisionPage{Title: title, Message: message})
}

func renderDecisionPage(c *gin.Context, status int, page decisionPage) {
	var buf bytes.Buffer
	if err := decisionPageTmpl.Execute(&buf, page); err != nil {
		respondError(c, http.StatusInternalServerError, "Internal server error", err)
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}
