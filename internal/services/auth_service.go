package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/tutorhub/tutorhub-api/config"
	"github.com/tutorhub/tutorhub-api/internal/models"
	"github.com/tutorhub/tutorhub-api/internal/repository"
	apperrors "github.com/tutorhub/tutorhub-api/pkg/errors"
	"github.com/tutorhub/tutorhub-api/pkg/httpclient"
	"github.com/tutorhub/tutorhub-api/pkg/jwt"
	"github.com/tutorhub/tutorhub-api/pkg/logger"
	"github.com/tutorhub/tutorhub-api/pkg/metrics"
	"github.com/tutorhub/tutorhub-api/pkg/trigger"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

// AuthService handles registration, login and password resets
type AuthService struct {
	userRepo     repository.UserStore
	resetRepo    repository.PasswordResetStore
	tokenManager *jwt.TokenManager
	config       *config.Config
	httpClient   httpclient.Client
}

// NewAuthService creates a new auth service instance
func NewAuthService(
	userRepo repository.UserStore,
	resetRepo repository.PasswordResetStore,
	tokenManager *jwt.TokenManager,
	cfg *config.Config,
	httpClient httpclient.Client,
) *AuthService {
	return &AuthService{
		userRepo:     userRepo,
		resetRepo:    resetRepo,
		tokenManager: tokenManager,
		config:       cfg,
		httpClient:   httpClient,
	}
}

// Register creates a new account and returns a session token
func (s *AuthService) Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResponse, error) {
	role := req.Role
	if role == "" {
		role = models.RoleStudent
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.userRepo.Create(ctx, req.Email, string(hash), req.Name, role)
	if err != nil {
		return nil, err
	}

	token, err := s.tokenManager.GenerateSessionToken(
		fmt.Sprintf("%d", user.ID), user.Email, user.Name, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	logger.Info("user registered",
		zap.Int64("user_id", user.ID),
		zap.String("role", user.Role))

	return &models.AuthResponse{Success: true, Token: token, User: user.ToInfo()}, nil
}

// Login authenticates a user by email and password
func (s *AuthService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			metrics.AuthLogins.WithLabelValues("invalid").Inc()
			return nil, ErrInvalidCredentials
		}
		metrics.AuthLogins.WithLabelValues("error").Inc()
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		metrics.AuthLogins.WithLabelValues("invalid").Inc()
		logger.Info("login rejected", zap.Int64("user_id", user.ID))
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokenManager.GenerateSessionToken(
		fmt.Sprintf("%d", user.ID), user.Email, user.Name, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	metrics.AuthLogins.WithLabelValues("success").Inc()
	return &models.AuthResponse{Success: true, Token: token, User: user.ToInfo()}, nil
}

// ForgotPassword issues a reset token and hands the reset link to the email
// trigger. Unknown emails succeed silently so the endpoint does not leak
// which addresses exist.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			logger.Info("password reset requested for unknown email")
			return nil
		}
		return err
	}

	rawToken, err := generateResetToken()
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}

	ttl := time.Duration(s.config.Session.ResetTokenTTLMinutes) * time.Minute
	if err := s.resetRepo.CreateToken(ctx, user.ID, hashResetToken(rawToken), time.Now().Add(ttl)); err != nil {
		return err
	}

	trigger.CallAsyncWithPayload(s.config.EventTriggers.PasswordResetTriggerURL, map[string]string{
		"email":    user.Email,
		"name":     user.Name,
		"resetUrl": fmt.Sprintf("%s/auth/reset-password?token=%s", s.config.Server.BaseURL, rawToken),
	}, s.httpClient)

	logger.Info("password reset token issued", zap.Int64("user_id", user.ID))
	return nil
}

// ResetPassword consumes a reset token and replaces the user's password
func (s *AuthService) ResetPassword(ctx context.Context, req *models.ResetPasswordRequest) error {
	userID, err := s.resetRepo.ConsumeToken(ctx, hashResetToken(req.Token))
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return apperrors.InvalidInputError("token", "reset token is invalid, expired or already used")
		}
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return err
	}

	logger.Info("password reset completed", zap.Int64("user_id", userID))
	return nil
}

func generateResetToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
