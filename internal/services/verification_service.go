package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

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

// CooldownError reports how long a rejected trainer must wait before reapplying
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("rejection cooldown has not elapsed, %d day(s) remaining", e.RemainingDays())
}

func (e *CooldownError) Unwrap() error { return models.ErrCooldownNotElapsed }

// RemainingDays rounds the remaining cooldown up to whole days for display
func (e *CooldownError) RemainingDays() int {
	days := int(e.Remaining / (24 * time.Hour))
	if e.Remaining%(24*time.Hour) > 0 {
		days++
	}
	return days
}

// TrainerCacheInvalidator drops the cached verified trainer listing
type TrainerCacheInvalidator interface {
	Invalidate()
}

// VerificationService handles the trainer verification workflow: application,
// decision links, resolution and admin override.
type VerificationService struct {
	trainerRepo  repository.TrainerStore
	auditRepo    repository.VerificationAuditStore
	tokenManager *jwt.TokenManager
	cacheInval   TrainerCacheInvalidator
	config       *config.Config
	httpClient   httpclient.Client
	now          func() time.Time
}

// NewVerificationService creates a new verification service instance
func NewVerificationService(
	trainerRepo repository.TrainerStore,
	auditRepo repository.VerificationAuditStore,
	tokenManager *jwt.TokenManager,
	cacheInval TrainerCacheInvalidator,
	cfg *config.Config,
	httpClient httpclient.Client,
) *VerificationService {
	return &VerificationService{
		trainerRepo:  trainerRepo,
		auditRepo:    auditRepo,
		tokenManager: tokenManager,
		cacheInval:   cacheInval,
		config:       cfg,
		httpClient:   httpClient,
		now:          time.Now,
	}
}

// Apply submits a trainer application. First-time applicants get a pending
// profile; rejected trainers may reapply once the cooldown has elapsed.
func (s *VerificationService) Apply(ctx context.Context, userID int64, req *models.ApplyTrainerRequest) (*models.TrainerProfile, error) {
	existing, err := s.trainerRepo.GetByUserID(ctx, userID)
	if err != nil && !apperrors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	if existing == nil {
		trainer, err := s.trainerRepo.CreateProfile(ctx, userID, req)
		if err != nil {
			metrics.TrainerApplications.WithLabelValues("error").Inc()
			return nil, err
		}

		metrics.TrainerApplications.WithLabelValues("created").Inc()
		s.notifyReviewers(trainer)
		return trainer, nil
	}

	switch existing.VerificationStatus {
	case models.VerificationPending:
		return nil, apperrors.ConflictError("application is already under review")
	case models.VerificationVerified:
		return nil, apperrors.ConflictError("trainer is already verified")
	}

	// Rejected: the cooldown clock starts at the rejection date
	if existing.RejectionDate == nil {
		return nil, apperrors.InternalError("rejected profile has no rejection date")
	}
	cooldown := time.Duration(s.config.Verification.CooldownDays) * 24 * time.Hour
	elapsed := s.now().Sub(*existing.RejectionDate)
	if elapsed < cooldown {
		metrics.TrainerApplications.WithLabelValues("cooldown").Inc()
		return nil, &CooldownError{Remaining: cooldown - elapsed}
	}

	applied, err := s.trainerRepo.Reapply(ctx, existing.ID, req)
	if err != nil {
		metrics.TrainerApplications.WithLabelValues("error").Inc()
		return nil, err
	}
	if !applied {
		// Someone transitioned the profile while we were checking
		return nil, apperrors.ConflictError("trainer profile changed, retry the application")
	}

	if err := s.auditRepo.Record(ctx, existing.ID, "reapply", fmt.Sprintf("user:%d", userID), ""); err != nil {
		logger.Error("failed to record reapply audit entry", zap.Error(err))
	}

	trainer, err := s.trainerRepo.GetByID(ctx, existing.ID)
	if err != nil {
		return nil, err
	}

	metrics.TrainerApplications.WithLabelValues("reapplied").Inc()
	s.notifyReviewers(trainer)
	return trainer, nil
}

// notifyReviewers issues the approve/reject decision links and hands them to
// the reviewer email trigger
func (s *VerificationService) notifyReviewers(trainer *models.TrainerProfile) {
	approveURL, err := s.DecisionLink(trainer.ID, models.DecisionApprove)
	if err != nil {
		logger.Error("failed to build approve link", zap.Error(err))
		return
	}
	rejectURL, err := s.DecisionLink(trainer.ID, models.DecisionReject)
	if err != nil {
		logger.Error("failed to build reject link", zap.Error(err))
		return
	}

	trigger.CallAsyncWithPayload(s.config.EventTriggers.TrainerAppliedTriggerURL, map[string]string{
		"trainerId":   strconv.FormatInt(trainer.ID, 10),
		"trainerName": trainer.Name,
		"approveUrl":  approveURL,
		"rejectUrl":   rejectURL,
	}, s.httpClient)
}

// DecisionLink builds a single-purpose signed link that applies the given
// verification decision when opened. Links expire after the configured TTL.
func (s *VerificationService) DecisionLink(trainerID int64, action string) (string, error) {
	ttl := time.Duration(s.config.Verification.DecisionLinkTTLDays) * 24 * time.Hour
	token, err := s.tokenManager.GenerateActionToken(strconv.FormatInt(trainerID, 10), action, ttl)
	if err != nil {
		return "", fmt.Errorf("failed to sign decision token: %w", err)
	}
	return fmt.Sprintf("%s/api/auth/verify-trainer/%s", s.config.Verification.DecisionLinkBaseURL, token), nil
}

// Resolve applies the decision carried by a signed link token. The pending
// status guard makes the link effectively single-use: the first open decides,
// later opens report the decision as already applied.
func (s *VerificationService) Resolve(ctx context.Context, token string) (*models.VerificationDecisionResult, error) {
	claims, err := s.tokenManager.ValidateActionToken(token)
	if err != nil {
		metrics.VerificationDecisions.WithLabelValues("unknown", "invalid_token").Inc()
		return nil, apperrors.InvalidInputError("token", "decision link is invalid or expired")
	}

	action := claims.Action
	if action != models.DecisionApprove && action != models.DecisionReject {
		return nil, apperrors.InvalidInputError("token", "unknown decision action")
	}

	trainerID, err := strconv.ParseInt(claims.SubjectID, 10, 64)
	if err != nil {
		return nil, apperrors.InvalidInputError("token", "malformed decision subject")
	}

	trainer, err := s.trainerRepo.GetByID(ctx, trainerID)
	if err != nil {
		return nil, err
	}

	target := models.VerificationVerified
	var rejectionDate *time.Time
	if action == models.DecisionReject {
		target = models.VerificationRejected
		now := s.now()
		rejectionDate = &now
	}

	applied, err := s.trainerRepo.UpdateStatusIfCurrent(ctx, trainerID, models.VerificationPending, target, rejectionDate)
	if err != nil {
		metrics.VerificationDecisions.WithLabelValues(action, "error").Inc()
		return nil, err
	}
	if !applied {
		metrics.VerificationDecisions.WithLabelValues(action, "replay").Inc()
		logger.Info("decision link opened after decision settled",
			zap.Int64("trainer_id", trainerID),
			zap.String("action", action),
			zap.String("current_status", trainer.VerificationStatus))
		return &models.VerificationDecisionResult{
			TrainerID:   trainerID,
			TrainerName: trainer.Name,
			Action:      action,
			NewStatus:   trainer.VerificationStatus,
		}, models.ErrDecisionAlreadyApplied
	}

	if err := s.auditRepo.Record(ctx, trainerID, action, "decision-link", ""); err != nil {
		logger.Error("failed to record decision audit entry", zap.Error(err))
	}
	s.cacheInval.Invalidate()

	if action == models.DecisionApprove {
		trigger.CallAsync(s.config.EventTriggers.TrainerApprovedTriggerURL, strconv.FormatInt(trainerID, 10), s.httpClient)
	} else {
		trigger.CallAsync(s.config.EventTriggers.TrainerRejectedTriggerURL, strconv.FormatInt(trainerID, 10), s.httpClient)
	}

	metrics.VerificationDecisions.WithLabelValues(action, "applied").Inc()
	logger.Info("verification decision applied",
		zap.Int64("trainer_id", trainerID),
		zap.String("action", action),
		zap.String("new_status", target))

	return &models.VerificationDecisionResult{
		TrainerID:   trainerID,
		TrainerName: trainer.Name,
		Action:      action,
		NewStatus:   target,
	}, nil
}

// Override force-sets a trainer's verification status. Admin-only; the reason
// is mandatory and lands in the audit log.
func (s *VerificationService) Override(ctx context.Context, trainerID int64, adminEmail string, req *models.OverrideVerificationRequest) (*models.TrainerProfile, error) {
	var rejectionDate *time.Time
	if req.Status == models.VerificationRejected {
		now := s.now()
		rejectionDate = &now
	}

	if err := s.trainerRepo.SetStatus(ctx, trainerID, req.Status, rejectionDate); err != nil {
		return nil, err
	}

	if err := s.auditRepo.Record(ctx, trainerID, "override", adminEmail, req.Notes); err != nil {
		logger.Error("failed to record override audit entry", zap.Error(err))
	}
	s.cacheInval.Invalidate()

	metrics.VerificationDecisions.WithLabelValues("override", "applied").Inc()
	logger.Info("verification status overridden",
		zap.Int64("trainer_id", trainerID),
		zap.String("status", req.Status),
		zap.String("actor", adminEmail))

	return s.trainerRepo.GetByID(ctx, trainerID)
}

// AuditTrail returns the verification history for a trainer
func (s *VerificationService) AuditTrail(ctx context.Context, trainerID int64) ([]*models.VerificationAuditEntry, error) {
	return s.auditRepo.ListByTrainer(ctx, trainerID)
}
