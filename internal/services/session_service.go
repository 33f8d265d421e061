package services

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tutorhub/tutorhub-api/config"
	"github.com/tutorhub/tutorhub-api/internal/models"
	"github.com/tutorhub/tutorhub-api/internal/repository"
	apperrors "github.com/tutorhub/tutorhub-api/pkg/errors"
	"github.com/tutorhub/tutorhub-api/pkg/httpclient"
	"github.com/tutorhub/tutorhub-api/pkg/logger"
	"github.com/tutorhub/tutorhub-api/pkg/metrics"
	"github.com/tutorhub/tutorhub-api/pkg/trigger"
)

// SessionService handles lesson session scheduling and lifecycle
type SessionService struct {
	sessionRepo repository.SessionStore
	trainerRepo repository.TrainerStore
	config      *config.Config
	httpClient  httpclient.Client
}

// NewSessionService creates a new session service instance
func NewSessionService(
	sessionRepo repository.SessionStore,
	trainerRepo repository.TrainerStore,
	cfg *config.Config,
	httpClient httpclient.Client,
) *SessionService {
	return &SessionService{
		sessionRepo: sessionRepo,
		trainerRepo: trainerRepo,
		config:      cfg,
		httpClient:  httpClient,
	}
}

// CreateSession schedules a session for the trainer owned by userID, binding
// every listed booking or none at all
func (s *SessionService) CreateSession(ctx context.Context, userID int64, req *models.CreateSessionRequest) (*models.Session, error) {
	trainer, err := s.trainerRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if trainer.VerificationStatus != models.VerificationVerified {
		metrics.SessionsCreated.WithLabelValues("unverified_trainer").Inc()
		return nil, ErrTrainerNotVerified
	}

	meetingLink := "meet-" + uuid.NewString()

	session, err := s.sessionRepo.CreateWithBookings(ctx, trainer.ID, meetingLink, req)
	if err != nil {
		metrics.SessionsCreated.WithLabelValues("rejected").Inc()
		return nil, err
	}

	trigger.CallAsync(s.config.EventTriggers.SessionScheduledTriggerURL, strconv.FormatInt(session.ID, 10), s.httpClient)

	metrics.SessionsCreated.WithLabelValues("success").Inc()
	logger.Info("session scheduled",
		zap.Int64("session_id", session.ID),
		zap.Int64("trainer_id", trainer.ID),
		zap.Int("students", len(session.StudentIDs)))
	return session, nil
}

// UpdateStatus advances a session through its lifecycle. Only the owning
// trainer may do this, and only along legal transitions.
func (s *SessionService) UpdateStatus(ctx context.Context, userID, sessionID int64, target string) (*models.Session, error) {
	trainer, err := s.trainerRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.TrainerID != trainer.ID {
		return nil, apperrors.AccessDeniedError("session belongs to another trainer")
	}

	if !models.ValidSessionTransition(session.Status, target) {
		metrics.SessionTransitions.WithLabelValues(target, "illegal").Inc()
		return nil, models.ErrInvalidTransition
	}

	applied, err := s.sessionRepo.UpdateStatusIfCurrent(ctx, sessionID, session.Status, target)
	if err != nil {
		metrics.SessionTransitions.WithLabelValues(target, "error").Inc()
		return nil, err
	}
	if !applied {
		// The status moved between our read and the guarded update
		metrics.SessionTransitions.WithLabelValues(target, "conflict").Inc()
		return nil, models.ErrInvalidTransition
	}

	metrics.SessionTransitions.WithLabelValues(target, "applied").Inc()
	logger.Info("session status updated",
		zap.Int64("session_id", sessionID),
		zap.String("from", session.Status),
		zap.String("to", target))

	session.Status = target
	return session, nil
}

// GetSession fetches a session visible to the caller: the owning trainer or a
// participating student
func (s *SessionService) GetSession(ctx context.Context, userID, sessionID int64) (*models.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	for _, studentID := range session.StudentIDs {
		if studentID == userID {
			return session, nil
		}
	}

	trainer, err := s.trainerRepo.GetByUserID(ctx, userID)
	if err == nil && trainer.ID == session.TrainerID {
		return session, nil
	}
	return nil, apperrors.AccessDeniedError("session is not visible to this user")
}

// ListTrainerSessions returns the sessions of the trainer owned by userID
func (s *SessionService) ListTrainerSessions(ctx context.Context, userID int64) ([]*models.Session, error) {
	trainer, err := s.trainerRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.sessionRepo.ListByTrainer(ctx, trainer.ID)
}
