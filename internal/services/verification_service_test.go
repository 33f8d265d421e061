package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/tutorhub/tutorhub-api/internal/models"
	"github.com/tutorhub/tutorhub-api/internal/services"
	apperrors "github.com/tutorhub/tutorhub-api/pkg/errors"
	"github.com/tutorhub/tutorhub-api/pkg/httpclient"
	"github.com/tutorhub/tutorhub-api/pkg/jwt"
)

func newVerificationService(trainerRepo *MockTrainerStore, auditRepo *MockAuditStore) (*services.VerificationService, *jwt.TokenManager) {
	tm := jwt.NewTokenManager("test-secret", "tutorhub-test", 24)
	svc := services.NewVerificationService(trainerRepo, auditRepo, tm, noopInvalidator{}, testConfig(), httpclient.NewStandardClient())
	return svc, tm
}

func applyRequest() *models.ApplyTrainerRequest {
	return &models.ApplyTrainerRequest{
		Bio:             "Ten years of algebra tutoring",
		Specialties:     []string{"algebra"},
		HourlyRateCents: 5000,
	}
}

func TestApply_FirstApplicationCreatesPendingProfile(t *testing.T) {
	ctx := context.Background()
	trainerRepo := new(MockTrainerStore)
	auditRepo := new(MockAuditStore)
	svc, _ := newVerificationService(trainerRepo, auditRepo)

	trainerRepo.On("GetByUserID", ctx, int64(7)).Return(nil, apperrors.NotFoundError("trainer"))
	trainerRepo.On("CreateProfile", ctx, int64(7), mock.Anything).Return(&models.TrainerProfile{
		ID: 1, UserID: 7, VerificationStatus: models.VerificationPending,
	}, nil)

	trainer, err := svc.Apply(ctx, 7, applyRequest())

	assert.NoError(t, err)
	assert.Equal(t, models.VerificationPending, trainer.VerificationStatus)
	trainerRepo.AssertExpectations(t)
}

func TestApply_PendingApplicationConflicts(t *testing.T) {
	ctx := context.Background()
	trainerRepo := new(MockTrainerStore)
	svc, _ := newVerificationService(trainerRepo, new(MockAuditStore))

	trainerRepo.On("GetByUserID", ctx, int64(7)).Return(&models.TrainerProfile{
		ID: 1, UserID: 7, VerificationStatus: models.VerificationPending,
	}, nil)

	trainer, err := svc.Apply(ctx, 7, applyRequest())

	assert.Nil(t, trainer)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	trainerRepo.AssertNotCalled(t, "Reapply", mock.Anything, mock.Anything, mock.Anything)
}

func TestApply_RejectedWithinCooldownIsBlocked(t *testing.T) {
	ctx := context.Background()
	trainerRepo := new(MockTrainerStore)
	svc, _ := newVerificationService(trainerRepo, new(MockAuditStore))

	// Rejected 10 days ago with a 30 day cooldown: 20 days remain
	rejected := time.Now().Add(-10 * 24 * time.Hour)
	trainerRepo.On("GetByUserID", ctx, int64(7)).Return(&models.TrainerProfile{
		ID: 1, UserID: 7, VerificationStatus: models.VerificationRejected, RejectionDate: &rejected,
	}, nil)

	trainer, err := svc.Apply(ctx, 7, applyRequest())

	assert.Nil(t, trainer)
	assert.ErrorIs(t, err, models.ErrCooldownNotElapsed)

	var cooldownErr *services.CooldownError
	assert.ErrorAs(t, err, &cooldownErr)
	assert.Equal(t, 20, cooldownErr.RemainingDays())
	trainerRepo.AssertNotCalled(t, "Reapply", mock.Anything, mock.Anything, mock.Anything)
}

func TestApply_RejectedAfterCooldownReappliesToPending(t *testing.T) {
	ctx := context.Background()
	trainerRepo := new(MockTrainerStore)
	auditRepo := new(MockAuditStore)
	svc, _ := newVerificationService(trainerRepo, auditRepo)

	// Rejected 31 days ago: cooldown elapsed
	rejected := time.Now().Add(-31 * 24 * time.Hour)
	trainerRepo.On("GetByUserID", ctx, int64(7)).Return(&models.TrainerProfile{
		ID: 1, UserID: 7, VerificationStatus: models.VerificationRejected, RejectionDate: &rejected,
	}, nil)
	trainerRepo.On("Reapply", ctx, int64(1), mock.Anything).Return(true, nil)
	auditRepo.On("Record", ctx, int64(1), "reapply", "user:7", "").Return(nil)
	trainerRepo.On("GetByID", ctx, int64(1)).Return(&models.TrainerProfile{
		ID: 1, UserID: 7, VerificationStatus: models.VerificationPending,
	}, nil)

	trainer, err := svc.Apply(ctx, 7, applyRequest())

	assert.NoError(t, err)
	assert.Equal(t, models.VerificationPending, trainer.VerificationStatus)
	assert.Nil(t, trainer.RejectionDate)
	trainerRepo.AssertExpectations(t)
}

func TestResolve_ApproveMovesPendingToVerified(t *testing.T) {
	ctx := context.Background()
	trainerRepo := new(MockTrainerStore)
	auditRepo := new(MockAuditStore)
	svc, tm := newVerificationService(trainerRepo, auditRepo)

	token, err := tm.GenerateActionToken("1", models.DecisionApprove, time.Hour)
	assert.NoError(t, err)

	trainerRepo.On("GetByID", ctx, int64(1)).Return(&models.TrainerProfile{
		ID: 1, Name: "Dana", VerificationStatus: models.VerificationPending,
	}, nil)
	trainerRepo.On("UpdateStatusIfCurrent", ctx, int64(1),
		models.VerificationPending, models.VerificationVerified, (*time.Time)(nil)).Return(true, nil)
	auditRepo.On("Record", ctx, int64(1), models.DecisionApprove, "decision-link", "").Return(nil)

	result, err := svc.Resolve(ctx, token)

	assert.NoError(t, err)
	assert.Equal(t, models.VerificationVerified, result.NewStatus)
	trainerRepo.AssertExpectations(t)
}

func TestResolve_RejectStampsRejectionDate(t *testing.T) {
	ctx := context.Background()
	trainerRepo := new(MockTrainerStore)
	auditRepo := new(MockAuditStore)
	svc, tm := newVerificationService(trainerRepo, auditRepo)

	token, err := tm.GenerateActionToken("1", models.DecisionReject, time.Hour)
	assert.NoError(t, err)

	trainerRepo.On("GetByID", ctx, int64(1)).Return(&models.TrainerProfile{
		ID: 1, Name: "Dana", VerificationStatus: models.VerificationPending,
	}, nil)
	trainerRepo.On("UpdateStatusIfCurrent", ctx, int64(1),
		models.VerificationPending, models.VerificationRejected,
		mock.MatchedBy(func(d *time.Time) bool { return d != nil })).Return(true, nil)
	auditRepo.On("Record", ctx, int64(1), models.DecisionReject, "decision-link", "").Return(nil)

	result, err := svc.Resolve(ctx, token)

	assert.NoError(t, err)
	assert.Equal(t, models.VerificationRejected, result.NewStatus)
	trainerRepo.AssertExpectations(t)
}

func TestResolve_SecondOpenDoesNotFlipStatus(t *testing.T) {
	ctx := context.Background()
	trainerRepo := new(MockTrainerStore)
	svc, tm := newVerificationService(trainerRepo, new(MockAuditStore))

	// A reject link opened after the approve link already settled the decision
	token, err := tm.GenerateActionToken("1", models.DecisionReject, time.Hour)
	assert.NoError(t, err)

	trainerRepo.On("GetByID", ctx, int64(1)).Return(&models.TrainerProfile{
		ID: 1, Name: "Dana", VerificationStatus: models.VerificationVerified,
	}, nil)
	trainerRepo.On("UpdateStatusIfCurrent", ctx, int64(1),
		models.VerificationPending, models.VerificationRejected, mock.Anything).Return(false, nil)

	result, err := svc.Resolve(ctx, token)

	assert.ErrorIs(t, err, models.ErrDecisionAlreadyApplied)
	// The settled status is reported, not the one on the stale link
	assert.Equal(t, models.VerificationVerified, result.NewStatus)
	trainerRepo.AssertExpectations(t)
}

func TestResolve_ExpiredTokenRejected(t *testing.T) {
	ctx := context.Background()
	trainerRepo := new(MockTrainerStore)
	svc, tm := newVerificationService(trainerRepo, new(MockAuditStore))

	token, err := tm.GenerateActionToken("1", models.DecisionApprove, -time.Minute)
	assert.NoError(t, err)

	result, err := svc.Resolve(ctx, token)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	trainerRepo.AssertNotCalled(t, "UpdateStatusIfCurrent",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestOverride_RecordsAuditWithNotes(t *testing.T) {
	ctx := context.Background()
	trainerRepo := new(MockTrainerStore)
	auditRepo := new(MockAuditStore)
	svc, _ := newVerificationService(trainerRepo, auditRepo)

	trainerRepo.On("SetStatus", ctx, int64(1), models.VerificationVerified, (*time.Time)(nil)).Return(nil)
	auditRepo.On("Record", ctx, int64(1), "override", "admin@tutorhub.dev", "manual approval after call").Return(nil)
	trainerRepo.On("GetByID", ctx, int64(1)).Return(&models.TrainerProfile{
		ID: 1, VerificationStatus: models.VerificationVerified,
	}, nil)

	trainer, err := svc.Override(ctx, 1, "admin@tutorhub.dev", &models.OverrideVerificationRequest{
		Status: models.VerificationVerified,
		Notes:  "manual approval after call",
	})

	assert.NoError(t, err)
	assert.Equal(t, models.VerificationVerified, trainer.VerificationStatus)
	auditRepo.AssertExpectations(t)
}
