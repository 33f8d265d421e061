package services_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/tutorhub/tutorhub-api/internal/models"
	"github.com/tutorhub/tutorhub-api/internal/services"
	apperrors "github.com/tutorhub/tutorhub-api/pkg/errors"
	"github.com/tutorhub/tutorhub-api/pkg/httpclient"
)

func newSessionService(sessionRepo *MockSessionStore, trainerRepo *MockTrainerStore) *services.SessionService {
	return services.NewSessionService(sessionRepo, trainerRepo, testConfig(), httpclient.NewStandardClient())
}

func TestCreateSession_BindsBookingsWithMeetingLink(t *testing.T) {
	ctx := context.Background()
	sessionRepo := new(MockSessionStore)
	trainerRepo := new(MockTrainerStore)
	svc := newSessionService(sessionRepo, trainerRepo)

	req := &models.CreateSessionRequest{
		ScheduledAt: time.Now().Add(48 * time.Hour),
		BookingIDs:  []int64{10, 11},
	}
	trainerRepo.On("GetByUserID", ctx, int64(5)).Return(verifiedTrainer(2), nil)
	sessionRepo.On("CreateWithBookings", ctx, int64(2),
		mock.MatchedBy(func(link string) bool { return strings.HasPrefix(link, "meet-") }),
		req,
	).Return(&models.Session{
		ID: 3, TrainerID: 2, Status: models.SessionScheduled, StudentIDs: []int64{1, 4},
	}, nil)

	session, err := svc.CreateSession(ctx, 5, req)

	assert.NoError(t, err)
	assert.Equal(t, models.SessionScheduled, session.Status)
	assert.Len(t, session.StudentIDs, 2)
	sessionRepo.AssertExpectations(t)
}

func TestCreateSession_UnpaidBookingAbortsAll(t *testing.T) {
	ctx := context.Background()
	sessionRepo := new(MockSessionStore)
	trainerRepo := new(MockTrainerStore)
	svc := newSessionService(sessionRepo, trainerRepo)

	req := &models.CreateSessionRequest{
		ScheduledAt: time.Now().Add(48 * time.Hour),
		BookingIDs:  []int64{10, 11},
	}
	trainerRepo.On("GetByUserID", ctx, int64(5)).Return(verifiedTrainer(2), nil)
	sessionRepo.On("CreateWithBookings", ctx, int64(2), mock.Anything, req).
		Return(nil, models.ErrBookingNotPaid)

	session, err := svc.CreateSession(ctx, 5, req)

	assert.Nil(t, session)
	assert.ErrorIs(t, err, models.ErrBookingNotPaid)
}

func TestCreateSession_UnverifiedTrainerRejected(t *testing.T) {
	ctx := context.Background()
	sessionRepo := new(MockSessionStore)
	trainerRepo := new(MockTrainerStore)
	svc := newSessionService(sessionRepo, trainerRepo)

	trainerRepo.On("GetByUserID", ctx, int64(5)).Return(&models.TrainerProfile{
		ID: 2, VerificationStatus: models.VerificationRejected,
	}, nil)

	session, err := svc.CreateSession(ctx, 5, &models.CreateSessionRequest{BookingIDs: []int64{10}})

	assert.Nil(t, session)
	assert.ErrorIs(t, err, services.ErrTrainerNotVerified)
	sessionRepo.AssertNotCalled(t, "CreateWithBookings", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateStatus_LegalTransitions(t *testing.T) {
	tests := []struct {
		name string
		from string
		to   string
	}{
		{"scheduled to active", models.SessionScheduled, models.SessionActive},
		{"active to completed", models.SessionActive, models.SessionCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			sessionRepo := new(MockSessionStore)
			trainerRepo := new(MockTrainerStore)
			svc := newSessionService(sessionRepo, trainerRepo)

			trainerRepo.On("GetByUserID", ctx, int64(5)).Return(verifiedTrainer(2), nil)
			sessionRepo.On("GetByID", ctx, int64(3)).Return(&models.Session{
				ID: 3, TrainerID: 2, Status: tt.from,
			}, nil)
			sessionRepo.On("UpdateStatusIfCurrent", ctx, int64(3), tt.from, tt.to).Return(true, nil)

			session, err := svc.UpdateStatus(ctx, 5, 3, tt.to)

			assert.NoError(t, err)
			assert.Equal(t, tt.to, session.Status)
		})
	}
}

func TestUpdateStatus_IllegalTransitionsRejected(t *testing.T) {
	tests := []struct {
		name string
		from string
		to   string
	}{
		{"scheduled cannot complete directly", models.SessionScheduled, models.SessionCompleted},
		{"scheduled cannot be cancelled", models.SessionScheduled, "cancelled"},
		{"completed is terminal", models.SessionCompleted, models.SessionActive},
		{"no going backwards", models.SessionActive, models.SessionScheduled},
		{"unknown status rejected", models.SessionActive, "cancelled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			sessionRepo := new(MockSessionStore)
			trainerRepo := new(MockTrainerStore)
			svc := newSessionService(sessionRepo, trainerRepo)

			trainerRepo.On("GetByUserID", ctx, int64(5)).Return(verifiedTrainer(2), nil)
			sessionRepo.On("GetByID", ctx, int64(3)).Return(&models.Session{
				ID: 3, TrainerID: 2, Status: tt.from,
			}, nil)

			session, err := svc.UpdateStatus(ctx, 5, 3, tt.to)

			assert.Nil(t, session)
			assert.ErrorIs(t, err, models.ErrInvalidTransition)
			sessionRepo.AssertNotCalled(t, "UpdateStatusIfCurrent",
				mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestUpdateStatus_OtherTrainersSessionDenied(t *testing.T) {
	ctx := context.Background()
	sessionRepo := new(MockSessionStore)
	trainerRepo := new(MockTrainerStore)
	svc := newSessionService(sessionRepo, trainerRepo)

	trainerRepo.On("GetByUserID", ctx, int64(5)).Return(verifiedTrainer(2), nil)
	sessionRepo.On("GetByID", ctx, int64(3)).Return(&models.Session{
		ID: 3, TrainerID: 99, Status: models.SessionScheduled,
	}, nil)

	session, err := svc.UpdateStatus(ctx, 5, 3, models.SessionActive)

	assert.Nil(t, session)
	assert.ErrorIs(t, err, apperrors.ErrAccessDenied)
}

func TestUpdateStatus_ConcurrentTransitionConflicts(t *testing.T) {
	ctx := context.Background()
	sessionRepo := new(MockSessionStore)
	trainerRepo := new(MockTrainerStore)
	svc := newSessionService(sessionRepo, trainerRepo)

	trainerRepo.On("GetByUserID", ctx, int64(5)).Return(verifiedTrainer(2), nil)
	sessionRepo.On("GetByID", ctx, int64(3)).Return(&models.Session{
		ID: 3, TrainerID: 2, Status: models.SessionScheduled,
	}, nil)
	// Someone moved the session between the read and the guarded update
	sessionRepo.On("UpdateStatusIfCurrent", ctx, int64(3), models.SessionScheduled, models.SessionActive).
		Return(false, nil)

	session, err := svc.UpdateStatus(ctx, 5, 3, models.SessionActive)

	assert.Nil(t, session)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
}
