package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/tutorhub/tutorhub-api/internal/models"
	"github.com/tutorhub/tutorhub-api/internal/repository"
	"github.com/tutorhub/tutorhub-api/internal/services"
	apperrors "github.com/tutorhub/tutorhub-api/pkg/errors"
	"github.com/tutorhub/tutorhub-api/pkg/httpclient"
)

func newReviewService(reviewRepo *MockReviewStore, sessionRepo *MockSessionStore) *services.ReviewService {
	return services.NewReviewService(reviewRepo, sessionRepo, noopInvalidator{}, testConfig(), httpclient.NewStandardClient())
}

func TestSubmitReview_CompletedSessionParticipant(t *testing.T) {
	ctx := context.Background()
	reviewRepo := new(MockReviewStore)
	sessionRepo := new(MockSessionStore)
	svc := newReviewService(reviewRepo, sessionRepo)

	sessionRepo.On("GetParticipation", ctx, int64(3), int64(1)).Return(&repository.Participation{
		SessionStatus: models.SessionCompleted,
		TrainerID:     2,
		IsParticipant: true,
	}, nil)
	reviewRepo.On("CreateAndRecompute", ctx, mock.MatchedBy(func(r *models.Review) bool {
		return r.StudentID == 1 && r.TrainerID == 2 && r.SessionID == 3 && r.Rating == 4
	})).Return(int64(7), 4.5, nil)

	resp, err := svc.SubmitReview(ctx, 1, &models.SubmitReviewRequest{
		SessionID: 3,
		Rating:    4,
		Comment:   "clear explanations",
	})

	assert.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, int64(7), resp.ReviewID)
	assert.Equal(t, 4.5, resp.NewAvg)
	reviewRepo.AssertExpectations(t)
}

func TestSubmitReview_CarriesOptionalBookingReference(t *testing.T) {
	ctx := context.Background()
	reviewRepo := new(MockReviewStore)
	sessionRepo := new(MockSessionStore)
	svc := newReviewService(reviewRepo, sessionRepo)

	bookingID := int64(10)
	sessionRepo.On("GetParticipation", ctx, int64(3), int64(1)).Return(&repository.Participation{
		SessionStatus: models.SessionCompleted,
		TrainerID:     2,
		IsParticipant: true,
	}, nil)
	reviewRepo.On("CreateAndRecompute", ctx, mock.MatchedBy(func(r *models.Review) bool {
		return r.BookingID != nil && *r.BookingID == bookingID
	})).Return(int64(8), 4.0, nil)

	resp, err := svc.SubmitReview(ctx, 1, &models.SubmitReviewRequest{
		SessionID: 3,
		BookingID: &bookingID,
		Rating:    4,
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(8), resp.ReviewID)
	reviewRepo.AssertExpectations(t)
}

func TestSubmitReview_NonParticipantDenied(t *testing.T) {
	ctx := context.Background()
	reviewRepo := new(MockReviewStore)
	sessionRepo := new(MockSessionStore)
	svc := newReviewService(reviewRepo, sessionRepo)

	sessionRepo.On("GetParticipation", ctx, int64(3), int64(9)).Return(&repository.Participation{
		SessionStatus: models.SessionCompleted,
		TrainerID:     2,
		IsParticipant: false,
	}, nil)

	resp, err := svc.SubmitReview(ctx, 9, &models.SubmitReviewRequest{SessionID: 3, Rating: 5})

	assert.Nil(t, resp)
	assert.ErrorIs(t, err, models.ErrNotSessionParticipant)
	reviewRepo.AssertNotCalled(t, "CreateAndRecompute", mock.Anything, mock.Anything)
}

func TestSubmitReview_SessionNotCompletedYet(t *testing.T) {
	for _, status := range []string{models.SessionScheduled, models.SessionActive} {
		t.Run(status, func(t *testing.T) {
			ctx := context.Background()
			reviewRepo := new(MockReviewStore)
			sessionRepo := new(MockSessionStore)
			svc := newReviewService(reviewRepo, sessionRepo)

			sessionRepo.On("GetParticipation", ctx, int64(3), int64(1)).Return(&repository.Participation{
				SessionStatus: status,
				TrainerID:     2,
				IsParticipant: true,
			}, nil)

			resp, err := svc.SubmitReview(ctx, 1, &models.SubmitReviewRequest{SessionID: 3, Rating: 5})

			assert.Nil(t, resp)
			assert.ErrorIs(t, err, models.ErrSessionNotCompleted)
			reviewRepo.AssertNotCalled(t, "CreateAndRecompute", mock.Anything, mock.Anything)
		})
	}
}

func TestSubmitReview_SecondReviewForSameSessionRejected(t *testing.T) {
	ctx := context.Background()
	reviewRepo := new(MockReviewStore)
	sessionRepo := new(MockSessionStore)
	svc := newReviewService(reviewRepo, sessionRepo)

	sessionRepo.On("GetParticipation", ctx, int64(3), int64(1)).Return(&repository.Participation{
		SessionStatus: models.SessionCompleted,
		TrainerID:     2,
		IsParticipant: true,
	}, nil)
	reviewRepo.On("CreateAndRecompute", ctx, mock.Anything).
		Return(int64(0), 0.0, models.ErrReviewAlreadyExists)

	resp, err := svc.SubmitReview(ctx, 1, &models.SubmitReviewRequest{SessionID: 3, Rating: 2})

	assert.Nil(t, resp)
	assert.ErrorIs(t, err, models.ErrReviewAlreadyExists)
}

func TestUpdateReview_ReplacesRatingInAggregate(t *testing.T) {
	ctx := context.Background()
	reviewRepo := new(MockReviewStore)
	sessionRepo := new(MockSessionStore)
	svc := newReviewService(reviewRepo, sessionRepo)

	// The edited rating replaces the old one; the average reflects the
	// current set of reviews, not current plus history.
	reviewRepo.On("UpdateAndRecompute", ctx, int64(7), int64(1), 2, "changed my mind").
		Return(3.5, nil)

	resp, err := svc.UpdateReview(ctx, 1, 7, &models.UpdateReviewRequest{
		Rating:  2,
		Comment: "changed my mind",
	})

	assert.NoError(t, err)
	assert.Equal(t, 3.5, resp.NewAvg)
	reviewRepo.AssertExpectations(t)
}

func TestUpdateReview_OtherStudentsReviewNotFound(t *testing.T) {
	ctx := context.Background()
	reviewRepo := new(MockReviewStore)
	sessionRepo := new(MockSessionStore)
	svc := newReviewService(reviewRepo, sessionRepo)

	reviewRepo.On("UpdateAndRecompute", ctx, int64(7), int64(9), 1, "").
		Return(0.0, apperrors.NotFoundError("review"))

	resp, err := svc.UpdateReview(ctx, 9, 7, &models.UpdateReviewRequest{Rating: 1})

	assert.Nil(t, resp)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDeleteReview_RecomputesAggregate(t *testing.T) {
	ctx := context.Background()
	reviewRepo := new(MockReviewStore)
	sessionRepo := new(MockSessionStore)
	svc := newReviewService(reviewRepo, sessionRepo)

	reviewRepo.On("DeleteAndRecompute", ctx, int64(7), int64(1)).Return(4.0, nil)

	err := svc.DeleteReview(ctx, 1, 7)

	assert.NoError(t, err)
	reviewRepo.AssertExpectations(t)
}

func TestDeleteReview_OtherStudentsReviewNotFound(t *testing.T) {
	ctx := context.Background()
	reviewRepo := new(MockReviewStore)
	sessionRepo := new(MockSessionStore)
	svc := newReviewService(reviewRepo, sessionRepo)

	reviewRepo.On("DeleteAndRecompute", ctx, int64(7), int64(9)).
		Return(0.0, apperrors.NotFoundError("review"))

	err := svc.DeleteReview(ctx, 9, 7)

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
