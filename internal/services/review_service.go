package services

import (
	"context"
	"strconv"

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

// ReviewService handles review submission and trainer rating aggregation
type ReviewService struct {
	reviewRepo  repository.ReviewStore
	sessionRepo repository.SessionStore
	cacheInval  TrainerCacheInvalidator
	config      *config.Config
	httpClient  httpclient.Client
}

// NewReviewService creates a new review service instance
func NewReviewService(
	reviewRepo repository.ReviewStore,
	sessionRepo repository.SessionStore,
	cacheInval TrainerCacheInvalidator,
	cfg *config.Config,
	httpClient httpclient.Client,
) *ReviewService {
	return &ReviewService{
		reviewRepo:  reviewRepo,
		sessionRepo: sessionRepo,
		cacheInval:  cacheInval,
		config:      cfg,
		httpClient:  httpClient,
	}
}

// SubmitReview creates a review for a completed session the student attended.
// One review per (student, session); the trainer's aggregate rating is
// recomputed in the same transaction.
func (s *ReviewService) SubmitReview(ctx context.Context, studentID int64, req *models.SubmitReviewRequest) (*models.SubmitReviewResponse, error) {
	participation, err := s.sessionRepo.GetParticipation(ctx, req.SessionID, studentID)
	if err != nil {
		metrics.ReviewSubmissions.WithLabelValues("error").Inc()
		return nil, err
	}
	if !participation.IsParticipant {
		metrics.ReviewSubmissions.WithLabelValues("not_participant").Inc()
		return nil, models.ErrNotSessionParticipant
	}
	if participation.SessionStatus != models.SessionCompleted {
		metrics.ReviewSubmissions.WithLabelValues("not_completed").Inc()
		return nil, models.ErrSessionNotCompleted
	}

	reviewID, newAvg, err := s.reviewRepo.CreateAndRecompute(ctx, &models.Review{
		StudentID: studentID,
		TrainerID: participation.TrainerID,
		SessionID: req.SessionID,
		BookingID: req.BookingID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		if apperrors.Is(err, models.ErrReviewAlreadyExists) {
			metrics.ReviewSubmissions.WithLabelValues("already_exists").Inc()
		} else {
			metrics.ReviewSubmissions.WithLabelValues("db_error").Inc()
		}
		return nil, err
	}

	s.cacheInval.Invalidate()
	trigger.CallAsync(s.config.EventTriggers.ReviewCreatedTriggerURL, strconv.FormatInt(reviewID, 10), s.httpClient)

	metrics.ReviewSubmissions.WithLabelValues("success").Inc()
	logger.Info("review submitted",
		zap.Int64("review_id", reviewID),
		zap.Int64("trainer_id", participation.TrainerID),
		zap.Float64("new_avg", newAvg))

	return &models.SubmitReviewResponse{
		Success:  true,
		ReviewID: reviewID,
		NewAvg:   newAvg,
	}, nil
}

// UpdateReview edits the student's own review and recomputes the aggregate.
// The replaced rating drops out of the average; it is never counted twice.
func (s *ReviewService) UpdateReview(ctx context.Context, studentID, reviewID int64, req *models.UpdateReviewRequest) (*models.SubmitReviewResponse, error) {
	newAvg, err := s.reviewRepo.UpdateAndRecompute(ctx, reviewID, studentID, req.Rating, req.Comment)
	if err != nil {
		metrics.ReviewSubmissions.WithLabelValues("update_error").Inc()
		return nil, err
	}

	s.cacheInval.Invalidate()
	metrics.ReviewSubmissions.WithLabelValues("updated").Inc()
	logger.Info("review updated",
		zap.Int64("review_id", reviewID),
		zap.Float64("new_avg", newAvg))

	return &models.SubmitReviewResponse{
		Success:  true,
		ReviewID: reviewID,
		NewAvg:   newAvg,
	}, nil
}

// DeleteReview removes the student's own review and recomputes the aggregate.
// Deleting the last review restores the default rating.
func (s *ReviewService) DeleteReview(ctx context.Context, studentID, reviewID int64) error {
	newAvg, err := s.reviewRepo.DeleteAndRecompute(ctx, reviewID, studentID)
	if err != nil {
		metrics.ReviewSubmissions.WithLabelValues("delete_error").Inc()
		return err
	}

	s.cacheInval.Invalidate()
	metrics.ReviewSubmissions.WithLabelValues("deleted").Inc()
	logger.Info("review deleted",
		zap.Int64("review_id", reviewID),
		zap.Float64("new_avg", newAvg))
	return nil
}

// ListTrainerReviews returns a trainer's reviews
func (s *ReviewService) ListTrainerReviews(ctx context.Context, trainerID int64) ([]*models.Review, error) {
	return s.reviewRepo.ListByTrainer(ctx, trainerID)
}
