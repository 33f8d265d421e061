package services

import (
	"context"

	"github.com/tutorhub/tutorhub-api/internal/cache"
	"github.com/tutorhub/tutorhub-api/internal/models"
	"github.com/tutorhub/tutorhub-api/internal/repository"
)

// TrainerService serves trainer listings and profiles
type TrainerService struct {
	trainerRepo  repository.TrainerStore
	trainerCache *cache.TrainerCache
}

// NewTrainerService creates a new trainer service instance
func NewTrainerService(trainerRepo repository.TrainerStore, trainerCache *cache.TrainerCache) *TrainerService {
	return &TrainerService{
		trainerRepo:  trainerRepo,
		trainerCache: trainerCache,
	}
}

// ListVerified returns the public listing of verified trainers, served from
// the TTL cache
func (s *TrainerService) ListVerified(ctx context.Context) ([]models.PublicTrainerResponse, error) {
	trainers, err := s.trainerCache.GetVerified(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.PublicTrainerResponse, 0, len(trainers))
	for _, t := range trainers {
		out = append(out, t.ToPublicResponse())
	}
	return out, nil
}

// GetByID returns a single trainer profile
func (s *TrainerService) GetByID(ctx context.Context, trainerID int64) (*models.TrainerProfile, error) {
	return s.trainerRepo.GetByID(ctx, trainerID)
}

// GetProfileForUser returns the trainer profile owned by the user
func (s *TrainerService) GetProfileForUser(ctx context.Context, userID int64) (*models.TrainerProfile, error) {
	return s.trainerRepo.GetByUserID(ctx, userID)
}
