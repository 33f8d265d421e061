package cache

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/tutorhub/tutorhub-api/internal/models"
	"github.com/tutorhub/tutorhub-api/pkg/logger"
	"github.com/tutorhub/tutorhub-api/pkg/metrics"
)

// TrainerListSource fetches the verified trainer listing from storage
type TrainerListSource interface {
	ListVerified(ctx context.Context) ([]*models.TrainerProfile, error)
}

const (
	verifiedTrainersKey = "trainer:verified"
	cacheCheckPeriod    = 10 * time.Second
)

// TrainerCache is a read-through TTL cache for the verified trainer listing.
// Verification decisions and rating recomputes invalidate it so students never
// see a trainer the moment after rejection, at the cost of one DB read.
type TrainerCache struct {
	cache    *gocache.Cache
	source   TrainerListSource
	ttl      time.Duration
	disabled bool
	mu       sync.Mutex // serializes refill on miss
}

// NewTrainerCache creates a new trainer listing cache
func NewTrainerCache(source TrainerListSource, ttlSeconds int, disabled bool) *TrainerCache {
	return &TrainerCache{
		cache:    gocache.New(gocache.NoExpiration, cacheCheckPeriod),
		source:   source,
		ttl:      time.Duration(ttlSeconds) * time.Second,
		disabled: disabled,
	}
}

// GetVerified returns the verified trainer listing, refilling from storage on miss
func (tc *TrainerCache) GetVerified(ctx context.Context) ([]*models.TrainerProfile, error) {
	if tc.disabled {
		return tc.source.ListVerified(ctx)
	}

	if data, found := tc.cache.Get(verifiedTrainersKey); found {
		if trainers, ok := data.([]*models.TrainerProfile); ok {
			metrics.CacheHits.WithLabelValues("trainers_verified").Inc()
			return trainers, nil
		}
		tc.cache.Delete(verifiedTrainersKey)
	}

	metrics.CacheMisses.WithLabelValues("trainers_verified").Inc()

	tc.mu.Lock()
	defer tc.mu.Unlock()

	// Another goroutine may have refilled while we waited for the lock
	if data, found := tc.cache.Get(verifiedTrainersKey); found {
		if trainers, ok := data.([]*models.TrainerProfile); ok {
			return trainers, nil
		}
	}

	trainers, err := tc.source.ListVerified(ctx)
	if err != nil {
		return nil, err
	}

	tc.cache.Set(verifiedTrainersKey, trainers, tc.ttl)
	logger.Debug("trainer listing cache refilled", zap.Int("count", len(trainers)))
	return trainers, nil
}

// Invalidate drops the cached listing. Called after verification decisions
// and rating recomputes.
func (tc *TrainerCache) Invalidate() {
	tc.cache.Delete(verifiedTrainersKey)
}
