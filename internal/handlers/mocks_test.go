package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"

	"github.com/tutorhub/tutorhub-api/internal/models"
	"github.com/tutorhub/tutorhub-api/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)

	if err := logger.Initialize(logger.Config{
		Level:       "debug",
		Environment: "development",
	}); err != nil {
		panic(err)
	}
}

// mockBookingStore is a mock implementation of repository.BookingStore
type mockBookingStore struct {
	mock.Mock
}

func (m *mockBookingStore) Create(ctx context.Context, studentID int64, req *models.CreateBookingRequest) (*models.Booking, error) {
	args := m.Called(ctx, studentID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *mockBookingStore) GetByID(ctx context.Context, id int64) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *mockBookingStore) GetByPaymentIntentID(ctx context.Context, intentID string) (*models.Booking, error) {
	args := m.Called(ctx, intentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *mockBookingStore) SetPaymentIntentID(ctx context.Context, bookingID int64, intentID string) error {
	args := m.Called(ctx, bookingID, intentID)
	return args.Error(0)
}

func (m *mockBookingStore) TransitionPaymentIfPending(ctx context.Context, bookingID int64, target string) (bool, string, error) {
	args := m.Called(ctx, bookingID, target)
	return args.Bool(0), args.String(1), args.Error(2)
}

func (m *mockBookingStore) ListByStudent(ctx context.Context, studentID int64) ([]*models.Booking, error) {
	args := m.Called(ctx, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}

func (m *mockBookingStore) ListByTrainer(ctx context.Context, trainerID int64) ([]*models.Booking, error) {
	args := m.Called(ctx, trainerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}

// mockTrainerStore is a mock implementation of repository.TrainerStore
type mockTrainerStore struct {
	mock.Mock
}

func (m *mockTrainerStore) CreateProfile(ctx context.Context, userID int64, req *models.ApplyTrainerRequest) (*models.TrainerProfile, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TrainerProfile), args.Error(1)
}

func (m *mockTrainerStore) GetByID(ctx context.Context, id int64) (*models.TrainerProfile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TrainerProfile), args.Error(1)
}

func (m *mockTrainerStore) GetByUserID(ctx context.Context, userID int64) (*models.TrainerProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TrainerProfile), args.Error(1)
}

func (m *mockTrainerStore) ListVerified(ctx context.Context) ([]*models.TrainerProfile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.TrainerProfile), args.Error(1)
}

func (m *mockTrainerStore) UpdateStatusIfCurrent(ctx context.Context, trainerID int64, current, target string, rejectionDate *time.Time) (bool, error) {
	args := m.Called(ctx, trainerID, current, target, rejectionDate)
	return args.Bool(0), args.Error(1)
}

func (m *mockTrainerStore) Reapply(ctx context.Context, trainerID int64, req *models.ApplyTrainerRequest) (bool, error) {
	args := m.Called(ctx, trainerID, req)
	return args.Bool(0), args.Error(1)
}

func (m *mockTrainerStore) SetStatus(ctx context.Context, trainerID int64, target string, rejectionDate *time.Time) error {
	args := m.Called(ctx, trainerID, target, rejectionDate)
	return args.Error(0)
}

// mockAuditStore is a mock implementation of repository.VerificationAuditStore
type mockAuditStore struct {
	mock.Mock
}

func (m *mockAuditStore) Record(ctx context.Context, trainerID int64, action, actor, notes string) error {
	args := m.Called(ctx, trainerID, action, actor, notes)
	return args.Error(0)
}

func (m *mockAuditStore) ListByTrainer(ctx context.Context, trainerID int64) ([]*models.VerificationAuditEntry, error) {
	args := m.Called(ctx, trainerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.VerificationAuditEntry), args.Error(1)
}

type noopInvalidator struct{}

func (noopInvalidator) Invalidate() {}
