package services_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/tutorhub/tutorhub-api/internal/models"
	"github.com/tutorhub/tutorhub-api/internal/repository"
)

// MockUserStore is a mock implementation of repository.UserStore
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) Create(ctx context.Context, email, passwordHash, name, role string) (*models.User, error) {
	args := m.Called(ctx, email, passwordHash, name, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserStore) GetByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserStore) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	args := m.Called(ctx, userID, passwordHash)
	return args.Error(0)
}

// MockPasswordResetStore is a mock implementation of repository.PasswordResetStore
type MockPasswordResetStore struct {
	mock.Mock
}

func (m *MockPasswordResetStore) CreateToken(ctx context.Context, userID int64, tokenHash string, expiresAt time.Time) error {
	args := m.Called(ctx, userID, tokenHash, expiresAt)
	return args.Error(0)
}

func (m *MockPasswordResetStore) ConsumeToken(ctx context.Context, tokenHash string) (int64, error) {
	args := m.Called(ctx, tokenHash)
	return args.Get(0).(int64), args.Error(1)
}

// MockTrainerStore is a mock implementation of repository.TrainerStore
type MockTrainerStore struct {
	mock.Mock
}

func (m *MockTrainerStore) CreateProfile(ctx context.Context, userID int64, req *models.ApplyTrainerRequest) (*models.TrainerProfile, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TrainerProfile), args.Error(1)
}

func (m *MockTrainerStore) GetByID(ctx context.Context, id int64) (*models.TrainerProfile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TrainerProfile), args.Error(1)
}

func (m *MockTrainerStore) GetByUserID(ctx context.Context, userID int64) (*models.TrainerProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TrainerProfile), args.Error(1)
}

func (m *MockTrainerStore) ListVerified(ctx context.Context) ([]*models.TrainerProfile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.TrainerProfile), args.Error(1)
}

func (m *MockTrainerStore) UpdateStatusIfCurrent(ctx context.Context, trainerID int64, current, target string, rejectionDate *time.Time) (bool, error) {
	args := m.Called(ctx, trainerID, current, target, rejectionDate)
	return args.Bool(0), args.Error(1)
}

func (m *MockTrainerStore) Reapply(ctx context.Context, trainerID int64, req *models.ApplyTrainerRequest) (bool, error) {
	args := m.Called(ctx, trainerID, req)
	return args.Bool(0), args.Error(1)
}

func (m *MockTrainerStore) SetStatus(ctx context.Context, trainerID int64, target string, rejectionDate *time.Time) error {
	args := m.Called(ctx, trainerID, target, rejectionDate)
	return args.Error(0)
}

// MockAuditStore is a mock implementation of repository.VerificationAuditStore
type MockAuditStore struct {
	mock.Mock
}

func (m *MockAuditStore) Record(ctx context.Context, trainerID int64, action, actor, notes string) error {
	args := m.Called(ctx, trainerID, action, actor, notes)
	return args.Error(0)
}

func (m *MockAuditStore) ListByTrainer(ctx context.Context, trainerID int64) ([]*models.VerificationAuditEntry, error) {
	args := m.Called(ctx, trainerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.VerificationAuditEntry), args.Error(1)
}

// MockBookingStore is a mock implementation of repository.BookingStore
type MockBookingStore struct {
	mock.Mock
}

func (m *MockBookingStore) Create(ctx context.Context, studentID int64, req *models.CreateBookingRequest) (*models.Booking, error) {
	args := m.Called(ctx, studentID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *MockBookingStore) GetByID(ctx context.Context, id int64) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *MockBookingStore) GetByPaymentIntentID(ctx context.Context, intentID string) (*models.Booking, error) {
	args := m.Called(ctx, intentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *MockBookingStore) SetPaymentIntentID(ctx context.Context, bookingID int64, intentID string) error {
	args := m.Called(ctx, bookingID, intentID)
	return args.Error(0)
}

func (m *MockBookingStore) TransitionPaymentIfPending(ctx context.Context, bookingID int64, target string) (bool, string, error) {
	args := m.Called(ctx, bookingID, target)
	return args.Bool(0), args.String(1), args.Error(2)
}

func (m *MockBookingStore) ListByStudent(ctx context.Context, studentID int64) ([]*models.Booking, error) {
	args := m.Called(ctx, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}

func (m *MockBookingStore) ListByTrainer(ctx context.Context, trainerID int64) ([]*models.Booking, error) {
	args := m.Called(ctx, trainerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}

// MockSessionStore is a mock implementation of repository.SessionStore
type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) CreateWithBookings(ctx context.Context, trainerID int64, meetingLink string, req *models.CreateSessionRequest) (*models.Session, error) {
	args := m.Called(ctx, trainerID, meetingLink, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockSessionStore) GetByID(ctx context.Context, id int64) (*models.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockSessionStore) ListByTrainer(ctx context.Context, trainerID int64) ([]*models.Session, error) {
	args := m.Called(ctx, trainerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Session), args.Error(1)
}

func (m *MockSessionStore) UpdateStatusIfCurrent(ctx context.Context, sessionID int64, current, target string) (bool, error) {
	args := m.Called(ctx, sessionID, current, target)
	return args.Bool(0), args.Error(1)
}

func (m *MockSessionStore) GetParticipation(ctx context.Context, sessionID, studentID int64) (*repository.Participation, error) {
	args := m.Called(ctx, sessionID, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Participation), args.Error(1)
}

// MockReviewStore is a mock implementation of repository.ReviewStore
type MockReviewStore struct {
	mock.Mock
}

func (m *MockReviewStore) CreateAndRecompute(ctx context.Context, review *models.Review) (int64, float64, error) {
	args := m.Called(ctx, review)
	return args.Get(0).(int64), args.Get(1).(float64), args.Error(2)
}

func (m *MockReviewStore) UpdateAndRecompute(ctx context.Context, reviewID, studentID int64, rating int, comment string) (float64, error) {
	args := m.Called(ctx, reviewID, studentID, rating, comment)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockReviewStore) DeleteAndRecompute(ctx context.Context, reviewID, studentID int64) (float64, error) {
	args := m.Called(ctx, reviewID, studentID)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockReviewStore) GetByID(ctx context.Context, id int64) (*models.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *MockReviewStore) GetByStudentAndSession(ctx context.Context, studentID, sessionID int64) (*models.Review, error) {
	args := m.Called(ctx, studentID, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *MockReviewStore) ListByTrainer(ctx context.Context, trainerID int64) ([]*models.Review, error) {
	args := m.Called(ctx, trainerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Review), args.Error(1)
}

// MockGateway is a mock implementation of paygate.Gateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateIntent(ctx context.Context, amountCents int64, currency string, bookingID int64) (*models.PaymentIntent, error) {
	args := m.Called(ctx, amountCents, currency, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentIntent), args.Error(1)
}

func (m *MockGateway) CreateDemoPayment(ctx context.Context, amountCents int64, currency string) (*models.PaymentIntent, error) {
	args := m.Called(ctx, amountCents, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentIntent), args.Error(1)
}

func (m *MockGateway) VerifyAndParseWebhook(payload []byte, signatureHeader string) (*models.WebhookEvent, error) {
	args := m.Called(payload, signatureHeader)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WebhookEvent), args.Error(1)
}

// noopInvalidator satisfies services.TrainerCacheInvalidator in tests
type noopInvalidator struct{}

func (noopInvalidator) Invalidate() {}
