package services

import (
	"context"
	"errors"
	"strconv"

	"go.uber.org/zap"

	"github.com/tutorhub/tutorhub-api/config"
	"github.com/tutorhub/tutorhub-api/internal/models"
	"github.com/tutorhub/tutorhub-api/internal/paygate"
	"github.com/tutorhub/tutorhub-api/internal/repository"
	apperrors "github.com/tutorhub/tutorhub-api/pkg/errors"
	"github.com/tutorhub/tutorhub-api/pkg/httpclient"
	"github.com/tutorhub/tutorhub-api/pkg/logger"
	"github.com/tutorhub/tutorhub-api/pkg/metrics"
	"github.com/tutorhub/tutorhub-api/pkg/trigger"
)

var ErrTrainerNotVerified = errors.New("trainer is not verified")

// BookingService handles the booking payment lifecycle
type BookingService struct {
	bookingRepo repository.BookingStore
	trainerRepo repository.TrainerStore
	gateway     paygate.Gateway
	config      *config.Config
	httpClient  httpclient.Client
}

// NewBookingService creates a new booking service instance
func NewBookingService(
	bookingRepo repository.BookingStore,
	trainerRepo repository.TrainerStore,
	gateway paygate.Gateway,
	cfg *config.Config,
	httpClient httpclient.Client,
) *BookingService {
	return &BookingService{
		bookingRepo: bookingRepo,
		trainerRepo: trainerRepo,
		gateway:     gateway,
		config:      cfg,
		httpClient:  httpClient,
	}
}

// CreateBooking reserves a verified trainer for a student. Card bookings stay
// pending until the provider settles; demo bookings settle immediately with a
// synthetic intent.
func (s *BookingService) CreateBooking(ctx context.Context, studentID int64, req *models.CreateBookingRequest) (*models.Booking, error) {
	trainer, err := s.trainerRepo.GetByID(ctx, req.TrainerID)
	if err != nil {
		return nil, err
	}
	if trainer.VerificationStatus != models.VerificationVerified {
		metrics.BookingsCreated.WithLabelValues(req.PaymentMethod, "unverified_trainer").Inc()
		return nil, ErrTrainerNotVerified
	}

	booking, err := s.bookingRepo.Create(ctx, studentID, req)
	if err != nil {
		metrics.BookingsCreated.WithLabelValues(req.PaymentMethod, "error").Inc()
		return nil, err
	}

	if booking.PaymentMethod == models.PaymentMethodDemo {
		booking, err = s.settleDemoBooking(ctx, booking)
		if err != nil {
			return nil, err
		}
	}

	trigger.CallAsync(s.config.EventTriggers.BookingCreatedTriggerURL, strconv.FormatInt(booking.ID, 10), s.httpClient)

	metrics.BookingsCreated.WithLabelValues(booking.PaymentMethod, "success").Inc()
	logger.Info("booking created",
		zap.Int64("booking_id", booking.ID),
		zap.Int64("trainer_id", booking.TrainerID),
		zap.String("payment_method", booking.PaymentMethod),
		zap.String("payment_status", booking.PaymentStatus))
	return booking, nil
}

// settleDemoBooking attaches a synthetic succeeded intent and completes the
// payment in one step
func (s *BookingService) settleDemoBooking(ctx context.Context, booking *models.Booking) (*models.Booking, error) {
	intent, err := s.gateway.CreateDemoPayment(ctx, booking.AmountCents, booking.Currency)
	if err != nil {
		if errors.Is(err, paygate.ErrDemoDisabled) {
			return nil, apperrors.InvalidInputError("paymentMethod", "demo payments are disabled")
		}
		return nil, err
	}

	if err := s.bookingRepo.SetPaymentIntentID(ctx, booking.ID, intent.ID); err != nil {
		return nil, err
	}
	applied, current, err := s.bookingRepo.TransitionPaymentIfPending(ctx, booking.ID, models.PaymentCompleted)
	if err != nil {
		return nil, err
	}
	metrics.PaymentTransitions.WithLabelValues(models.PaymentCompleted, transitionOutcome(applied)).Inc()

	booking.PaymentIntentID = intent.ID
	booking.PaymentStatus = current
	return booking, nil
}

// CreatePaymentIntent creates (or reuses) the provider intent for a card
// booking. Only the booking's student may request it.
func (s *BookingService) CreatePaymentIntent(ctx context.Context, studentID int64, req *models.CreatePaymentIntentRequest) (*models.CreatePaymentIntentResponse, error) {
	booking, err := s.bookingRepo.GetByID(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	if booking.StudentID != studentID {
		return nil, apperrors.AccessDeniedError("booking belongs to another student")
	}
	if booking.PaymentStatus != models.PaymentPending {
		return nil, apperrors.ConflictError("booking payment is already " + booking.PaymentStatus)
	}
	if booking.PaymentMethod == models.PaymentMethodDemo {
		return nil, apperrors.InvalidInputError("bookingId", "demo bookings settle without a payment intent")
	}

	intent, err := s.gateway.CreateIntent(ctx, booking.AmountCents, booking.Currency, booking.ID)
	if err != nil {
		if errors.Is(err, paygate.ErrNotConfigured) {
			// Deployment problem, not a client error; surfaces as a 500.
			return nil, err
		}
		return nil, apperrors.ProviderError("paygate", err.Error())
	}

	if err := s.bookingRepo.SetPaymentIntentID(ctx, booking.ID, intent.ID); err != nil {
		return nil, err
	}

	return &models.CreatePaymentIntentResponse{
		Success:      true,
		IntentID:     intent.ID,
		ClientSecret: intent.ClientSecret,
	}, nil
}

// ConfirmPayment records the client-side payment outcome. The provider webhook
// may already have settled the booking; in that case the call is a no-op that
// reports the settled status.
func (s *BookingService) ConfirmPayment(ctx context.Context, studentID int64, req *models.ConfirmPaymentRequest) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByPaymentIntentID(ctx, req.PaymentIntentID)
	if err != nil {
		return nil, err
	}
	if booking.StudentID != studentID {
		return nil, apperrors.AccessDeniedError("booking belongs to another student")
	}

	applied, current, err := s.bookingRepo.TransitionPaymentIfPending(ctx, booking.ID, req.Status)
	if err != nil {
		return nil, err
	}
	metrics.PaymentTransitions.WithLabelValues(req.Status, transitionOutcome(applied)).Inc()

	if !applied && current != req.Status {
		// The webhook settled the booking with the opposite outcome; the
		// stored status wins and the client learns the truth.
		logger.Warn("payment confirmation disagrees with settled status",
			zap.Int64("booking_id", booking.ID),
			zap.String("requested", req.Status),
			zap.String("settled", current))
	}

	booking.PaymentStatus = current
	return booking, nil
}

// GetBooking fetches a booking visible to the caller
func (s *BookingService) GetBooking(ctx context.Context, userID int64, bookingID int64) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.StudentID != userID {
		trainer, terr := s.trainerRepo.GetByUserID(ctx, userID)
		if terr != nil || trainer.ID != booking.TrainerID {
			return nil, apperrors.AccessDeniedError("booking is not visible to this user")
		}
	}
	return booking, nil
}

// ListStudentBookings returns the student's bookings
func (s *BookingService) ListStudentBookings(ctx context.Context, studentID int64) ([]*models.Booking, error) {
	return s.bookingRepo.ListByStudent(ctx, studentID)
}

// ListTrainerBookings returns the bookings for the trainer owned by userID
func (s *BookingService) ListTrainerBookings(ctx context.Context, userID int64) ([]*models.Booking, error) {
	trainer, err := s.trainerRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.bookingRepo.ListByTrainer(ctx, trainer.ID)
}

func transitionOutcome(applied bool) string {
	if applied {
		return "applied"
	}
	return "noop"
}
