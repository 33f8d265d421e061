package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/tutorhub/tutorhub-api/internal/models"
	"github.com/tutorhub/tutorhub-api/internal/paygate"
	"github.com/tutorhub/tutorhub-api/internal/repository"
	apperrors "github.com/tutorhub/tutorhub-api/pkg/errors"
	"github.com/tutorhub/tutorhub-api/pkg/logger"
	"github.com/tutorhub/tutorhub-api/pkg/metrics"
)

// WebhookService reconciles provider webhook events onto bookings
type WebhookService struct {
	bookingRepo repository.BookingStore
	gateway     paygate.Gateway
}

// NewWebhookService creates a new webhook service instance
func NewWebhookService(bookingRepo repository.BookingStore, gateway paygate.Gateway) *WebhookService {
	return &WebhookService{
		bookingRepo: bookingRepo,
		gateway:     gateway,
	}
}

// HandleEvent verifies the signature over the raw body and applies the event.
// Events for already-settled bookings, unknown event kinds, and intents we
// have no booking for are all acknowledged without error; the provider must
// not keep retrying them. Signature failures are the only rejections.
func (s *WebhookService) HandleEvent(ctx context.Context, payload []byte, signatureHeader string) error {
	event, err := s.gateway.VerifyAndParseWebhook(payload, signatureHeader)
	if err != nil {
		metrics.WebhookEvents.WithLabelValues("unknown", "bad_signature").Inc()
		logger.Warn("webhook rejected", zap.Error(err))
		return err
	}

	var target string
	switch event.Kind {
	case models.WebhookPaymentSucceeded:
		target = models.PaymentCompleted
	case models.WebhookPaymentFailed:
		target = models.PaymentFailed
	default:
		metrics.WebhookEvents.WithLabelValues(event.Kind, "skipped").Inc()
		logger.Info("webhook event kind not handled", zap.String("kind", event.Kind))
		return nil
	}

	booking, err := s.bookingRepo.GetByPaymentIntentID(ctx, event.PaymentIntentID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			// The intent may belong to another environment or the booking row
			// may not be visible yet; ack and let the client confirm path win.
			metrics.WebhookEvents.WithLabelValues(event.Kind, "orphan").Inc()
			logger.Warn("webhook for unknown payment intent",
				zap.String("event_id", event.ID),
				zap.String("intent_id", event.PaymentIntentID))
			return nil
		}
		metrics.WebhookEvents.WithLabelValues(event.Kind, "error").Inc()
		return err
	}

	applied, current, err := s.bookingRepo.TransitionPaymentIfPending(ctx, booking.ID, target)
	if err != nil {
		metrics.WebhookEvents.WithLabelValues(event.Kind, "error").Inc()
		return err
	}

	if applied {
		metrics.WebhookEvents.WithLabelValues(event.Kind, "applied").Inc()
		metrics.PaymentTransitions.WithLabelValues(target, "applied").Inc()
		logger.Info("webhook settled booking payment",
			zap.Int64("booking_id", booking.ID),
			zap.String("event_id", event.ID),
			zap.String("status", target))
		return nil
	}

	// Client confirmation or a duplicate delivery got there first
	metrics.WebhookEvents.WithLabelValues(event.Kind, "duplicate").Inc()
	if current != target {
		logger.Warn("webhook outcome disagrees with settled status",
			zap.Int64("booking_id", booking.ID),
			zap.String("event_id", event.ID),
			zap.String("webhook_target", target),
			zap.String("settled", current))
	}
	return nil
}
