package models

import "errors"

// Domain lifecycle errors shared between repositories and services.
var (
	ErrBookingNotPaid         = errors.New("booking payment is not completed")
	ErrBookingAlreadyBound    = errors.New("booking is already bound to a session")
	ErrBookingWrongTrainer    = errors.New("booking belongs to a different trainer")
	ErrPaymentStatusFinal     = errors.New("payment status is already final")
	ErrInvalidTransition      = errors.New("status transition is not permitted")
	ErrSessionNotCompleted    = errors.New("session is not completed")
	ErrNotSessionParticipant  = errors.New("student did not attend this session")
	ErrReviewAlreadyExists    = errors.New("review already exists for this session")
	ErrCooldownNotElapsed     = errors.New("rejection cooldown has not elapsed")
	ErrDecisionAlreadyApplied = errors.New("verification decision already applied")
)
