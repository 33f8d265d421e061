package models

import "time"

// Booking payment statuses. Transitions are monotonic: pending may move to
// completed or failed, and neither terminal state ever changes afterwards.
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
)

// Payment methods
const (
	PaymentMethodCard = "card"
	PaymentMethodDemo = "demo"
)

// Booking represents a paid (or pending-payment) reservation of a trainer's time
type Booking struct {
	ID              int64     `json:"id"`
	StudentID       int64     `json:"studentId"`
	TrainerID       int64     `json:"trainerId"`
	AmountCents     int64     `json:"amountCents"`
	Currency        string    `json:"currency"`
	PaymentMethod   string    `json:"paymentMethod"`
	PaymentStatus   string    `json:"paymentStatus"`
	PaymentIntentID string    `json:"paymentIntentId,omitempty"`
	SessionID       *int64    `json:"sessionId,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// CreateBookingRequest represents a student booking a trainer
type CreateBookingRequest struct {
	TrainerID     int64  `json:"trainerId" binding:"required,min=1"`
	AmountCents   int64  `json:"amountCents" binding:"required,min=1"`
	Currency      string `json:"currency" binding:"omitempty,len=3"`
	PaymentMethod string `json:"paymentMethod" binding:"omitempty,oneof=card demo"`
}

// ConfirmPaymentRequest marks a booking's payment outcome from the client
// confirmation path. The webhook path may have landed first; both converge.
type ConfirmPaymentRequest struct {
	PaymentIntentID string `json:"paymentIntentId" binding:"required"`
	Status          string `json:"status" binding:"required,oneof=completed failed"`
}

// IsTerminalPaymentStatus reports whether a payment status admits no further transitions
func IsTerminalPaymentStatus(status string) bool {
	return status == PaymentCompleted || status == PaymentFailed
}
