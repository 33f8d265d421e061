package models

import "time"

// Webhook event kinds recognized by the payment provider integration
const (
	WebhookPaymentSucceeded = "payment_intent.succeeded"
	WebhookPaymentFailed    = "payment_intent.payment_failed"
)

// PaymentIntent represents a provider-side payment intent
type PaymentIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"clientSecret"`
	AmountCents  int64  `json:"amountCents"`
	Currency     string `json:"currency"`
	Status       string `json:"status"`
}

// CreatePaymentIntentRequest represents the client asking for a payment intent
type CreatePaymentIntentRequest struct {
	BookingID int64 `json:"bookingId" binding:"required,min=1"`
}

// CreatePaymentIntentResponse carries the client secret back to the frontend
type CreatePaymentIntentResponse struct {
	Success      bool   `json:"success"`
	IntentID     string `json:"intentId"`
	ClientSecret string `json:"clientSecret"`
	Demo         bool   `json:"demo,omitempty"`
}

// WebhookEvent is a verified, parsed provider event
type WebhookEvent struct {
	ID              string    `json:"id"`
	Kind            string    `json:"kind"`
	PaymentIntentID string    `json:"paymentIntentId"`
	CreatedAt       time.Time `json:"createdAt"`
}

// WebhookResponse acknowledges receipt of a provider event
type WebhookResponse struct {
	Received bool `json:"received"`
}
