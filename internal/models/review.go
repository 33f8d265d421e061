package models

import "time"

// DefaultRating is shown for trainers with no reviews yet
const DefaultRating = 5.0

// Review represents a student's review of a completed session. BookingID
// optionally ties the review to the booking it grew out of.
type Review struct {
	ID        int64     `json:"id"`
	StudentID int64     `json:"studentId"`
	TrainerID int64     `json:"trainerId"`
	SessionID int64     `json:"sessionId"`
	BookingID *int64    `json:"bookingId,omitempty"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SubmitReviewRequest represents a review form submission from a student
type SubmitReviewRequest struct {
	SessionID int64  `json:"sessionId" binding:"required,min=1"`
	BookingID *int64 `json:"bookingId" binding:"omitempty,min=1"`
	Rating    int    `json:"rating" binding:"required,min=1,max=5"`
	Comment   string `json:"comment" binding:"max=5000"`
}

// UpdateReviewRequest edits a previously submitted review
type UpdateReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"max=5000"`
}

// SubmitReviewResponse represents the response after submitting a review
type SubmitReviewResponse struct {
	Success  bool    `json:"success"`
	ReviewID int64   `json:"reviewId,omitempty"`
	NewAvg   float64 `json:"newAvg,omitempty"`
}
