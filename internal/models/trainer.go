package models

import "time"

// Trainer verification statuses
const (
	VerificationPending  = "pending"
	VerificationVerified = "verified"
	VerificationRejected = "rejected"
)

// Verification decision actions carried by signed decision links
const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

// TrainerProfile represents a trainer in the marketplace
type TrainerProfile struct {
	ID                 int64      `json:"id"`
	UserID             int64      `json:"userId"`
	Name               string     `json:"name"`
	Email              string     `json:"email"`
	Bio                string     `json:"bio"`
	Specialties        []string   `json:"specialties"`
	HourlyRateCents    int64      `json:"hourlyRateCents"`
	VerificationStatus string     `json:"verificationStatus"`
	RejectionDate      *time.Time `json:"rejectionDate,omitempty"`
	AvgRating          float64    `json:"avgRating"`
	ReviewCount        int        `json:"reviewCount"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// PublicTrainerResponse is the listing shape exposed to students
type PublicTrainerResponse struct {
	ID              int64    `json:"id"`
	Name            string   `json:"name"`
	Bio             string   `json:"bio"`
	Specialties     []string `json:"specialties"`
	HourlyRateCents int64    `json:"hourlyRateCents"`
	AvgRating       float64  `json:"avgRating"`
	ReviewCount     int      `json:"reviewCount"`
}

// ToPublicResponse converts a TrainerProfile to its public listing shape
func (t *TrainerProfile) ToPublicResponse() PublicTrainerResponse {
	return PublicTrainerResponse{
		ID:              t.ID,
		Name:            t.Name,
		Bio:             t.Bio,
		Specialties:     t.Specialties,
		HourlyRateCents: t.HourlyRateCents,
		AvgRating:       t.AvgRating,
		ReviewCount:     t.ReviewCount,
	}
}

// ApplyTrainerRequest represents a trainer application (initial or re-application)
type ApplyTrainerRequest struct {
	Bio             string   `json:"bio" binding:"required,min=10,max=5000"`
	Specialties     []string `json:"specialties" binding:"required,min=1,max=20,dive,min=2,max=100"`
	HourlyRateCents int64    `json:"hourlyRateCents" binding:"required,min=0"`
}

// VerificationDecisionResult reports the outcome of opening a decision link
type VerificationDecisionResult struct {
	TrainerID   int64  `json:"trainerId"`
	TrainerName string `json:"trainerName"`
	Action      string `json:"action"`
	NewStatus   string `json:"newStatus"`
}

// OverrideVerificationRequest is an admin manual status change with an audit note
type OverrideVerificationRequest struct {
	Status string `json:"status" binding:"required,oneof=pending verified rejected"`
	Notes  string `json:"notes" binding:"required,min=5,max=2000"`
}

// VerificationAuditEntry records a verification decision for a trainer
type VerificationAuditEntry struct {
	ID        int64     `json:"id"`
	TrainerID int64     `json:"trainerId"`
	Action    string    `json:"action"`
	Actor     string    `json:"actor"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"createdAt"`
}
