package models

import "time"

// Session statuses. Forward-only: scheduled -> active -> completed.
const (
	SessionScheduled = "scheduled"
	SessionActive    = "active"
	SessionCompleted = "completed"
)

// Session represents a scheduled training session
type Session struct {
	ID          int64     `json:"id"`
	TrainerID   int64     `json:"trainerId"`
	ScheduledAt time.Time `json:"scheduledAt"`
	DurationMin int       `json:"durationMin"`
	Status      string    `json:"status"`
	MeetingLink string    `json:"meetingLink"`
	StudentIDs  []int64   `json:"studentIds,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CreateSessionRequest schedules a session bound to one or more paid bookings
type CreateSessionRequest struct {
	ScheduledAt time.Time `json:"scheduledAt" binding:"required"`
	DurationMin int       `json:"durationMin" binding:"omitempty,min=15,max=480"`
	BookingIDs  []int64   `json:"bookingIds" binding:"required,min=1,max=50,dive,min=1"`
}

// UpdateSessionStatusRequest advances a session through its lifecycle
type UpdateSessionStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active completed"`
}

// ValidSessionTransition reports whether a session may move from one status to another
func ValidSessionTransition(from, to string) bool {
	switch from {
	case SessionScheduled:
		return to == SessionActive
	case SessionActive:
		return to == SessionCompleted
	default:
		return false
	}
}
