package repository

import (
	"context"
	"time"

	"github.com/tutorhub/tutorhub-api/internal/models"
)

// UserStore defines user account persistence
type UserStore interface {
	Create(ctx context.Context, email, passwordHash, name, role string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
}

// PasswordResetStore defines password reset token persistence
type PasswordResetStore interface {
	CreateToken(ctx context.Context, userID int64, tokenHash string, expiresAt time.Time) error
	// ConsumeToken marks the token used and returns its owner. A token can be
	// consumed at most once and only before expiry.
	ConsumeToken(ctx context.Context, tokenHash string) (userID int64, err error)
}

// TrainerStore defines trainer profile persistence
type TrainerStore interface {
	CreateProfile(ctx context.Context, userID int64, req *models.ApplyTrainerRequest) (*models.TrainerProfile, error)
	GetByID(ctx context.Context, id int64) (*models.TrainerProfile, error)
	GetByUserID(ctx context.Context, userID int64) (*models.TrainerProfile, error)
	ListVerified(ctx context.Context) ([]*models.TrainerProfile, error)
	// UpdateStatusIfCurrent transitions verification_status only when the row
	// still holds the expected current status. Returns false when the guard
	// did not match (somebody else transitioned first).
	UpdateStatusIfCurrent(ctx context.Context, trainerID int64, current, target string, rejectionDate *time.Time) (bool, error)
	// Reapply resets a rejected profile back to pending with refreshed details
	Reapply(ctx context.Context, trainerID int64, req *models.ApplyTrainerRequest) (bool, error)
	// SetStatus force-sets the status regardless of the current value (admin override)
	SetStatus(ctx context.Context, trainerID int64, target string, rejectionDate *time.Time) error
}

// VerificationAuditStore records verification decisions
type VerificationAuditStore interface {
	Record(ctx context.Context, trainerID int64, action, actor, notes string) error
	ListByTrainer(ctx context.Context, trainerID int64) ([]*models.VerificationAuditEntry, error)
}

// BookingStore defines booking persistence
type BookingStore interface {
	Create(ctx context.Context, studentID int64, req *models.CreateBookingRequest) (*models.Booking, error)
	GetByID(ctx context.Context, id int64) (*models.Booking, error)
	GetByPaymentIntentID(ctx context.Context, intentID string) (*models.Booking, error)
	SetPaymentIntentID(ctx context.Context, bookingID int64, intentID string) error
	// TransitionPaymentIfPending moves payment_status from pending to target.
	// Returns the status after the call and whether this call applied the
	// change; a no-op against an already-final status is not an error.
	TransitionPaymentIfPending(ctx context.Context, bookingID int64, target string) (applied bool, current string, err error)
	ListByStudent(ctx context.Context, studentID int64) ([]*models.Booking, error)
	ListByTrainer(ctx context.Context, trainerID int64) ([]*models.Booking, error)
}

// SessionStore defines lesson session persistence
type SessionStore interface {
	// CreateWithBookings atomically creates the session and binds every listed
	// booking to it. All bookings must be completed-paid, unbound, and belong
	// to the trainer, or nothing is created.
	CreateWithBookings(ctx context.Context, trainerID int64, meetingLink string, req *models.CreateSessionRequest) (*models.Session, error)
	GetByID(ctx context.Context, id int64) (*models.Session, error)
	ListByTrainer(ctx context.Context, trainerID int64) ([]*models.Session, error)
	// UpdateStatusIfCurrent transitions session status only when the row still
	// holds the expected current status
	UpdateStatusIfCurrent(ctx context.Context, sessionID int64, current, target string) (bool, error)
	// GetParticipation reports the session status, owning trainer, and whether
	// the student attended. Used to gate review submission.
	GetParticipation(ctx context.Context, sessionID, studentID int64) (*Participation, error)
}

// Participation describes a student's relation to a session
type Participation struct {
	SessionStatus string
	TrainerID     int64
	IsParticipant bool
}

// ReviewStore defines review persistence and rating aggregation
type ReviewStore interface {
	// CreateAndRecompute inserts the review and recomputes the trainer's
	// aggregate rating in one transaction, serialized per trainer.
	CreateAndRecompute(ctx context.Context, review *models.Review) (reviewID int64, newAvg float64, err error)
	// UpdateAndRecompute edits an existing review owned by the student and
	// recomputes the aggregate without double counting.
	UpdateAndRecompute(ctx context.Context, reviewID, studentID int64, rating int, comment string) (newAvg float64, err error)
	// DeleteAndRecompute removes the student's own review and rebuilds the
	// aggregate from the remaining reviews.
	DeleteAndRecompute(ctx context.Context, reviewID, studentID int64) (newAvg float64, err error)
	GetByID(ctx context.Context, id int64) (*models.Review, error)
	GetByStudentAndSession(ctx context.Context, studentID, sessionID int64) (*models.Review, error)
	ListByTrainer(ctx context.Context, trainerID int64) ([]*models.Review, error)
}
