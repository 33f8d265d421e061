package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tutorhub/tutorhub-api/internal/models"
	apperrors "github.com/tutorhub/tutorhub-api/pkg/errors"
	"github.com/tutorhub/tutorhub-api/pkg/metrics"
)

// SessionRepository handles lesson session data access
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

const sessionColumns = `id, trainer_id, scheduled_at, duration_min, status, meeting_link, created_at, updated_at`

func scanSession(row pgx.Row) (*models.Session, error) {
	var s models.Session
	err := row.Scan(
		&s.ID, &s.TrainerID, &s.ScheduledAt, &s.DurationMin, &s.Status, &s.MeetingLink,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateWithBookings atomically creates the session and binds every listed
// booking to it. The bookings are locked FOR UPDATE so a concurrent attempt to
// bind the same booking blocks until this transaction settles; any booking
// that is unpaid, already bound, or owned by another trainer aborts the whole
// transaction.
func (r *SessionRepository) CreateWithBookings(ctx context.Context, trainerID int64, meetingLink string, req *models.CreateSessionRequest) (*models.Session, error) {
	start := time.Now()
	operation := "createSession"

	duration := req.DurationMin
	if duration == 0 {
		duration = 60
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	rows, err := tx.Query(ctx, `
		SELECT id, trainer_id, student_id, payment_status, session_id
		FROM bookings
		WHERE id = ANY($1)
		FOR UPDATE
	`, req.BookingIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to lock bookings: %w", err)
	}

	type lockedBooking struct {
		id, trainerID, studentID int64
		paymentStatus            string
		sessionID                *int64
	}

	locked := make(map[int64]lockedBooking, len(req.BookingIDs))
	for rows.Next() {
		var b lockedBooking
		if err := rows.Scan(&b.id, &b.trainerID, &b.studentID, &b.paymentStatus, &b.sessionID); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan locked booking: %w", err)
		}
		locked[b.id] = b
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating locked bookings: %w", err)
	}

	studentIDs := make([]int64, 0, len(req.BookingIDs))
	for _, bookingID := range req.BookingIDs {
		b, ok := locked[bookingID]
		if !ok {
			return nil, apperrors.NotFoundError("booking")
		}
		if b.trainerID != trainerID {
			return nil, models.ErrBookingWrongTrainer
		}
		if b.paymentStatus != models.PaymentCompleted {
			return nil, models.ErrBookingNotPaid
		}
		if b.sessionID != nil {
			return nil, models.ErrBookingAlreadyBound
		}
		studentIDs = append(studentIDs, b.studentID)
	}

	session, err := scanSession(tx.QueryRow(ctx, `
		INSERT INTO sessions (trainer_id, scheduled_at, duration_min, meeting_link)
		VALUES ($1, $2, $3, $4)
		RETURNING `+sessionColumns, trainerID, req.ScheduledAt, duration, meetingLink))
	if err != nil {
		return nil, fmt.Errorf("failed to insert session: %w", err)
	}

	// A student may hold several bookings in one session but is one
	// participant; the booking-level link is bookings.session_id.
	participants := uniqueStudentIDs(studentIDs)
	for _, studentID := range participants {
		if _, err := tx.Exec(ctx, `
			INSERT INTO session_students (session_id, student_id)
			VALUES ($1, $2)
		`, session.ID, studentID); err != nil {
			return nil, fmt.Errorf("failed to add session participant %d: %w", studentID, err)
		}
	}
	for _, bookingID := range req.BookingIDs {
		if _, err := tx.Exec(ctx, `
			UPDATE bookings SET session_id = $2, updated_at = now() WHERE id = $1
		`, bookingID, session.ID); err != nil {
			return nil, fmt.Errorf("failed to stamp booking %d: %w", bookingID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		recordMetrics(operation, "error", metrics.MeasureDuration(start))
		return nil, fmt.Errorf("failed to commit session creation: %w", err)
	}

	session.StudentIDs = participants
	recordMetrics(operation, "success", metrics.MeasureDuration(start))
	return session, nil
}

// uniqueStudentIDs collapses duplicate student ids, keeping first-seen order
func uniqueStudentIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	unique := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	return unique
}

// GetByID fetches a session with its participant list
func (r *SessionRepository) GetByID(ctx context.Context, id int64) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`

	session, err := scanSession(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFoundError("session")
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT student_id FROM session_students WHERE session_id = $1 ORDER BY student_id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query session students: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var studentID int64
		if err := rows.Scan(&studentID); err != nil {
			return nil, fmt.Errorf("failed to scan session student: %w", err)
		}
		session.StudentIDs = append(session.StudentIDs, studentID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating session students: %w", err)
	}
	return session, nil
}

// ListByTrainer returns the trainer's sessions, soonest first
func (r *SessionRepository) ListByTrainer(ctx context.Context, trainerID int64) ([]*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE trainer_id = $1 ORDER BY scheduled_at`

	rows, err := r.pool.Query(ctx, query, trainerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]*models.Session, 0)
	for rows.Next() {
		session, scanErr := scanSession(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", scanErr)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating session rows: %w", err)
	}
	return sessions, nil
}

// UpdateStatusIfCurrent transitions session status with an optimistic guard
// on the expected current status
func (r *SessionRepository) UpdateStatusIfCurrent(ctx context.Context, sessionID int64, current, target string) (bool, error) {
	query := `
		UPDATE sessions
		SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2
	`

	tag, err := r.pool.Exec(ctx, query, sessionID, current, target)
	if err != nil {
		return false, fmt.Errorf("failed to transition session status: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// GetParticipation reports the session status, its trainer, and whether the
// student attended
func (r *SessionRepository) GetParticipation(ctx context.Context, sessionID, studentID int64) (*Participation, error) {
	query := `
		SELECT s.status, s.trainer_id,
			EXISTS(SELECT 1 FROM session_students ss
				WHERE ss.session_id = s.id AND ss.student_id = $2) AS is_participant
		FROM sessions s
		WHERE s.id = $1
	`

	var p Participation
	err := r.pool.QueryRow(ctx, query, sessionID, studentID).Scan(&p.SessionStatus, &p.TrainerID, &p.IsParticipant)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFoundError("session")
		}
		return nil, fmt.Errorf("failed to check session participation: %w", err)
	}
	return &p, nil
}
