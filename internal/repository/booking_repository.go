package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tutorhub/tutorhub-api/internal/models"
	apperrors "github.com/tutorhub/tutorhub-api/pkg/errors"
	"github.com/tutorhub/tutorhub-api/pkg/metrics"
)

// BookingRepository handles booking data access
type BookingRepository struct {
	pool *pgxpool.Pool
}

// NewBookingRepository creates a new booking repository
func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

const bookingColumns = `id, student_id, trainer_id, amount_cents, currency, payment_method,
	payment_status, COALESCE(payment_intent_id, ''), session_id, created_at, updated_at`

func scanBooking(row pgx.Row) (*models.Booking, error) {
	var b models.Booking
	err := row.Scan(
		&b.ID, &b.StudentID, &b.TrainerID, &b.AmountCents, &b.Currency, &b.PaymentMethod,
		&b.PaymentStatus, &b.PaymentIntentID, &b.SessionID, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Create inserts a new pending booking
func (r *BookingRepository) Create(ctx context.Context, studentID int64, req *models.CreateBookingRequest) (*models.Booking, error) {
	start := time.Now()
	operation := "createBooking"

	currency := req.Currency
	if currency == "" {
		currency = "usd"
	}
	method := req.PaymentMethod
	if method == "" {
		method = models.PaymentMethodCard
	}

	query := `
		INSERT INTO bookings (student_id, trainer_id, amount_cents, currency, payment_method)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + bookingColumns

	booking, err := scanBooking(r.pool.QueryRow(ctx, query, studentID, req.TrainerID, req.AmountCents, currency, method))
	duration := metrics.MeasureDuration(start)
	if err != nil {
		recordMetrics(operation, "error", duration)
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, apperrors.NotFoundError("trainer")
		}
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	recordMetrics(operation, "success", duration)
	return booking, nil
}

// GetByID fetches a booking by ID
func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFoundError("booking")
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

// GetByPaymentIntentID fetches a booking by its payment intent
func (r *BookingRepository) GetByPaymentIntentID(ctx context.Context, intentID string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE payment_intent_id = $1`

	booking, err := scanBooking(r.pool.QueryRow(ctx, query, intentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFoundError("booking")
		}
		return nil, fmt.Errorf("failed to get booking by intent: %w", err)
	}
	return booking, nil
}

// SetPaymentIntentID attaches a payment intent to a booking. A booking keeps
// its first intent; re-attaching a different one is a conflict.
func (r *BookingRepository) SetPaymentIntentID(ctx context.Context, bookingID int64, intentID string) error {
	query := `
		UPDATE bookings
		SET payment_intent_id = $2, updated_at = now()
		WHERE id = $1 AND (payment_intent_id IS NULL OR payment_intent_id = $2)
	`

	tag, err := r.pool.Exec(ctx, query, bookingID, intentID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperrors.ConflictError("payment intent is attached to another booking")
		}
		return fmt.Errorf("failed to set payment intent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ConflictError("booking already has a different payment intent")
	}
	return nil
}

// TransitionPaymentIfPending moves payment_status from pending to target.
// The guarded UPDATE makes the transition idempotent and race-safe: the first
// writer wins, later callers see applied=false with the settled status.
func (r *BookingRepository) TransitionPaymentIfPending(ctx context.Context, bookingID int64, target string) (bool, string, error) {
	if target != models.PaymentCompleted && target != models.PaymentFailed {
		return false, "", fmt.Errorf("invalid payment status target %q", target)
	}

	query := `
		UPDATE bookings
		SET payment_status = $2, updated_at = now()
		WHERE id = $1 AND payment_status = 'pending'
	`

	tag, err := r.pool.Exec(ctx, query, bookingID, target)
	if err != nil {
		return false, "", fmt.Errorf("failed to transition payment status: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return true, target, nil
	}

	var current string
	err = r.pool.QueryRow(ctx, `SELECT payment_status FROM bookings WHERE id = $1`, bookingID).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, "", apperrors.NotFoundError("booking")
		}
		return false, "", fmt.Errorf("failed to read payment status: %w", err)
	}
	return false, current, nil
}

// ListByStudent returns the student's bookings, newest first
func (r *BookingRepository) ListByStudent(ctx context.Context, studentID int64) ([]*models.Booking, error) {
	return r.list(ctx, `student_id`, studentID)
}

// ListByTrainer returns the trainer's bookings, newest first
func (r *BookingRepository) ListByTrainer(ctx context.Context, trainerID int64) ([]*models.Booking, error) {
	return r.list(ctx, `trainer_id`, trainerID)
}

func (r *BookingRepository) list(ctx context.Context, column string, id int64) ([]*models.Booking, error) {
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE %s = $1 ORDER BY created_at DESC`, bookingColumns, column)

	rows, err := r.pool.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]*models.Booking, 0)
	for rows.Next() {
		booking, scanErr := scanBooking(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan booking row: %w", scanErr)
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating booking rows: %w", err)
	}
	return bookings, nil
}
