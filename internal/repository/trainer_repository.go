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

// TrainerRepository handles trainer profile data access
type TrainerRepository struct {
	pool *pgxpool.Pool
}

// NewTrainerRepository creates a new trainer repository
func NewTrainerRepository(pool *pgxpool.Pool) *TrainerRepository {
	return &TrainerRepository{pool: pool}
}

const trainerColumns = `
	tp.id, tp.user_id, u.name, u.email, tp.bio, tp.specialties, tp.hourly_rate_cents,
	tp.verification_status, tp.rejection_date, tp.avg_rating, tp.review_count,
	tp.created_at, tp.updated_at`

func scanTrainer(row pgx.Row) (*models.TrainerProfile, error) {
	var t models.TrainerProfile
	err := row.Scan(
		&t.ID, &t.UserID, &t.Name, &t.Email, &t.Bio, &t.Specialties, &t.HourlyRateCents,
		&t.VerificationStatus, &t.RejectionDate, &t.AvgRating, &t.ReviewCount,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateProfile inserts a pending trainer profile for the user
func (r *TrainerRepository) CreateProfile(ctx context.Context, userID int64, req *models.ApplyTrainerRequest) (*models.TrainerProfile, error) {
	start := time.Now()
	operation := "createTrainerProfile"

	query := `
		WITH inserted AS (
			INSERT INTO trainer_profiles (user_id, bio, specialties, hourly_rate_cents)
			VALUES ($1, $2, $3, $4)
			RETURNING *
		)
		SELECT ` + trainerColumns + `
		FROM inserted tp
		JOIN users u ON u.id = tp.user_id
	`

	trainer, err := scanTrainer(r.pool.QueryRow(ctx, query, userID, req.Bio, req.Specialties, req.HourlyRateCents))
	duration := metrics.MeasureDuration(start)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			recordMetrics(operation, "conflict", duration)
			return nil, apperrors.ConflictError("trainer profile already exists")
		}
		recordMetrics(operation, "error", duration)
		return nil, fmt.Errorf("failed to create trainer profile: %w", err)
	}

	recordMetrics(operation, "success", duration)
	return trainer, nil
}

// GetByID fetches a trainer profile by ID
func (r *TrainerRepository) GetByID(ctx context.Context, id int64) (*models.TrainerProfile, error) {
	query := `SELECT ` + trainerColumns + `
		FROM trainer_profiles tp JOIN users u ON u.id = tp.user_id
		WHERE tp.id = $1`

	trainer, err := scanTrainer(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFoundError("trainer")
		}
		return nil, fmt.Errorf("failed to get trainer: %w", err)
	}
	return trainer, nil
}

// GetByUserID fetches a trainer profile by its owning user
func (r *TrainerRepository) GetByUserID(ctx context.Context, userID int64) (*models.TrainerProfile, error) {
	query := `SELECT ` + trainerColumns + `
		FROM trainer_profiles tp JOIN users u ON u.id = tp.user_id
		WHERE tp.user_id = $1`

	trainer, err := scanTrainer(r.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFoundError("trainer")
		}
		return nil, fmt.Errorf("failed to get trainer by user: %w", err)
	}
	return trainer, nil
}

// ListVerified fetches all verified trainers ordered by rating
func (r *TrainerRepository) ListVerified(ctx context.Context) ([]*models.TrainerProfile, error) {
	start := time.Now()
	operation := "listVerifiedTrainers"

	query := `SELECT ` + trainerColumns + `
		FROM trainer_profiles tp JOIN users u ON u.id = tp.user_id
		WHERE tp.verification_status = 'verified'
		ORDER BY tp.avg_rating DESC, tp.review_count DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		recordMetrics(operation, "error", metrics.MeasureDuration(start))
		return nil, fmt.Errorf("failed to query verified trainers: %w", err)
	}
	defer rows.Close()

	trainers := make([]*models.TrainerProfile, 0)
	for rows.Next() {
		trainer, scanErr := scanTrainer(rows)
		if scanErr != nil {
			recordMetrics(operation, "error", metrics.MeasureDuration(start))
			return nil, fmt.Errorf("failed to scan trainer row: %w", scanErr)
		}
		trainers = append(trainers, trainer)
	}
	if err := rows.Err(); err != nil {
		recordMetrics(operation, "error", metrics.MeasureDuration(start))
		return nil, fmt.Errorf("error iterating trainer rows: %w", err)
	}

	recordMetrics(operation, "success", metrics.MeasureDuration(start))
	return trainers, nil
}

// UpdateStatusIfCurrent transitions verification status with an optimistic
// guard on the expected current status
func (r *TrainerRepository) UpdateStatusIfCurrent(ctx context.Context, trainerID int64, current, target string, rejectionDate *time.Time) (bool, error) {
	query := `
		UPDATE trainer_profiles
		SET verification_status = $3, rejection_date = $4, updated_at = now()
		WHERE id = $1 AND verification_status = $2
	`

	tag, err := r.pool.Exec(ctx, query, trainerID, current, target, rejectionDate)
	if err != nil {
		return false, fmt.Errorf("failed to transition verification status: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Reapply moves a rejected profile back to pending with refreshed application
// details. The status guard keeps it a no-op for non-rejected profiles.
func (r *TrainerRepository) Reapply(ctx context.Context, trainerID int64, req *models.ApplyTrainerRequest) (bool, error) {
	query := `
		UPDATE trainer_profiles
		SET verification_status = 'pending', rejection_date = NULL,
			bio = $2, specialties = $3, hourly_rate_cents = $4, updated_at = now()
		WHERE id = $1 AND verification_status = 'rejected'
	`

	tag, err := r.pool.Exec(ctx, query, trainerID, req.Bio, req.Specialties, req.HourlyRateCents)
	if err != nil {
		return false, fmt.Errorf("failed to reapply trainer profile: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// SetStatus force-sets the verification status (admin override path)
func (r *TrainerRepository) SetStatus(ctx context.Context, trainerID int64, target string, rejectionDate *time.Time) error {
	query := `
		UPDATE trainer_profiles
		SET verification_status = $2, rejection_date = $3, updated_at = now()
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, trainerID, target, rejectionDate)
	if err != nil {
		return fmt.Errorf("failed to set verification status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFoundError("trainer")
	}
	return nil
}
