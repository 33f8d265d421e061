package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tutorhub/tutorhub-api/internal/models"
	apperrors "github.com/tutorhub/tutorhub-api/pkg/errors"
	"github.com/tutorhub/tutorhub-api/pkg/metrics"
)

// ReviewRepository handles review data access and trainer rating aggregation
type ReviewRepository struct {
	pool *pgxpool.Pool
}

// NewReviewRepository creates a new review repository
func NewReviewRepository(pool *pgxpool.Pool) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

const reviewColumns = `id, student_id, trainer_id, session_id, booking_id, rating, comment, created_at, updated_at`

func scanReview(row pgx.Row) (*models.Review, error) {
	var rv models.Review
	err := row.Scan(
		&rv.ID, &rv.StudentID, &rv.TrainerID, &rv.SessionID, &rv.BookingID, &rv.Rating, &rv.Comment,
		&rv.CreatedAt, &rv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rv, nil
}

// CreateAndRecompute inserts the review and recomputes the trainer's aggregate
// rating in one transaction. An advisory lock on the trainer serializes
// concurrent submissions so the read-all-then-average step never works from a
// stale snapshot. Duplicate (student, session) pairs hit the unique constraint.
func (r *ReviewRepository) CreateAndRecompute(ctx context.Context, review *models.Review) (int64, float64, error) {
	start := time.Now()
	operation := "createReview"

	var reviewID int64
	var newAvg float64

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := acquireTrainerLock(ctx, tx, review.TrainerID); err != nil {
			return err
		}

		err := tx.QueryRow(ctx, `
			INSERT INTO reviews (student_id, trainer_id, session_id, booking_id, rating, comment)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`, review.StudentID, review.TrainerID, review.SessionID, review.BookingID, review.Rating, review.Comment).Scan(&reviewID)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return models.ErrReviewAlreadyExists
			}
			return fmt.Errorf("failed to insert review: %w", err)
		}

		newAvg, err = recomputeRating(ctx, tx, review.TrainerID)
		return err
	})

	duration := metrics.MeasureDuration(start)
	if err != nil {
		recordMetrics(operation, "error", duration)
		return 0, 0, err
	}

	recordMetrics(operation, "success", duration)
	metrics.RatingRecomputeDuration.Observe(duration)
	return reviewID, newAvg, nil
}

// UpdateAndRecompute edits an existing review owned by the student and
// recomputes the aggregate. The old rating is replaced, never double counted,
// because the average is always rebuilt from the full review set.
func (r *ReviewRepository) UpdateAndRecompute(ctx context.Context, reviewID, studentID int64, rating int, comment string) (float64, error) {
	start := time.Now()
	operation := "updateReview"

	var newAvg float64

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var trainerID int64
		err := tx.QueryRow(ctx, `
			SELECT trainer_id FROM reviews WHERE id = $1 AND student_id = $2
		`, reviewID, studentID).Scan(&trainerID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NotFoundError("review")
			}
			return fmt.Errorf("failed to load review for update: %w", err)
		}

		if err := acquireTrainerLock(ctx, tx, trainerID); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `
			UPDATE reviews SET rating = $2, comment = $3, updated_at = now() WHERE id = $1
		`, reviewID, rating, comment); err != nil {
			return fmt.Errorf("failed to update review: %w", err)
		}

		newAvg, err = recomputeRating(ctx, tx, trainerID)
		return err
	})

	duration := metrics.MeasureDuration(start)
	if err != nil {
		recordMetrics(operation, "error", duration)
		return 0, err
	}

	recordMetrics(operation, "success", duration)
	metrics.RatingRecomputeDuration.Observe(duration)
	return newAvg, nil
}

// DeleteAndRecompute removes a review owned by the student and recomputes the
// aggregate from the remaining reviews. Deleting the last review returns the
// trainer to the default rating.
func (r *ReviewRepository) DeleteAndRecompute(ctx context.Context, reviewID, studentID int64) (float64, error) {
	start := time.Now()
	operation := "deleteReview"

	var newAvg float64

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var trainerID int64
		err := tx.QueryRow(ctx, `
			SELECT trainer_id FROM reviews WHERE id = $1 AND student_id = $2
		`, reviewID, studentID).Scan(&trainerID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NotFoundError("review")
			}
			return fmt.Errorf("failed to load review for delete: %w", err)
		}

		if err := acquireTrainerLock(ctx, tx, trainerID); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, reviewID); err != nil {
			return fmt.Errorf("failed to delete review: %w", err)
		}

		newAvg, err = recomputeRating(ctx, tx, trainerID)
		return err
	})

	duration := metrics.MeasureDuration(start)
	if err != nil {
		recordMetrics(operation, "error", duration)
		return 0, err
	}

	recordMetrics(operation, "success", duration)
	metrics.RatingRecomputeDuration.Observe(duration)
	return newAvg, nil
}

// acquireTrainerLock takes a transaction-scoped advisory lock keyed by trainer
// ID. Released automatically at commit or rollback.
func acquireTrainerLock(ctx context.Context, tx pgx.Tx, trainerID int64) error {
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, trainerID); err != nil {
		return fmt.Errorf("failed to acquire trainer lock: %w", err)
	}
	return nil
}

// recomputeRating reads every rating for the trainer and stores the mean
// rounded to one decimal. Trainers with no reviews keep the default rating.
func recomputeRating(ctx context.Context, tx pgx.Tx, trainerID int64) (float64, error) {
	rows, err := tx.Query(ctx, `SELECT rating FROM reviews WHERE trainer_id = $1`, trainerID)
	if err != nil {
		return 0, fmt.Errorf("failed to read ratings: %w", err)
	}
	defer rows.Close()

	ratings := make([]int, 0, 16)
	for rows.Next() {
		var rating int
		if err := rows.Scan(&rating); err != nil {
			return 0, fmt.Errorf("failed to scan rating: %w", err)
		}
		ratings = append(ratings, rating)
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("error iterating ratings: %w", err)
	}

	avg := AverageRating(ratings)

	if _, err := tx.Exec(ctx, `
		UPDATE trainer_profiles SET avg_rating = $2, review_count = $3, updated_at = now() WHERE id = $1
	`, trainerID, avg, len(ratings)); err != nil {
		return 0, fmt.Errorf("failed to store aggregate rating: %w", err)
	}
	return avg, nil
}

// AverageRating computes the mean rating rounded to one decimal. An empty set
// yields the default rating shown for unreviewed trainers.
func AverageRating(ratings []int) float64 {
	if len(ratings) == 0 {
		return models.DefaultRating
	}
	var sum int
	for _, r := range ratings {
		sum += r
	}
	return math.Round(float64(sum)/float64(len(ratings))*10) / 10
}

// GetByID fetches a review by ID
func (r *ReviewRepository) GetByID(ctx context.Context, id int64) (*models.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1`

	review, err := scanReview(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFoundError("review")
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return review, nil
}

// GetByStudentAndSession fetches the student's review of a session, if any
func (r *ReviewRepository) GetByStudentAndSession(ctx context.Context, studentID, sessionID int64) (*models.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE student_id = $1 AND session_id = $2`

	review, err := scanReview(r.pool.QueryRow(ctx, query, studentID, sessionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFoundError("review")
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return review, nil
}

// ListByTrainer returns the trainer's reviews, newest first
func (r *ReviewRepository) ListByTrainer(ctx context.Context, trainerID int64) ([]*models.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE trainer_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, trainerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer rows.Close()

	reviews := make([]*models.Review, 0)
	for rows.Next() {
		review, scanErr := scanReview(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan review row: %w", scanErr)
		}
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating review rows: %w", err)
	}
	return reviews, nil
}
