package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tutorhub/tutorhub-api/internal/models"
)

// VerificationAuditRepository records trainer verification decisions
type VerificationAuditRepository struct {
	pool *pgxpool.Pool
}

// NewVerificationAuditRepository creates a new verification audit repository
func NewVerificationAuditRepository(pool *pgxpool.Pool) *VerificationAuditRepository {
	return &VerificationAuditRepository{pool: pool}
}

// Record appends an audit entry for a trainer
func (r *VerificationAuditRepository) Record(ctx context.Context, trainerID int64, action, actor, notes string) error {
	query := `
		INSERT INTO verification_audit (trainer_id, action, actor, notes)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.pool.Exec(ctx, query, trainerID, action, actor, notes); err != nil {
		return fmt.Errorf("failed to record verification audit: %w", err)
	}
	return nil
}

// ListByTrainer returns audit entries for a trainer, newest first
func (r *VerificationAuditRepository) ListByTrainer(ctx context.Context, trainerID int64) ([]*models.VerificationAuditEntry, error) {
	query := `
		SELECT id, trainer_id, action, actor, notes, created_at
		FROM verification_audit
		WHERE trainer_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, trainerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query verification audit: %w", err)
	}
	defer rows.Close()

	entries := make([]*models.VerificationAuditEntry, 0)
	for rows.Next() {
		var e models.VerificationAuditEntry
		if err := rows.Scan(&e.ID, &e.TrainerID, &e.Action, &e.Actor, &e.Notes, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit row: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit rows: %w", err)
	}
	return entries, nil
}
