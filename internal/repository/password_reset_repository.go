package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "github.com/tutorhub/tutorhub-api/pkg/errors"
)

// PasswordResetRepository handles password reset token data access.
// Only token hashes are stored; the raw token travels in the reset email.
type PasswordResetRepository struct {
	pool *pgxpool.Pool
}

// NewPasswordResetRepository creates a new password reset repository
func NewPasswordResetRepository(pool *pgxpool.Pool) *PasswordResetRepository {
	return &PasswordResetRepository{pool: pool}
}

// CreateToken stores a new reset token hash for the user
func (r *PasswordResetRepository) CreateToken(ctx context.Context, userID int64, tokenHash string, expiresAt time.Time) error {
	query := `
		INSERT INTO password_reset_tokens (user_id, token_hash, expires_at)
		VALUES ($1, $2, $3)
	`
	if _, err := r.pool.Exec(ctx, query, userID, tokenHash, expiresAt); err != nil {
		return fmt.Errorf("failed to create reset token: %w", err)
	}
	return nil
}

// ConsumeToken marks the token used and returns its owner. The guarded UPDATE
// makes the token single-use even under concurrent redemption attempts.
func (r *PasswordResetRepository) ConsumeToken(ctx context.Context, tokenHash string) (int64, error) {
	query := `
		UPDATE password_reset_tokens
		SET used_at = now()
		WHERE token_hash = $1 AND used_at IS NULL AND expires_at > now()
		RETURNING user_id
	`

	var userID int64
	err := r.pool.QueryRow(ctx, query, tokenHash).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperrors.NotFoundError("reset token")
		}
		return 0, fmt.Errorf("failed to consume reset token: %w", err)
	}
	return userID, nil
}
