package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/invmanager/invmanager-go/internal/model"
)

var ErrResetTokenNotFound = errors.New("reset token not found")

// ResetTokenRepository handles password-reset token persistence.
type ResetTokenRepository struct {
	db *sql.DB
}

// NewResetTokenRepository creates a new ResetTokenRepository.
func NewResetTokenRepository(db *sql.DB) *ResetTokenRepository {
	return &ResetTokenRepository{db: db}
}

// Replace deletes any token held by token.UserID and stores the given one in a single transaction.
func (r *ResetTokenRepository) Replace(ctx context.Context, token *model.ResetToken) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM reset_tokens WHERE user_id = ?`, token.UserID); err != nil {
		return fmt.Errorf("delete previous reset token: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO reset_tokens (user_id, token_hash, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		token.UserID, token.TokenHash, token.CreatedAt, token.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("insert reset token: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	token.ID = id
	return nil
}

// FindValid returns the token with the given hash that has not expired at now.
func (r *ResetTokenRepository) FindValid(ctx context.Context, tokenHash string, now time.Time) (*model.ResetToken, error) {
	query := `SELECT id, user_id, token_hash, created_at, expires_at
		FROM reset_tokens WHERE token_hash = ? AND expires_at > ?`

	token := &model.ResetToken{}
	err := r.db.QueryRowContext(ctx, query, tokenHash, now).Scan(
		&token.ID, &token.UserID, &token.TokenHash, &token.CreatedAt, &token.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrResetTokenNotFound
		}
		return nil, err
	}

	return token, nil
}

// Consume deletes the reset token and stores the new password hash for its owner in one
// transaction. A token that is already gone yields ErrResetTokenNotFound, which lets concurrent
// consumers of the same token detect that they lost. On any failure the token is kept.
func (r *ResetTokenRepository) Consume(ctx context.Context, id, userID int64, passwordHash string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `DELETE FROM reset_tokens WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete reset token: %w", err)
	}
	if err := expectAffected(result, ErrResetTokenNotFound); err != nil {
		return err
	}

	result, err = tx.ExecContext(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, passwordHash, userID)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if err := expectAffected(result, ErrUserNotFound); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
