package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/account-service/internal/domain"
)

// PasswordResetRepository manages password reset token persistence.
// Tokens are keyed by email; issuing a new token replaces any outstanding
// one, and consumed tokens are deleted rather than flagged.
type PasswordResetRepository interface {
	Replace(ctx context.Context, token *domain.PasswordResetToken) error
	GetByEmailAndToken(ctx context.Context, email, token string) (*domain.PasswordResetToken, error)
	Delete(ctx context.Context, id string) error
}

type passwordResetRepository struct {
	pool *pgxpool.Pool
}

// NewPasswordResetRepository constructs repository.
func NewPasswordResetRepository(pool *pgxpool.Pool) PasswordResetRepository {
	return &passwordResetRepository{pool: pool}
}

func (r *passwordResetRepository) Replace(ctx context.Context, token *domain.PasswordResetToken) error {
	const deleteQuery = `DELETE FROM password_reset_tokens WHERE email=$1`
	const insertQuery = `
        INSERT INTO password_reset_tokens (email, token, expires_at)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`

	if _, err := r.pool.Exec(ctx, deleteQuery, token.Email); err != nil {
		return err
	}
	return r.pool.QueryRow(ctx, insertQuery,
		token.Email,
		token.Token,
		token.ExpiresAt,
	).Scan(&token.ID, &token.CreatedAt)
}

func (r *passwordResetRepository) GetByEmailAndToken(ctx context.Context, email, tokenStr string) (*domain.PasswordResetToken, error) {
	const query = `
        SELECT id, email, token, expires_at, created_at
        FROM password_reset_tokens WHERE email=$1 AND token=$2`

	var token domain.PasswordResetToken
	if err := r.pool.QueryRow(ctx, query, email, tokenStr).Scan(
		&token.ID,
		&token.Email,
		&token.Token,
		&token.ExpiresAt,
		&token.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *passwordResetRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM password_reset_tokens WHERE id=$1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}
