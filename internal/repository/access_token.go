package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"jmgallery/internal/model"
)

type accessTokenRepository struct {
	db *sqlx.DB
}

// NewAccessTokenRepository creates a new access token repository
func NewAccessTokenRepository(db *sqlx.DB) AccessTokenRepository {
	return &accessTokenRepository{db: db}
}

// Create inserts a new access token into the database
func (r *accessTokenRepository) Create(ctx context.Context, token *model.AccessToken) error {
	query := `
		INSERT INTO access_tokens (id, user_id, token_hash, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		token.ID,
		token.UserID,
		token.TokenHash,
		token.ExpiresAt,
	).Scan(&token.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create access token: %w", err)
	}
	return nil
}

// FindByTokenHash retrieves an access token by its hash
func (r *accessTokenRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*model.AccessToken, error) {
	query := `
		SELECT id, user_id, token_hash, expires_at, created_at, revoked_at
		FROM access_tokens
		WHERE token_hash = $1
	`
	var token model.AccessToken
	err := r.db.GetContext(ctx, &token, query, tokenHash)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to find access token: %w", err)
	}
	return &token, nil
}

// Revoke marks a token as revoked
func (r *accessTokenRepository) Revoke(ctx context.Context, id string) error {
	query := `
		UPDATE access_tokens
		SET revoked_at = NOW()
		WHERE id = $1 AND revoked_at IS NULL
	`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to revoke access token: %w", err)
	}
	return nil
}

// RevokeAllForUser revokes all active tokens for a user
func (r *accessTokenRepository) RevokeAllForUser(ctx context.Context, userID int64) error {
	query := `
		UPDATE access_tokens
		SET revoked_at = NOW()
		WHERE user_id = $1 AND revoked_at IS NULL
	`
	_, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to revoke all tokens for user: %w", err)
	}
	return nil
}

// DeleteExpired removes tokens that expired before the given duration
func (r *accessTokenRepository) DeleteExpired(ctx context.Context, olderThan time.Duration) (int64, error) {
	query := `
		DELETE FROM access_tokens
		WHERE expires_at < NOW() - $1::interval
	`
	result, err := r.db.ExecContext(ctx, query, olderThan.String())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", err)
	}
	return result.RowsAffected()
}
