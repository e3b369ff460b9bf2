package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"jmgallery/internal/model"
)

// userRepository implements UserRepository using sqlx
type userRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

// CreateWithProfile inserts the user and its 1:1 profile in a single
// transaction so registration creates both or neither.
func (r *userRepository) CreateWithProfile(ctx context.Context, u *model.User, p *model.Profile) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	userQuery := `
		INSERT INTO users (email, password_hashed, status, verified, verify_token, show_nsfw, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id, status, verified, show_nsfw, created_at, updated_at
	`
	err = tx.QueryRowxContext(ctx, userQuery,
		u.Email,
		u.PasswordHashed,
		u.Status,
		u.Verified,
		u.VerifyToken,
		u.ShowNSFW,
	).Scan(
		&u.ID,
		&u.Status,
		&u.Verified,
		&u.ShowNSFW,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return model.ErrEmailExists
		}
		return fmt.Errorf("insert user: %w", err)
	}

	p.UserID = u.ID
	profileQuery := `
		INSERT INTO profiles (user_id, name, avatar_key, avatar_url, description, birthday, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	err = tx.QueryRowxContext(ctx, profileQuery,
		p.UserID,
		p.Name,
		p.AvatarKey,
		p.AvatarURL,
		p.Description,
		p.Birthday,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

const userColumns = `id, email, password_hashed, status, verified, verify_token, reset_password_token, show_nsfw, created_at, updated_at`

// GetByID retrieves a user by their ID
func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var u model.User
	err := r.db.GetContext(ctx, &u, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return &u, nil
}

// GetByEmail retrieves a user by their email
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	var u model.User
	err := r.db.GetContext(ctx, &u, query, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return &u, nil
}

// ExistsByEmail checks if an email is already registered
func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`

	var exists bool
	err := r.db.GetContext(ctx, &exists, query, email)
	if err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}

	return exists, nil
}

// GetByVerifyToken retrieves a user by their pending verification token
func (r *userRepository) GetByVerifyToken(ctx context.Context, token string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE verify_token = $1`

	var u model.User
	err := r.db.GetContext(ctx, &u, query, token)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrInvalidVerifyToken
		}
		return nil, fmt.Errorf("failed to get user by verify token: %w", err)
	}

	return &u, nil
}

// SetVerified marks the account verified and clears the single-use token.
func (r *userRepository) SetVerified(ctx context.Context, userID int64) error {
	query := `
		UPDATE users
		SET verified = TRUE, verify_token = NULL, updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to mark user verified: %w", err)
	}
	return nil
}

func (r *userRepository) SetResetToken(ctx context.Context, userID int64, token string) error {
	query := `UPDATE users SET reset_password_token = $2, updated_at = NOW() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, userID, token)
	if err != nil {
		return fmt.Errorf("failed to set reset token: %w", err)
	}
	return nil
}

// ResetPassword replaces the hash and clears the reset token in one statement.
func (r *userRepository) ResetPassword(ctx context.Context, userID int64, passwordHashed string) error {
	query := `
		UPDATE users
		SET password_hashed = $2, reset_password_token = NULL, updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, userID, passwordHashed)
	if err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}
	return nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, userID int64, passwordHashed string) error {
	query := `UPDATE users SET password_hashed = $2, updated_at = NOW() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, userID, passwordHashed)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

func (r *userRepository) SetShowNSFW(ctx context.Context, userID int64, show bool) error {
	query := `UPDATE users SET show_nsfw = $2, updated_at = NOW() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, userID, show)
	if err != nil {
		return fmt.Errorf("failed to set show_nsfw: %w", err)
	}
	return nil
}

func (r *userRepository) SetStatus(ctx context.Context, userID int64, status int) error {
	query := `UPDATE users SET status = $2, updated_at = NOW() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, userID, status)
	if err != nil {
		return fmt.Errorf("failed to set status: %w", err)
	}
	return nil
}
