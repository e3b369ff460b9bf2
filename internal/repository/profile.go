package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"jmgallery/internal/model"
)

type profileRepository struct {
	db *sqlx.DB
}

func NewProfileRepository(db *sqlx.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) GetByUserID(ctx context.Context, userID int64) (*model.Profile, error) {
	query := `
		SELECT id, user_id, name, avatar_key, avatar_url, description, birthday, created_at, updated_at
		FROM profiles
		WHERE user_id = $1
	`

	var p model.Profile
	err := r.db.GetContext(ctx, &p, query, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return &p, nil
}

func (r *profileRepository) Update(ctx context.Context, p *model.Profile) error {
	query := `
		UPDATE profiles
		SET name = $2, avatar_key = $3, avatar_url = $4, description = $5, updated_at = NOW()
		WHERE user_id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		p.UserID,
		p.Name,
		p.AvatarKey,
		p.AvatarURL,
		p.Description,
	).Scan(&p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.ErrProfileNotFound
		}
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}
