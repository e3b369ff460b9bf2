package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"jmgallery/internal/model"
)

type postRepository struct {
	db *sqlx.DB
}

func NewPostRepository(db *sqlx.DB) PostRepository {
	return &postRepository{db: db}
}

const postColumns = `id, user_id, title, slug, image_key, image_url, status, nsfw, created_at, updated_at`

// Create inserts a new post. The slug carries a unique constraint, so two
// concurrent creations with the same derived slug cannot both land; the
// loser surfaces as ErrDuplicateSlug.
func (r *postRepository) Create(ctx context.Context, p *model.Post) error {
	query := `
		INSERT INTO posts (user_id, title, slug, image_key, image_url, status, nsfw, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		p.UserID,
		p.Title,
		p.Slug,
		p.ImageKey,
		p.ImageURL,
		p.Status,
		p.NSFW,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return model.ErrDuplicateSlug
		}
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

// Update rewrites the mutable fields. The slug is intentionally left alone:
// it is derived once at creation and never recomputed.
func (r *postRepository) Update(ctx context.Context, p *model.Post) error {
	query := `
		UPDATE posts
		SET title = $2, image_key = $3, image_url = $4, status = $5, nsfw = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		p.ID,
		p.Title,
		p.ImageKey,
		p.ImageURL,
		p.Status,
		p.NSFW,
	).Scan(&p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.ErrPostNotFound
		}
		return fmt.Errorf("update post: %w", err)
	}
	return nil
}

func (r *postRepository) ListVisible(ctx context.Context, includeNSFW bool) ([]model.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE status = $1`
	args := []interface{}{model.PostStatusPublished}
	if !includeNSFW {
		query += ` AND nsfw = FALSE`
	}
	query += ` ORDER BY created_at DESC, id DESC`

	posts := []model.Post{}
	if err := r.db.SelectContext(ctx, &posts, query, args...); err != nil {
		return nil, fmt.Errorf("list visible posts: %w", err)
	}
	return posts, nil
}

func (r *postRepository) ListByOwner(ctx context.Context, userID int64) ([]model.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts
		WHERE user_id = $1 AND status != $2
		ORDER BY created_at DESC, id DESC
	`
	posts := []model.Post{}
	if err := r.db.SelectContext(ctx, &posts, query, userID, model.PostStatusDeleted); err != nil {
		return nil, fmt.Errorf("list posts by owner: %w", err)
	}
	return posts, nil
}

func (r *postRepository) GetBySlug(ctx context.Context, slug string) (*model.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE slug = $1`

	var p model.Post
	err := r.db.GetContext(ctx, &p, query, slug)
	if err == sql.ErrNoRows {
		return nil, model.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post by slug: %w", err)
	}
	return &p, nil
}

func (r *postRepository) GetBySlugForOwner(ctx context.Context, slug string, userID int64) (*model.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE slug = $1 AND user_id = $2`

	var p model.Post
	err := r.db.GetContext(ctx, &p, query, slug, userID)
	if err == sql.ErrNoRows {
		return nil, model.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post by slug for owner: %w", err)
	}
	return &p, nil
}

func (r *postRepository) GetPublishedBySlug(ctx context.Context, slug string) (*model.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE slug = $1 AND status = $2`

	var p model.Post
	err := r.db.GetContext(ctx, &p, query, slug, model.PostStatusPublished)
	if err == sql.ErrNoRows {
		return nil, model.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get published post by slug: %w", err)
	}
	return &p, nil
}

func (r *postRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM posts WHERE slug = $1)`, slug)
	if err != nil {
		return false, fmt.Errorf("check slug exists: %w", err)
	}
	return exists, nil
}

// SoftDelete flips the post to deleted status. The stored image object is
// retained on purpose.
func (r *postRepository) SoftDelete(ctx context.Context, slug string, userID int64) error {
	query := `
		UPDATE posts SET status = $3, updated_at = NOW()
		WHERE slug = $1 AND user_id = $2
	`
	result, err := r.db.ExecContext(ctx, query, slug, userID, model.PostStatusDeleted)
	if err != nil {
		return fmt.Errorf("soft delete post: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrPostNotFound
	}
	return nil
}
