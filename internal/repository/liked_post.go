package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"jmgallery/internal/model"
)

type likeRepository struct {
	db *sqlx.DB
}

func NewLikeRepository(db *sqlx.DB) LikeRepository {
	return &likeRepository{db: db}
}

func (r *likeRepository) Get(ctx context.Context, userID, postID int64) (*model.LikedPost, error) {
	query := `
		SELECT id, user_id, post_id, liked, created_at, updated_at
		FROM liked_posts
		WHERE user_id = $1 AND post_id = $2
	`
	var l model.LikedPost
	err := r.db.GetContext(ctx, &l, query, userID, postID)
	if err == sql.ErrNoRows {
		return nil, model.ErrLikeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get like: %w", err)
	}
	return &l, nil
}

// Create inserts the first like for a (user, post) pair. The pair carries a
// unique constraint; a concurrent duplicate insert surfaces as ErrLikeExists
// so the caller can fall back to flipping the existing row.
func (r *likeRepository) Create(ctx context.Context, l *model.LikedPost) error {
	query := `
		INSERT INTO liked_posts (user_id, post_id, liked, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query, l.UserID, l.PostID, l.Liked).
		Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return model.ErrLikeExists
		}
		return fmt.Errorf("insert like: %w", err)
	}
	return nil
}

func (r *likeRepository) SetLiked(ctx context.Context, id int64, liked bool) error {
	query := `UPDATE liked_posts SET liked = $2, updated_at = NOW() WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, liked)
	if err != nil {
		return fmt.Errorf("update like: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrLikeNotFound
	}
	return nil
}

// CheckLiked returns a map of post_id -> liked for the given posts.
func (r *likeRepository) CheckLiked(ctx context.Context, userID int64, postIDs []int64) (map[int64]bool, error) {
	result := make(map[int64]bool, len(postIDs))
	for _, id := range postIDs {
		result[id] = false
	}
	if len(postIDs) == 0 {
		return result, nil
	}

	query := `SELECT post_id FROM liked_posts WHERE user_id = $1 AND post_id = ANY($2) AND liked = TRUE`
	var likedIDs []int64
	err := r.db.SelectContext(ctx, &likedIDs, query, userID, pq.Array(postIDs))
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("check liked: %w", err)
	}
	for _, id := range likedIDs {
		result[id] = true
	}

	return result, nil
}

func (r *likeRepository) ListFavorites(ctx context.Context, userID int64) ([]model.FavoritePost, error) {
	query := `
		SELECT lp.id, lp.user_id, lp.post_id, lp.liked, lp.created_at, lp.updated_at,
		       p.id AS "post.id", p.user_id AS "post.user_id", p.title AS "post.title",
		       p.slug AS "post.slug", p.image_key AS "post.image_key", p.image_url AS "post.image_url",
		       p.status AS "post.status", p.nsfw AS "post.nsfw",
		       p.created_at AS "post.created_at", p.updated_at AS "post.updated_at"
		FROM liked_posts lp
		JOIN posts p ON p.id = lp.post_id
		WHERE lp.user_id = $1 AND lp.liked = TRUE
		ORDER BY lp.updated_at DESC, lp.id DESC
	`
	rows, err := r.db.QueryxContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	favorites := []model.FavoritePost{}
	for rows.Next() {
		var f model.FavoritePost
		err := rows.Scan(
			&f.ID, &f.UserID, &f.PostID, &f.Liked, &f.CreatedAt, &f.UpdatedAt,
			&f.Post.ID, &f.Post.UserID, &f.Post.Title,
			&f.Post.Slug, &f.Post.ImageKey, &f.Post.ImageURL,
			&f.Post.Status, &f.Post.NSFW,
			&f.Post.CreatedAt, &f.Post.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		favorites = append(favorites, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate favorites: %w", err)
	}

	return favorites, nil
}
