package repository

import (
	"context"
	"time"

	"jmgallery/internal/model"
)

type UserRepository interface {
	// CreateWithProfile inserts the user and its profile in one transaction.
	CreateWithProfile(ctx context.Context, user *model.User, profile *model.Profile) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	GetByVerifyToken(ctx context.Context, token string) (*model.User, error)
	// SetVerified marks the email verified and clears the single-use token.
	SetVerified(ctx context.Context, userID int64) error
	SetResetToken(ctx context.Context, userID int64, token string) error
	// ResetPassword swaps the hash and clears the reset token together.
	ResetPassword(ctx context.Context, userID int64, passwordHashed string) error
	UpdatePassword(ctx context.Context, userID int64, passwordHashed string) error
	SetShowNSFW(ctx context.Context, userID int64, show bool) error
	SetStatus(ctx context.Context, userID int64, status int) error
}

type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID int64) (*model.Profile, error)
	Update(ctx context.Context, profile *model.Profile) error
}

type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	Update(ctx context.Context, post *model.Post) error
	// ListVisible returns published posts; NSFW ones only when includeNSFW.
	ListVisible(ctx context.Context, includeNSFW bool) ([]model.Post, error)
	// ListByOwner returns the owner's posts excluding soft-deleted ones.
	ListByOwner(ctx context.Context, userID int64) ([]model.Post, error)
	// GetBySlug resolves a slug regardless of status (raw download path).
	GetBySlug(ctx context.Context, slug string) (*model.Post, error)
	// GetBySlugForOwner scopes the lookup to the owning user.
	GetBySlugForOwner(ctx context.Context, slug string, userID int64) (*model.Post, error)
	// GetPublishedBySlug resolves only status=published posts.
	GetPublishedBySlug(ctx context.Context, slug string) (*model.Post, error)
	ExistsBySlug(ctx context.Context, slug string) (bool, error)
	// SoftDelete flips status to deleted for the owner's post.
	SoftDelete(ctx context.Context, slug string, userID int64) error
}

type LikeRepository interface {
	Get(ctx context.Context, userID, postID int64) (*model.LikedPost, error)
	Create(ctx context.Context, like *model.LikedPost) error
	SetLiked(ctx context.Context, id int64, liked bool) error
	// CheckLiked reports which of the posts the user has liked (liked=true).
	CheckLiked(ctx context.Context, userID int64, postIDs []int64) (map[int64]bool, error)
	// ListFavorites returns liked=true rows joined with their posts.
	ListFavorites(ctx context.Context, userID int64) ([]model.FavoritePost, error)
}

type AccessTokenRepository interface {
	Create(ctx context.Context, token *model.AccessToken) error
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.AccessToken, error)
	Revoke(ctx context.Context, id string) error
	RevokeAllForUser(ctx context.Context, userID int64) error
	DeleteExpired(ctx context.Context, olderThan time.Duration) (int64, error)
}
