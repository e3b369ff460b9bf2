package model

import (
	"errors"
	"time"
)

// Post status values. Deleting a post is a transition to PostStatusDeleted,
// the row and its stored image are retained.
const (
	PostStatusDeleted   = 0
	PostStatusPublished = 1
	PostStatusDraft     = 2
)

// Post represents an image submission.
// ImageKey is the object-store key and never leaves the API; ImageURL is the
// public-facing location of the same object.
type Post struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Title     string    `db:"title" json:"title"`
	Slug      string    `db:"slug" json:"slug"`
	ImageKey  string    `db:"image_key" json:"-"`
	ImageURL  string    `db:"image_url" json:"image"`
	Status    int       `db:"status" json:"status"`
	NSFW      bool      `db:"nsfw" json:"nsfw"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	// Liked is filled per-viewer on authenticated listings, not stored.
	Liked bool `db:"-" json:"like"`
}

// LikedPost is a per-(user, post) favorite flag. Absence of a row means
// "not liked"; toggling flips Liked in place rather than deleting the row.
type LikedPost struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	PostID    int64     `db:"post_id" json:"post_id"`
	Liked     bool      `db:"liked" json:"like"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// FavoritePost is a liked row joined with its post for GET /favorite_posts.
type FavoritePost struct {
	LikedPost
	Post Post `json:"post"`
}

// CreatePostRequest carries the parsed multipart fields for POST /post.
// Image bytes are read and decoded by the handler before the service runs.
type CreatePostRequest struct {
	Title            string
	Status           *int
	NSFW             *bool
	ImageData        []byte
	ImageName        string
	ImageContentType string
}

// UpdatePostRequest carries the parsed multipart fields for POST /update_post.
// The image is optional on update; the slug is never recomputed.
type UpdatePostRequest struct {
	Slug             string
	Title            string
	Status           *int
	NSFW             *bool
	ImageData        []byte
	ImageName        string
	ImageContentType string
}

// LikePostRequest is the request body for POST /like_post.
type LikePostRequest struct {
	Slug string `json:"slug"`
}

// Post constraints
const (
	MinTitleLength = 4
	MaxTitleLength = 50
)

// Post errors
var (
	ErrPostNotFound = errors.New("post not found")

	// ErrDuplicateSlug is returned when the derived slug already exists,
	// either on the pre-insert check or on the unique constraint itself.
	ErrDuplicateSlug = errors.New("a post with the same title already exists")

	// ErrAccountNotVerified is returned when an unverified user creates a post
	ErrAccountNotVerified = errors.New("account must be verified to create a post")

	// ErrLikeNotFound is returned when no liked_posts row exists for the pair
	ErrLikeNotFound = errors.New("like not found")

	// ErrLikeExists is returned on a duplicate (user, post) insert
	ErrLikeExists = errors.New("like already exists")
)
