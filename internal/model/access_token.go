package model

import (
	"errors"
	"time"
)

// AccessToken is a bearer credential bound to a user. The signed token string
// is opaque to clients; only its SHA-256 hash is stored so issued tokens stay
// individually revocable. Logging in revokes every prior token for the user.
type AccessToken struct {
	ID        string     `db:"id" json:"id"`
	UserID    int64      `db:"user_id" json:"user_id"`
	TokenHash string     `db:"token_hash" json:"-"` // Never expose hash
	ExpiresAt time.Time  `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	RevokedAt *time.Time `db:"revoked_at" json:"revoked_at,omitempty"`
}

// IsValid returns true if the token is not expired and not revoked
func (t *AccessToken) IsValid() bool {
	return t.RevokedAt == nil && time.Now().Before(t.ExpiresAt)
}

// IsRevoked returns true if the token has been revoked
func (t *AccessToken) IsRevoked() bool {
	return t.RevokedAt != nil
}

// IsExpired returns true if the token has expired
func (t *AccessToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

// Token lifetime: tokens issued on register/login are valid for 31 days.
const TokenMaxAgeDays = 31

// Access token errors
var (
	ErrTokenNotFound = errors.New("access token not found")
	ErrTokenExpired  = errors.New("access token expired")
	ErrTokenRevoked  = errors.New("access token revoked")
	ErrTokenInvalid  = errors.New("access token invalid")
)
