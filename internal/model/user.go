package model

import (
	"errors"
	"time"
)

// Account status values. Soft-deleted accounts keep their row with StatusDisabled.
const (
	StatusDisabled = 0
	StatusActive   = 1
)

// User represents an identity record in the system
type User struct {
	ID                 int64     `db:"id" json:"id"`
	Email              string    `db:"email" json:"email"`
	PasswordHashed     string    `db:"password_hashed" json:"-"` // "-" hides from JSON output
	Status             int       `db:"status" json:"status"`
	Verified           bool      `db:"verified" json:"verified"`
	VerifyToken        *string   `db:"verify_token" json:"-"`
	ResetPasswordToken *string   `db:"reset_password_token" json:"-"`
	ShowNSFW           bool      `db:"show_nsfw" json:"show_nsfw"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// Profile is the 1:1 public-facing extension of a User.
type Profile struct {
	ID          int64      `db:"id" json:"-"`
	UserID      int64      `db:"user_id" json:"-"`
	Name        string     `db:"name" json:"name"`
	AvatarKey   *string    `db:"avatar_key" json:"-"`
	AvatarURL   *string    `db:"avatar_url" json:"avatar_url"`
	Description *string    `db:"description" json:"description"`
	Birthday    *time.Time `db:"birthday" json:"birthday,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// CurrentUser is the merged user+profile view returned by GET /user.
// The profile's linking key is stripped and the avatar URL is fully qualified,
// so the struct is safe to cache and serve as-is.
type CurrentUser struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Status    int       `json:"status"`
	Verified  bool      `json:"verified"`
	ShowNSFW  bool      `json:"show_nsfw"`
	CreatedAt time.Time `json:"created_at"`
	Profile   Profile   `json:"profile"`
}

// RegisterRequest represents the data needed to register a new account
type RegisterRequest struct {
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
	Name                 string `json:"name"`
	Birthday             string `json:"birthday"` // YYYY-MM-DD
}

// LoginRequest represents the data needed to log in
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ForgotPasswordRequest is the request body for POST /forgot
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest is the request body for POST /reset
type ResetPasswordRequest struct {
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
	Token                string `json:"token"`
}

// Registration constraints
const (
	MinPasswordLength = 8
	MinNameLength     = 4
	MaxNameLength     = 50
	// Profile edits historically allow a longer name than registration does.
	MaxProfileNameLength = 60

	BirthdayLayout = "2006-01-02"
)

var (
	// ErrUserNotFound is returned when a user cannot be found
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailExists is returned when attempting to register an email that is taken
	ErrEmailExists = errors.New("email already exists")

	// ErrInvalidCredentials is returned when login credentials are incorrect
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUserNotRegistered is returned when no active user matches the email
	ErrUserNotRegistered = errors.New("user not registered")

	// ErrUserNotVerified is returned when a user logs in before verifying their email
	ErrUserNotVerified = errors.New("account not verified")

	// ErrUserInactive is returned when the account status is not active
	ErrUserInactive = errors.New("user is not active")

	// ErrInvalidVerifyToken is returned when no user matches a verification token
	ErrInvalidVerifyToken = errors.New("invalid verification token")

	// ErrInvalidResetToken is returned when the password reset token does not match
	ErrInvalidResetToken = errors.New("invalid password reset token")

	// ErrInvalidOldPassword is returned when the current password check fails
	ErrInvalidOldPassword = errors.New("current password is not valid")

	// ErrProfileNotFound is returned when a user has no profile row
	ErrProfileNotFound = errors.New("profile not found")
)
