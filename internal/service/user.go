package service

import (
	"context"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	passwordvalidator "github.com/wagslane/go-password-validator"
	"golang.org/x/crypto/bcrypt"

	"jmgallery/internal/cache"
	mailer "jmgallery/internal/mail"
	"jmgallery/internal/model"
	"jmgallery/internal/repository"
)

// minPasswordEntropy keeps trivially guessable passwords out without
// rejecting ordinary 8-character passwords.
const minPasswordEntropy = 35

// UserService handles registration, login and the account-level auth flows.
type UserService struct {
	userRepo    repository.UserRepository
	profileRepo repository.ProfileRepository
	auth        *AuthService
	mailer      mailer.Mailer
	userCache   cache.UserCache
}

func NewUserService(
	userRepo repository.UserRepository,
	profileRepo repository.ProfileRepository,
	auth *AuthService,
	m mailer.Mailer,
	userCache cache.UserCache,
) *UserService {
	return &UserService{
		userRepo:    userRepo,
		profileRepo: profileRepo,
		auth:        auth,
		mailer:      m,
		userCache:   userCache,
	}
}

// Register validates the input, creates the user and its profile atomically,
// sends the verification mail and issues a 31-day token. New accounts start
// active but unverified: they hold a token yet cannot log in again until the
// verification link is followed.
func (s *UserService) Register(ctx context.Context, req *model.RegisterRequest) (string, error) {
	errs := model.ValidationErrors{}

	email := strings.TrimSpace(req.Email)
	if email == "" {
		errs.Add("email", "The email field is required.")
	} else if _, err := mail.ParseAddress(email); err != nil {
		errs.Add("email", "The email must be a valid email address.")
	}

	validatePassword(errs, req.Password, req.PasswordConfirmation)

	name := strings.TrimSpace(req.Name)
	if name == "" {
		errs.Add("name", "The name field is required.")
	} else if len(name) < model.MinNameLength || len(name) > model.MaxNameLength {
		errs.Add("name", fmt.Sprintf("The name must be between %d and %d characters.", model.MinNameLength, model.MaxNameLength))
	}

	var birthday *time.Time
	if req.Birthday == "" {
		errs.Add("birthday", "The birthday field is required.")
	} else if parsed, err := time.Parse(model.BirthdayLayout, req.Birthday); err != nil {
		errs.Add("birthday", "The birthday is not a valid date.")
	} else {
		birthday = &parsed
	}

	if email != "" {
		exists, err := s.userRepo.ExistsByEmail(ctx, email)
		if err != nil {
			return "", fmt.Errorf("failed to check email: %w", err)
		}
		if exists {
			errs.Add("email", "The email has already been taken.")
		}
	}

	if errs.Any() {
		return "", errs
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	verifyToken := uuid.NewString()
	user := &model.User{
		Email:          email,
		PasswordHashed: string(hashedPassword),
		Status:         model.StatusActive,
		Verified:       false,
		VerifyToken:    &verifyToken,
	}
	profile := &model.Profile{
		Name:     name,
		Birthday: birthday,
	}

	if err := s.userRepo.CreateWithProfile(ctx, user, profile); err != nil {
		if err == model.ErrEmailExists {
			// Lost a race against a concurrent registration with the same email.
			errs.Add("email", "The email has already been taken.")
			return "", errs
		}
		return "", fmt.Errorf("failed to create user: %w", err)
	}

	if err := s.mailer.SendVerification(user.Email, profile.Name, verifyToken); err != nil {
		return "", fmt.Errorf("failed to send verification email: %w", err)
	}

	token, err := s.auth.IssueToken(ctx, user.ID)
	if err != nil {
		return "", err
	}

	return token, nil
}

// Login authenticates by email and password. The unverified check runs before
// the credential comparison, mirroring the long-standing flow behavior.
// A successful login revokes every previously issued token first.
func (s *UserService) Login(ctx context.Context, req *model.LoginRequest) (string, error) {
	errs := model.ValidationErrors{}
	if strings.TrimSpace(req.Email) == "" {
		errs.Add("email", "The email field is required.")
	}
	if req.Password == "" {
		errs.Add("password", "The password field is required.")
	}
	if errs.Any() {
		return "", errs
	}

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil || user.Status == model.StatusDisabled {
		return "", model.ErrUserNotRegistered
	}

	if !user.Verified {
		return "", model.ErrUserNotVerified
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHashed), []byte(req.Password)); err != nil {
		return "", model.ErrInvalidCredentials
	}

	if err := s.auth.RevokeAllUserTokens(ctx, user.ID); err != nil {
		return "", fmt.Errorf("failed to revoke previous tokens: %w", err)
	}

	token, err := s.auth.IssueToken(ctx, user.ID)
	if err != nil {
		return "", err
	}

	return token, nil
}

// Logout revokes only the token presented with the current request.
func (s *UserService) Logout(ctx context.Context, tokenID string) error {
	return s.auth.RevokeToken(ctx, tokenID)
}

// CurrentUser returns the merged user+profile view, memoized for 60 seconds.
// Inactive accounts are rejected before the cache is consulted.
func (s *UserService) CurrentUser(ctx context.Context, userID int64) (*model.CurrentUser, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Status != model.StatusActive {
		return nil, model.ErrUserInactive
	}

	if cached, found, err := s.userCache.Get(ctx, userID); err == nil && found {
		return cached, nil
	}

	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	current := &model.CurrentUser{
		ID:        user.ID,
		Email:     user.Email,
		Status:    user.Status,
		Verified:  user.Verified,
		ShowNSFW:  user.ShowNSFW,
		CreatedAt: user.CreatedAt,
		Profile:   *profile,
	}

	if err := s.userCache.Set(ctx, userID, current); err != nil {
		// Serving the fresh value matters more than caching it.
		log.Printf("[UserService] failed to cache user %d: %v", userID, err)
	}

	return current, nil
}

// ForgotPassword mints a reset token, persists it and mails it out.
func (s *UserService) ForgotPassword(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		errs := model.ValidationErrors{}
		errs.Add("email", "The email field is required.")
		return errs
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return model.ErrUserNotRegistered
	}

	token := uuid.NewString()
	if err := s.userRepo.SetResetToken(ctx, user.ID, token); err != nil {
		return err
	}

	name := user.Email
	if profile, err := s.profileRepo.GetByUserID(ctx, user.ID); err == nil {
		name = profile.Name
	}

	if err := s.mailer.SendPasswordReset(user.Email, name, token); err != nil {
		return fmt.Errorf("failed to send reset email: %w", err)
	}

	return nil
}

// ResetPassword checks the (email, token) pair against the stored reset
// token, replaces the hash and sends a confirmation mail.
func (s *UserService) ResetPassword(ctx context.Context, req *model.ResetPasswordRequest) error {
	errs := model.ValidationErrors{}
	if strings.TrimSpace(req.Email) == "" {
		errs.Add("email", "The email field is required.")
	}
	validatePassword(errs, req.Password, req.PasswordConfirmation)
	if req.Token == "" {
		errs.Add("token", "The token field is required.")
	}
	if errs.Any() {
		return errs
	}

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return model.ErrInvalidResetToken
	}
	if user.ResetPasswordToken == nil || *user.ResetPasswordToken != req.Token {
		return model.ErrInvalidResetToken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.ResetPassword(ctx, user.ID, string(hashedPassword)); err != nil {
		return err
	}

	if err := s.mailer.SendPasswordChanged(user.Email); err != nil {
		return fmt.Errorf("failed to send confirmation email: %w", err)
	}

	return nil
}

// VerifyEmail consumes a single-use verification token: marks the account
// verified, clears the token and drops the cached user view.
func (s *UserService) VerifyEmail(ctx context.Context, token string) error {
	user, err := s.userRepo.GetByVerifyToken(ctx, token)
	if err != nil {
		return err
	}

	if err := s.userRepo.SetVerified(ctx, user.ID); err != nil {
		return err
	}

	if err := s.userCache.Invalidate(ctx, user.ID); err != nil {
		log.Printf("[UserService] failed to invalidate cache for user %d: %v", user.ID, err)
	}

	return nil
}

// validatePassword applies the shared password rules: length, confirmation
// match and a minimum entropy floor.
func validatePassword(errs model.ValidationErrors, password, confirmation string) {
	if password == "" {
		errs.Add("password", "The password field is required.")
		return
	}
	if len(password) < model.MinPasswordLength {
		errs.Add("password", fmt.Sprintf("The password must be at least %d characters.", model.MinPasswordLength))
	}
	if password != confirmation {
		errs.Add("password", "The password confirmation does not match.")
	}
	if err := passwordvalidator.Validate(password, minPasswordEntropy); err != nil {
		errs.Add("password", "The password is too weak.")
	}
}
