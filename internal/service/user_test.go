package service

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"jmgallery/internal/model"
)

func validRegisterRequest() *model.RegisterRequest {
	return &model.RegisterRequest{
		Email:                "jane@example.com",
		Password:             "secret12",
		PasswordConfirmation: "secret12",
		Name:                 "Jane Doe",
		Birthday:             "1995-04-12",
	}
}

func newUserService(userRepo *mockUserRepository, profileRepo *mockProfileRepository, tokenRepo *mockAccessTokenRepository, m *mockMailer, c *mockUserCache) *UserService {
	auth := NewAuthService(tokenRepo, "test-secret", 31)
	return NewUserService(userRepo, profileRepo, auth, m, c)
}

// =============================================================================
// REGISTER TESTS
// =============================================================================

func TestUserService_Register_Success(t *testing.T) {
	mockRepo := &mockUserRepository{}
	tokenRepo := &mockAccessTokenRepository{}
	m := &mockMailer{}
	svc := newUserService(mockRepo, &mockProfileRepository{}, tokenRepo, m, &mockUserCache{})

	req := validRegisterRequest()
	token, err := svc.Register(context.Background(), req)

	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if token == "" {
		t.Fatal("expected a bearer token, got empty string")
	}

	if len(mockRepo.createWithProfileCalls) != 1 {
		t.Fatalf("CreateWithProfile called %d times, want 1", len(mockRepo.createWithProfileCalls))
	}
	created := mockRepo.createWithProfileCalls[0]

	// Password must be stored as a valid bcrypt hash, never plain text.
	if created.User.PasswordHashed == req.Password {
		t.Error("password should be hashed, not stored in plain text")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(created.User.PasswordHashed), []byte(req.Password)); err != nil {
		t.Error("password hash should be valid bcrypt hash")
	}

	if created.User.Status != model.StatusActive {
		t.Errorf("status = %d, want %d", created.User.Status, model.StatusActive)
	}
	if created.User.Verified {
		t.Error("new accounts must start unverified")
	}
	if created.User.VerifyToken == nil || *created.User.VerifyToken == "" {
		t.Fatal("expected a verification token to be set")
	}
	if created.Profile.Name != req.Name {
		t.Errorf("profile name = %q, want %q", created.Profile.Name, req.Name)
	}
	if created.Profile.Birthday == nil {
		t.Error("expected birthday to be set on the profile")
	}

	// The verification mail must carry the same token that was stored.
	if len(m.verificationCalls) != 1 {
		t.Fatalf("SendVerification called %d times, want 1", len(m.verificationCalls))
	}
	if m.verificationCalls[0].Token != *created.User.VerifyToken {
		t.Error("mailed token does not match the stored verification token")
	}
	if m.verificationCalls[0].To != req.Email {
		t.Errorf("mail sent to %q, want %q", m.verificationCalls[0].To, req.Email)
	}

	if len(tokenRepo.createCalls) != 1 {
		t.Errorf("expected 1 access token to be stored, got %d", len(tokenRepo.createCalls))
	}
}

func TestUserService_Register_ValidationErrors(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(req *model.RegisterRequest)
		wantField string
	}{
		{
			name:      "missing email",
			mutate:    func(r *model.RegisterRequest) { r.Email = "" },
			wantField: "email",
		},
		{
			name:      "malformed email",
			mutate:    func(r *model.RegisterRequest) { r.Email = "not-an-email" },
			wantField: "email",
		},
		{
			name: "password too short",
			mutate: func(r *model.RegisterRequest) {
				r.Password = "ab1"
				r.PasswordConfirmation = "ab1"
			},
			wantField: "password",
		},
		{
			name:      "confirmation mismatch",
			mutate:    func(r *model.RegisterRequest) { r.PasswordConfirmation = "different1" },
			wantField: "password",
		},
		{
			name: "trivially weak password",
			mutate: func(r *model.RegisterRequest) {
				r.Password = "aaaaaaaa"
				r.PasswordConfirmation = "aaaaaaaa"
			},
			wantField: "password",
		},
		{
			name:      "name too short",
			mutate:    func(r *model.RegisterRequest) { r.Name = "Jo" },
			wantField: "name",
		},
		{
			name:      "missing birthday",
			mutate:    func(r *model.RegisterRequest) { r.Birthday = "" },
			wantField: "birthday",
		},
		{
			name:      "malformed birthday",
			mutate:    func(r *model.RegisterRequest) { r.Birthday = "12/04/1995" },
			wantField: "birthday",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mockUserRepository{}
			svc := newUserService(mockRepo, &mockProfileRepository{}, &mockAccessTokenRepository{}, &mockMailer{}, &mockUserCache{})

			req := validRegisterRequest()
			tt.mutate(req)

			_, err := svc.Register(context.Background(), req)

			var verrs model.ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("error = %v, want validation errors", err)
			}
			if len(verrs[tt.wantField]) == 0 {
				t.Errorf("expected an error on field %q, got %v", tt.wantField, verrs)
			}
			if len(mockRepo.createWithProfileCalls) != 0 {
				t.Error("CreateWithProfile should not be called on validation failure")
			}
		})
	}
}

func TestUserService_Register_EmailTaken(t *testing.T) {
	mockRepo := &mockUserRepository{
		existsByEmailFn: func(ctx context.Context, email string) (bool, error) {
			return true, nil
		},
	}
	svc := newUserService(mockRepo, &mockProfileRepository{}, &mockAccessTokenRepository{}, &mockMailer{}, &mockUserCache{})

	_, err := svc.Register(context.Background(), validRegisterRequest())

	var verrs model.ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("error = %v, want validation errors", err)
	}
	if len(verrs["email"]) == 0 {
		t.Error("expected a taken-email error on the email field")
	}
	if len(mockRepo.createWithProfileCalls) != 0 {
		t.Error("CreateWithProfile should not be called when the email is taken")
	}
}

func TestUserService_Register_DuplicateEmailRace(t *testing.T) {
	// The pre-check misses, then the unique constraint fires on insert.
	mockRepo := &mockUserRepository{
		createWithProfileFn: func(ctx context.Context, user *model.User, profile *model.Profile) error {
			return model.ErrEmailExists
		},
	}
	m := &mockMailer{}
	svc := newUserService(mockRepo, &mockProfileRepository{}, &mockAccessTokenRepository{}, m, &mockUserCache{})

	_, err := svc.Register(context.Background(), validRegisterRequest())

	var verrs model.ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("error = %v, want validation errors", err)
	}
	if len(verrs["email"]) == 0 {
		t.Error("expected a taken-email error on the email field")
	}
	if len(m.verificationCalls) != 0 {
		t.Error("no mail should go out when the insert fails")
	}
}

// =============================================================================
// LOGIN TESTS
// =============================================================================

func TestUserService_Login(t *testing.T) {
	validPassword := "secret12"
	validHash, _ := bcrypt.GenerateFromPassword([]byte(validPassword), bcrypt.MinCost)

	activeVerified := &model.User{
		ID:             1,
		Email:          "jane@example.com",
		PasswordHashed: string(validHash),
		Status:         model.StatusActive,
		Verified:       true,
	}

	tests := []struct {
		name          string
		password      string
		mockGetFn     func(ctx context.Context, email string) (*model.User, error)
		wantErr       error
		wantToken     bool
		wantRevokeAll bool
	}{
		{
			name:     "successful login",
			password: validPassword,
			mockGetFn: func(ctx context.Context, email string) (*model.User, error) {
				return activeVerified, nil
			},
			wantToken:     true,
			wantRevokeAll: true,
		},
		{
			name:     "unknown email",
			password: validPassword,
			mockGetFn: func(ctx context.Context, email string) (*model.User, error) {
				return nil, model.ErrUserNotFound
			},
			wantErr: model.ErrUserNotRegistered,
		},
		{
			name:     "disabled account looks unregistered",
			password: validPassword,
			mockGetFn: func(ctx context.Context, email string) (*model.User, error) {
				return &model.User{
					ID:             2,
					PasswordHashed: string(validHash),
					Status:         model.StatusDisabled,
					Verified:       true,
				}, nil
			},
			wantErr: model.ErrUserNotRegistered,
		},
		{
			name: "unverified account rejected before the password check",
			// Wrong password on purpose: the unverified error must win.
			password: "wrongpassword1",
			mockGetFn: func(ctx context.Context, email string) (*model.User, error) {
				return &model.User{
					ID:             3,
					PasswordHashed: string(validHash),
					Status:         model.StatusActive,
					Verified:       false,
				}, nil
			},
			wantErr: model.ErrUserNotVerified,
		},
		{
			name:     "wrong password",
			password: "wrongpassword1",
			mockGetFn: func(ctx context.Context, email string) (*model.User, error) {
				return activeVerified, nil
			},
			wantErr: model.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mockUserRepository{getByEmailFn: tt.mockGetFn}
			tokenRepo := &mockAccessTokenRepository{}
			svc := newUserService(mockRepo, &mockProfileRepository{}, tokenRepo, &mockMailer{}, &mockUserCache{})

			token, err := svc.Login(context.Background(), &model.LoginRequest{
				Email:    "jane@example.com",
				Password: tt.password,
			})

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("error = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			if tt.wantToken && token == "" {
				t.Error("expected a bearer token")
			}
			if !tt.wantToken && token != "" {
				t.Error("expected no token on failure")
			}

			if tt.wantRevokeAll {
				if len(tokenRepo.revokeAllCalls) != 1 {
					t.Errorf("RevokeAllForUser called %d times, want 1", len(tokenRepo.revokeAllCalls))
				}
			} else if len(tokenRepo.revokeAllCalls) != 0 {
				t.Error("RevokeAllForUser should not be called on failed login")
			}
		})
	}
}

// =============================================================================
// CURRENT USER / CACHE TESTS
// =============================================================================

func TestUserService_CurrentUser_CacheMissThenSet(t *testing.T) {
	user := &model.User{ID: 1, Email: "jane@example.com", Status: model.StatusActive, Verified: true}
	profile := &model.Profile{ID: 1, UserID: 1, Name: "Jane Doe"}

	mockRepo := &mockUserRepository{
		getByIDFn: func(ctx context.Context, id int64) (*model.User, error) { return user, nil },
	}
	profileRepo := &mockProfileRepository{
		getByUserIDFn: func(ctx context.Context, userID int64) (*model.Profile, error) { return profile, nil },
	}
	c := &mockUserCache{}
	svc := newUserService(mockRepo, profileRepo, &mockAccessTokenRepository{}, &mockMailer{}, c)

	current, err := svc.CurrentUser(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if current.Email != user.Email || current.Profile.Name != profile.Name {
		t.Error("current user should merge the user and profile rows")
	}
	if len(c.setCalls) != 1 {
		t.Errorf("cache Set called %d times, want 1", len(c.setCalls))
	}
}

func TestUserService_CurrentUser_CacheHitSkipsProfileLookup(t *testing.T) {
	cached := &model.CurrentUser{ID: 1, Email: "jane@example.com", Status: model.StatusActive}

	mockRepo := &mockUserRepository{
		getByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return &model.User{ID: 1, Status: model.StatusActive, Verified: true}, nil
		},
	}
	profileRepo := &mockProfileRepository{
		getByUserIDFn: func(ctx context.Context, userID int64) (*model.Profile, error) {
			t.Fatal("profile lookup should be skipped on a cache hit")
			return nil, nil
		},
	}
	c := &mockUserCache{
		getFn: func(ctx context.Context, userID int64) (*model.CurrentUser, bool, error) {
			return cached, true, nil
		},
	}
	svc := newUserService(mockRepo, profileRepo, &mockAccessTokenRepository{}, &mockMailer{}, c)

	current, err := svc.CurrentUser(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if current != cached {
		t.Error("expected the cached view to be returned as-is")
	}
}

func TestUserService_CurrentUser_InactiveAccount(t *testing.T) {
	mockRepo := &mockUserRepository{
		getByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return &model.User{ID: 1, Status: model.StatusDisabled}, nil
		},
	}
	svc := newUserService(mockRepo, &mockProfileRepository{}, &mockAccessTokenRepository{}, &mockMailer{}, &mockUserCache{})

	_, err := svc.CurrentUser(context.Background(), 1)
	if !errors.Is(err, model.ErrUserInactive) {
		t.Errorf("error = %v, want %v", err, model.ErrUserInactive)
	}
}

// =============================================================================
// PASSWORD RECOVERY TESTS
// =============================================================================

func TestUserService_ForgotPassword(t *testing.T) {
	var storedToken string
	mockRepo := &mockUserRepository{
		getByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{ID: 1, Email: email}, nil
		},
		setResetTokenFn: func(ctx context.Context, userID int64, token string) error {
			storedToken = token
			return nil
		},
	}
	profileRepo := &mockProfileRepository{
		getByUserIDFn: func(ctx context.Context, userID int64) (*model.Profile, error) {
			return &model.Profile{Name: "Jane Doe"}, nil
		},
	}
	m := &mockMailer{}
	svc := newUserService(mockRepo, profileRepo, &mockAccessTokenRepository{}, m, &mockUserCache{})

	if err := svc.ForgotPassword(context.Background(), "jane@example.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(m.resetCalls) != 1 {
		t.Fatalf("SendPasswordReset called %d times, want 1", len(m.resetCalls))
	}
	if m.resetCalls[0].Token != storedToken {
		t.Error("mailed token does not match the stored reset token")
	}
	if m.resetCalls[0].Name != "Jane Doe" {
		t.Errorf("reset mail addressed to %q, want the profile name", m.resetCalls[0].Name)
	}
}

func TestUserService_ForgotPassword_UnknownEmail(t *testing.T) {
	svc := newUserService(&mockUserRepository{}, &mockProfileRepository{}, &mockAccessTokenRepository{}, &mockMailer{}, &mockUserCache{})

	err := svc.ForgotPassword(context.Background(), "nobody@example.com")
	if !errors.Is(err, model.ErrUserNotRegistered) {
		t.Errorf("error = %v, want %v", err, model.ErrUserNotRegistered)
	}
}

func TestUserService_ResetPassword(t *testing.T) {
	resetToken := "reset-token-123"
	oldHash, _ := bcrypt.GenerateFromPassword([]byte("oldsecret1"), bcrypt.MinCost)

	var newHash string
	mockRepo := &mockUserRepository{
		getByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{
				ID:                 1,
				Email:              email,
				PasswordHashed:     string(oldHash),
				ResetPasswordToken: &resetToken,
			}, nil
		},
		resetPasswordFn: func(ctx context.Context, userID int64, passwordHashed string) error {
			newHash = passwordHashed
			return nil
		},
	}
	m := &mockMailer{}
	svc := newUserService(mockRepo, &mockProfileRepository{}, &mockAccessTokenRepository{}, m, &mockUserCache{})

	err := svc.ResetPassword(context.Background(), &model.ResetPasswordRequest{
		Email:                "jane@example.com",
		Password:             "newsecret1",
		PasswordConfirmation: "newsecret1",
		Token:                resetToken,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(newHash), []byte("newsecret1")); err != nil {
		t.Error("stored hash should match the new password")
	}
	if len(m.passwordChangedCalls) != 1 {
		t.Errorf("SendPasswordChanged called %d times, want 1", len(m.passwordChangedCalls))
	}
}

func TestUserService_ResetPassword_WrongToken(t *testing.T) {
	resetToken := "reset-token-123"
	mockRepo := &mockUserRepository{
		getByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{ID: 1, Email: email, ResetPasswordToken: &resetToken}, nil
		},
	}
	svc := newUserService(mockRepo, &mockProfileRepository{}, &mockAccessTokenRepository{}, &mockMailer{}, &mockUserCache{})

	err := svc.ResetPassword(context.Background(), &model.ResetPasswordRequest{
		Email:                "jane@example.com",
		Password:             "newsecret1",
		PasswordConfirmation: "newsecret1",
		Token:                "some-other-token",
	})
	if !errors.Is(err, model.ErrInvalidResetToken) {
		t.Errorf("error = %v, want %v", err, model.ErrInvalidResetToken)
	}
}

// =============================================================================
// EMAIL VERIFICATION TESTS
// =============================================================================

func TestUserService_VerifyEmail(t *testing.T) {
	verified := false
	mockRepo := &mockUserRepository{
		getByVerifyTokenFn: func(ctx context.Context, token string) (*model.User, error) {
			if token != "valid-token" {
				return nil, model.ErrInvalidVerifyToken
			}
			return &model.User{ID: 7}, nil
		},
		setVerifiedFn: func(ctx context.Context, userID int64) error {
			verified = true
			return nil
		},
	}
	c := &mockUserCache{}
	svc := newUserService(mockRepo, &mockProfileRepository{}, &mockAccessTokenRepository{}, &mockMailer{}, c)

	if err := svc.VerifyEmail(context.Background(), "valid-token"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !verified {
		t.Error("expected SetVerified to be called")
	}
	if len(c.invalidateCalls) != 1 || c.invalidateCalls[0] != 7 {
		t.Error("expected the user's cache entry to be invalidated")
	}

	if err := svc.VerifyEmail(context.Background(), "bogus"); !errors.Is(err, model.ErrInvalidVerifyToken) {
		t.Errorf("error = %v, want %v", err, model.ErrInvalidVerifyToken)
	}
}

// Logout must revoke exactly the presented token, not the whole account.
func TestUserService_Logout(t *testing.T) {
	tokenRepo := &mockAccessTokenRepository{}
	svc := newUserService(&mockUserRepository{}, &mockProfileRepository{}, tokenRepo, &mockMailer{}, &mockUserCache{})

	if err := svc.Logout(context.Background(), "token-abc"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tokenRepo.revokeCalls) != 1 || tokenRepo.revokeCalls[0] != "token-abc" {
		t.Errorf("Revoke calls = %v, want exactly [token-abc]", tokenRepo.revokeCalls)
	}
	if len(tokenRepo.revokeAllCalls) != 0 {
		t.Error("logout should not revoke the user's other tokens")
	}
}
