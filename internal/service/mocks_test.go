package service

import (
	"bytes"
	"context"
	"io"
	"time"

	"jmgallery/internal/model"
)

// Hand-written mocks. Each test assigns only the fn fields it cares about;
// everything else falls back to a not-found/no-op default. Call slices track
// what the service actually did.

// =============================================================================
// USER REPOSITORY
// =============================================================================

type mockUserRepository struct {
	createWithProfileFn func(ctx context.Context, user *model.User, profile *model.Profile) error
	getByIDFn           func(ctx context.Context, id int64) (*model.User, error)
	getByEmailFn        func(ctx context.Context, email string) (*model.User, error)
	existsByEmailFn     func(ctx context.Context, email string) (bool, error)
	getByVerifyTokenFn  func(ctx context.Context, token string) (*model.User, error)
	setVerifiedFn       func(ctx context.Context, userID int64) error
	setResetTokenFn     func(ctx context.Context, userID int64, token string) error
	resetPasswordFn     func(ctx context.Context, userID int64, passwordHashed string) error
	updatePasswordFn    func(ctx context.Context, userID int64, passwordHashed string) error
	setShowNSFWFn       func(ctx context.Context, userID int64, show bool) error
	setStatusFn         func(ctx context.Context, userID int64, status int) error

	createWithProfileCalls []createWithProfileCall
	setStatusCalls         []int
	updatePasswordCalls    []string
}

type createWithProfileCall struct {
	User    *model.User
	Profile *model.Profile
}

func (m *mockUserRepository) CreateWithProfile(ctx context.Context, user *model.User, profile *model.Profile) error {
	m.createWithProfileCalls = append(m.createWithProfileCalls, createWithProfileCall{User: user, Profile: profile})
	if m.createWithProfileFn != nil {
		return m.createWithProfileFn(ctx, user, profile)
	}
	user.ID = 1
	profile.ID = 1
	profile.UserID = 1
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if m.existsByEmailFn != nil {
		return m.existsByEmailFn(ctx, email)
	}
	return false, nil
}

func (m *mockUserRepository) GetByVerifyToken(ctx context.Context, token string) (*model.User, error) {
	if m.getByVerifyTokenFn != nil {
		return m.getByVerifyTokenFn(ctx, token)
	}
	return nil, model.ErrInvalidVerifyToken
}

func (m *mockUserRepository) SetVerified(ctx context.Context, userID int64) error {
	if m.setVerifiedFn != nil {
		return m.setVerifiedFn(ctx, userID)
	}
	return nil
}

func (m *mockUserRepository) SetResetToken(ctx context.Context, userID int64, token string) error {
	if m.setResetTokenFn != nil {
		return m.setResetTokenFn(ctx, userID, token)
	}
	return nil
}

func (m *mockUserRepository) ResetPassword(ctx context.Context, userID int64, passwordHashed string) error {
	if m.resetPasswordFn != nil {
		return m.resetPasswordFn(ctx, userID, passwordHashed)
	}
	return nil
}

func (m *mockUserRepository) UpdatePassword(ctx context.Context, userID int64, passwordHashed string) error {
	m.updatePasswordCalls = append(m.updatePasswordCalls, passwordHashed)
	if m.updatePasswordFn != nil {
		return m.updatePasswordFn(ctx, userID, passwordHashed)
	}
	return nil
}

func (m *mockUserRepository) SetShowNSFW(ctx context.Context, userID int64, show bool) error {
	if m.setShowNSFWFn != nil {
		return m.setShowNSFWFn(ctx, userID, show)
	}
	return nil
}

func (m *mockUserRepository) SetStatus(ctx context.Context, userID int64, status int) error {
	m.setStatusCalls = append(m.setStatusCalls, status)
	if m.setStatusFn != nil {
		return m.setStatusFn(ctx, userID, status)
	}
	return nil
}

// =============================================================================
// PROFILE REPOSITORY
// =============================================================================

type mockProfileRepository struct {
	getByUserIDFn func(ctx context.Context, userID int64) (*model.Profile, error)
	updateFn      func(ctx context.Context, profile *model.Profile) error

	updateCalls []*model.Profile
}

func (m *mockProfileRepository) GetByUserID(ctx context.Context, userID int64) (*model.Profile, error) {
	if m.getByUserIDFn != nil {
		return m.getByUserIDFn(ctx, userID)
	}
	return nil, model.ErrProfileNotFound
}

func (m *mockProfileRepository) Update(ctx context.Context, profile *model.Profile) error {
	m.updateCalls = append(m.updateCalls, profile)
	if m.updateFn != nil {
		return m.updateFn(ctx, profile)
	}
	return nil
}

// =============================================================================
// POST REPOSITORY
// =============================================================================

type mockPostRepository struct {
	createFn             func(ctx context.Context, post *model.Post) error
	updateFn             func(ctx context.Context, post *model.Post) error
	listVisibleFn        func(ctx context.Context, includeNSFW bool) ([]model.Post, error)
	listByOwnerFn        func(ctx context.Context, userID int64) ([]model.Post, error)
	getBySlugFn          func(ctx context.Context, slug string) (*model.Post, error)
	getBySlugForOwnerFn  func(ctx context.Context, slug string, userID int64) (*model.Post, error)
	getPublishedBySlugFn func(ctx context.Context, slug string) (*model.Post, error)
	existsBySlugFn       func(ctx context.Context, slug string) (bool, error)
	softDeleteFn         func(ctx context.Context, slug string, userID int64) error

	createCalls []*model.Post
	updateCalls []*model.Post
}

func (m *mockPostRepository) Create(ctx context.Context, post *model.Post) error {
	m.createCalls = append(m.createCalls, post)
	if m.createFn != nil {
		return m.createFn(ctx, post)
	}
	post.ID = 1
	return nil
}

func (m *mockPostRepository) Update(ctx context.Context, post *model.Post) error {
	m.updateCalls = append(m.updateCalls, post)
	if m.updateFn != nil {
		return m.updateFn(ctx, post)
	}
	return nil
}

func (m *mockPostRepository) ListVisible(ctx context.Context, includeNSFW bool) ([]model.Post, error) {
	if m.listVisibleFn != nil {
		return m.listVisibleFn(ctx, includeNSFW)
	}
	return nil, nil
}

func (m *mockPostRepository) ListByOwner(ctx context.Context, userID int64) ([]model.Post, error) {
	if m.listByOwnerFn != nil {
		return m.listByOwnerFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockPostRepository) GetBySlug(ctx context.Context, slug string) (*model.Post, error) {
	if m.getBySlugFn != nil {
		return m.getBySlugFn(ctx, slug)
	}
	return nil, model.ErrPostNotFound
}

func (m *mockPostRepository) GetBySlugForOwner(ctx context.Context, slug string, userID int64) (*model.Post, error) {
	if m.getBySlugForOwnerFn != nil {
		return m.getBySlugForOwnerFn(ctx, slug, userID)
	}
	return nil, model.ErrPostNotFound
}

func (m *mockPostRepository) GetPublishedBySlug(ctx context.Context, slug string) (*model.Post, error) {
	if m.getPublishedBySlugFn != nil {
		return m.getPublishedBySlugFn(ctx, slug)
	}
	return nil, model.ErrPostNotFound
}

func (m *mockPostRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	if m.existsBySlugFn != nil {
		return m.existsBySlugFn(ctx, slug)
	}
	return false, nil
}

func (m *mockPostRepository) SoftDelete(ctx context.Context, slug string, userID int64) error {
	if m.softDeleteFn != nil {
		return m.softDeleteFn(ctx, slug, userID)
	}
	return nil
}

// =============================================================================
// LIKE REPOSITORY
// =============================================================================

type mockLikeRepository struct {
	getFn           func(ctx context.Context, userID, postID int64) (*model.LikedPost, error)
	createFn        func(ctx context.Context, like *model.LikedPost) error
	setLikedFn      func(ctx context.Context, id int64, liked bool) error
	checkLikedFn    func(ctx context.Context, userID int64, postIDs []int64) (map[int64]bool, error)
	listFavoritesFn func(ctx context.Context, userID int64) ([]model.FavoritePost, error)

	createCalls   []*model.LikedPost
	setLikedCalls []setLikedCall
}

type setLikedCall struct {
	ID    int64
	Liked bool
}

func (m *mockLikeRepository) Get(ctx context.Context, userID, postID int64) (*model.LikedPost, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID, postID)
	}
	return nil, model.ErrLikeNotFound
}

func (m *mockLikeRepository) Create(ctx context.Context, like *model.LikedPost) error {
	m.createCalls = append(m.createCalls, like)
	if m.createFn != nil {
		return m.createFn(ctx, like)
	}
	like.ID = 1
	return nil
}

func (m *mockLikeRepository) SetLiked(ctx context.Context, id int64, liked bool) error {
	m.setLikedCalls = append(m.setLikedCalls, setLikedCall{ID: id, Liked: liked})
	if m.setLikedFn != nil {
		return m.setLikedFn(ctx, id, liked)
	}
	return nil
}

func (m *mockLikeRepository) CheckLiked(ctx context.Context, userID int64, postIDs []int64) (map[int64]bool, error) {
	if m.checkLikedFn != nil {
		return m.checkLikedFn(ctx, userID, postIDs)
	}
	return map[int64]bool{}, nil
}

func (m *mockLikeRepository) ListFavorites(ctx context.Context, userID int64) ([]model.FavoritePost, error) {
	if m.listFavoritesFn != nil {
		return m.listFavoritesFn(ctx, userID)
	}
	return nil, nil
}

// =============================================================================
// ACCESS TOKEN REPOSITORY
// =============================================================================

type mockAccessTokenRepository struct {
	createFn          func(ctx context.Context, token *model.AccessToken) error
	findByTokenHashFn func(ctx context.Context, tokenHash string) (*model.AccessToken, error)
	revokeFn          func(ctx context.Context, id string) error
	revokeAllFn       func(ctx context.Context, userID int64) error

	createCalls    []*model.AccessToken
	revokeCalls    []string
	revokeAllCalls []int64
}

func (m *mockAccessTokenRepository) Create(ctx context.Context, token *model.AccessToken) error {
	m.createCalls = append(m.createCalls, token)
	if m.createFn != nil {
		return m.createFn(ctx, token)
	}
	return nil
}

func (m *mockAccessTokenRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*model.AccessToken, error) {
	if m.findByTokenHashFn != nil {
		return m.findByTokenHashFn(ctx, tokenHash)
	}
	return nil, model.ErrTokenNotFound
}

func (m *mockAccessTokenRepository) Revoke(ctx context.Context, id string) error {
	m.revokeCalls = append(m.revokeCalls, id)
	if m.revokeFn != nil {
		return m.revokeFn(ctx, id)
	}
	return nil
}

func (m *mockAccessTokenRepository) RevokeAllForUser(ctx context.Context, userID int64) error {
	m.revokeAllCalls = append(m.revokeAllCalls, userID)
	if m.revokeAllFn != nil {
		return m.revokeAllFn(ctx, userID)
	}
	return nil
}

func (m *mockAccessTokenRepository) DeleteExpired(ctx context.Context, olderThan time.Duration) (int64, error) {
	return 0, nil
}

// =============================================================================
// MAILER
// =============================================================================

type mockMailer struct {
	sendVerificationFn func(to, name, token string) error

	verificationCalls    []mailCall
	resetCalls           []mailCall
	passwordChangedCalls []string
}

type mailCall struct {
	To    string
	Name  string
	Token string
}

func (m *mockMailer) SendVerification(to, name, token string) error {
	m.verificationCalls = append(m.verificationCalls, mailCall{To: to, Name: name, Token: token})
	if m.sendVerificationFn != nil {
		return m.sendVerificationFn(to, name, token)
	}
	return nil
}

func (m *mockMailer) SendPasswordReset(to, name, token string) error {
	m.resetCalls = append(m.resetCalls, mailCall{To: to, Name: name, Token: token})
	return nil
}

func (m *mockMailer) SendPasswordChanged(to string) error {
	m.passwordChangedCalls = append(m.passwordChangedCalls, to)
	return nil
}

// =============================================================================
// USER CACHE
// =============================================================================

type mockUserCache struct {
	getFn func(ctx context.Context, userID int64) (*model.CurrentUser, bool, error)

	setCalls        []int64
	invalidateCalls []int64
}

func (m *mockUserCache) Get(ctx context.Context, userID int64) (*model.CurrentUser, bool, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID)
	}
	return nil, false, nil
}

func (m *mockUserCache) Set(ctx context.Context, userID int64, user *model.CurrentUser) error {
	m.setCalls = append(m.setCalls, userID)
	return nil
}

func (m *mockUserCache) Invalidate(ctx context.Context, userID int64) error {
	m.invalidateCalls = append(m.invalidateCalls, userID)
	return nil
}

// =============================================================================
// OBJECT STORE
// =============================================================================

type mockObjectStore struct {
	putFn func(ctx context.Context, key string, body []byte, contentType string) error
	getFn func(ctx context.Context, key string) (io.ReadCloser, string, error)

	putCalls          []putCall
	deleteCalls       []string
	deletePrefixCalls []string
}

type putCall struct {
	Key         string
	Body        []byte
	ContentType string
}

func (m *mockObjectStore) Put(ctx context.Context, key string, body []byte, contentType string) error {
	m.putCalls = append(m.putCalls, putCall{Key: key, Body: body, ContentType: contentType})
	if m.putFn != nil {
		return m.putFn(ctx, key, body, contentType)
	}
	return nil
}

func (m *mockObjectStore) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return io.NopCloser(bytes.NewReader(nil)), "application/octet-stream", nil
}

func (m *mockObjectStore) Delete(ctx context.Context, key string) error {
	m.deleteCalls = append(m.deleteCalls, key)
	return nil
}

func (m *mockObjectStore) DeletePrefix(ctx context.Context, prefix string) error {
	m.deletePrefixCalls = append(m.deletePrefixCalls, prefix)
	return nil
}

func (m *mockObjectStore) PublicURL(key string) string {
	return "https://cdn.example.com/" + key
}
