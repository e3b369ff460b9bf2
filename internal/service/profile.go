package service

import (
	"context"
	"fmt"
	"log"
	"path"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"jmgallery/internal/cache"
	"jmgallery/internal/model"
	"jmgallery/internal/repository"
	"jmgallery/internal/storage"
)

// avatarJPEGQuality is used when normalizing avatars to 200x200 JPEG.
const avatarJPEGQuality = 85

// UpdateProfileRequest carries the parsed multipart fields for
// POST /update_profile. Avatar bytes are read and validated by the handler.
type UpdateProfileRequest struct {
	Name        string
	Description *string
	AvatarData  []byte
}

// ProfileService handles profile edits, password changes, the NSFW
// preference and soft account deletion.
type ProfileService struct {
	userRepo    repository.UserRepository
	profileRepo repository.ProfileRepository
	auth        *AuthService
	userCache   cache.UserCache
	store       storage.ObjectStore
}

func NewProfileService(
	userRepo repository.UserRepository,
	profileRepo repository.ProfileRepository,
	auth *AuthService,
	userCache cache.UserCache,
	store storage.ObjectStore,
) *ProfileService {
	return &ProfileService{
		userRepo:    userRepo,
		profileRepo: profileRepo,
		auth:        auth,
		userCache:   userCache,
		store:       store,
	}
}

// UpdateProfile updates display data and optionally replaces the avatar.
// The cache entry is dropped up front so readers cannot pin the old view for
// the full TTL. Replacing the avatar deletes the previous object and its
// prefix before the new one is stored.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID int64, req *UpdateProfileRequest) error {
	if err := s.userCache.Invalidate(ctx, userID); err != nil {
		log.Printf("[ProfileService] failed to invalidate cache for user %d: %v", userID, err)
	}

	errs := model.ValidationErrors{}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		errs.Add("name", "The name field is required.")
	} else if len(name) > model.MaxProfileNameLength {
		errs.Add("name", fmt.Sprintf("The name may not be greater than %d characters.", model.MaxProfileNameLength))
	}
	if int64(len(req.AvatarData)) > model.MaxAvatarSizeBytes {
		errs.Add("profile", "The profile image may not be greater than 2048 kilobytes.")
	}
	if errs.Any() {
		return errs
	}

	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}

	if len(req.AvatarData) > 0 {
		jpegBytes, err := storage.ResizeToJPEG(req.AvatarData, model.AvatarWidth, model.AvatarHeight, avatarJPEGQuality)
		if err != nil {
			errs.Add("profile", "The profile must be an image.")
			return errs
		}

		if profile.AvatarKey != nil {
			if err := s.store.Delete(ctx, *profile.AvatarKey); err != nil {
				return fmt.Errorf("failed to delete previous avatar: %w", err)
			}
			if err := s.store.DeletePrefix(ctx, path.Dir(*profile.AvatarKey)); err != nil {
				log.Printf("[ProfileService] failed to delete avatar prefix: %v", err)
			}
		}

		key := fmt.Sprintf("%s/%s/avatar%s", model.AvatarFolder, uuid.NewString(), model.AvatarExt)
		if err := s.store.Put(ctx, key, jpegBytes, model.ContentTypeJPEG); err != nil {
			return fmt.Errorf("failed to store avatar: %w", err)
		}

		url := s.store.PublicURL(key)
		profile.AvatarKey = &key
		profile.AvatarURL = &url
	}

	profile.Name = name
	profile.Description = req.Description

	return s.profileRepo.Update(ctx, profile)
}

// ChangePassword verifies the current password before validating and storing
// the new one.
func (s *ProfileService) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword, confirmation string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHashed), []byte(oldPassword)); err != nil {
		return model.ErrInvalidOldPassword
	}

	errs := model.ValidationErrors{}
	validatePassword(errs, newPassword, confirmation)
	if errs.Any() {
		return errs
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.userRepo.UpdatePassword(ctx, userID, string(hashedPassword))
}

// ChangeNSFW sets the viewer's NSFW preference. The preference is surfaced
// by CurrentUser, so the cache entry is invalidated first.
func (s *ProfileService) ChangeNSFW(ctx context.Context, userID int64, show bool) error {
	if err := s.userCache.Invalidate(ctx, userID); err != nil {
		log.Printf("[ProfileService] failed to invalidate cache for user %d: %v", userID, err)
	}

	return s.userRepo.SetShowNSFW(ctx, userID, show)
}

// DeleteAccount soft-deletes the account: status flips to disabled, every
// token is revoked, and the row is retained. Returns the account email for
// the confirmation message.
func (s *ProfileService) DeleteAccount(ctx context.Context, userID int64) (string, error) {
	if err := s.userCache.Invalidate(ctx, userID); err != nil {
		log.Printf("[ProfileService] failed to invalidate cache for user %d: %v", userID, err)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}

	if err := s.userRepo.SetStatus(ctx, userID, model.StatusDisabled); err != nil {
		return "", err
	}

	if err := s.auth.RevokeAllUserTokens(ctx, userID); err != nil {
		return "", err
	}

	return user.Email, nil
}
