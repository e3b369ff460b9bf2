package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"jmgallery/internal/model"
	"jmgallery/internal/repository"
	"jmgallery/internal/storage"
)

// PostService handles the post and like/favorite flows.
type PostService struct {
	postRepo repository.PostRepository
	likeRepo repository.LikeRepository
	userRepo repository.UserRepository
	store    storage.ObjectStore
}

func NewPostService(
	postRepo repository.PostRepository,
	likeRepo repository.LikeRepository,
	userRepo repository.UserRepository,
	store storage.ObjectStore,
) *PostService {
	return &PostService{
		postRepo: postRepo,
		likeRepo: likeRepo,
		userRepo: userRepo,
		store:    store,
	}
}

// ListPublic returns the unauthenticated feed: published, non-NSFW posts only.
func (s *PostService) ListPublic(ctx context.Context) ([]model.Post, error) {
	return s.postRepo.ListVisible(ctx, false)
}

// ListForViewer returns published posts filtered by the viewer's own NSFW
// preference and annotates each with whether the viewer has liked it.
func (s *PostService) ListForViewer(ctx context.Context, viewerID int64) ([]model.Post, error) {
	viewer, err := s.userRepo.GetByID(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	posts, err := s.postRepo.ListVisible(ctx, viewer.ShowNSFW)
	if err != nil {
		return nil, err
	}

	if len(posts) > 0 {
		postIDs := make([]int64, len(posts))
		for i, p := range posts {
			postIDs[i] = p.ID
		}
		likedMap, err := s.likeRepo.CheckLiked(ctx, viewerID, postIDs)
		if err != nil {
			log.Printf("[PostService] failed to check likes for user %d: %v", viewerID, err)
		} else {
			for i := range posts {
				posts[i].Liked = likedMap[posts[i].ID]
			}
		}
	}

	return posts, nil
}

// Create validates the submission, derives the slug from (title, owner) and
// stores the image under a fresh random prefix. Only verified accounts may
// create posts. Slug collisions fail before anything is written; a collision
// that slips past the check is caught by the unique constraint on insert.
func (s *PostService) Create(ctx context.Context, userID int64, req *model.CreatePostRequest) (*model.Post, error) {
	owner, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !owner.Verified {
		return nil, model.ErrAccountNotVerified
	}

	errs := model.ValidationErrors{}
	validatePostFields(errs, req.Title, req.Status, req.NSFW)
	if len(req.ImageData) == 0 {
		errs.Add("image", "The image field is required.")
	}
	if errs.Any() {
		return nil, errs
	}

	postSlug := DeriveSlug(req.Title, userID)

	exists, err := s.postRepo.ExistsBySlug(ctx, postSlug)
	if err != nil {
		return nil, fmt.Errorf("failed to check slug: %w", err)
	}
	if exists {
		return nil, model.ErrDuplicateSlug
	}

	key := fmt.Sprintf("%s/%s/%s", model.PostImageFolder, uuid.NewString(), sanitizeFilename(req.ImageName))
	if err := s.store.Put(ctx, key, req.ImageData, req.ImageContentType); err != nil {
		return nil, fmt.Errorf("failed to store image: %w", err)
	}

	post := &model.Post{
		UserID:   userID,
		Title:    req.Title,
		Slug:     postSlug,
		ImageKey: key,
		ImageURL: s.store.PublicURL(key),
		Status:   *req.Status,
		NSFW:     *req.NSFW,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		// A concurrent create can win the slug between the check and the
		// insert; the stored object is not cleaned up (known gap).
		return nil, err
	}

	return post, nil
}

// Show returns a post by slug, scoped to the owning user.
func (s *PostService) Show(ctx context.Context, userID int64, postSlug string) (*model.Post, error) {
	return s.postRepo.GetBySlugForOwner(ctx, postSlug, userID)
}

// Update rewrites title/status/nsfw and optionally the image. Replacing the
// image deletes the old object and its prefix before the new one is linked.
// The slug is never recomputed.
func (s *PostService) Update(ctx context.Context, userID int64, req *model.UpdatePostRequest) (*model.Post, error) {
	post, err := s.postRepo.GetBySlugForOwner(ctx, req.Slug, userID)
	if err != nil {
		return nil, err
	}

	errs := model.ValidationErrors{}
	validatePostFields(errs, req.Title, req.Status, req.NSFW)
	if errs.Any() {
		return nil, errs
	}

	if len(req.ImageData) > 0 {
		if err := s.store.Delete(ctx, post.ImageKey); err != nil {
			return nil, fmt.Errorf("failed to delete previous image: %w", err)
		}
		if err := s.store.DeletePrefix(ctx, path.Dir(post.ImageKey)); err != nil {
			log.Printf("[PostService] failed to delete image prefix %q: %v", path.Dir(post.ImageKey), err)
		}

		key := fmt.Sprintf("%s/%s/%s", model.PostImageFolder, uuid.NewString(), sanitizeFilename(req.ImageName))
		if err := s.store.Put(ctx, key, req.ImageData, req.ImageContentType); err != nil {
			return nil, fmt.Errorf("failed to store image: %w", err)
		}
		post.ImageKey = key
		post.ImageURL = s.store.PublicURL(key)
	}

	post.Title = req.Title
	post.Status = *req.Status
	post.NSFW = *req.NSFW

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}

	return post, nil
}

// Delete soft-deletes the owner's post. The stored image is retained.
func (s *PostService) Delete(ctx context.Context, userID int64, postSlug string) error {
	return s.postRepo.SoftDelete(ctx, postSlug, userID)
}

// Download streams the raw stored file for a post resolved by slug. There is
// no ownership check: anyone who can resolve the slug can fetch the asset.
func (s *PostService) Download(ctx context.Context, postSlug string) (io.ReadCloser, string, string, error) {
	post, err := s.postRepo.GetBySlug(ctx, postSlug)
	if err != nil {
		return nil, "", "", err
	}

	body, contentType, err := s.store.Get(ctx, post.ImageKey)
	if err != nil {
		return nil, "", "", err
	}

	return body, contentType, path.Base(post.ImageKey), nil
}

// Favorites returns the viewer's liked=true rows joined with their posts.
func (s *PostService) Favorites(ctx context.Context, userID int64) ([]model.FavoritePost, error) {
	return s.likeRepo.ListFavorites(ctx, userID)
}

// Mine returns the viewer's own posts, excluding soft-deleted ones.
func (s *PostService) Mine(ctx context.Context, userID int64) ([]model.Post, error) {
	return s.postRepo.ListByOwner(ctx, userID)
}

// ToggleLike flips the viewer's favorite flag for a published post. The first
// toggle creates the row with liked=true; later toggles flip it in place.
// Returns the resulting state. A concurrent duplicate insert falls back to
// the flip path, so exactly one row exists per (user, post) pair.
func (s *PostService) ToggleLike(ctx context.Context, userID int64, postSlug string) (bool, error) {
	post, err := s.postRepo.GetPublishedBySlug(ctx, postSlug)
	if err != nil {
		return false, err
	}

	like, err := s.likeRepo.Get(ctx, userID, post.ID)
	if err == model.ErrLikeNotFound {
		created := &model.LikedPost{UserID: userID, PostID: post.ID, Liked: true}
		err := s.likeRepo.Create(ctx, created)
		if err == nil {
			return true, nil
		}
		if err != model.ErrLikeExists {
			return false, err
		}
		// Raced with another toggle; flip the row that won.
		like, err = s.likeRepo.Get(ctx, userID, post.ID)
		if err != nil {
			return false, err
		}
	} else if err != nil {
		return false, err
	}

	newState := !like.Liked
	if err := s.likeRepo.SetLiked(ctx, like.ID, newState); err != nil {
		return false, err
	}

	return newState, nil
}

// DeriveSlug computes the URL identifier for a post deterministically from
// its title and owner. It is assigned once at creation and immutable after.
func DeriveSlug(title string, ownerID int64) string {
	return slug.Make(fmt.Sprintf("%s-%d", title, ownerID))
}

func validatePostFields(errs model.ValidationErrors, title string, status *int, nsfw *bool) {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		errs.Add("title", "The title field is required.")
	} else if len(trimmed) < model.MinTitleLength || len(trimmed) > model.MaxTitleLength {
		errs.Add("title", fmt.Sprintf("The title must be between %d and %d characters.", model.MinTitleLength, model.MaxTitleLength))
	}

	if status == nil {
		errs.Add("status", "The status field is required.")
	} else if *status != model.PostStatusPublished && *status != model.PostStatusDraft {
		errs.Add("status", "The selected status is invalid.")
	}

	if nsfw == nil {
		errs.Add("nsfw", "The nsfw field is required.")
	}
}

// sanitizeFilename keeps object keys to a single path element.
func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "" || name == "." || name == "/" {
		return "image"
	}
	return name
}
