package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"jmgallery/internal/httputil"
	"jmgallery/internal/model"
	"jmgallery/internal/service"
	"jmgallery/internal/storage"
	"jmgallery/internal/transport/http/middleware"
)

// multipartOverhead leaves room for the non-file form fields.
const multipartOverhead = 1024 * 1024

// PostHandler groups the post and like/favorite HTTP endpoints.
type PostHandler struct {
	postService *service.PostService
}

// NewPostHandler wires dependencies for post endpoints.
func NewPostHandler(postService *service.PostService) *PostHandler {
	return &PostHandler{postService: postService}
}

// Index returns the public feed: published, non-NSFW posts
// GET /posts
func (h *PostHandler) Index(w http.ResponseWriter, r *http.Request) {
	posts, err := h.postService.ListPublic(r.Context())
	if err != nil {
		httputil.WriteInternalError(w, err.Error())
		return
	}

	httputil.WriteData(w, posts)
}

// IndexAuth returns the feed for the authenticated viewer, honoring their
// NSFW preference and annotating per-post like state
// GET /posts_auth
func (h *PostHandler) IndexAuth(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	posts, err := h.postService.ListForViewer(r.Context(), userID)
	if err != nil {
		httputil.WriteInternalError(w, err.Error())
		return
	}

	httputil.WriteData(w, posts)
}

// Create handles multipart post submission with a required image
// POST /post
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	maxFormSize := int64(model.MaxPostImageSizeBytes) + multipartOverhead
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		httputil.WriteFail(w, "Invalid form data")
		return
	}

	req := &model.CreatePostRequest{Title: r.FormValue("title")}

	errs := model.ValidationErrors{}
	req.Status, req.NSFW = parsePostFlags(r, errs)

	file, header, err := r.FormFile("image")
	switch {
	case err == nil:
		defer file.Close()
		data, contentType, readErr := storage.ReadAndValidateImage(file, header, model.MaxPostImageSizeBytes)
		if readErr != nil {
			addImageError(errs, "image", readErr)
		} else {
			req.ImageData = data
			req.ImageName = header.Filename
			req.ImageContentType = contentType
		}
	case errors.Is(err, http.ErrMissingFile):
		// The service reports the missing required field alongside the rest.
	default:
		httputil.WriteFail(w, "Invalid image upload")
		return
	}

	if errs.Any() {
		httputil.WriteValidationErrors(w, errs)
		return
	}

	post, err := h.postService.Create(r.Context(), userID, req)
	if err != nil {
		h.writePostError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Envelope{
		Success: true,
		Message: "Post created successfully.",
		Data:    post,
	})
}

// Show returns one of the owner's posts by slug
// GET /post/{slug}
func (h *PostHandler) Show(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	post, err := h.postService.Show(r.Context(), userID, chi.URLParam(r, "slug"))
	if err != nil {
		h.writePostError(w, err)
		return
	}

	httputil.WriteData(w, post)
}

// Update rewrites an owned post; the image part is optional
// POST /update_post
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	maxFormSize := int64(model.MaxPostImageSizeBytes) + multipartOverhead
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		httputil.WriteFail(w, "Invalid form data")
		return
	}

	req := &model.UpdatePostRequest{
		Slug:  r.FormValue("slug"),
		Title: r.FormValue("title"),
	}

	errs := model.ValidationErrors{}
	req.Status, req.NSFW = parsePostFlags(r, errs)

	file, header, err := r.FormFile("image")
	switch {
	case err == nil:
		defer file.Close()
		data, contentType, readErr := storage.ReadAndValidateImage(file, header, model.MaxPostImageSizeBytes)
		if readErr != nil {
			addImageError(errs, "image", readErr)
		} else {
			req.ImageData = data
			req.ImageName = header.Filename
			req.ImageContentType = contentType
		}
	case errors.Is(err, http.ErrMissingFile):
		// Keeping the current image.
	default:
		httputil.WriteFail(w, "Invalid image upload")
		return
	}

	if errs.Any() {
		httputil.WriteValidationErrors(w, errs)
		return
	}

	post, err := h.postService.Update(r.Context(), userID, req)
	if err != nil {
		h.writePostError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Envelope{
		Success: true,
		Message: "Post updated successfully.",
		Data:    post,
	})
}

// Delete soft-deletes an owned post
// DELETE /delete_post/{slug}
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	if err := h.postService.Delete(r.Context(), userID, chi.URLParam(r, "slug")); err != nil {
		h.writePostError(w, err)
		return
	}

	httputil.WriteSuccess(w, "Post deleted successfully.")
}

// Download streams the stored image file for a post
// GET /download/{slug}
func (h *PostHandler) Download(w http.ResponseWriter, r *http.Request) {
	body, contentType, filename, err := h.postService.Download(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.writePostError(w, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := io.Copy(w, body); err != nil {
		// Headers are already out; the client sees a truncated body.
		log.Printf("[PostHandler] failed to stream %q: %v", filename, err)
	}
}

// Favorites returns the viewer's liked posts
// GET /favorite_posts
func (h *PostHandler) Favorites(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	favorites, err := h.postService.Favorites(r.Context(), userID)
	if err != nil {
		httputil.WriteInternalError(w, err.Error())
		return
	}

	httputil.WriteData(w, favorites)
}

// Mine returns the viewer's own posts, drafts included
// GET /my_posts
func (h *PostHandler) Mine(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	posts, err := h.postService.Mine(r.Context(), userID)
	if err != nil {
		httputil.WriteInternalError(w, err.Error())
		return
	}

	httputil.WriteData(w, posts)
}

// Like toggles the viewer's favorite flag on a published post
// POST /like_post
func (h *PostHandler) Like(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	var req model.LikePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteFail(w, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Slug) == "" {
		errs := model.ValidationErrors{}
		errs.Add("slug", "The slug field is required.")
		httputil.WriteValidationErrors(w, errs)
		return
	}

	liked, err := h.postService.ToggleLike(r.Context(), userID, req.Slug)
	if err != nil {
		h.writePostError(w, err)
		return
	}

	message := "Post removed from favorites."
	if liked {
		message = "Post added to favorites."
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Envelope{
		Success: true,
		Message: message,
		Data:    map[string]bool{"like": liked},
	})
}

// writePostError translates service errors into the shared envelope.
func (h *PostHandler) writePostError(w http.ResponseWriter, err error) {
	var verrs model.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		httputil.WriteValidationErrors(w, verrs)
	case errors.Is(err, model.ErrPostNotFound):
		httputil.WriteNotFound(w, "Post not found.")
	case errors.Is(err, model.ErrDuplicateSlug):
		httputil.WriteFail(w, "You already have a post with the same title.")
	case errors.Is(err, model.ErrAccountNotVerified):
		httputil.WriteFail(w, "Your account must be verified to create posts.")
	default:
		httputil.WriteInternalError(w, err.Error())
	}
}

// parsePostFlags reads the status and nsfw form fields, reporting malformed
// values. Absent fields come back nil so the service can flag them as missing.
func parsePostFlags(r *http.Request, errs model.ValidationErrors) (*int, *bool) {
	var status *int
	if raw := r.FormValue("status"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			errs.Add("status", "The status must be an integer.")
		} else {
			status = &parsed
		}
	}

	var nsfw *bool
	if raw := r.FormValue("nsfw"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			errs.Add("nsfw", "The nsfw field must be true or false.")
		} else {
			nsfw = &parsed
		}
	}

	return status, nsfw
}

// addImageError folds upload failures into the field errors object so the
// response keeps the validation shape.
func addImageError(errs model.ValidationErrors, field string, err error) {
	switch {
	case errors.Is(err, model.ErrFileTooLarge):
		errs.Add(field, fmt.Sprintf("The %s may not be greater than %d kilobytes.", field, model.MaxPostImageSizeBytes/1024))
	case errors.Is(err, model.ErrInvalidImageType):
		errs.Add(field, fmt.Sprintf("The %s must be an image.", field))
	default:
		errs.Add(field, fmt.Sprintf("The %s could not be processed.", field))
	}
}
