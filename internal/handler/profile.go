package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"jmgallery/internal/httputil"
	"jmgallery/internal/model"
	"jmgallery/internal/service"
	"jmgallery/internal/storage"
	"jmgallery/internal/transport/http/middleware"
)

// ProfileHandler groups the profile and account-settings endpoints.
type ProfileHandler struct {
	profileService *service.ProfileService
}

// NewProfileHandler wires dependencies for profile endpoints.
func NewProfileHandler(profileService *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// changePasswordRequest is the request body for PUT /update_password.
type changePasswordRequest struct {
	OldPassword          string `json:"old_password"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// changeNSFWRequest is the request body for PUT /change_nsfw.
type changeNSFWRequest struct {
	ShowNSFW *bool `json:"show_nsfw"`
}

// Update edits display name, description and optionally the avatar. The
// avatar arrives as the multipart "profile" part and is normalized to a
// 200x200 JPEG before storage.
// POST /update_profile
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	maxFormSize := int64(model.MaxAvatarSizeBytes) + multipartOverhead
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		httputil.WriteFail(w, "Invalid form data")
		return
	}

	req := &service.UpdateProfileRequest{Name: r.FormValue("name")}
	if _, present := r.MultipartForm.Value["description"]; present {
		description := r.FormValue("description")
		req.Description = &description
	}

	errs := model.ValidationErrors{}
	file, header, err := r.FormFile("profile")
	switch {
	case err == nil:
		defer file.Close()
		data, _, readErr := storage.ReadAndValidateImage(file, header, model.MaxAvatarSizeBytes)
		if readErr != nil {
			addImageError(errs, "profile", readErr)
		} else {
			req.AvatarData = data
		}
	case errors.Is(err, http.ErrMissingFile):
		// Avatar untouched.
	default:
		httputil.WriteFail(w, "Invalid avatar upload")
		return
	}

	if errs.Any() {
		httputil.WriteValidationErrors(w, errs)
		return
	}

	if err := h.profileService.UpdateProfile(r.Context(), userID, req); err != nil {
		var verrs model.ValidationErrors
		switch {
		case errors.As(err, &verrs):
			httputil.WriteValidationErrors(w, verrs)
		case errors.Is(err, model.ErrProfileNotFound):
			httputil.WriteNotFound(w, "Profile not found.")
		default:
			httputil.WriteInternalError(w, err.Error())
		}
		return
	}

	httputil.WriteSuccess(w, "Profile updated successfully.")
}

// UpdatePassword changes the password after checking the current one
// PUT /update_password
func (h *ProfileHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteFail(w, "Invalid request body")
		return
	}

	err := h.profileService.ChangePassword(r.Context(), userID, req.OldPassword, req.Password, req.PasswordConfirmation)
	if err != nil {
		var verrs model.ValidationErrors
		switch {
		case errors.As(err, &verrs):
			httputil.WriteValidationErrors(w, verrs)
		case errors.Is(err, model.ErrInvalidOldPassword):
			httputil.WriteFail(w, "Your current password is not valid.")
		default:
			httputil.WriteInternalError(w, err.Error())
		}
		return
	}

	httputil.WriteSuccess(w, "Password changed successfully.")
}

// ChangeNSFW sets whether NSFW posts appear in the viewer's feed
// PUT /change_nsfw
func (h *ProfileHandler) ChangeNSFW(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	var req changeNSFWRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteFail(w, "Invalid request body")
		return
	}
	if req.ShowNSFW == nil {
		errs := model.ValidationErrors{}
		errs.Add("show_nsfw", "The show_nsfw field is required.")
		httputil.WriteValidationErrors(w, errs)
		return
	}

	if err := h.profileService.ChangeNSFW(r.Context(), userID, *req.ShowNSFW); err != nil {
		httputil.WriteInternalError(w, err.Error())
		return
	}

	if *req.ShowNSFW {
		httputil.WriteSuccess(w, "NSFW posts will now be shown.")
		return
	}
	httputil.WriteSuccess(w, "NSFW posts will now be hidden.")
}

// DeleteUser soft-deletes the authenticated account and revokes every token
// DELETE /delete_user
func (h *ProfileHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	email, err := h.profileService.DeleteAccount(r.Context(), userID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, "User not found.")
			return
		}
		httputil.WriteInternalError(w, err.Error())
		return
	}

	httputil.WriteSuccess(w, fmt.Sprintf("The account %s has been deleted.", email))
}
