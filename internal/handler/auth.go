package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"jmgallery/internal/config"
	"jmgallery/internal/httputil"
	"jmgallery/internal/model"
	"jmgallery/internal/service"
	"jmgallery/internal/transport/http/middleware"
)

// AuthHandler groups the account lifecycle endpoints: registration, login,
// logout, the current-user view, email verification and password recovery.
type AuthHandler struct {
	userService *service.UserService
	config      *config.Config
}

// NewAuthHandler wires dependencies for authentication endpoints.
func NewAuthHandler(userService *service.UserService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		config:      cfg,
	}
}

// Register handles account creation
// POST /register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteFail(w, "Invalid request body")
		return
	}

	token, err := h.userService.Register(r.Context(), &req)
	if err != nil {
		var verrs model.ValidationErrors
		if errors.As(err, &verrs) {
			httputil.WriteValidationErrors(w, verrs)
			return
		}
		httputil.WriteInternalError(w, err.Error())
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Envelope{
		Success: true,
		Message: "Registered successfully. Please check your email to verify your account.",
		Token:   token,
	})
}

// Login handles email/password authentication
// POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteFail(w, "Invalid request body")
		return
	}

	token, err := h.userService.Login(r.Context(), &req)
	if err != nil {
		var verrs model.ValidationErrors
		switch {
		case errors.As(err, &verrs):
			httputil.WriteValidationErrors(w, verrs)
		case errors.Is(err, model.ErrUserNotRegistered):
			httputil.WriteFail(w, "You are not registered.")
		case errors.Is(err, model.ErrUserNotVerified):
			httputil.WriteFail(w, "Your account is not verified. Please check your email.")
		case errors.Is(err, model.ErrInvalidCredentials):
			httputil.WriteFail(w, "Invalid email or password.")
		default:
			httputil.WriteInternalError(w, err.Error())
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Envelope{
		Success: true,
		Token:   token,
	})
}

// Logout revokes the token presented with this request, leaving other
// sessions alone
// DELETE /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	tokenID, ok := middleware.GetTokenIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	if err := h.userService.Logout(r.Context(), tokenID); err != nil {
		httputil.WriteInternalError(w, err.Error())
		return
	}

	httputil.WriteSuccess(w, "Successfully logged out.")
}

// Me returns the merged user+profile view for the authenticated account
// GET /user
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	current, err := h.userService.CurrentUser(r.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrUserNotFound), errors.Is(err, model.ErrUserInactive):
			httputil.WriteUnauthorized(w, "User is not active.")
		default:
			httputil.WriteInternalError(w, err.Error())
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Envelope{
		Success: true,
		User:    current,
	})
}

// Forgot mails a password reset token to the account email
// POST /forgot
func (h *AuthHandler) Forgot(w http.ResponseWriter, r *http.Request) {
	var req model.ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteFail(w, "Invalid request body")
		return
	}

	if err := h.userService.ForgotPassword(r.Context(), req.Email); err != nil {
		var verrs model.ValidationErrors
		switch {
		case errors.As(err, &verrs):
			httputil.WriteValidationErrors(w, verrs)
		case errors.Is(err, model.ErrUserNotRegistered):
			httputil.WriteFail(w, "You are not registered.")
		default:
			httputil.WriteInternalError(w, err.Error())
		}
		return
	}

	httputil.WriteSuccess(w, "A password reset link has been sent to your email.")
}

// Reset sets a new password given a valid (email, token) pair
// POST /reset
func (h *AuthHandler) Reset(w http.ResponseWriter, r *http.Request) {
	var req model.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteFail(w, "Invalid request body")
		return
	}

	if err := h.userService.ResetPassword(r.Context(), &req); err != nil {
		var verrs model.ValidationErrors
		switch {
		case errors.As(err, &verrs):
			httputil.WriteValidationErrors(w, verrs)
		case errors.Is(err, model.ErrInvalidResetToken):
			httputil.WriteFail(w, "The password reset token is invalid.")
		default:
			httputil.WriteInternalError(w, err.Error())
		}
		return
	}

	httputil.WriteSuccess(w, "Your password has been changed.")
}

// Verify consumes an email verification token. Success redirects the browser
// to the frontend; failure stays in the JSON envelope since there is no page
// to land on.
// GET /verify/{token}
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	if err := h.userService.VerifyEmail(r.Context(), token); err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidVerifyToken), errors.Is(err, model.ErrUserNotFound):
			httputil.WriteFail(w, "The verification token is invalid.")
		default:
			httputil.WriteInternalError(w, err.Error())
		}
		return
	}

	http.Redirect(w, r, h.config.FrontendURL, http.StatusMovedPermanently)
}
