package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"jmgallery/internal/handler"
	"jmgallery/internal/httputil"
	"jmgallery/internal/service"
	authmw "jmgallery/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	AuthHandler    *handler.AuthHandler
	PostHandler    *handler.PostHandler
	ProfileHandler *handler.ProfileHandler
	AuthService    *service.AuthService
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	// Health check endpoint (useful for deployment/monitoring)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, 200, map[string]string{"status": "ok"})
	})

	// Public routes - no authentication required
	r.Get("/posts", cfg.PostHandler.Index)
	r.Get("/download/{slug}", cfg.PostHandler.Download)
	r.Post("/register", cfg.AuthHandler.Register)
	r.Post("/login", cfg.AuthHandler.Login)
	r.Post("/forgot", cfg.AuthHandler.Forgot)
	r.Post("/reset", cfg.AuthHandler.Reset)
	r.Get("/verify/{token}", cfg.AuthHandler.Verify)

	// Protected routes - require a valid bearer token
	r.Group(func(r chi.Router) {
		r.Use(authmw.AuthMiddleware(cfg.AuthService))

		// Current user endpoints
		r.Get("/user", cfg.AuthHandler.Me)
		r.Delete("/logout", cfg.AuthHandler.Logout)

		// Post endpoints
		r.Get("/posts_auth", cfg.PostHandler.IndexAuth)
		r.Post("/post", cfg.PostHandler.Create)
		r.Get("/post/{slug}", cfg.PostHandler.Show)
		r.Post("/update_post", cfg.PostHandler.Update)
		r.Delete("/delete_post/{slug}", cfg.PostHandler.Delete)
		r.Get("/my_posts", cfg.PostHandler.Mine)

		// Like/favorite endpoints
		r.Post("/like_post", cfg.PostHandler.Like)
		r.Get("/favorite_posts", cfg.PostHandler.Favorites)

		// Profile and account settings
		r.Post("/update_profile", cfg.ProfileHandler.Update)
		r.Put("/update_password", cfg.ProfileHandler.UpdatePassword)
		r.Put("/change_nsfw", cfg.ProfileHandler.ChangeNSFW)
		r.Delete("/delete_user", cfg.ProfileHandler.DeleteUser)
	})

	return r
}
