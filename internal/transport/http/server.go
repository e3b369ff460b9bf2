package http

import (
	"context"
	"fmt"
	"log"
	stdhttp "net/http"
	"time"

	"jmgallery/internal/cache"
	"jmgallery/internal/config"
	"jmgallery/internal/database"
	"jmgallery/internal/handler"
	"jmgallery/internal/mail"
	"jmgallery/internal/redis"
	"jmgallery/internal/repository"
	"jmgallery/internal/service"
	"jmgallery/internal/storage"
)

func Run() error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Connect to Database
	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// 3. Connect to Redis (user view cache)
	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to create redis client: %w", err)
	}
	defer redisClient.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(ctx); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	// 4. Object storage for post images and avatars
	store, err := storage.NewS3Store(context.Background(), cfg)
	if err != nil {
		return fmt.Errorf("failed to create object store: %w", err)
	}

	// 5. Outbound mail
	mailer := mail.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom, cfg.AppURL)

	// 6. Repositories
	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	postRepo := repository.NewPostRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	tokenRepo := repository.NewAccessTokenRepository(db)

	// 7. Services
	userCache := cache.NewUserCache(redisClient.Client)
	authService := service.NewAuthService(tokenRepo, cfg.JWTSecret, cfg.TokenMaxAgeDays)
	userService := service.NewUserService(userRepo, profileRepo, authService, mailer, userCache)
	postService := service.NewPostService(postRepo, likeRepo, userRepo, store)
	profileService := service.NewProfileService(userRepo, profileRepo, authService, userCache, store)

	// 8. Sweep tokens that expired long ago so the table doesn't grow unbounded
	if deleted, err := tokenRepo.DeleteExpired(context.Background(), 24*time.Hour); err != nil {
		log.Printf("Failed to delete expired tokens: %v", err)
	} else if deleted > 0 {
		log.Printf("Deleted %d expired access tokens", deleted)
	}

	// 9. Handlers and router
	authHandler := handler.NewAuthHandler(userService, cfg)
	postHandler := handler.NewPostHandler(postService)
	profileHandler := handler.NewProfileHandler(profileService)

	router := NewRouter(RouterConfig{
		AuthHandler:    authHandler,
		PostHandler:    postHandler,
		ProfileHandler: profileHandler,
		AuthService:    authService,
	})

	addr := ":" + cfg.ServerPort
	log.Printf("Starting server on %s", addr)
	return stdhttp.ListenAndServe(addr, router)
}
