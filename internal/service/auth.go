package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"jmgallery/internal/model"
	"jmgallery/internal/repository"
)

// AuthService issues and revokes bearer tokens. Tokens are signed JWTs whose
// SHA-256 hash is persisted, so each one stays individually revocable:
// the middleware accepts a token only when the signature checks out AND the
// stored row is neither revoked nor expired.
type AuthService struct {
	tokenRepo repository.AccessTokenRepository
	jwtSecret string
	maxAge    time.Duration
}

func NewAuthService(tokenRepo repository.AccessTokenRepository, jwtSecret string, maxAgeDays int) *AuthService {
	return &AuthService{
		tokenRepo: tokenRepo,
		jwtSecret: jwtSecret,
		maxAge:    time.Duration(maxAgeDays) * 24 * time.Hour,
	}
}

// IssueToken creates a new 31-day token bound to the user and persists its
// hash. It does not revoke prior tokens; login does that explicitly first.
func (s *AuthService) IssueToken(ctx context.Context, userID int64) (string, error) {
	tokenID := uuid.NewString()
	expiresAt := time.Now().Add(s.maxAge)

	claims := jwt.MapClaims{
		"user_id": userID,
		"jti":     tokenID,
		"exp":     expiresAt.Unix(),
		"iat":     time.Now().Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	token := &model.AccessToken{
		ID:        tokenID,
		UserID:    userID,
		TokenHash: s.hashToken(signed),
		ExpiresAt: expiresAt,
	}
	if err := s.tokenRepo.Create(ctx, token); err != nil {
		return "", fmt.Errorf("failed to store access token: %w", err)
	}

	return signed, nil
}

// Authenticate validates a presented bearer token and returns the bound user
// and the token's id (needed for single-token logout).
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (int64, string, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !parsed.Valid {
		return 0, "", model.ErrTokenInvalid
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", model.ErrTokenInvalid
	}
	userIDFloat, ok := claims["user_id"].(float64)
	if !ok {
		return 0, "", model.ErrTokenInvalid
	}

	stored, err := s.tokenRepo.FindByTokenHash(ctx, s.hashToken(tokenString))
	if err != nil {
		return 0, "", model.ErrTokenNotFound
	}
	if stored.IsRevoked() {
		return 0, "", model.ErrTokenRevoked
	}
	if stored.IsExpired() {
		return 0, "", model.ErrTokenExpired
	}

	return int64(userIDFloat), stored.ID, nil
}

// RevokeToken revokes a single token by id (logout of the current session).
func (s *AuthService) RevokeToken(ctx context.Context, tokenID string) error {
	return s.tokenRepo.Revoke(ctx, tokenID)
}

// RevokeAllUserTokens revokes every outstanding token for the user.
// Called before issuing a login token and on account self-deletion.
func (s *AuthService) RevokeAllUserTokens(ctx context.Context, userID int64) error {
	return s.tokenRepo.RevokeAllForUser(ctx, userID)
}

func (s *AuthService) hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
