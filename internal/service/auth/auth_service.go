package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/clipstream/backend/internal/config"
	"github.com/clipstream/backend/internal/domain"
	"github.com/clipstream/backend/internal/repository"
	apperrors "github.com/clipstream/backend/pkg/errors"
	"github.com/clipstream/backend/pkg/logger"
)

// passwordSymbols is the punctuation set the password policy accepts.
const passwordSymbols = "@$!%*?&"

// TokenPair is an access/refresh token pair.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Service issues and validates token pairs and verifies credentials. Access
// and refresh tokens are signed with separate secrets; the refresh token is
// additionally pinned to the user row, so only the most recently issued one
// is accepted for rotation.
type Service struct {
	users           repository.UserRepository
	accessSecret    []byte
	refreshSecret   []byte
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
	log             *logger.Logger
}

// NewService creates a new auth service
func NewService(cfg *config.Config, users repository.UserRepository, log *logger.Logger) *Service {
	return &Service{
		users:           users,
		accessSecret:    []byte(cfg.AccessSecret),
		refreshSecret:   []byte(cfg.RefreshSecret),
		accessTokenTTL:  cfg.AccessTokenTTL,
		refreshTokenTTL: cfg.RefreshTokenTTL,
		log:             log,
	}
}

// ValidatePassword enforces the account password policy: at least 7
// characters with one lowercase, one uppercase, one digit and one symbol.
func ValidatePassword(password string) error {
	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= '0' && r <= '9':
			hasDigit = true
		case strings.ContainsRune(passwordSymbols, r):
			hasSymbol = true
		}
	}

	if len(password) < 7 || !hasLower || !hasUpper || !hasDigit || !hasSymbol {
		return apperrors.NewValidationError(
			"Password must be at least 7 characters and contain one uppercase, one lowercase, one digit and one special character",
			map[string]interface{}{"field": "password"},
		)
	}

	return nil
}

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyCredentials looks up a user by username or email and checks the
// password against the stored hash.
func (s *Service) VerifyCredentials(ctx context.Context, identifier, password string) (*domain.User, error) {
	user, err := s.users.GetByIdentifier(ctx, identifier)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NewNotFoundError("User does not exist")
		}
		return nil, apperrors.NewInternalError("Failed to look up user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.NewAuthenticationError("Invalid user credentials")
	}

	return user, nil
}

// IssueTokenPair signs a new access/refresh pair for the user and persists
// the refresh token, invalidating any previously issued one.
func (s *Service) IssueTokenPair(ctx context.Context, userID string) (*TokenPair, error) {
	accessToken, err := s.signToken(userID, s.accessSecret, s.accessTokenTTL)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to generate access token", err)
	}

	refreshToken, err := s.signToken(userID, s.refreshSecret, s.refreshTokenTTL)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to generate refresh token", err)
	}

	if err := s.users.SetRefreshToken(ctx, userID, refreshToken); err != nil {
		return nil, apperrors.NewInternalError("Failed to persist refresh token", err)
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// VerifyAccess validates an access token and returns the user id it carries.
func (s *Service) VerifyAccess(tokenString string) (string, error) {
	return s.verifyToken(tokenString, s.accessSecret)
}

// RotateRefresh exchanges a valid, current refresh token for a fresh pair.
// A token that fails signature or expiry checks, or that is no longer the
// one stored on the user, is rejected. The swap is a conditional update, so
// concurrent rotations with the same stale token let exactly one through.
func (s *Service) RotateRefresh(ctx context.Context, presented string) (*TokenPair, error) {
	userID, err := s.verifyToken(presented, s.refreshSecret)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.signToken(userID, s.accessSecret, s.accessTokenTTL)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to generate access token", err)
	}

	refreshToken, err := s.signToken(userID, s.refreshSecret, s.refreshTokenTTL)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to generate refresh token", err)
	}

	swapped, err := s.users.RotateRefreshToken(ctx, userID, presented, refreshToken)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to rotate refresh token", err)
	}
	if !swapped {
		s.log.WithField("user_id", userID).Warn("Stale refresh token presented")
		return nil, apperrors.NewAuthenticationError("Refresh token is expired or already used")
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Logout clears the stored refresh token for the user.
func (s *Service) Logout(ctx context.Context, userID string) error {
	if err := s.users.ClearRefreshToken(ctx, userID); err != nil {
		return apperrors.NewInternalError("Failed to clear refresh token", err)
	}
	return nil
}

// signToken creates an HS256 token with the user id as subject.
func (s *Service) signToken(userID string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// verifyToken parses and validates a token and returns its subject.
func (s *Service) verifyToken(tokenString string, secret []byte) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{},
		func(t *jwt.Token) (interface{}, error) {
			return secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || !token.Valid {
		return "", apperrors.NewAuthenticationError("Invalid or expired token")
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", apperrors.NewAuthenticationError("Invalid token claims")
	}

	return claims.Subject, nil
}
