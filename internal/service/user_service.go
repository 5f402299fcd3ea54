package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/domain"
	"github.com/clipstream/backend/internal/repository"
	"github.com/clipstream/backend/internal/service/auth"
	"github.com/clipstream/backend/internal/storage"
	apperrors "github.com/clipstream/backend/pkg/errors"
	"github.com/clipstream/backend/pkg/logger"
)

// RegisterInput carries the fields of a registration request.
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
}

// userService implements UserService.
type userService struct {
	users repository.UserRepository
	media storage.MediaStore
	cache *CacheService // nil when Redis is not configured
	log   *logger.Logger
}

// NewUserService creates a new user service. cache may be nil.
func NewUserService(users repository.UserRepository, media storage.MediaStore, cache *CacheService, log *logger.Logger) UserService {
	return &userService{users: users, media: media, cache: cache, log: log}
}

// Register creates an account. Order matters: field validation and the
// uniqueness check run before any media upload so a rejected registration
// leaves nothing behind on the media host.
func (s *userService) Register(ctx context.Context, input RegisterInput, avatarPath, coverPath string) (*domain.PublicUser, error) {
	input.Username = strings.ToLower(strings.TrimSpace(input.Username))
	input.Email = strings.TrimSpace(input.Email)
	input.FullName = strings.TrimSpace(input.FullName)

	if input.Username == "" || input.Email == "" || input.FullName == "" || input.Password == "" {
		return nil, apperrors.NewValidationError("All fields are required", nil)
	}
	if err := auth.ValidatePassword(input.Password); err != nil {
		return nil, err
	}
	if avatarPath == "" {
		return nil, apperrors.NewValidationError("Avatar file is required", map[string]interface{}{
			"field": "avatar",
		})
	}

	taken, err := s.users.ExistsByUsernameOrEmail(ctx, input.Username, input.Email)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to check user existence", err)
	}
	if taken {
		return nil, apperrors.NewConflictError("User already exists")
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to hash password", err)
	}

	avatar, err := s.media.Store(ctx, avatarPath)
	if err != nil {
		return nil, apperrors.NewExternalError("Avatar upload failed", err)
	}

	var coverURL string
	if coverPath != "" {
		cover, err := s.media.Store(ctx, coverPath)
		if err != nil {
			// Cover image is optional; a failed upload does not block
			// registration but the avatar already uploaded stays.
			s.log.WithError(err).Warn("Cover image upload failed")
		} else {
			coverURL = cover.URL
		}
	}

	user := &domain.User{
		ID:           uuid.New().String(),
		Username:     input.Username,
		Email:        input.Email,
		FullName:     input.FullName,
		PasswordHash: hash,
		AvatarURL:    avatar.URL,
		CoverURL:     coverURL,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if err == repository.ErrConflict {
			return nil, apperrors.NewConflictError("User already exists")
		}
		return nil, apperrors.NewInternalError("Failed to create user", err)
	}

	s.log.WithFields(map[string]interface{}{
		"user_id":  user.ID,
		"username": user.Username,
	}).Info("User registered")

	return user.Public(), nil
}

// GetProfile returns the sanitized profile for a user id, through the cache
// when one is configured.
func (s *userService) GetProfile(ctx context.Context, userID string) (*domain.PublicUser, error) {
	if s.cache != nil {
		return s.cache.GetProfileWithCache(ctx, userID, s.profileFromStore)
	}
	return s.profileFromStore(ctx, userID)
}

func (s *userService) profileFromStore(ctx context.Context, userID string) (*domain.PublicUser, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NewNotFoundError("User not found")
		}
		return nil, apperrors.NewInternalError("Failed to load user", err)
	}
	return user.Public(), nil
}
