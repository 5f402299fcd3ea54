package service

import (
	"context"

	"github.com/clipstream/backend/internal/domain"
	"github.com/clipstream/backend/internal/service/auth"
)

// AuthService defines the interface for authentication operations
type AuthService interface {
	// VerifyCredentials checks an identifier (username or email) and password
	VerifyCredentials(ctx context.Context, identifier, password string) (*domain.User, error)

	// IssueTokenPair signs and persists a fresh access/refresh pair
	IssueTokenPair(ctx context.Context, userID string) (*auth.TokenPair, error)

	// VerifyAccess validates an access token and returns the user id
	VerifyAccess(token string) (string, error)

	// RotateRefresh exchanges the current refresh token for a new pair
	RotateRefresh(ctx context.Context, presented string) (*auth.TokenPair, error)

	// Logout invalidates the stored refresh token
	Logout(ctx context.Context, userID string) error
}

// UserService defines the interface for account operations
type UserService interface {
	// Register creates an account after validation, uniqueness check and
	// avatar upload
	Register(ctx context.Context, input RegisterInput, avatarPath, coverPath string) (*domain.PublicUser, error)

	// GetProfile returns the sanitized profile for a user id
	GetProfile(ctx context.Context, userID string) (*domain.PublicUser, error)
}

// VideoService defines the interface for video catalog operations
type VideoService interface {
	Publish(ctx context.Context, ownerID string, input domain.VideoInput, videoPath, thumbnailPath string) (*domain.Video, error)
	GetByID(ctx context.Context, id string) (*domain.Video, error)
	Update(ctx context.Context, id, requesterID string, update domain.VideoUpdate, videoPath, thumbnailPath string) (*domain.Video, error)
	Delete(ctx context.Context, id, requesterID string) error
	TogglePublish(ctx context.Context, id, requesterID string) (*domain.Video, error)
	IncrementViews(ctx context.Context, id string) (*domain.Video, error)
	ListFeed(ctx context.Context, filter domain.FeedFilter, page domain.PageRequest) ([]domain.Video, domain.Pagination, error)
}

// SubscriptionService defines the interface for subscription operations
type SubscriptionService interface {
	// Toggle flips the edge and returns ToggleSubscribed or ToggleUnsubscribed
	Toggle(ctx context.Context, subscriberID, channelID string) (string, error)

	ListSubscribers(ctx context.Context, channelID string, page domain.PageRequest) ([]domain.UserSummary, domain.Pagination, error)
	ListChannels(ctx context.Context, subscriberID string, page domain.PageRequest) ([]domain.ChannelEntry, domain.Pagination, error)
}

// Services aggregates all service interfaces
type Services struct {
	Auth         AuthService
	User         UserService
	Video        VideoService
	Subscription SubscriptionService
}
