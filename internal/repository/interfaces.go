package repository

import (
	"context"

	"github.com/clipstream/backend/internal/domain"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	// Create persists a new user
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByIdentifier retrieves a user by username or email
	GetByIdentifier(ctx context.Context, identifier string) (*domain.User, error)

	// ExistsByUsernameOrEmail reports whether either value is already taken
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)

	// SetRefreshToken stores the current refresh token for a user,
	// replacing whatever was there before
	SetRefreshToken(ctx context.Context, userID, token string) error

	// RotateRefreshToken swaps oldToken for newToken in one conditional
	// update; returns false when oldToken is no longer the stored token
	RotateRefreshToken(ctx context.Context, userID, oldToken, newToken string) (bool, error)

	// ClearRefreshToken removes the stored refresh token (logout)
	ClearRefreshToken(ctx context.Context, userID string) error
}

// VideoRepository defines the interface for video data operations
type VideoRepository interface {
	// Create persists a new video
	Create(ctx context.Context, video *domain.Video) error

	// GetByID retrieves a video with its owner summary
	GetByID(ctx context.Context, id string) (*domain.Video, error)

	// Update merges the set fields of the partial update into the row
	Update(ctx context.Context, id string, update domain.VideoUpdate) (*domain.Video, error)

	// Delete removes the video row
	Delete(ctx context.Context, id string) error

	// TogglePublish flips is_published for a video owned by ownerID
	TogglePublish(ctx context.Context, id, ownerID string) (*domain.Video, error)

	// IncrementViews atomically bumps the view counter
	IncrementViews(ctx context.Context, id string) (*domain.Video, error)

	// ListFeed returns a page of videos matching the filter plus the total count
	ListFeed(ctx context.Context, filter domain.FeedFilter, page domain.PageRequest) ([]domain.Video, int64, error)
}

// SubscriptionRepository defines the interface for subscription edge operations
type SubscriptionRepository interface {
	// Get retrieves the edge for a (subscriber, channel) pair
	Get(ctx context.Context, subscriberID, channelID string) (*domain.Subscription, error)

	// Create inserts the edge; ErrConflict when the pair already exists
	Create(ctx context.Context, subscriberID, channelID string) (*domain.Subscription, error)

	// Delete removes the edge for a (subscriber, channel) pair
	Delete(ctx context.Context, subscriberID, channelID string) error

	// ListSubscribers returns a page of subscriber profiles for a channel
	ListSubscribers(ctx context.Context, channelID string, page domain.PageRequest) ([]domain.UserSummary, int64, error)

	// ListChannels returns a page of channels a user subscribes to
	ListChannels(ctx context.Context, subscriberID string, page domain.PageRequest) ([]domain.ChannelEntry, int64, error)
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	User         UserRepository
	Video        VideoRepository
	Subscription SubscriptionRepository
}
