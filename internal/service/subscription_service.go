package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/domain"
	"github.com/clipstream/backend/internal/repository"
	apperrors "github.com/clipstream/backend/pkg/errors"
	"github.com/clipstream/backend/pkg/logger"
)

// subscriptionService implements SubscriptionService.
type subscriptionService struct {
	subscriptions repository.SubscriptionRepository
	users         repository.UserRepository
	log           *logger.Logger
}

// NewSubscriptionService creates a new subscription service
func NewSubscriptionService(subscriptions repository.SubscriptionRepository, users repository.UserRepository, log *logger.Logger) SubscriptionService {
	return &subscriptionService{subscriptions: subscriptions, users: users, log: log}
}

// Toggle creates the edge if absent and deletes it if present. The store's
// unique constraint turns a concurrent duplicate insert into a no-op
// "subscribed" result instead of a second edge.
func (s *subscriptionService) Toggle(ctx context.Context, subscriberID, channelID string) (string, error) {
	if _, err := uuid.Parse(channelID); err != nil {
		return "", apperrors.NewValidationError("Invalid channel ID", nil)
	}
	if subscriberID == channelID {
		return "", apperrors.NewValidationError("Cannot subscribe to yourself", nil)
	}

	if err := s.ensureUserExists(ctx, channelID, "Channel does not exist"); err != nil {
		return "", err
	}

	_, err := s.subscriptions.Get(ctx, subscriberID, channelID)
	switch err {
	case nil:
		if err := s.subscriptions.Delete(ctx, subscriberID, channelID); err != nil && err != repository.ErrNotFound {
			return "", apperrors.NewInternalError("Failed to unsubscribe", err)
		}
		return domain.ToggleUnsubscribed, nil

	case repository.ErrNotFound:
		if _, err := s.subscriptions.Create(ctx, subscriberID, channelID); err != nil {
			if err == repository.ErrConflict {
				// Lost a race with a concurrent toggle; the edge exists.
				return domain.ToggleSubscribed, nil
			}
			return "", apperrors.NewInternalError("Failed to subscribe", err)
		}
		return domain.ToggleSubscribed, nil

	default:
		return "", apperrors.NewInternalError("Failed to look up subscription", err)
	}
}

// ListSubscribers returns a page of subscriber profiles for a channel.
func (s *subscriptionService) ListSubscribers(ctx context.Context, channelID string, page domain.PageRequest) ([]domain.UserSummary, domain.Pagination, error) {
	if _, err := uuid.Parse(channelID); err != nil {
		return nil, domain.Pagination{}, apperrors.NewValidationError("Invalid channel ID", nil)
	}
	if err := s.ensureUserExists(ctx, channelID, "Channel does not exist"); err != nil {
		return nil, domain.Pagination{}, err
	}

	page = page.Normalize()
	subscribers, total, err := s.subscriptions.ListSubscribers(ctx, channelID, page)
	if err != nil {
		return nil, domain.Pagination{}, apperrors.NewInternalError("Failed to list subscribers", err)
	}

	return subscribers, domain.NewPagination(page, total), nil
}

// ListChannels returns a page of channels the user subscribes to.
func (s *subscriptionService) ListChannels(ctx context.Context, subscriberID string, page domain.PageRequest) ([]domain.ChannelEntry, domain.Pagination, error) {
	if _, err := uuid.Parse(subscriberID); err != nil {
		return nil, domain.Pagination{}, apperrors.NewValidationError("Invalid subscriber ID", nil)
	}
	if err := s.ensureUserExists(ctx, subscriberID, "User not found"); err != nil {
		return nil, domain.Pagination{}, err
	}

	page = page.Normalize()
	channels, total, err := s.subscriptions.ListChannels(ctx, subscriberID, page)
	if err != nil {
		return nil, domain.Pagination{}, apperrors.NewInternalError("Failed to list channels", err)
	}

	return channels, domain.NewPagination(page, total), nil
}

func (s *subscriptionService) ensureUserExists(ctx context.Context, userID, message string) error {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if err == repository.ErrNotFound {
			return apperrors.NewNotFoundError(message)
		}
		return apperrors.NewInternalError("Failed to look up user", err)
	}
	return nil
}
