package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipstream/backend/internal/domain"
	apperrors "github.com/clipstream/backend/pkg/errors"
	"github.com/clipstream/backend/pkg/logger"
)

const (
	subscriberID = "11111111-1111-1111-1111-111111111111"
	channelID    = "22222222-2222-2222-2222-222222222222"
)

func newSubscriptionFixture(t *testing.T) (SubscriptionService, *memSubscriptionRepo, *memUserRepo) {
	t.Helper()

	users := newMemUserRepo(
		&domain.User{ID: subscriberID, Username: "subscriber"},
		&domain.User{ID: channelID, Username: "channel"},
	)
	subs := newMemSubscriptionRepo()
	return NewSubscriptionService(subs, users, logger.NewNop()), subs, users
}

func TestToggleSubscribeUnsubscribe(t *testing.T) {
	svc, subs, _ := newSubscriptionFixture(t)
	ctx := context.Background()

	state, err := svc.Toggle(ctx, subscriberID, channelID)
	require.NoError(t, err)
	assert.Equal(t, domain.ToggleSubscribed, state)
	assert.True(t, subs.edges[edgeKey(subscriberID, channelID)])

	state, err = svc.Toggle(ctx, subscriberID, channelID)
	require.NoError(t, err)
	assert.Equal(t, domain.ToggleUnsubscribed, state)
	assert.False(t, subs.edges[edgeKey(subscriberID, channelID)])
}

func TestToggleValidation(t *testing.T) {
	svc, _, _ := newSubscriptionFixture(t)
	ctx := context.Background()

	t.Run("invalid channel id", func(t *testing.T) {
		_, err := svc.Toggle(ctx, subscriberID, "not-a-uuid")
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.AsAppError(err).Type)
	})

	t.Run("self subscription", func(t *testing.T) {
		_, err := svc.Toggle(ctx, subscriberID, subscriberID)
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.AsAppError(err).Type)
	})

	t.Run("unknown channel", func(t *testing.T) {
		_, err := svc.Toggle(ctx, subscriberID, "33333333-3333-3333-3333-333333333333")
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrorTypeNotFound, apperrors.AsAppError(err).Type)
	})
}

func TestToggleConcurrentInsertIsNoOp(t *testing.T) {
	svc, subs, _ := newSubscriptionFixture(t)

	// Simulate losing the insert race: Get sees no edge, Create conflicts.
	subs.forceConflict = true

	state, err := svc.Toggle(context.Background(), subscriberID, channelID)
	require.NoError(t, err)
	assert.Equal(t, domain.ToggleSubscribed, state)
}

func TestListSubscribers(t *testing.T) {
	svc, subs, _ := newSubscriptionFixture(t)
	ctx := context.Background()
	subs.edges[edgeKey(subscriberID, channelID)] = true

	subscribers, pagination, err := svc.ListSubscribers(ctx, channelID, domain.PageRequest{})
	require.NoError(t, err)
	require.Len(t, subscribers, 1)
	assert.Equal(t, subscriberID, subscribers[0].ID)
	assert.Equal(t, int64(1), pagination.TotalItems)
	assert.Equal(t, 1, pagination.CurrentPage)

	t.Run("invalid channel id", func(t *testing.T) {
		_, _, err := svc.ListSubscribers(ctx, "bogus", domain.PageRequest{})
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.AsAppError(err).Type)
	})

	t.Run("unknown channel", func(t *testing.T) {
		_, _, err := svc.ListSubscribers(ctx, "33333333-3333-3333-3333-333333333333", domain.PageRequest{})
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrorTypeNotFound, apperrors.AsAppError(err).Type)
	})
}

func TestListChannels(t *testing.T) {
	svc, subs, _ := newSubscriptionFixture(t)
	ctx := context.Background()
	subs.edges[edgeKey(subscriberID, channelID)] = true

	channels, pagination, err := svc.ListChannels(ctx, subscriberID, domain.PageRequest{})
	require.NoError(t, err)
	require.Len(t, channels, 1)
	assert.Equal(t, channelID, channels[0].ID)
	assert.True(t, channels[0].IsSubscribed)
	assert.Equal(t, int64(1), pagination.TotalItems)

	t.Run("invalid subscriber id", func(t *testing.T) {
		_, _, err := svc.ListChannels(ctx, "bogus", domain.PageRequest{})
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.AsAppError(err).Type)
	})
}
