package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clipstream/backend/internal/domain"
	"github.com/clipstream/backend/pkg/database"
)

// PostgresSubscriptionRepository provides PostgreSQL-backed persistence for
// subscriber->channel edges.
type PostgresSubscriptionRepository struct {
	db *database.PostgresDB
}

// NewSubscriptionRepository constructs a subscription repository backed by PostgreSQL.
func NewSubscriptionRepository(db *database.PostgresDB) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{db: db}
}

// Get retrieves the edge for a (subscriber, channel) pair.
func (r *PostgresSubscriptionRepository) Get(ctx context.Context, subscriberID, channelID string) (*domain.Subscription, error) {
	var sub domain.Subscription
	err := r.db.Pool.QueryRow(ctx,
		`SELECT id, subscriber_id, channel_id, created_at
		 FROM subscriptions
		 WHERE subscriber_id = $1 AND channel_id = $2`,
		subscriberID, channelID,
	).Scan(&sub.ID, &sub.SubscriberID, &sub.ChannelID, &sub.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select subscription: %w", err)
	}

	return &sub, nil
}

// Create inserts the edge. The unique constraint on (subscriber_id, channel_id)
// turns a concurrent duplicate toggle into ErrConflict instead of a second edge.
func (r *PostgresSubscriptionRepository) Create(ctx context.Context, subscriberID, channelID string) (*domain.Subscription, error) {
	sub := domain.Subscription{
		ID:           uuid.New().String(),
		SubscriberID: subscriberID,
		ChannelID:    channelID,
	}

	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO subscriptions (id, subscriber_id, channel_id)
		 VALUES ($1, $2, $3)
		 RETURNING created_at`,
		sub.ID, sub.SubscriberID, sub.ChannelID,
	).Scan(&sub.CreatedAt)

	if isUniqueViolation(err) {
		return nil, ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("insert subscription: %w", err)
	}

	return &sub, nil
}

// Delete removes the edge for a (subscriber, channel) pair.
func (r *PostgresSubscriptionRepository) Delete(ctx context.Context, subscriberID, channelID string) error {
	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM subscriptions WHERE subscriber_id = $1 AND channel_id = $2`,
		subscriberID, channelID)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListSubscribers returns a page of subscriber profiles for a channel in edge
// insertion order, plus the total subscriber count.
func (r *PostgresSubscriptionRepository) ListSubscribers(ctx context.Context, channelID string, page domain.PageRequest) ([]domain.UserSummary, int64, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT u.id, u.username, u.full_name, u.avatar_url, COUNT(*) OVER() AS total
		 FROM subscriptions s
		 JOIN users u ON u.id = s.subscriber_id
		 WHERE s.channel_id = $1
		 ORDER BY s.created_at
		 LIMIT $2 OFFSET $3`,
		channelID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("query subscribers: %w", err)
	}
	defer rows.Close()

	var (
		subscribers []domain.UserSummary
		total       int64
	)
	for rows.Next() {
		var sub domain.UserSummary
		if err := rows.Scan(&sub.ID, &sub.Username, &sub.FullName, &sub.AvatarURL, &total); err != nil {
			return nil, 0, fmt.Errorf("scan subscriber: %w", err)
		}
		subscribers = append(subscribers, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate subscribers: %w", err)
	}

	// No rows means no window total; count separately so out-of-range
	// pages still report the real subscriber count.
	if len(subscribers) == 0 && page.Offset() > 0 {
		err := r.db.Pool.QueryRow(ctx,
			`SELECT COUNT(*) FROM subscriptions WHERE channel_id = $1`,
			channelID).Scan(&total)
		if err != nil {
			return nil, 0, fmt.Errorf("count subscribers: %w", err)
		}
	}

	return subscribers, total, nil
}

// ListChannels returns a page of channels the user subscribes to in edge
// insertion order, plus the total channel count.
func (r *PostgresSubscriptionRepository) ListChannels(ctx context.Context, subscriberID string, page domain.PageRequest) ([]domain.ChannelEntry, int64, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT u.id, u.username, u.full_name, u.avatar_url, COUNT(*) OVER() AS total
		 FROM subscriptions s
		 JOIN users u ON u.id = s.channel_id
		 WHERE s.subscriber_id = $1
		 ORDER BY s.created_at
		 LIMIT $2 OFFSET $3`,
		subscriberID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("query channels: %w", err)
	}
	defer rows.Close()

	var (
		channels []domain.ChannelEntry
		total    int64
	)
	for rows.Next() {
		var ch domain.ChannelEntry
		if err := rows.Scan(&ch.ID, &ch.Username, &ch.FullName, &ch.AvatarURL, &total); err != nil {
			return nil, 0, fmt.Errorf("scan channel: %w", err)
		}
		ch.IsSubscribed = true
		channels = append(channels, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate channels: %w", err)
	}

	if len(channels) == 0 && page.Offset() > 0 {
		err := r.db.Pool.QueryRow(ctx,
			`SELECT COUNT(*) FROM subscriptions WHERE subscriber_id = $1`,
			subscriberID).Scan(&total)
		if err != nil {
			return nil, 0, fmt.Errorf("count channels: %w", err)
		}
	}

	return channels, total, nil
}
