package domain

import "time"

// Subscription is an edge from a subscriber to a channel (both users).
type Subscription struct {
	ID           string    `json:"id"`
	SubscriberID string    `json:"subscriber_id"`
	ChannelID    string    `json:"channel_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// Toggle outcomes.
const (
	ToggleSubscribed   = "subscribed"
	ToggleUnsubscribed = "unsubscribed"
)
