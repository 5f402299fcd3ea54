package redis

import "fmt"

// KeyBuilder provides environment-aware Redis key building so staging and
// production deployments can share a Redis instance without collisions.
type KeyBuilder struct {
	prefix string
}

// NewKeyBuilder creates a new key builder with environment-based prefix
func NewKeyBuilder(environment string) *KeyBuilder {
	prefix := "prod"
	if environment == "development" || environment == "staging" || environment == "test" {
		prefix = "staging"
	}

	return &KeyBuilder{prefix: prefix}
}

// BuildKey constructs a Redis key with the environment prefix
func (kb *KeyBuilder) BuildKey(key string) string {
	return fmt.Sprintf("%s:%s", kb.prefix, key)
}

// Prefix returns the current environment prefix
func (kb *KeyBuilder) Prefix() string {
	return kb.prefix
}

// VideoByID returns the cache key for a single video.
func (kb *KeyBuilder) VideoByID(videoID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyVideoByID, videoID))
}

// UserProfile returns the cache key for a sanitized user profile.
func (kb *KeyBuilder) UserProfile(userID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyUserProfile, userID))
}

// FeedPage returns the cache key for a feed query hash.
func (kb *KeyBuilder) FeedPage(queryHash string) string {
	return kb.BuildKey(fmt.Sprintf(KeyFeedPage, queryHash))
}
