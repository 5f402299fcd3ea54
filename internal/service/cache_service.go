package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/clipstream/backend/internal/domain"
	"github.com/clipstream/backend/pkg/redis"
	"go.uber.org/zap"
)

// CacheService provides cache-aside reads for hot video lookups. Every cache
// failure degrades to the database; a Redis outage never fails a request.
type CacheService struct {
	redis *redis.Client
	log   *zap.Logger
}

// NewCacheService creates a new cache service
func NewCacheService(redisClient *redis.Client, log *zap.Logger) *CacheService {
	return &CacheService{redis: redisClient, log: log}
}

// GetVideoWithCache retrieves a video through the cache, falling back to the
// store on miss or error and repopulating asynchronously.
func (c *CacheService) GetVideoWithCache(ctx context.Context, videoID string, dbFallback func(ctx context.Context, id string) (*domain.Video, error)) (*domain.Video, error) {
	cacheKey := c.redis.Keys.VideoByID(videoID)

	cached, err := c.redis.Get(ctx, cacheKey)
	if err == nil && cached != "" {
		var video domain.Video
		if unmarshalErr := json.Unmarshal([]byte(cached), &video); unmarshalErr == nil {
			c.log.Debug("video cache hit", zap.String("video_id", videoID))
			return &video, nil
		}
		c.log.Warn("video cache corrupted, falling back to database",
			zap.String("video_id", videoID))
	} else if err != nil && !redis.IsNil(err) {
		c.log.Warn("video cache error, falling back to database",
			zap.String("video_id", videoID),
			zap.Error(err))
	}

	video, err := dbFallback(ctx, videoID)
	if err != nil {
		return nil, err
	}

	if video != nil {
		go c.cacheAsync(cacheKey, video, redis.TTLVideo)
	}

	return video, nil
}

// GetProfileWithCache retrieves a sanitized profile through the cache.
// Profiles have no mutation path in the API, so a TTL is the only expiry.
func (c *CacheService) GetProfileWithCache(ctx context.Context, userID string, dbFallback func(ctx context.Context, id string) (*domain.PublicUser, error)) (*domain.PublicUser, error) {
	cacheKey := c.redis.Keys.UserProfile(userID)

	cached, err := c.redis.Get(ctx, cacheKey)
	if err == nil && cached != "" {
		var profile domain.PublicUser
		if unmarshalErr := json.Unmarshal([]byte(cached), &profile); unmarshalErr == nil {
			return &profile, nil
		}
	}

	profile, err := dbFallback(ctx, userID)
	if err != nil {
		return nil, err
	}

	go c.cacheAsync(cacheKey, profile, redis.TTLProfile)

	return profile, nil
}

// feedPage is the cached payload for one page of the feed.
type feedPage struct {
	Videos []domain.Video `json:"videos"`
	Total  int64          `json:"total"`
}

// feedCacheKey hashes the filter and page so every distinct query gets its
// own short-lived cache entry.
func feedCacheKey(filter domain.FeedFilter, page domain.PageRequest) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s|%s|%d|%d",
		filter.Query, filter.OwnerID, filter.SortBy, filter.SortDir, page.Page, page.Limit)))
	return hex.EncodeToString(sum[:16])
}

// GetFeedWithCache retrieves one feed page through the cache. The feed TTL is
// short enough that uploads never need to invalidate entries explicitly.
func (c *CacheService) GetFeedWithCache(ctx context.Context, filter domain.FeedFilter, page domain.PageRequest, dbFallback func(ctx context.Context) ([]domain.Video, int64, error)) ([]domain.Video, int64, error) {
	cacheKey := c.redis.Keys.FeedPage(feedCacheKey(filter, page))

	cached, err := c.redis.Get(ctx, cacheKey)
	if err == nil && cached != "" {
		var entry feedPage
		if unmarshalErr := json.Unmarshal([]byte(cached), &entry); unmarshalErr == nil {
			return entry.Videos, entry.Total, nil
		}
	}

	videos, total, err := dbFallback(ctx)
	if err != nil {
		return nil, 0, err
	}

	go c.cacheAsync(cacheKey, feedPage{Videos: videos, Total: total}, redis.TTLFeed)

	return videos, total, nil
}

// InvalidateVideo drops the cached copy after a mutation.
func (c *CacheService) InvalidateVideo(ctx context.Context, videoID string) {
	if err := c.redis.Delete(ctx, c.redis.Keys.VideoByID(videoID)); err != nil {
		c.log.Warn("failed to invalidate video cache",
			zap.String("video_id", videoID),
			zap.Error(err))
	}
}

// cacheAsync stores a payload under key, fire and forget.
func (c *CacheService) cacheAsync(key string, value interface{}, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	payload, err := json.Marshal(value)
	if err != nil {
		c.log.Warn("failed to marshal cache payload", zap.Error(err))
		return
	}

	if err := c.redis.Set(ctx, key, payload, ttl); err != nil {
		c.log.Warn("failed to populate cache", zap.Error(err))
	}
}
