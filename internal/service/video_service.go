package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/domain"
	"github.com/clipstream/backend/internal/repository"
	"github.com/clipstream/backend/internal/storage"
	apperrors "github.com/clipstream/backend/pkg/errors"
	"github.com/clipstream/backend/pkg/logger"
)

// videoService implements VideoService.
type videoService struct {
	videos repository.VideoRepository
	media  storage.MediaStore
	cache  *CacheService // nil when Redis is not configured
	log    *logger.Logger
}

// NewVideoService creates a new video service. cache may be nil.
func NewVideoService(videos repository.VideoRepository, media storage.MediaStore, cache *CacheService, log *logger.Logger) VideoService {
	return &videoService{videos: videos, media: media, cache: cache, log: log}
}

// Publish uploads both assets and creates the record. The two uploads are not
// transactional: when the thumbnail upload fails, the video asset already
// uploaded is left behind (logged, not rolled back).
func (s *videoService) Publish(ctx context.Context, ownerID string, input domain.VideoInput, videoPath, thumbnailPath string) (*domain.Video, error) {
	if input.Title == "" || input.Description == "" {
		return nil, apperrors.NewValidationError("Title and description are required", nil)
	}
	if input.Duration <= 0 {
		return nil, apperrors.NewValidationError("Duration must be greater than zero", map[string]interface{}{
			"field": "duration",
		})
	}
	if videoPath == "" || thumbnailPath == "" {
		return nil, apperrors.NewValidationError("Video file and thumbnail are required", nil)
	}

	videoAsset, err := s.media.Store(ctx, videoPath)
	if err != nil {
		return nil, apperrors.NewExternalError("Video upload failed", err)
	}

	thumbAsset, err := s.media.Store(ctx, thumbnailPath)
	if err != nil {
		s.log.WithError(err).WithField("orphan_remote_id", videoAsset.RemoteID).
			Error("Thumbnail upload failed after video upload succeeded")
		return nil, apperrors.NewExternalError("Thumbnail upload failed", err)
	}

	video := &domain.Video{
		ID:           uuid.New().String(),
		OwnerID:      ownerID,
		Title:        input.Title,
		Description:  input.Description,
		Duration:     input.Duration,
		VideoURL:     videoAsset.URL,
		ThumbnailURL: thumbAsset.URL,
		IsPublished:  true,
	}

	if err := s.videos.Create(ctx, video); err != nil {
		return nil, apperrors.NewInternalError("Failed to create video", err)
	}

	s.log.WithFields(map[string]interface{}{
		"video_id": video.ID,
		"owner_id": ownerID,
	}).Info("Video published")

	return s.videos.GetByID(ctx, video.ID)
}

// GetByID returns a video, through the cache when one is configured.
func (s *videoService) GetByID(ctx context.Context, id string) (*domain.Video, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.NewValidationError("Invalid video ID", nil)
	}

	if s.cache != nil {
		return s.cache.GetVideoWithCache(ctx, id, s.getByIDFromStore)
	}
	return s.getByIDFromStore(ctx, id)
}

func (s *videoService) getByIDFromStore(ctx context.Context, id string) (*domain.Video, error) {
	video, err := s.videos.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NewNotFoundError("Video not found")
		}
		return nil, apperrors.NewInternalError("Failed to load video", err)
	}
	return video, nil
}

// Update applies a partial update after the ownership check. A replacement
// asset is uploaded first; the old remote asset is deleted best-effort once
// the new URL is committed.
func (s *videoService) Update(ctx context.Context, id, requesterID string, update domain.VideoUpdate, videoPath, thumbnailPath string) (*domain.Video, error) {
	existing, err := s.getOwned(ctx, id, requesterID, "Unauthorized to update this video")
	if err != nil {
		return nil, err
	}
	if update.Duration != nil && *update.Duration <= 0 {
		return nil, apperrors.NewValidationError("Duration must be greater than zero", map[string]interface{}{
			"field": "duration",
		})
	}
	if update.Empty() && videoPath == "" && thumbnailPath == "" {
		return nil, apperrors.NewValidationError("No fields to update", nil)
	}

	var staleAssets []string

	if videoPath != "" {
		asset, err := s.media.Store(ctx, videoPath)
		if err != nil {
			return nil, apperrors.NewExternalError("Video upload failed", err)
		}
		update.VideoURL = &asset.URL
		staleAssets = append(staleAssets, existing.VideoURL)
	}

	if thumbnailPath != "" {
		asset, err := s.media.Store(ctx, thumbnailPath)
		if err != nil {
			return nil, apperrors.NewExternalError("Thumbnail upload failed", err)
		}
		update.ThumbnailURL = &asset.URL
		staleAssets = append(staleAssets, existing.ThumbnailURL)
	}

	updated, err := s.videos.Update(ctx, id, update)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NewNotFoundError("Video not found")
		}
		return nil, apperrors.NewInternalError("Failed to update video", err)
	}

	s.removeRemoteAssets(ctx, staleAssets)
	s.invalidate(ctx, id)

	return updated, nil
}

// Delete removes the record first, then cleans up both remote assets
// best-effort. A failed remote deletion orphans the asset rather than
// blocking the user-visible delete.
func (s *videoService) Delete(ctx context.Context, id, requesterID string) error {
	video, err := s.getOwned(ctx, id, requesterID, "Unauthorized to delete this video")
	if err != nil {
		return err
	}

	if err := s.videos.Delete(ctx, id); err != nil {
		if err == repository.ErrNotFound {
			return apperrors.NewNotFoundError("Video not found")
		}
		return apperrors.NewInternalError("Failed to delete video", err)
	}

	s.removeRemoteAssets(ctx, []string{video.VideoURL, video.ThumbnailURL})
	s.invalidate(ctx, id)

	s.log.WithFields(map[string]interface{}{
		"video_id": id,
		"owner_id": requesterID,
	}).Info("Video deleted")

	return nil
}

// TogglePublish flips the publish flag for a video owned by the requester.
func (s *videoService) TogglePublish(ctx context.Context, id, requesterID string) (*domain.Video, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.NewValidationError("Invalid video ID", nil)
	}

	video, err := s.videos.TogglePublish(ctx, id, requesterID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NewNotFoundError("Video not found or unauthorized")
		}
		return nil, apperrors.NewInternalError("Failed to toggle publish status", err)
	}

	s.invalidate(ctx, id)

	return video, nil
}

// IncrementViews atomically bumps the view counter.
func (s *videoService) IncrementViews(ctx context.Context, id string) (*domain.Video, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.NewValidationError("Invalid video ID", nil)
	}

	video, err := s.videos.IncrementViews(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NewNotFoundError("Video not found")
		}
		return nil, apperrors.NewInternalError("Failed to increment views", err)
	}

	s.invalidate(ctx, id)

	return video, nil
}

// ListFeed returns one page of the video feed with pagination metadata.
func (s *videoService) ListFeed(ctx context.Context, filter domain.FeedFilter, page domain.PageRequest) ([]domain.Video, domain.Pagination, error) {
	if filter.OwnerID != "" {
		if _, err := uuid.Parse(filter.OwnerID); err != nil {
			return nil, domain.Pagination{}, apperrors.NewValidationError("Invalid user ID format", nil)
		}
	}

	page = page.Normalize()
	fromStore := func(ctx context.Context) ([]domain.Video, int64, error) {
		return s.videos.ListFeed(ctx, filter, page)
	}

	var (
		videos []domain.Video
		total  int64
		err    error
	)
	if s.cache != nil {
		videos, total, err = s.cache.GetFeedWithCache(ctx, filter, page, fromStore)
	} else {
		videos, total, err = fromStore(ctx)
	}
	if err != nil {
		return nil, domain.Pagination{}, apperrors.NewInternalError("Failed to list videos", err)
	}

	return videos, domain.NewPagination(page, total), nil
}

// getOwned loads a video and enforces ownership.
func (s *videoService) getOwned(ctx context.Context, id, requesterID, denyMessage string) (*domain.Video, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.NewValidationError("Invalid video ID", nil)
	}

	video, err := s.videos.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NewNotFoundError("Video not found")
		}
		return nil, apperrors.NewInternalError("Failed to load video", err)
	}

	if video.OwnerID != requesterID {
		return nil, apperrors.NewAuthorizationError(denyMessage)
	}

	return video, nil
}

// removeRemoteAssets deletes the remote assets behind the given URLs,
// best-effort.
func (s *videoService) removeRemoteAssets(ctx context.Context, urls []string) {
	for _, url := range urls {
		if url == "" {
			continue
		}
		remoteID := storage.RemoteIDFromURL(url)
		if !s.media.Remove(ctx, remoteID) {
			s.log.WithField("remote_id", remoteID).Warn("Remote asset left orphaned")
		}
	}
}

func (s *videoService) invalidate(ctx context.Context, id string) {
	if s.cache != nil {
		s.cache.InvalidateVideo(ctx, id)
	}
}
