package domain

import "time"

// Video represents a published media asset and its bookkeeping.
type Video struct {
	ID           string       `json:"id"`
	OwnerID      string       `json:"owner_id"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Duration     int          `json:"duration"`
	VideoURL     string       `json:"video_file"`
	ThumbnailURL string       `json:"thumbnail"`
	Views        int64        `json:"views"`
	IsPublished  bool         `json:"is_published"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	Owner        *UserSummary `json:"owner,omitempty"`
}

// VideoInput carries the required fields for publishing a video.
type VideoInput struct {
	Title       string
	Description string
	Duration    int
}

// VideoUpdate is an explicit partial update: nil fields are left untouched.
// The repository merges set fields into the row.
type VideoUpdate struct {
	Title        *string
	Description  *string
	Duration     *int
	VideoURL     *string
	ThumbnailURL *string
}

// Empty reports whether the update would change nothing.
func (u VideoUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Duration == nil &&
		u.VideoURL == nil && u.ThumbnailURL == nil
}

// FeedFilter restricts and orders the video feed.
type FeedFilter struct {
	Query   string // case-insensitive substring over title/description
	OwnerID string // restrict to a single owner
	SortBy  string // created_at, views, duration, title
	SortDir string // asc or desc
}
