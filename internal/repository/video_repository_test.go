package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipstream/backend/internal/domain"
)

func TestBuildFeedQuery(t *testing.T) {
	page := domain.PageRequest{Page: 2, Limit: 10}

	t.Run("no filters", func(t *testing.T) {
		query, args := buildFeedQuery(domain.FeedFilter{}, page)

		assert.NotContains(t, query, "WHERE")
		assert.Contains(t, query, "ORDER BY v.created_at DESC")
		assert.Contains(t, query, "LIMIT $1 OFFSET $2")
		assert.Equal(t, []interface{}{10, 10}, args)
	})

	t.Run("search query matches title and description", func(t *testing.T) {
		query, args := buildFeedQuery(domain.FeedFilter{Query: "golang"}, page)

		assert.Contains(t, query, "WHERE (v.title ILIKE $1 OR v.description ILIKE $1)")
		assert.Equal(t, "%golang%", args[0])
	})

	t.Run("owner filter combines with search", func(t *testing.T) {
		filter := domain.FeedFilter{
			Query:   "golang",
			OwnerID: "11111111-1111-1111-1111-111111111111",
		}
		query, args := buildFeedQuery(filter, page)

		assert.Contains(t, query, "(v.title ILIKE $1 OR v.description ILIKE $1) AND v.owner_id = $2")
		assert.Contains(t, query, "LIMIT $3 OFFSET $4")
		require.Len(t, args, 4)
		assert.Equal(t, filter.OwnerID, args[1])
	})

	t.Run("sort whitelist", func(t *testing.T) {
		query, _ := buildFeedQuery(domain.FeedFilter{SortBy: "views", SortDir: "asc"}, page)
		assert.Contains(t, query, "ORDER BY v.views ASC")

		query, _ = buildFeedQuery(domain.FeedFilter{SortBy: "createdAt"}, page)
		assert.Contains(t, query, "ORDER BY v.created_at DESC")
	})

	t.Run("unknown sort column falls back to created_at", func(t *testing.T) {
		query, _ := buildFeedQuery(domain.FeedFilter{SortBy: "id; DROP TABLE videos"}, page)
		assert.Contains(t, query, "ORDER BY v.created_at DESC")
		assert.NotContains(t, query, "DROP TABLE")
	})
}

func TestBuildFeedCountQuery(t *testing.T) {
	t.Run("no filters", func(t *testing.T) {
		query, args := buildFeedCountQuery(domain.FeedFilter{})
		assert.Equal(t, "SELECT COUNT(*) FROM videos v", query)
		assert.Empty(t, args)
	})

	t.Run("mirrors the feed query conditions", func(t *testing.T) {
		filter := domain.FeedFilter{
			Query:   "golang",
			OwnerID: "11111111-1111-1111-1111-111111111111",
		}
		countQuery, countArgs := buildFeedCountQuery(filter)
		feedQuery, feedArgs := buildFeedQuery(filter, domain.PageRequest{Page: 1, Limit: 10})

		where := "WHERE (v.title ILIKE $1 OR v.description ILIKE $1) AND v.owner_id = $2"
		assert.Contains(t, countQuery, where)
		assert.Contains(t, feedQuery, where)
		assert.Equal(t, countArgs, feedArgs[:len(countArgs)])

		assert.NotContains(t, countQuery, "LIMIT")
		assert.NotContains(t, countQuery, "ORDER BY")
	})
}

func TestBuildUpdateSet(t *testing.T) {
	t.Run("empty update", func(t *testing.T) {
		sets, args := buildUpdateSet(domain.VideoUpdate{})
		assert.Empty(t, sets)
		assert.Empty(t, args)
	})

	t.Run("single field", func(t *testing.T) {
		title := "New title"
		sets, args := buildUpdateSet(domain.VideoUpdate{Title: &title})
		assert.Equal(t, []string{"title = $1"}, sets)
		assert.Equal(t, []interface{}{"New title"}, args)
	})

	t.Run("all fields keep ordinal order", func(t *testing.T) {
		title := "t"
		description := "d"
		duration := 125
		videoURL := "https://cdn.example.com/media/abc"
		thumbURL := "https://cdn.example.com/media/def"

		sets, args := buildUpdateSet(domain.VideoUpdate{
			Title:        &title,
			Description:  &description,
			Duration:     &duration,
			VideoURL:     &videoURL,
			ThumbnailURL: &thumbURL,
		})

		assert.Equal(t, []string{
			"title = $1",
			"description = $2",
			"duration = $3",
			"video_url = $4",
			"thumbnail_url = $5",
		}, sets)
		assert.Equal(t, []interface{}{"t", "d", 125, videoURL, thumbURL}, args)
	})
}
