package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/clipstream/backend/internal/domain"
	"github.com/clipstream/backend/pkg/database"
)

// PostgresVideoRepository provides PostgreSQL-backed persistence for videos.
type PostgresVideoRepository struct {
	db *database.PostgresDB
}

// NewVideoRepository constructs a video repository backed by PostgreSQL.
func NewVideoRepository(db *database.PostgresDB) *PostgresVideoRepository {
	return &PostgresVideoRepository{db: db}
}

// feedSortColumns whitelists sortable columns so the sort field can never
// reach the SQL string unchecked.
var feedSortColumns = map[string]string{
	"created_at": "v.created_at",
	"createdAt":  "v.created_at",
	"views":      "v.views",
	"duration":   "v.duration",
	"title":      "v.title",
}

const videoSelect = `
	SELECT v.id, v.owner_id, v.title, v.description, v.duration,
	       v.video_url, v.thumbnail_url, v.views, v.is_published,
	       v.created_at, v.updated_at,
	       u.username, u.avatar_url
	FROM videos v
	LEFT JOIN users u ON u.id = v.owner_id`

func scanVideo(row pgx.Row) (*domain.Video, error) {
	var (
		video    domain.Video
		username *string
		avatar   *string
	)
	err := row.Scan(
		&video.ID,
		&video.OwnerID,
		&video.Title,
		&video.Description,
		&video.Duration,
		&video.VideoURL,
		&video.ThumbnailURL,
		&video.Views,
		&video.IsPublished,
		&video.CreatedAt,
		&video.UpdatedAt,
		&username,
		&avatar,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan video: %w", err)
	}

	// Left join: a dangling owner reference must never drop the video.
	if username != nil {
		video.Owner = &domain.UserSummary{Username: *username}
		if avatar != nil {
			video.Owner.AvatarURL = *avatar
		}
	}

	return &video, nil
}

// Create persists a new video record.
func (r *PostgresVideoRepository) Create(ctx context.Context, video *domain.Video) error {
	query := `
		INSERT INTO videos (id, owner_id, title, description, duration, video_url, thumbnail_url, is_published)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING views, created_at, updated_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		video.ID,
		video.OwnerID,
		video.Title,
		video.Description,
		video.Duration,
		video.VideoURL,
		video.ThumbnailURL,
		video.IsPublished,
	).Scan(&video.Views, &video.CreatedAt, &video.UpdatedAt)

	if err != nil {
		return fmt.Errorf("insert video: %w", err)
	}

	return nil
}

// GetByID retrieves a video with its owner summary.
func (r *PostgresVideoRepository) GetByID(ctx context.Context, id string) (*domain.Video, error) {
	query := videoSelect + ` WHERE v.id = $1`
	return scanVideo(r.db.Pool.QueryRow(ctx, query, id))
}

// Update merges the set fields of the partial update into the row and returns
// the updated video.
func (r *PostgresVideoRepository) Update(ctx context.Context, id string, update domain.VideoUpdate) (*domain.Video, error) {
	sets, args := buildUpdateSet(update)
	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	args = append(args, id)
	query := fmt.Sprintf(
		`UPDATE videos SET %s, updated_at = now() WHERE id = $%d`,
		strings.Join(sets, ", "), len(args))

	tag, err := r.db.Pool.Exec(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}

	return r.GetByID(ctx, id)
}

// buildUpdateSet turns the partial update into SET clauses with ordinal args.
func buildUpdateSet(update domain.VideoUpdate) ([]string, []interface{}) {
	var (
		sets []string
		args []interface{}
	)
	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.Title != nil {
		add("title", *update.Title)
	}
	if update.Description != nil {
		add("description", *update.Description)
	}
	if update.Duration != nil {
		add("duration", *update.Duration)
	}
	if update.VideoURL != nil {
		add("video_url", *update.VideoURL)
	}
	if update.ThumbnailURL != nil {
		add("thumbnail_url", *update.ThumbnailURL)
	}

	return sets, args
}

// Delete removes the video row.
func (r *PostgresVideoRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// TogglePublish flips is_published for a video owned by ownerID. The owner
// check lives in the WHERE clause so a non-owner sees the same not-found as a
// missing video.
func (r *PostgresVideoRepository) TogglePublish(ctx context.Context, id, ownerID string) (*domain.Video, error) {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE videos SET is_published = NOT is_published, updated_at = now()
		 WHERE id = $1 AND owner_id = $2`,
		id, ownerID)
	if err != nil {
		return nil, fmt.Errorf("toggle publish: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}

	return r.GetByID(ctx, id)
}

// IncrementViews atomically bumps the view counter.
func (r *PostgresVideoRepository) IncrementViews(ctx context.Context, id string) (*domain.Video, error) {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE videos SET views = views + 1 WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("increment views: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}

	return r.GetByID(ctx, id)
}

// ListFeed returns a page of videos matching the filter plus the total count
// of all matching rows, independent of the page window.
func (r *PostgresVideoRepository) ListFeed(ctx context.Context, filter domain.FeedFilter, page domain.PageRequest) ([]domain.Video, int64, error) {
	query, args := buildFeedQuery(filter, page)

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query feed: %w", err)
	}
	defer rows.Close()

	var (
		videos []domain.Video
		total  int64
	)
	for rows.Next() {
		var (
			video    domain.Video
			username *string
			avatar   *string
		)
		err := rows.Scan(
			&video.ID,
			&video.OwnerID,
			&video.Title,
			&video.Description,
			&video.Duration,
			&video.VideoURL,
			&video.ThumbnailURL,
			&video.Views,
			&video.IsPublished,
			&video.CreatedAt,
			&video.UpdatedAt,
			&username,
			&avatar,
			&total,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("scan feed row: %w", err)
		}
		if username != nil {
			video.Owner = &domain.UserSummary{Username: *username}
			if avatar != nil {
				video.Owner.AvatarURL = *avatar
			}
		}
		videos = append(videos, video)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate feed rows: %w", err)
	}

	// The window total rides on the returned rows, so an offset past the
	// last match yields zero rows and no total. Count separately so the
	// caller still sees how many rows the filter matches.
	if len(videos) == 0 && page.Offset() > 0 {
		countQuery, countArgs := buildFeedCountQuery(filter)
		if err := r.db.Pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("count feed: %w", err)
		}
	}

	return videos, total, nil
}

// buildFeedConds builds the WHERE conditions shared by the feed page query
// and its count fallback.
func buildFeedConds(filter domain.FeedFilter) ([]string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)

	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(v.title ILIKE $%d OR v.description ILIKE $%d)", n, n))
	}
	if filter.OwnerID != "" {
		args = append(args, filter.OwnerID)
		conds = append(conds, fmt.Sprintf("v.owner_id = $%d", len(args)))
	}

	return conds, args
}

// buildFeedQuery assembles the feed SELECT with a window-function total so one
// round trip yields both the page and the full match count.
func buildFeedQuery(filter domain.FeedFilter, page domain.PageRequest) (string, []interface{}) {
	conds, args := buildFeedConds(filter)

	var where string
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	sortCol, ok := feedSortColumns[filter.SortBy]
	if !ok {
		sortCol = "v.created_at"
	}
	dir := "DESC"
	if strings.EqualFold(filter.SortDir, "asc") {
		dir = "ASC"
	}

	args = append(args, page.Limit)
	limitArg := len(args)
	args = append(args, page.Offset())
	offsetArg := len(args)

	query := fmt.Sprintf(`
	SELECT v.id, v.owner_id, v.title, v.description, v.duration,
	       v.video_url, v.thumbnail_url, v.views, v.is_published,
	       v.created_at, v.updated_at,
	       u.username, u.avatar_url,
	       COUNT(*) OVER() AS total
	FROM videos v
	LEFT JOIN users u ON u.id = v.owner_id%s
	ORDER BY %s %s
	LIMIT $%d OFFSET $%d`, where, sortCol, dir, limitArg, offsetArg)

	return query, args
}

// buildFeedCountQuery assembles the plain count over the same conditions, for
// pages whose offset lands past the last matching row.
func buildFeedCountQuery(filter domain.FeedFilter) (string, []interface{}) {
	conds, args := buildFeedConds(filter)

	query := `SELECT COUNT(*) FROM videos v`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	return query, args
}
