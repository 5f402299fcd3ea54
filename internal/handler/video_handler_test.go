package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipstream/backend/internal/config"
	"github.com/clipstream/backend/internal/container"
	"github.com/clipstream/backend/internal/domain"
	"github.com/clipstream/backend/internal/middleware"
	"github.com/clipstream/backend/internal/service"
	apperrors "github.com/clipstream/backend/pkg/errors"
	"github.com/clipstream/backend/pkg/logger"
)

// stubVideoService returns canned values and records the inputs it saw.
type stubVideoService struct {
	video  *domain.Video
	videos []domain.Video
	err    error

	lastFilter domain.FeedFilter
	lastPage   domain.PageRequest
	lastID     string
	lastUser   string
}

func (s *stubVideoService) Publish(ctx context.Context, ownerID string, input domain.VideoInput, videoPath, thumbnailPath string) (*domain.Video, error) {
	s.lastUser = ownerID
	return s.video, s.err
}

func (s *stubVideoService) GetByID(ctx context.Context, id string) (*domain.Video, error) {
	s.lastID = id
	return s.video, s.err
}

func (s *stubVideoService) Update(ctx context.Context, id, requesterID string, update domain.VideoUpdate, videoPath, thumbnailPath string) (*domain.Video, error) {
	s.lastID, s.lastUser = id, requesterID
	return s.video, s.err
}

func (s *stubVideoService) Delete(ctx context.Context, id, requesterID string) error {
	s.lastID, s.lastUser = id, requesterID
	return s.err
}

func (s *stubVideoService) TogglePublish(ctx context.Context, id, requesterID string) (*domain.Video, error) {
	s.lastID, s.lastUser = id, requesterID
	return s.video, s.err
}

func (s *stubVideoService) IncrementViews(ctx context.Context, id string) (*domain.Video, error) {
	s.lastID = id
	return s.video, s.err
}

func (s *stubVideoService) ListFeed(ctx context.Context, filter domain.FeedFilter, page domain.PageRequest) ([]domain.Video, domain.Pagination, error) {
	s.lastFilter, s.lastPage = filter, page
	return s.videos, domain.NewPagination(page, int64(len(s.videos))), s.err
}

func newVideoRouter(stub *stubVideoService) http.Handler {
	c := &container.Container{
		Config:   &config.Config{UploadDir: "/tmp"},
		Logger:   logger.NewNop(),
		Services: &service.Services{Video: stub},
	}
	h := NewVideoHandler(c)

	r := chi.NewRouter()
	r.Get("/api/videos", h.ListFeed)
	r.Get("/api/videos/{videoId}", h.GetByID)
	r.Post("/api/videos/{videoId}/views", h.IncrementViews)
	r.Patch("/api/videos/{videoId}/publish-toggle", h.TogglePublish)
	return r
}

func TestListFeedMapsQueryParams(t *testing.T) {
	stub := &stubVideoService{}
	router := newVideoRouter(stub)

	req := httptest.NewRequest(http.MethodGet,
		"/api/videos?query=cats&userId=u1&sortBy=views&sortType=asc&page=2&limit=5", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.FeedFilter{
		Query:   "cats",
		OwnerID: "u1",
		SortBy:  "views",
		SortDir: "asc",
	}, stub.lastFilter)
	assert.Equal(t, domain.PageRequest{Page: 2, Limit: 5}, stub.lastPage)
}

func TestListFeedEmptyResultIsArray(t *testing.T) {
	router := newVideoRouter(&stubVideoService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/videos", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Items      []domain.Video    `json:"items"`
			Pagination domain.Pagination `json:"pagination"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.NotNil(t, body.Data.Items)
	assert.Empty(t, body.Data.Items)
}

func TestGetByIDNotFound(t *testing.T) {
	stub := &stubVideoService{err: apperrors.NewNotFoundError("Video not found")}
	router := newVideoRouter(stub)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/videos/abc", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "abc", stub.lastID)
}

func TestIncrementViewsRoute(t *testing.T) {
	stub := &stubVideoService{video: &domain.Video{ID: "v1", Views: 3}}
	router := newVideoRouter(stub)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/videos/v1/views", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "v1", stub.lastID)
}

func TestTogglePublishMessages(t *testing.T) {
	tests := []struct {
		name        string
		isPublished bool
		wantMessage string
	}{
		{name: "published", isPublished: true, wantMessage: "Video published successfully"},
		{name: "unpublished", isPublished: false, wantMessage: "Video unpublished successfully"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubVideoService{video: &domain.Video{ID: "v1", IsPublished: tt.isPublished}}
			router := newVideoRouter(stub)

			req := httptest.NewRequest(http.MethodPatch, "/api/videos/v1/publish-toggle", nil)
			req = req.WithContext(context.WithValue(req.Context(), middleware.UserIDContextKey, "u1"))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			require.Equal(t, http.StatusOK, rec.Code)

			var body struct {
				Message string `json:"message"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantMessage, body.Message)
			assert.Equal(t, "u1", stub.lastUser)
		})
	}
}

func buildPublishRequest(t *testing.T) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("title", "My video"))
	require.NoError(t, mw.WriteField("description", "About things"))
	require.NoError(t, mw.WriteField("duration", "90"))
	for field, name := range map[string]string{"videoFile": "clip.mp4", "thumbnail": "thumb.png"} {
		fw, err := mw.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = fw.Write([]byte("payload"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/videos", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req.WithContext(context.WithValue(req.Context(), middleware.UserIDContextKey, "u1"))
}

func TestPublishDiscardsStagedFilesOnError(t *testing.T) {
	uploadDir := t.TempDir()
	stub := &stubVideoService{
		err: apperrors.NewExternalError("Video upload failed", errors.New("bucket unavailable")),
	}
	c := &container.Container{
		Config:   &config.Config{UploadDir: uploadDir},
		Logger:   logger.NewNop(),
		Services: &service.Services{Video: stub},
	}
	router := chi.NewRouter()
	router.Post("/api/videos", NewVideoHandler(c).Publish)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, buildPublishRequest(t))

	assert.Equal(t, http.StatusBadGateway, rec.Code)

	// Neither staged upload survives a failed publish
	entries, err := os.ReadDir(uploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestTogglePublishRequiresAuth(t *testing.T) {
	router := newVideoRouter(&stubVideoService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/api/videos/v1/publish-toggle", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
