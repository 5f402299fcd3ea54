package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/clipstream/backend/internal/container"
	"github.com/clipstream/backend/internal/domain"
	"github.com/clipstream/backend/internal/middleware"
	"github.com/clipstream/backend/pkg/errors"
)

// VideoHandler handles video catalog requests
type VideoHandler struct {
	container *container.Container
}

// NewVideoHandler creates a new video handler
func NewVideoHandler(container *container.Container) *VideoHandler {
	return &VideoHandler{container: container}
}

// Publish handles POST /api/videos (multipart, auth required).
func (h *VideoHandler) Publish(w http.ResponseWriter, r *http.Request) {
	log := h.container.GetLogger()
	cfg := h.container.GetConfig()

	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, log, errors.NewAuthenticationError("User not authenticated"))
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, log, errors.NewValidationError("Invalid multipart form", nil))
		return
	}

	input := domain.VideoInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
	}
	if durationStr := r.FormValue("duration"); durationStr != "" {
		duration, err := strconv.Atoi(durationStr)
		if err != nil {
			writeError(w, log, errors.NewValidationError("Duration must be a number of seconds", map[string]interface{}{
				"field": "duration",
			}))
			return
		}
		input.Duration = duration
	}

	videoPath, err := stageUpload(r, "videoFile", cfg.UploadDir)
	if err != nil {
		writeError(w, log, err)
		return
	}
	thumbnailPath, err := stageUpload(r, "thumbnail", cfg.UploadDir)
	if err != nil {
		discardStaged(videoPath)
		writeError(w, log, err)
		return
	}

	video, err := h.container.GetVideoService().Publish(r.Context(), userID, input, videoPath, thumbnailPath)
	if err != nil {
		// Staged files the media store already consumed are gone;
		// removing them again is a no-op.
		discardStaged(videoPath, thumbnailPath)
		writeError(w, log, err)
		return
	}

	writeSuccess(w, log, http.StatusCreated, video, "Video uploaded successfully")
}

// ListFeed handles GET /api/videos.
func (h *VideoHandler) ListFeed(w http.ResponseWriter, r *http.Request) {
	log := h.container.GetLogger()

	query := r.URL.Query()
	filter := domain.FeedFilter{
		Query:   query.Get("query"),
		OwnerID: query.Get("userId"),
		SortBy:  query.Get("sortBy"),
		SortDir: query.Get("sortType"),
	}
	page := parsePageRequest(r)

	videos, pagination, err := h.container.GetVideoService().ListFeed(r.Context(), filter, page)
	if err != nil {
		writeError(w, log, err)
		return
	}

	if videos == nil {
		videos = []domain.Video{}
	}
	writeSuccess(w, log, http.StatusOK, pagedData{Items: videos, Pagination: pagination}, "Videos fetched successfully")
}

// GetByID handles GET /api/videos/{videoId}.
func (h *VideoHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	log := h.container.GetLogger()

	video, err := h.container.GetVideoService().GetByID(r.Context(), chi.URLParam(r, "videoId"))
	if err != nil {
		writeError(w, log, err)
		return
	}

	writeSuccess(w, log, http.StatusOK, video, "Video found successfully")
}

// IncrementViews handles POST /api/videos/{videoId}/views.
func (h *VideoHandler) IncrementViews(w http.ResponseWriter, r *http.Request) {
	log := h.container.GetLogger()

	video, err := h.container.GetVideoService().IncrementViews(r.Context(), chi.URLParam(r, "videoId"))
	if err != nil {
		writeError(w, log, err)
		return
	}

	writeSuccess(w, log, http.StatusOK, video, "View recorded")
}

// Update handles PATCH /api/videos/{videoId} (multipart, auth, owner only).
// Fields and assets are all optional; absent ones are left untouched.
func (h *VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	log := h.container.GetLogger()
	cfg := h.container.GetConfig()

	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, log, errors.NewAuthenticationError("User not authenticated"))
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, log, errors.NewValidationError("Invalid multipart form", nil))
		return
	}

	var update domain.VideoUpdate
	if v := r.FormValue("title"); v != "" {
		update.Title = &v
	}
	if v := r.FormValue("description"); v != "" {
		update.Description = &v
	}
	if v := r.FormValue("duration"); v != "" {
		duration, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, log, errors.NewValidationError("Duration must be a number of seconds", map[string]interface{}{
				"field": "duration",
			}))
			return
		}
		update.Duration = &duration
	}

	videoPath, err := stageUpload(r, "videoFile", cfg.UploadDir)
	if err != nil {
		writeError(w, log, err)
		return
	}
	thumbnailPath, err := stageUpload(r, "thumbnail", cfg.UploadDir)
	if err != nil {
		discardStaged(videoPath)
		writeError(w, log, err)
		return
	}

	video, err := h.container.GetVideoService().Update(r.Context(), chi.URLParam(r, "videoId"), userID, update, videoPath, thumbnailPath)
	if err != nil {
		discardStaged(videoPath, thumbnailPath)
		writeError(w, log, err)
		return
	}

	writeSuccess(w, log, http.StatusOK, video, "Video updated successfully")
}

// Delete handles DELETE /api/videos/{videoId} (auth, owner only).
func (h *VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	log := h.container.GetLogger()

	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, log, errors.NewAuthenticationError("User not authenticated"))
		return
	}

	if err := h.container.GetVideoService().Delete(r.Context(), chi.URLParam(r, "videoId"), userID); err != nil {
		writeError(w, log, err)
		return
	}

	writeSuccess(w, log, http.StatusOK, nil, "Video deleted successfully")
}

// TogglePublish handles PATCH /api/videos/{videoId}/publish-toggle.
func (h *VideoHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	log := h.container.GetLogger()

	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, log, errors.NewAuthenticationError("User not authenticated"))
		return
	}

	video, err := h.container.GetVideoService().TogglePublish(r.Context(), chi.URLParam(r, "videoId"), userID)
	if err != nil {
		writeError(w, log, err)
		return
	}

	message := "Video unpublished successfully"
	if video.IsPublished {
		message = "Video published successfully"
	}
	writeSuccess(w, log, http.StatusOK, video, message)
}
