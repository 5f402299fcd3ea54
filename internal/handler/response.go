package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/domain"
	"github.com/clipstream/backend/pkg/errors"
	"github.com/clipstream/backend/pkg/logger"
)

// maxUploadMemory bounds the in-memory portion of multipart parsing; the rest
// spills to disk.
const maxUploadMemory = 32 << 20

// apiResponse is the success envelope every endpoint returns.
type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Message string      `json:"message,omitempty"`
}

// pagedData wraps a page of items with its pagination metadata.
type pagedData struct {
	Items      interface{}       `json:"items"`
	Pagination domain.Pagination `json:"pagination"`
}

// writeSuccess writes the success envelope with the given status code.
func writeSuccess(w http.ResponseWriter, log *logger.Logger, status int, data interface{}, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(apiResponse{Success: true, Data: data, Message: message}); err != nil {
		log.WithError(err).Error("Failed to encode response")
	}
}

// writeError maps any error to the error envelope. Non-AppErrors become 500s.
func writeError(w http.ResponseWriter, log *logger.Logger, err error) {
	appErr := errors.AsAppError(err)

	if appErr.StatusCode >= http.StatusInternalServerError {
		log.WithError(appErr).Error("Request failed")
	} else {
		log.WithError(appErr).Debug("Request rejected")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode)

	payload := map[string]interface{}{
		"success": false,
		"error": map[string]interface{}{
			"type":    appErr.Type,
			"message": appErr.Message,
		},
	}
	if appErr.Details != nil {
		payload["error"].(map[string]interface{})["details"] = appErr.Details
	}
	if encodeErr := json.NewEncoder(w).Encode(payload); encodeErr != nil {
		log.WithError(encodeErr).Error("Failed to encode error response")
	}
}

// parsePageRequest reads page/limit query parameters with defaults.
func parsePageRequest(r *http.Request) domain.PageRequest {
	page := domain.PageRequest{Page: 1, Limit: 10}
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		page.Page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil {
		page.Limit = v
	}
	return page.Normalize()
}

// stageUpload copies a multipart file to the staging directory and returns
// its path. The caller hands the path to the media store, which removes it.
// Returns ("", nil) when the field is absent.
func stageUpload(r *http.Request, field, uploadDir string) (string, error) {
	file, header, err := r.FormFile(field)
	if err == http.ErrMissingFile {
		return "", nil
	}
	if err != nil {
		return "", errors.NewValidationError(fmt.Sprintf("Invalid %s file", field), nil)
	}
	defer file.Close()

	return stageReader(file, header, uploadDir)
}

func stageReader(file multipart.File, header *multipart.FileHeader, uploadDir string) (string, error) {
	name := uuid.New().String() + filepath.Ext(header.Filename)
	path := filepath.Join(uploadDir, name)

	dst, err := os.Create(path)
	if err != nil {
		return "", errors.NewInternalError("Failed to stage upload", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(path)
		return "", errors.NewInternalError("Failed to stage upload", err)
	}

	return path, nil
}

// discardStaged removes staged files that never reached the media store.
func discardStaged(paths ...string) {
	for _, p := range paths {
		if p != "" {
			_ = os.Remove(p)
		}
	}
}
