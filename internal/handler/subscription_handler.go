package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clipstream/backend/internal/container"
	"github.com/clipstream/backend/internal/domain"
	"github.com/clipstream/backend/internal/middleware"
	"github.com/clipstream/backend/pkg/errors"
)

// SubscriptionHandler handles subscription related requests
type SubscriptionHandler struct {
	container *container.Container
}

// NewSubscriptionHandler creates a new subscription handler
func NewSubscriptionHandler(container *container.Container) *SubscriptionHandler {
	return &SubscriptionHandler{container: container}
}

// Toggle handles POST /api/subscriptions/{channelId}/toggle (auth required).
func (h *SubscriptionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	log := h.container.GetLogger()

	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, log, errors.NewAuthenticationError("User not authenticated"))
		return
	}

	result, err := h.container.GetSubscriptionService().Toggle(r.Context(), userID, chi.URLParam(r, "channelId"))
	if err != nil {
		writeError(w, log, err)
		return
	}

	message := "Subscribed successfully"
	if result == domain.ToggleUnsubscribed {
		message = "Unsubscribed successfully"
	}
	writeSuccess(w, log, http.StatusOK, map[string]string{"status": result}, message)
}

// ListSubscribers handles GET /api/subscriptions/{channelId}/subscribers.
func (h *SubscriptionHandler) ListSubscribers(w http.ResponseWriter, r *http.Request) {
	log := h.container.GetLogger()

	page := parsePageRequest(r)
	subscribers, pagination, err := h.container.GetSubscriptionService().ListSubscribers(
		r.Context(), chi.URLParam(r, "channelId"), page)
	if err != nil {
		writeError(w, log, err)
		return
	}

	if subscribers == nil {
		subscribers = []domain.UserSummary{}
	}
	writeSuccess(w, log, http.StatusOK, pagedData{Items: subscribers, Pagination: pagination},
		"Subscribers fetched successfully")
}

// ListChannels handles GET /api/subscriptions/{subscriberId}/channels.
func (h *SubscriptionHandler) ListChannels(w http.ResponseWriter, r *http.Request) {
	log := h.container.GetLogger()

	page := parsePageRequest(r)
	channels, pagination, err := h.container.GetSubscriptionService().ListChannels(
		r.Context(), chi.URLParam(r, "subscriberId"), page)
	if err != nil {
		writeError(w, log, err)
		return
	}

	if channels == nil {
		channels = []domain.ChannelEntry{}
	}
	writeSuccess(w, log, http.StatusOK, pagedData{Items: channels, Pagination: pagination},
		"Subscribed channels fetched successfully")
}
