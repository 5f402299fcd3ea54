package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/clipstream/backend/internal/domain"
	"github.com/clipstream/backend/internal/repository"
	"github.com/clipstream/backend/internal/storage"
)

// memUserRepo is an in-memory UserRepository for service tests.
type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newMemUserRepo(users ...*domain.User) *memUserRepo {
	repo := &memUserRepo{users: make(map[string]*domain.User)}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (r *memUserRepo) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return repository.ErrConflict
		}
	}
	r.users[user.ID] = user
	return nil
}

func (r *memUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[id]; ok {
		return user, nil
	}
	return nil, repository.ErrNotFound
}

func (r *memUserRepo) GetByIdentifier(ctx context.Context, identifier string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Username == identifier || user.Email == identifier {
			return user, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUserRepo) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Username == username || user.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *memUserRepo) SetRefreshToken(ctx context.Context, userID, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	user.RefreshToken = token
	return nil
}

func (r *memUserRepo) RotateRefreshToken(ctx context.Context, userID, oldToken, newToken string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok || user.RefreshToken != oldToken {
		return false, nil
	}
	user.RefreshToken = newToken
	return true, nil
}

func (r *memUserRepo) ClearRefreshToken(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[userID]; ok {
		user.RefreshToken = ""
	}
	return nil
}

// memVideoRepo is an in-memory VideoRepository for service tests.
type memVideoRepo struct {
	mu     sync.Mutex
	videos map[string]*domain.Video
}

func newMemVideoRepo(videos ...*domain.Video) *memVideoRepo {
	repo := &memVideoRepo{videos: make(map[string]*domain.Video)}
	for _, v := range videos {
		repo.videos[v.ID] = v
	}
	return repo
}

func (r *memVideoRepo) Create(ctx context.Context, video *domain.Video) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.videos[video.ID] = video
	return nil
}

func (r *memVideoRepo) GetByID(ctx context.Context, id string) (*domain.Video, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if video, ok := r.videos[id]; ok {
		copied := *video
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (r *memVideoRepo) Update(ctx context.Context, id string, update domain.VideoUpdate) (*domain.Video, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	video, ok := r.videos[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if update.Title != nil {
		video.Title = *update.Title
	}
	if update.Description != nil {
		video.Description = *update.Description
	}
	if update.Duration != nil {
		video.Duration = *update.Duration
	}
	if update.VideoURL != nil {
		video.VideoURL = *update.VideoURL
	}
	if update.ThumbnailURL != nil {
		video.ThumbnailURL = *update.ThumbnailURL
	}
	copied := *video
	return &copied, nil
}

func (r *memVideoRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.videos[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.videos, id)
	return nil
}

func (r *memVideoRepo) TogglePublish(ctx context.Context, id, ownerID string) (*domain.Video, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	video, ok := r.videos[id]
	if !ok || video.OwnerID != ownerID {
		return nil, repository.ErrNotFound
	}
	video.IsPublished = !video.IsPublished
	copied := *video
	return &copied, nil
}

func (r *memVideoRepo) IncrementViews(ctx context.Context, id string) (*domain.Video, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	video, ok := r.videos[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	video.Views++
	copied := *video
	return &copied, nil
}

func (r *memVideoRepo) ListFeed(ctx context.Context, filter domain.FeedFilter, page domain.PageRequest) ([]domain.Video, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []domain.Video
	for _, video := range r.videos {
		if filter.OwnerID != "" && video.OwnerID != filter.OwnerID {
			continue
		}
		matched = append(matched, *video)
	}

	// Total counts all matches even when the offset is past the end.
	total := int64(len(matched))
	offset := page.Offset()
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + page.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

// memSubscriptionRepo is an in-memory SubscriptionRepository for service
// tests. Edges are keyed subscriber->channel.
type memSubscriptionRepo struct {
	mu    sync.Mutex
	edges map[string]bool

	// forceConflict makes the next Create fail with ErrConflict, simulating
	// a lost race against a concurrent insert.
	forceConflict bool
}

func newMemSubscriptionRepo() *memSubscriptionRepo {
	return &memSubscriptionRepo{edges: make(map[string]bool)}
}

func edgeKey(subscriberID, channelID string) string {
	return subscriberID + "->" + channelID
}

func (r *memSubscriptionRepo) Get(ctx context.Context, subscriberID, channelID string) (*domain.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.edges[edgeKey(subscriberID, channelID)] {
		return &domain.Subscription{SubscriberID: subscriberID, ChannelID: channelID}, nil
	}
	return nil, repository.ErrNotFound
}

func (r *memSubscriptionRepo) Create(ctx context.Context, subscriberID, channelID string) (*domain.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := edgeKey(subscriberID, channelID)
	if r.forceConflict || r.edges[key] {
		return nil, repository.ErrConflict
	}
	r.edges[key] = true
	return &domain.Subscription{SubscriberID: subscriberID, ChannelID: channelID}, nil
}

func (r *memSubscriptionRepo) Delete(ctx context.Context, subscriberID, channelID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := edgeKey(subscriberID, channelID)
	if !r.edges[key] {
		return repository.ErrNotFound
	}
	delete(r.edges, key)
	return nil
}

func (r *memSubscriptionRepo) ListSubscribers(ctx context.Context, channelID string, page domain.PageRequest) ([]domain.UserSummary, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var subscribers []domain.UserSummary
	for key := range r.edges {
		sub, ch, _ := strings.Cut(key, "->")
		if ch == channelID {
			subscribers = append(subscribers, domain.UserSummary{ID: sub})
		}
	}
	return subscribers, int64(len(subscribers)), nil
}

func (r *memSubscriptionRepo) ListChannels(ctx context.Context, subscriberID string, page domain.PageRequest) ([]domain.ChannelEntry, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var channels []domain.ChannelEntry
	for key := range r.edges {
		sub, ch, _ := strings.Cut(key, "->")
		if sub == subscriberID {
			channels = append(channels, domain.ChannelEntry{ID: ch, IsSubscribed: true})
		}
	}
	return channels, int64(len(channels)), nil
}

// fakeMediaStore records uploads and removals without touching the network.
type fakeMediaStore struct {
	mu sync.Mutex

	stored  []string // local paths passed to Store
	removed []string // remote ids passed to Remove

	storeErr   error
	failRemove bool
	nextID     int
}

func (m *fakeMediaStore) Store(ctx context.Context, localPath string) (storage.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.storeErr != nil {
		return storage.Asset{}, m.storeErr
	}
	m.nextID++
	id := fmt.Sprintf("asset-%d", m.nextID)
	m.stored = append(m.stored, localPath)
	return storage.Asset{
		URL:      "https://cdn.example.com/media/" + id,
		RemoteID: id,
	}, nil
}

func (m *fakeMediaStore) Remove(ctx context.Context, remoteID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = append(m.removed, remoteID)
	return !m.failRemove
}
