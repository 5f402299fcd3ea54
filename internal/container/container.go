package container

import (
	"context"

	"github.com/clipstream/backend/internal/config"
	"github.com/clipstream/backend/internal/repository"
	"github.com/clipstream/backend/internal/service"
	"github.com/clipstream/backend/internal/service/auth"
	"github.com/clipstream/backend/internal/storage"
	"github.com/clipstream/backend/pkg/database"
	"github.com/clipstream/backend/pkg/logger"
	"github.com/clipstream/backend/pkg/redis"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	Logger       *logger.Logger
	DB           *database.PostgresDB
	RedisClient  *redis.Client
	Media        storage.MediaStore
	Repositories *repository.Repositories
	Services     *service.Services
}

// New wires repositories and services on top of the database pool. Redis is
// optional: when it is not configured or unreachable the services run
// without caching.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger, db *database.PostgresDB) (*Container, error) {
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		client, err := redis.NewClient(cfg.RedisURL, cfg.Environment, log.Logger)
		if err != nil {
			log.WithError(err).Warn("Failed to initialize Redis client, proceeding without caching")
		} else {
			redisClient = client
			log.Info("Redis client initialized successfully")
		}
	} else {
		log.Info("Redis URL not configured, proceeding without caching")
	}

	media, err := storage.NewS3MediaStore(ctx, cfg.Media, log)
	if err != nil {
		return nil, err
	}

	repos := &repository.Repositories{
		User:         repository.NewUserRepository(db),
		Video:        repository.NewVideoRepository(db),
		Subscription: repository.NewSubscriptionRepository(db),
	}

	var cacheService *service.CacheService
	if redisClient != nil {
		cacheService = service.NewCacheService(redisClient, log.Logger)
	}

	authService := auth.NewService(cfg, repos.User, log)
	services := &service.Services{
		Auth:         authService,
		User:         service.NewUserService(repos.User, media, cacheService, log),
		Video:        service.NewVideoService(repos.Video, media, cacheService, log),
		Subscription: service.NewSubscriptionService(repos.Subscription, repos.User, log),
	}

	return &Container{
		Config:       cfg,
		Logger:       log,
		DB:           db,
		RedisClient:  redisClient,
		Media:        media,
		Repositories: repos,
		Services:     services,
	}, nil
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.Config
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logger.Logger {
	return c.Logger
}

// GetDB returns the database pool
func (c *Container) GetDB() *database.PostgresDB {
	return c.DB
}

// GetRedisClient returns the Redis client (may be nil if not configured)
func (c *Container) GetRedisClient() *redis.Client {
	return c.RedisClient
}

// GetAuthService returns the auth service
func (c *Container) GetAuthService() service.AuthService {
	return c.Services.Auth
}

// GetUserService returns the user service
func (c *Container) GetUserService() service.UserService {
	return c.Services.User
}

// GetVideoService returns the video service
func (c *Container) GetVideoService() service.VideoService {
	return c.Services.Video
}

// GetSubscriptionService returns the subscription service
func (c *Container) GetSubscriptionService() service.SubscriptionService {
	return c.Services.Subscription
}
