package container

import (
	"context"
	"fmt"
	"time"

	"companion/internal/announcements"
	"companion/internal/claims"
	"companion/internal/config"
	"companion/internal/content"
	"companion/internal/devices"
	"companion/internal/logger"
	"companion/internal/notify"
	"companion/internal/reminders"
	"companion/internal/schedule"
	"companion/internal/store"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type Container struct {
	DB     *pgxpool.Pool // nil when no database is configured
	Redis  *redis.Client // nil when Redis is unreachable
	Logger *logrus.Logger

	Prefs     *store.Prefs
	Index     *schedule.Index
	Registry  *reminders.Registry
	Tracker   *announcements.Tracker
	Devices   *devices.Service
	Claims    *claims.Service
	Loader    *content.Loader
	Scheduler *notify.Scheduler
}

func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	log := logger.Get()

	zone, err := time.LoadLocation(cfg.Event.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load event timezone: %w", err)
	}

	// Reminders are best-effort; an unreachable Redis degrades to in-process
	// state instead of refusing to start.
	var backend store.Backend
	redisClient := newRedis(ctx, log)
	if redisClient != nil {
		backend = store.NewRedisBackend(redisClient)
	} else {
		backend = store.NewMemoryBackend()
	}

	prefs := store.NewPrefs(backend, log)
	index := schedule.NewIndex(zone)

	contentClient := content.NewClient(content.ClientConfig{
		BaseURL:        cfg.Content.BaseURL,
		Timeout:        cfg.Content.Timeout,
		RequestsPerSec: cfg.Content.RequestsPerSec,
		Logger:         log,
		Redis:          redisClient,
	})
	loader := content.NewLoader(contentClient, index, cfg.Content.RefreshInterval, log)

	registry := reminders.NewRegistry(prefs, index, nil, log)
	tracker := announcements.NewTracker(prefs, log)
	deviceService := devices.NewService(backend, log)

	var presenter notify.Presenter
	if cfg.Notify.WebhookURL != "" {
		presenter = notify.NewWebhookPresenter(cfg.Notify.WebhookURL)
	} else {
		log.Info("No notification webhook configured, scheduler will be inert")
	}

	scheduler := notify.NewScheduler(prefs, index, deviceService, presenter, log, notify.SchedulerConfig{
		TickInterval: cfg.Notify.TickInterval,
		LeadWindow:   cfg.Notify.LeadWindow,
		Tolerance:    cfg.Notify.Tolerance,
		Title:        cfg.Notify.Title,
		Icon:         cfg.Notify.Icon,
	})

	db, claimService := newClaims(ctx, log)

	return &Container{
		DB:        db,
		Redis:     redisClient,
		Logger:    log,
		Prefs:     prefs,
		Index:     index,
		Registry:  registry,
		Tracker:   tracker,
		Devices:   deviceService,
		Claims:    claimService,
		Loader:    loader,
		Scheduler: scheduler,
	}, nil
}

func (c *Container) Close() {
	if c.Redis != nil {
		c.Redis.Close()
		c.Logger.Info("Redis connection closed")
	}
	if c.DB != nil {
		c.DB.Close()
		c.Logger.Info("Database connection closed")
	}
}

func newRedis(ctx context.Context, log *logrus.Logger) *redis.Client {
	host, port, password := config.RedisConfig()

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: password,
		DB:       0,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		log.WithError(err).Warn("Redis unreachable, falling back to in-memory preferences")
		client.Close()
		return nil
	}

	log.Info("Redis connection successful")
	return client
}

// newClaims connects the claim registry when database config is present.
// Without it the claim endpoints report unavailable.
func newClaims(ctx context.Context, log *logrus.Logger) (*pgxpool.Pool, *claims.Service) {
	host, port, user, password, databaseName := config.DatabaseConfig()
	if host == "" || user == "" || databaseName == "" {
		log.Info("No database configured, speaker claims disabled")
		return nil, nil
	}

	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, databaseName)

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		log.WithError(err).Warn("Invalid database config, speaker claims disabled")
		return nil, nil
	}

	poolConfig.MaxConns = 10
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.WithError(err).Warn("Failed to create connection pool, speaker claims disabled")
		return nil, nil
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		log.WithError(err).Warn("Database unreachable, speaker claims disabled")
		return nil, nil
	}

	service := claims.NewService(pool, log)
	if err := service.EnsureSchema(ctx); err != nil {
		pool.Close()
		log.WithError(err).Warn("Failed to prepare claims schema, speaker claims disabled")
		return nil, nil
	}

	log.Info("Database connection successful")
	return pool, service
}
