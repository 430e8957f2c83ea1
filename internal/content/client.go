package content

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"companion/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	agendaPath        = "agenda.json"
	speakersPath      = "speakers.json"
	locationsPath     = "locations.json"
	announcementsPath = "notifications.json"

	defaultTimeout      = 15 * time.Second
	snapshotCachePrefix = "content:snapshot:"
	snapshotCacheTTL    = 24 * time.Hour
	userAgent           = "CompanionBackend/1.0"
)

// Snapshot is one full-replace view of the published content. Every field
// degrades independently to empty on fetch or decode failure.
type Snapshot struct {
	Agenda        []models.Day
	Speakers      []models.Speaker
	Locations     []models.Location
	Announcements []models.Announcement
}

type ClientConfig struct {
	BaseURL        string
	Timeout        time.Duration
	RequestsPerSec float64
	Logger         *logrus.Logger
	Redis          *redis.Client // optional last-known-good cache
}

// Client fetches the published JSON files from the content provider. A
// provider outage serves the last snapshot cached in Redis; with no cache
// available the affected view is simply empty.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *logrus.Logger
	redis      *redis.Client
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RequestsPerSec <= 0 {
		cfg.RequestsPerSec = 1
	}
	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1),
		logger:  cfg.Logger,
		redis:   cfg.Redis,
	}
}

// FetchSnapshot pulls all four content files. It never returns an error:
// each file fails soft to its empty slice.
func (c *Client) FetchSnapshot(ctx context.Context) Snapshot {
	var snap Snapshot
	c.load(ctx, agendaPath, &snap.Agenda)
	c.load(ctx, speakersPath, &snap.Speakers)
	c.load(ctx, locationsPath, &snap.Locations)
	c.load(ctx, announcementsPath, &snap.Announcements)
	return snap
}

func (c *Client) load(ctx context.Context, path string, v any) {
	body, err := c.fetch(ctx, path)
	if err == nil {
		if err := json.Unmarshal(body, v); err == nil {
			c.cacheSnapshot(ctx, path, body)
			return
		}
		c.logger.WithField("path", path).Warn("Malformed content payload, trying cached snapshot")
	} else {
		c.logger.WithError(err).WithField("path", path).Warn("Content fetch failed, trying cached snapshot")
	}

	cached, ok := c.cachedSnapshot(ctx, path)
	if !ok {
		return
	}
	if err := json.Unmarshal(cached, v); err != nil {
		c.logger.WithError(err).WithField("path", path).Warn("Cached snapshot is corrupt")
	}
}

func (c *Client) fetch(ctx context.Context, path string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	// Cache-busting timestamp, the provider sits behind aggressive CDN caching.
	url := fmt.Sprintf("%s/%s?t=%s", c.baseURL, path, strconv.FormatInt(time.Now().UnixMilli(), 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("content provider returned status %d for %s", resp.StatusCode, path)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

func (c *Client) cacheSnapshot(ctx context.Context, path string, body []byte) {
	if c.redis == nil {
		return
	}
	if err := c.redis.Set(ctx, snapshotCachePrefix+path, body, snapshotCacheTTL).Err(); err != nil {
		c.logger.WithError(err).WithField("path", path).Warn("Failed to cache content snapshot")
	}
}

func (c *Client) cachedSnapshot(ctx context.Context, path string) ([]byte, bool) {
	if c.redis == nil {
		return nil, false
	}
	cached, err := c.redis.Get(ctx, snapshotCachePrefix+path).Result()
	if err != nil {
		return nil, false
	}
	c.logger.WithField("path", path).Info("Serving content from cached snapshot")
	return []byte(cached), true
}
