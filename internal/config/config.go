package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server  ServerConfig
	Content ContentConfig
	Event   EventConfig
	Notify  NotifyConfig
}

type ServerConfig struct {
	Port string
}

type ContentConfig struct {
	BaseURL         string
	Timeout         time.Duration
	RefreshInterval time.Duration
	RequestsPerSec  float64
}

type EventConfig struct {
	Name     string
	Timezone string
}

type NotifyConfig struct {
	WebhookURL   string
	Icon         string
	Title        string
	TickInterval time.Duration
	LeadWindow   time.Duration
	Tolerance    time.Duration
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: GetEnv("PORT", "8080"),
		},
		Content: ContentConfig{
			BaseURL:         GetEnv("CONTENT_BASE_URL", "https://rtcc2026.example.org/webapp/data"),
			Timeout:         GetDuration("CONTENT_TIMEOUT", 15*time.Second),
			RefreshInterval: GetDuration("CONTENT_REFRESH_INTERVAL", 5*time.Minute),
			RequestsPerSec:  1,
		},
		Event: EventConfig{
			Name:     GetEnv("EVENT_NAME", "RTCC 2026"),
			Timezone: GetEnv("EVENT_TIMEZONE", "America/Montevideo"),
		},
		Notify: NotifyConfig{
			WebhookURL:   GetEnv("NOTIFY_WEBHOOK_URL", ""),
			Icon:         GetEnv("NOTIFY_ICON", "img/logo-convention-gold.png"),
			Title:        GetEnv("NOTIFY_TITLE", "RTCC 2026 - Próxima sesión"),
			TickInterval: GetDuration("NOTIFY_TICK_INTERVAL", time.Minute),
			LeadWindow:   GetDuration("NOTIFY_LEAD_WINDOW", 10*time.Minute),
			Tolerance:    GetDuration("NOTIFY_TOLERANCE", time.Minute),
		},
	}
}

// RedisConfig returns host, port, password
func RedisConfig() (string, string, string) {
	host := GetEnv("R_HOST", "redis")
	port := GetEnv("R_PORT", "6379")
	password := GetEnv("R_PASS", "")
	return host, port, password
}

// DatabaseConfig returns host, port, user, password, database name
func DatabaseConfig() (string, string, string, string, string) {
	host := GetEnv("DB_HOST", "")
	port := GetEnv("DB_PORT", "5432")
	user := GetEnv("DB_USER", "")
	password := GetEnv("DB_PASS", "")
	name := GetEnv("DB_NAME", "")
	return host, port, user, password, name
}

// GetEnv retrieves values from environment files based on the key it matches,
// returns a string (value) if not empty
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func GetDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
