package config

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/mcoot/teamfinder/internal/services/scheduler"
	"github.com/mcoot/teamfinder/internal/storage/postgres"
	"github.com/mcoot/teamfinder/internal/storage/redis"
)

// Storage backends
const (
	StorageMemory   = "memory"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

// Telegram update delivery modes
const (
	ModePolling = "polling"
	ModeWebhook = "webhook"
)

// Config is the server configuration, read from TEAMFINDER_* variables
type Config struct {
	Host     string `env:"TEAMFINDER_HOST"      envDefault:"0.0.0.0"`
	Port     int    `env:"TEAMFINDER_PORT"      envDefault:"8080"`
	LogLevel string `env:"TEAMFINDER_LOG_LEVEL" envDefault:"info"`

	Timezone      string   `env:"TEAMFINDER_TIMEZONE"       envDefault:"Europe/Moscow"`
	NotifyTimes   []string `env:"TEAMFINDER_NOTIFY_TIMES"   envDefault:"10:00,18:00" envSeparator:","`
	NotifyEnabled bool     `env:"TEAMFINDER_NOTIFY_ENABLED" envDefault:"true"`
	MatchLimit    int      `env:"TEAMFINDER_MATCH_LIMIT"    envDefault:"3"`

	StoreTimeout time.Duration `env:"TEAMFINDER_STORE_TIMEOUT" envDefault:"5s"`
	SessionTTL   time.Duration `env:"TEAMFINDER_SESSION_TTL"   envDefault:"24h"`

	Storage        string         `env:"TEAMFINDER_STORAGE"         envDefault:"memory"`
	SessionStore   string         `env:"TEAMFINDER_SESSION_STORE"   envDefault:"memory"`
	RedisURL       string         `env:"TEAMFINDER_REDIS_URL"       envDefault:"redis://localhost:6379"`
	DeclarationTTL time.Duration  `env:"TEAMFINDER_DECLARATION_TTL" envDefault:"720h"`
	Postgres       PostgresConfig `envPrefix:"TEAMFINDER_PG_"`

	Telegram TelegramConfig

	// PublicURL is where this server is reachable from outside.
	// TodayURL overrides the menu link; by default it is PublicURL + "/today".
	PublicURL string `env:"TEAMFINDER_PUBLIC_URL"`
	TodayURL  string `env:"TEAMFINDER_TODAY_URL"`

	// AdminKeyHash is a bcrypt hash of the admin key. Empty disables admin routes.
	AdminKeyHash string `env:"TEAMFINDER_ADMIN_KEY_HASH"`
}

// PostgresConfig is read with the TEAMFINDER_PG_ prefix
type PostgresConfig struct {
	Host     string `env:"HOST"     envDefault:"localhost"`
	Port     string `env:"PORT"     envDefault:"5432"`
	User     string `env:"USER"     envDefault:"postgres"`
	Password string `env:"PASSWORD" envDefault:"postgres"`
	Name     string `env:"NAME"     envDefault:"teamfinder"`
	SSLMode  string `env:"SSLMODE"  envDefault:"disable"`
}

// TelegramConfig controls the bot transport. An empty token runs the
// server without a bot.
type TelegramConfig struct {
	Token          string        `env:"TEAMFINDER_BOT_TOKEN"`
	Mode           string        `env:"TEAMFINDER_TELEGRAM_MODE"   envDefault:"polling"`
	APIURL         string        `env:"TEAMFINDER_TELEGRAM_API_URL" envDefault:"https://api.telegram.org"`
	WebhookBaseURL string        `env:"TEAMFINDER_WEBHOOK_BASE_URL"`
	WebhookSecret  string        `env:"TEAMFINDER_WEBHOOK_SECRET"`
	PollTimeout    time.Duration `env:"TEAMFINDER_POLL_TIMEOUT"     envDefault:"30s"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses and validates the configuration
func Load() (*Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values the parser cannot
func (c *Config) Validate() error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("TEAMFINDER_PORT %d out of range", c.Port))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("TEAMFINDER_TIMEZONE: %w", err))
	}
	for _, t := range c.NotifyTimes {
		if _, err := scheduler.ParseClock(t); err != nil {
			errs = append(errs, fmt.Errorf("TEAMFINDER_NOTIFY_TIMES: %w", err))
		}
	}
	if c.StoreTimeout <= 0 {
		errs = append(errs, errors.New("TEAMFINDER_STORE_TIMEOUT must be positive"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("TEAMFINDER_SESSION_TTL must be positive"))
	}
	if !slices.Contains([]string{StorageMemory, StorageRedis, StoragePostgres}, c.Storage) {
		errs = append(errs, fmt.Errorf("TEAMFINDER_STORAGE %q: want memory, redis or postgres", c.Storage))
	}
	if !slices.Contains([]string{StorageMemory, StorageRedis}, c.SessionStore) {
		errs = append(errs, fmt.Errorf("TEAMFINDER_SESSION_STORE %q: want memory or redis", c.SessionStore))
	}

	switch c.Telegram.Mode {
	case ModePolling:
	case ModeWebhook:
		if c.Telegram.Token != "" && c.Telegram.WebhookBaseURL == "" {
			errs = append(errs, errors.New("TEAMFINDER_WEBHOOK_BASE_URL is required in webhook mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("TEAMFINDER_TELEGRAM_MODE %q: want polling or webhook", c.Telegram.Mode))
	}

	return errors.Join(errs...)
}

// SlogLevel parses LogLevel
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("TEAMFINDER_LOG_LEVEL: %w", err)
	}
	return level, nil
}

// MenuLink is the "who plays today" URL shown in the main menu, or ""
func (c *Config) MenuLink() string {
	if c.TodayURL != "" {
		return c.TodayURL
	}
	if c.PublicURL != "" {
		return strings.TrimSuffix(c.PublicURL, "/") + "/today"
	}
	return ""
}

// RedisOptions maps the redis settings onto the store's config
func (c *Config) RedisOptions() redis.Config {
	rc := redis.DefaultConfig()
	rc.URL = c.RedisURL
	rc.DeclarationTTL = c.DeclarationTTL
	rc.DialTimeout = c.StoreTimeout
	return rc
}

// PostgresOptions maps the PG settings onto the store's config
func (c *Config) PostgresOptions() postgres.Config {
	return postgres.Config{
		Host:     c.Postgres.Host,
		Port:     c.Postgres.Port,
		User:     c.Postgres.User,
		Password: c.Postgres.Password,
		Name:     c.Postgres.Name,
		SSLMode:  c.Postgres.SSLMode,
	}
}
