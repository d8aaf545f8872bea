package redis

import "time"

// Config holds connection settings for the player and declaration store
type Config struct {
	// URL is a redis:// or rediss:// connection URL
	URL string

	PoolSize     int
	MinIdleConns int
	// DialTimeout bounds the ping made when the store opens
	DialTimeout time.Duration

	// DeclarationTTL bounds how long a daily declaration is kept; zero keeps
	// them forever. Profiles never expire.
	DeclarationTTL time.Duration
}

// DefaultConfig returns defaults for a local Redis
func DefaultConfig() Config {
	return Config{
		URL:            "redis://localhost:6379",
		PoolSize:       10,
		MinIdleConns:   2,
		DialTimeout:    5 * time.Second,
		DeclarationTTL: 30 * 24 * time.Hour,
	}
}
