package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config holds environment-based settings
type Config struct {
	Environment    string
	ServerAddress  string
	JWTSecret      string
	DatabaseURL    string
	MigrationsPath string
	SeedFile       string

	RedisAddress  string
	RedisUsername string
	RedisPassword string
	StatsCacheTTL time.Duration

	// StatsRefreshCron is a standard 5-field cron spec; empty disables the job.
	StatsRefreshCron string

	MQTTBrokerURL string
	MQTTClientID  string

	UseSpaces       bool
	SpacesEndpoint  string
	SpacesRegion    string
	SpacesBucket    string
	SpacesCDNURL    string
	SpacesAccessKey string
	SpacesSecretKey string

	DisplayLocation *time.Location
	LogLevel        zerolog.Level
}

// UseDatabase reports whether a Postgres store is configured. Without it the
// server runs on the in-memory store.
func (c *Config) UseDatabase() bool {
	return c.DatabaseURL != ""
}

func (c *Config) UseRedis() bool {
	return c.RedisAddress != ""
}

func (c *Config) UseMQTT() bool {
	return c.MQTTBrokerURL != ""
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Load reads configuration from environment variables. A .env file in the
// working directory is loaded first when present; real environment values
// take precedence over it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from the given lookup function.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		Environment:    get("APP_ENV", "development"),
		ServerAddress:  get("SERVER_ADDRESS", ":8080"),
		JWTSecret:      get("JWT_SECRET", ""),
		DatabaseURL:    get("DATABASE_URL", ""),
		MigrationsPath: get("MIGRATIONS_PATH", "./migrations"),
		SeedFile:       get("SEED_FILE", ""),

		RedisAddress:  get("REDIS_ADDRESS", ""),
		RedisUsername: get("REDIS_USERNAME", ""),
		RedisPassword: get("REDIS_PASSWORD", ""),

		StatsRefreshCron: get("STATS_REFRESH_CRON", "*/30 * * * *"),

		MQTTBrokerURL: get("MQTT_BROKER_URL", ""),
		MQTTClientID:  get("MQTT_CLIENT_ID", "attendance-server"),

		UseSpaces:       get("USE_SPACES", "false") == "true",
		SpacesEndpoint:  get("SPACES_ENDPOINT", ""),
		SpacesRegion:    get("SPACES_REGION", ""),
		SpacesBucket:    get("SPACES_BUCKET", ""),
		SpacesCDNURL:    get("SPACES_CDN_URL", ""),
		SpacesAccessKey: get("SPACES_ACCESS_KEY", ""),
		SpacesSecretKey: get("SPACES_SECRET_KEY", ""),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	switch cfg.Environment {
	case "development", "production", "test":
	default:
		return nil, fmt.Errorf("APP_ENV must be development, production or test, got %q", cfg.Environment)
	}

	ttl, err := time.ParseDuration(get("STATS_CACHE_TTL", "10m"))
	if err != nil {
		return nil, fmt.Errorf("invalid STATS_CACHE_TTL: %w", err)
	}
	cfg.StatsCacheTTL = ttl

	loc, err := time.LoadLocation(get("DISPLAY_TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid DISPLAY_TIMEZONE: %w", err)
	}
	cfg.DisplayLocation = loc

	level, err := zerolog.ParseLevel(get("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	cfg.LogLevel = level

	if cfg.UseSpaces {
		if cfg.SpacesEndpoint == "" || cfg.SpacesBucket == "" || cfg.SpacesAccessKey == "" || cfg.SpacesSecretKey == "" {
			return nil, fmt.Errorf("USE_SPACES requires SPACES_ENDPOINT, SPACES_BUCKET, SPACES_ACCESS_KEY and SPACES_SECRET_KEY")
		}
	}

	return cfg, nil
}
