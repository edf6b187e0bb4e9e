// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/skycast/skycast/internal/database"
	"github.com/skycast/skycast/internal/weather/store"
)

// ErrMissingAPIKey is returned by Validate when no OpenWeatherMap key is set.
var ErrMissingAPIKey = errors.New("OPENWEATHER_API_KEY is not set")

// Config is built once at start and passed down explicitly.
type Config struct {
	// OpenWeatherMap
	APIKey      string
	BaseURL     string
	GeoURL      string
	Units       string
	Lang        string
	DailyFeed   bool
	HTTPTimeout time.Duration

	// Cache
	CacheTTL       time.Duration
	Store          store.Config
	SweepInterval  time.Duration
	CacheRetention time.Duration

	// Process
	Port         string
	Env          string
	LogLevel     zerolog.Level
	OTelEnabled  bool
	OTLPEndpoint string
}

// Load reads a .env file when present, then the environment. Unparsable
// values fall back to their defaults.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		APIKey:      os.Getenv("OPENWEATHER_API_KEY"),
		BaseURL:     getEnvOrDefault("OPENWEATHER_BASE_URL", "https://api.openweathermap.org/data/2.5"),
		GeoURL:      getEnvOrDefault("OPENWEATHER_GEO_URL", "https://api.openweathermap.org/geo/1.0"),
		Units:       getEnvOrDefault("WEATHER_UNITS", "metric"),
		Lang:        getEnvOrDefault("WEATHER_LANG", "zh_tw"),
		DailyFeed:   getBool("WEATHER_DAILY_FEED", false),
		HTTPTimeout: getDuration("WEATHER_HTTP_TIMEOUT", 30*time.Second),

		CacheTTL: getDuration("WEATHER_CACHE_TTL", time.Hour),
		Store: store.Config{
			Backend:       getEnvOrDefault("CACHE_BACKEND", store.BackendSQLite),
			SQLitePath:    getEnvOrDefault("SQLITE_PATH", "data/weather.db"),
			RedisAddr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
			RedisPassword: os.Getenv("REDIS_PASSWORD"),
			RedisDB:       getInt("REDIS_DB", 0),
			RedisPrefix:   getEnvOrDefault("REDIS_PREFIX", store.DefaultRedisPrefix),
			Postgres: database.PostgresConfig{
				URL:             os.Getenv("DATABASE_URL"),
				Host:            getEnvOrDefault("DB_HOST", "localhost"),
				Port:            getInt("DB_PORT", 5432),
				User:            getEnvOrDefault("DB_USER", "skycast"),
				Password:        getEnvOrDefault("DB_PASSWORD", "localdev"),
				Database:        getEnvOrDefault("DB_NAME", "skycast"),
				SSLMode:         getEnvOrDefault("DB_SSL_MODE", "disable"),
				MaxConns:        int32(getInt("DB_MAX_CONNS", 10)), //nolint:gosec // small pool sizes
				MinConns:        int32(getInt("DB_MIN_CONNS", 2)),  //nolint:gosec // small pool sizes
				ConnMaxLifetime: getDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			},
		},
		SweepInterval:  getDuration("CACHE_SWEEP_INTERVAL", time.Hour),
		CacheRetention: getDuration("CACHE_RETENTION", 24*time.Hour),

		Port:         getEnvOrDefault("APP_PORT", "8080"),
		Env:          getEnvOrDefault("APP_ENV", "development"),
		LogLevel:     getLevel("LOG_LEVEL", zerolog.InfoLevel),
		OTelEnabled:  getBool("OTEL_ENABLED", false),
		OTLPEndpoint: getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
	}
}

// Validate reports settings that make remote calls impossible.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

func getInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return n
}

func getBool(key string, defaultValue bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return b
}

func getLevel(key string, defaultValue zerolog.Level) zerolog.Level {
	level, err := zerolog.ParseLevel(os.Getenv(key))
	if err != nil || level == zerolog.NoLevel {
		return defaultValue
	}
	return level
}
