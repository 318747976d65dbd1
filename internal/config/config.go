package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Storage backends for the durable slots.
const (
	BackendBadger = "badger"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config holds all configuration for the application.
// Values are read by viper from a config file or environment variables.
type Config struct {
	TelegramBotToken string `mapstructure:"TELEGRAM_BOT_TOKEN"`

	// StorageBackend selects where favorites and reviews are persisted.
	StorageBackend string `mapstructure:"STORAGE_BACKEND"`
	BadgerDBPath   string `mapstructure:"BADGERDB_PATH"`
	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	FavoritesSlot  string `mapstructure:"FAVORITES_SLOT"`
	ReviewsSlot    string `mapstructure:"REVIEWS_SLOT"`

	OMDbAPIKey    string  `mapstructure:"OMDB_API_KEY"`
	OMDbBaseURL   string  `mapstructure:"OMDB_BASE_URL"`
	OMDbRateLimit float64 `mapstructure:"OMDB_RATE_LIMIT"`

	SearchTTL  time.Duration `mapstructure:"SEARCH_TTL"`
	DetailsTTL time.Duration `mapstructure:"DETAILS_TTL"`

	LogLevel string `mapstructure:"LOG_LEVEL"`
	// LogFile, when set, receives a rotated copy of the log stream.
	LogFile string `mapstructure:"LOG_FILE"`
}

var defaults = map[string]any{
	"TELEGRAM_BOT_TOKEN": "",
	"STORAGE_BACKEND":    BackendBadger,
	"BADGERDB_PATH":      "./badger_data",
	"REDIS_ADDR":         "",
	"FAVORITES_SLOT":     "myList",
	"REVIEWS_SLOT":       "reviews",
	"OMDB_API_KEY":       "6686b6aa",
	"OMDB_BASE_URL":      "https://www.omdbapi.com/",
	"OMDB_RATE_LIMIT":    5.0,
	"SEARCH_TTL":         "5m",
	"DETAILS_TTL":        "1h",
	"LOG_LEVEL":          "info",
	"LOG_FILE":           "",
}

// LoadConfig reads config.yaml from path, if present, and overlays
// environment variables.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Every key needs a default so Unmarshal sees env-only values.
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unable to decode into struct: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks required values and normalizes enumerations.
func (c *Config) Validate() error {
	if c.TelegramBotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is not set")
	}

	c.StorageBackend = strings.ToLower(strings.TrimSpace(c.StorageBackend))
	switch c.StorageBackend {
	case BackendBadger:
		if c.BadgerDBPath == "" {
			return fmt.Errorf("BADGERDB_PATH is required for the %s backend", BackendBadger)
		}
	case BackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the %s backend", BackendRedis)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}

	if c.FavoritesSlot == "" || c.ReviewsSlot == "" {
		return fmt.Errorf("FAVORITES_SLOT and REVIEWS_SLOT must not be empty")
	}
	if c.FavoritesSlot == c.ReviewsSlot {
		return fmt.Errorf("FAVORITES_SLOT and REVIEWS_SLOT must differ, both are %q", c.ReviewsSlot)
	}
	if c.OMDbRateLimit <= 0 {
		return fmt.Errorf("OMDB_RATE_LIMIT must be positive, got %v", c.OMDbRateLimit)
	}
	if c.SearchTTL <= 0 || c.DetailsTTL <= 0 {
		return fmt.Errorf("SEARCH_TTL and DETAILS_TTL must be positive")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	return nil
}

// Level returns the configured log level, falling back to info.
func (c Config) Level() logrus.Level {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}
