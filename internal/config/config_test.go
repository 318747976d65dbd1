package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_DefaultsFromEnv(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.TelegramBotToken)
	assert.Equal(t, BackendBadger, cfg.StorageBackend)
	assert.Equal(t, "./badger_data", cfg.BadgerDBPath)
	assert.Equal(t, "myList", cfg.FavoritesSlot)
	assert.Equal(t, "reviews", cfg.ReviewsSlot)
	assert.Equal(t, "https://www.omdbapi.com/", cfg.OMDbBaseURL)
	assert.NotEmpty(t, cfg.OMDbAPIKey)
	assert.Equal(t, 5.0, cfg.OMDbRateLimit)
	assert.Equal(t, 5*time.Minute, cfg.SearchTTL)
	assert.Equal(t, time.Hour, cfg.DetailsTTL)
	assert.Equal(t, logrus.InfoLevel, cfg.Level())
}

func TestLoadConfig_FileThenEnvOverride(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte("TELEGRAM_BOT_TOKEN: from-file\nSTORAGE_BACKEND: Memory\nSEARCH_TTL: 30s\nLOG_LEVEL: debug\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o600))
	t.Setenv("SEARCH_TTL", "2m")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.TelegramBotToken)
	assert.Equal(t, BackendMemory, cfg.StorageBackend)
	assert.Equal(t, 2*time.Minute, cfg.SearchTTL, "env wins over file")
	assert.Equal(t, logrus.DebugLevel, cfg.Level())
}

func TestLoadConfig_MissingToken(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	_, err := LoadConfig(t.TempDir())
	assert.ErrorContains(t, err, "TELEGRAM_BOT_TOKEN")
}

func TestLoadConfig_BrokenFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("TELEGRAM_BOT_TOKEN: [unclosed"), 0o600))
	t.Setenv("TELEGRAM_BOT_TOKEN", "x")

	_, err := LoadConfig(dir)
	assert.ErrorContains(t, err, "error reading config file")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			TelegramBotToken: "t",
			StorageBackend:   BackendBadger,
			BadgerDBPath:     "/tmp/x",
			FavoritesSlot:    "myList",
			ReviewsSlot:      "reviews",
			OMDbRateLimit:    1,
			SearchTTL:        time.Second,
			DetailsTTL:       time.Second,
			LogLevel:         "info",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"redis without addr", func(c *Config) { c.StorageBackend = BackendRedis }, "REDIS_ADDR"},
		{"redis with addr", func(c *Config) { c.StorageBackend = BackendRedis; c.RedisAddr = "localhost:6379" }, ""},
		{"unknown backend", func(c *Config) { c.StorageBackend = "sqlite" }, "STORAGE_BACKEND"},
		{"same slots", func(c *Config) { c.ReviewsSlot = "myList" }, "must differ"},
		{"zero rate", func(c *Config) { c.OMDbRateLimit = 0 }, "OMDB_RATE_LIMIT"},
		{"zero ttl", func(c *Config) { c.DetailsTTL = 0 }, "TTL"},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, "LOG_LEVEL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
