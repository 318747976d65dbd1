package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"reelbox/internal/bot"
	"reelbox/internal/catalog"
	"reelbox/internal/config"
	"reelbox/internal/omdb"
	"reelbox/internal/state"
	"reelbox/internal/storage"
)

func main() {
	// --- Configuration Loading ---
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// --- Logger Setup ---
	log := newLogger(cfg)
	log.WithFields(logrus.Fields{
		"storage_backend": cfg.StorageBackend,
		"favorites_slot":  cfg.FavoritesSlot,
		"reviews_slot":    cfg.ReviewsSlot,
		"search_ttl":      cfg.SearchTTL,
		"details_ttl":     cfg.DetailsTTL,
	}).Info("Configuration loaded successfully")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Initialize Components ---
	log.Info("Initializing components...")

	slots, err := openSlots(ctx, cfg, log)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer func() {
		log.Info("Closing storage...")
		if err := slots.Close(); err != nil {
			log.WithError(err).Error("Error closing storage")
		}
	}()

	store := state.New(ctx, state.Options{
		Slots:         slots,
		FavoritesSlot: cfg.FavoritesSlot,
		ReviewsSlot:   cfg.ReviewsSlot,
		Logger:        log,
	})

	client, err := omdb.NewClient(omdb.Options{
		APIKey:    cfg.OMDbAPIKey,
		BaseURL:   cfg.OMDbBaseURL,
		RateLimit: cfg.OMDbRateLimit,
		Logger:    log,
	})
	if err != nil {
		log.Fatalf("Failed to initialize OMDb client: %v", err)
	}

	cat := catalog.New(client, catalog.Options{
		SearchTTL:  cfg.SearchTTL,
		DetailsTTL: cfg.DetailsTTL,
		Logger:     log,
	})
	go cat.RunJanitor(ctx, cfg.DetailsTTL)

	botHandler, err := bot.NewHandler(cfg, store, cat, log)
	if err != nil {
		log.Fatalf("Failed to initialize Telegram bot handler: %v", err)
	}

	// --- Application Startup ---
	log.Info("Starting Reelbox...")
	done := make(chan struct{})
	go func() {
		defer close(done)
		botHandler.Start(ctx)
	}()

	log.Info("Reelbox is running. Press Ctrl+C to exit.")
	<-ctx.Done()

	// --- Graceful Shutdown ---
	log.Info("Shutting down Reelbox...")
	stop()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		log.Warn("Bot polling did not stop in time")
	}
	log.Info("Reelbox shut down gracefully.")
}

func newLogger(cfg config.Config) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(cfg.Level())

	var out io.Writer = os.Stdout
	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not create log directory for %s: %v\n", cfg.LogFile, err)
		} else {
			out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
				Filename:   cfg.LogFile,
				MaxSize:    50,
				MaxBackups: 3,
				MaxAge:     14,
				Compress:   true,
			})
		}
	}
	log.SetOutput(out)
	return log
}

func openSlots(ctx context.Context, cfg config.Config, log *logrus.Logger) (storage.Slots, error) {
	switch cfg.StorageBackend {
	case config.BackendRedis:
		return storage.NewRedisSlots(ctx, cfg.RedisAddr, log)
	case config.BackendMemory:
		log.Warn("Using in-memory storage, favorites and reviews will not survive a restart")
		return storage.NewInMemoryBadgerSlots(log)
	default:
		db, err := storage.NewBadgerSlots(cfg.BadgerDBPath, log)
		if err != nil {
			return nil, err
		}
		go db.RunGC(ctx, 0)
		return db, nil
	}
}
