package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KaranKumar0402/Commodity-price/internal/config"
	"github.com/KaranKumar0402/Commodity-price/internal/dataset"
	"github.com/KaranKumar0402/Commodity-price/internal/forecast"
	"github.com/KaranKumar0402/Commodity-price/internal/labels"
	"github.com/KaranKumar0402/Commodity-price/internal/logger"
	"github.com/KaranKumar0402/Commodity-price/internal/server"
	"github.com/KaranKumar0402/Commodity-price/internal/storage"
	"github.com/KaranKumar0402/Commodity-price/internal/telegram"
)

var configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")

// maxForecastsPerSession bounds the recent forecasts listed on the form
const maxForecastsPerSession = 10

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Setup logging with level support
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", *configPath)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, cleaning up...")
		cancel()
	}()

	// Load the shared read-only resources. The form is useless without any
	// of them, so every failure here stops the service.
	loader := dataset.NewLoader(dataset.NewFetcher(cfg.Dataset.Timeout))
	table, err := loader.Load(ctx, cfg.Dataset.URL)
	if err != nil {
		logger.Fatal("Failed to load dataset: %v", err)
	}

	var labelLoader labels.Loader
	set, err := labelLoader.Load(cfg.Artifacts.LabelMap, cfg.Artifacts.Mappings)
	if err != nil {
		logger.Fatal("Failed to load label mappings: %v", err)
	}
	logger.Info("Loaded label mappings for %d states", len(set.States()))

	var modelLoader forecast.Loader
	model, err := modelLoader.Load(cfg.Artifacts.Model)
	if err != nil {
		logger.Fatal("Failed to load model: %v", err)
	}

	// Initialize session storage
	store := storage.New(cfg.Server.MaxSessions, maxForecastsPerSession, cfg.Server.SessionTTL)

	opts := server.Options{
		Table:         table,
		Labels:        set,
		Model:         model,
		Store:         store,
		DefaultState:  cfg.Form.DefaultState,
		SessionCookie: cfg.Server.SessionCookie,
		SessionTTL:    cfg.Server.SessionTTL,
		Mode:          cfg.Server.Mode,
	}

	// Initialize Telegram client
	if cfg.Telegram.Enabled {
		telegramClient, err := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
		if err != nil {
			logger.Fatal("Failed to initialize Telegram client: %v", err)
		}
		opts.Notifier = telegramClient
		logger.Info("Telegram client initialized successfully")
	} else {
		logger.Debug("Telegram notifications disabled")
	}

	srv, err := server.New(opts)
	if err != nil {
		logger.Fatal("Failed to initialize server: %v", err)
	}

	go rotateSessions(ctx, store, cfg.Server.RotateInterval)

	if err := srv.Run(ctx, cfg.Server.Addr); err != nil {
		logger.Fatal("Server failed: %v", err)
	}
	logger.Info("Service stopped")
}

// rotateSessions drops idle sessions until ctx is cancelled
func rotateSessions(ctx context.Context, store *storage.Storage, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := store.RotateSessions(); removed > 0 {
				logger.Debug("Rotated %d idle sessions, %d remain", removed, store.Len())
			}
		}
	}
}
