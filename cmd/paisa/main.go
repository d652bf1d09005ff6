package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"paisa/internal/ai"
	"paisa/internal/amqp"
	"paisa/internal/cli"
	"paisa/internal/feedback"
	apphttp "paisa/internal/http"
	applog "paisa/internal/log"
	"paisa/internal/store"
	"paisa/internal/store/memory"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting paisa server", "port", cfg.Port, "backend", cfg.DataBackend)

	var backend store.Backend
	switch cfg.DataBackend {
	case "sqlite":
		storageLog := logger.WithComponent(applog.ComponentStorage)
		repo := cli.InitSQLite(storageLog, cfg.SQLiteDBPath)
		defer repo.Close()
		backend = repo
		storageLog.Info("Initialized SQLite backend", "path", cfg.SQLiteDBPath)
	default:
		backend = memory.New()
		logger.Info("Initialized memory backend")
	}

	// AI flows are optional, the endpoints answer 503 without a key
	var aiClient *ai.Client
	if cfg.AIEnabled() {
		aiLog := logger.WithComponent(applog.ComponentAI)
		var err error
		aiClient, err = ai.NewClient(context.Background(), ai.Config{
			APIKey:      cfg.GeminiAPIKey,
			Model:       cfg.GeminiModel,
			ScanTimeout: cfg.ReceiptScanTimeout,
		})
		if err != nil {
			aiLog.Error("Failed to initialize Gemini client", "error", err)
			os.Exit(1)
		}
		aiLog.Info("Gemini client initialized", "model", cfg.GeminiModel)
	} else {
		logger.Info("AI features disabled - no GEMINI_API_KEY provided")
	}

	// Queue is optional too, writes degrade to synchronous paths
	var publisher apphttp.Publisher
	if cfg.AMQPURL != "" {
		amqpLog := logger.WithComponent(applog.ComponentAMQP)
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			amqpLog.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		publisher = amqpClient
		amqpLog.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	httpLogger := logger.WithComponent(applog.ComponentHTTP)

	srv := apphttp.NewServer(":"+cfg.Port, httpLogger, apphttp.Options{
		Store:              backend,
		Hub:                store.NewHub(),
		AI:                 aiClient,
		Publisher:          publisher,
		Sender:             feedback.NewWebhookSender(cfg.FeedbackWebhookURL),
		CacheTTL:           cfg.CacheTTL,
		CacheMaxSize:       cfg.CacheMaxSize,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 0 // SSE connections stay open
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, stop := cli.SignalContext()
	defer stop()

	go func() {
		<-ctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cli.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	logger.Info("Server stopped gracefully")
}
