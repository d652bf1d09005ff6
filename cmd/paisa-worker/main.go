package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"paisa/internal/amqp"
	"paisa/internal/cli"
	"paisa/internal/feedback"
	applog "paisa/internal/log"
	"paisa/internal/sheets"
	gsheet "paisa/internal/sheets/google"
	"paisa/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting paisa-worker")

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}
	if cfg.DataBackend != "sqlite" {
		logger.Error("The worker needs the sqlite backend to read transactions", "backend", cfg.DataBackend)
		os.Exit(1)
	}

	repo := cli.InitSQLite(logger.WithComponent(applog.ComponentStorage), cfg.SQLiteDBPath)
	defer repo.Close()

	var mirror sheets.Mirror
	if cfg.MirrorEnabled() {
		sheetsLog := logger.WithComponent(applog.ComponentSheets)
		client, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			sheetsLog.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		mirror = client
		sheetsLog.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets mirror disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	amqpLog := logger.WithComponent(applog.ComponentAMQP)
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		amqpLog.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()
	amqpLog.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)

	sender := feedback.NewWebhookSender(cfg.FeedbackWebhookURL)
	syncWorker := worker.NewSyncWorker(repo, mirror, sender)

	ctx, stop := cli.SignalContext()
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.Consume(gctx, func(env *amqp.Envelope) error {
			return syncWorker.Handle(gctx, env)
		})
	})

	workerLog := logger.WithComponent(applog.ComponentWorker)
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		workerLog.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}

	workerLog.Info("Worker stopped gracefully")
}
