package main

import (
	"context"
	"errors"
	"os"
	"time"

	"butce/internal/amqp"
	"butce/internal/backend"
	"butce/internal/cache"
	"butce/internal/cli"
	"butce/internal/config"
	"butce/internal/log"
	"butce/internal/services"
	"butce/internal/worker"
)

const (
	seenMessages   = 10000
	seenMessageTTL = 24 * time.Hour
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).ValidateWorker)

	logger.Info("Starting butce-worker")

	primaryCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	if primaryCfg.Type == backend.MemoryBackend {
		logger.Warn("Primary backend is in-process memory; the worker only mirrors its own copy")
	}
	primary := cli.OpenBackend(context.Background(), logger, primaryCfg)
	defer primary.Cleanup()

	mirror := cli.OpenBackend(context.Background(), logger, backend.MirrorConfig(cfg))
	defer mirror.Cleanup()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	seen := cache.NewLRUCache[time.Time](seenMessages, seenMessageTTL)
	caches := cache.NewManager(logger)
	caches.Register(seen)
	caches.StartCleanup(time.Hour)

	mirrorWorker := worker.NewMirrorWorker(primary.Store, mirror.Store, seen, logger)
	resync := services.NewResyncProcessor(mirrorWorker, cfg.ResyncInterval, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := resync.Stop(ctx); err != nil {
			logger.Error("Failed to stop resync processor", log.FieldError, err)
		}
		caches.Stop()
	})

	if err := resync.Start(ctx); err != nil {
		logger.Error("Failed to start resync processor", log.FieldError, err)
		os.Exit(1)
	}

	logger.Info("Consuming ledger changes",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue,
		"mirror_db", cfg.MirrorDBPath,
		"resync_interval", cfg.ResyncInterval.String())
	if err := amqpClient.ConsumeChanges(ctx, mirrorWorker.HandleChange); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
