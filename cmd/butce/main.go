package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"time"

	"butce/internal/amqp"
	"butce/internal/backend"
	"butce/internal/cli"
	"butce/internal/config"
	apphttp "butce/internal/http"
	"butce/internal/log"
	"butce/internal/screens"
	"butce/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).Validate)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	result := cli.OpenBackend(context.Background(), logger, backendCfg)

	// The change feed is optional; without it writes are not mirrored.
	var publisher services.Publisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client, continuing without change messages", log.FieldError, err)
		} else {
			publisher = client
		}
	}

	ledger := services.NewLedgerService(result.Store, publisher, services.Options{
		EnforceCategoryType: cfg.EnforceCategoryType,
		Logger:              logger,
	})

	srv := apphttp.NewServer(apphttp.Options{
		Addr: net.JoinHostPort("", cfg.Port),
		Screens: screens.Deps{
			Store:       result.Store,
			Policy:      screens.ParsePolicy(cfg.AmountPolicy),
			RecentLimit: cfg.RecentLimit,
			Logger:      logger,
		},
		Ledger:             ledger,
		Ready:              result.Ping,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if err := ledger.Close(); err != nil {
			logger.Error("Failed to close ledger service", log.FieldError, err)
		}
		if err := result.Cleanup(); err != nil {
			logger.Error("Failed to close backend", log.FieldError, err)
		}
	})

	logger.Info("Starting butce server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"amount_policy", cfg.AmountPolicy,
		"change_messages", publisher != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
