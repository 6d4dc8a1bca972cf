package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonathan/scout-webhook/internal/config"
	"github.com/jonathan/scout-webhook/internal/db"
	"github.com/jonathan/scout-webhook/internal/logging"
	"github.com/jonathan/scout-webhook/internal/realtime"
	"github.com/jonathan/scout-webhook/internal/server"
	"github.com/jonathan/scout-webhook/internal/server/ratelimit"
	"github.com/jonathan/scout-webhook/internal/webhook"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the webhook server",
	Long:  `Start an HTTP server that accepts pipeline webhooks and exposes session status, logs, streams and exports.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = servePort
	}

	logger, err := logging.New(cfg.LogLevel, cfg.IsProduction())
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	broker, err := newBroker(ctx, cfg.RedisURL, logger)
	if err != nil {
		return err
	}
	defer broker.Close()

	rlConfig, err := ratelimit.LoadConfig()
	if err != nil {
		return err
	}
	limiter := ratelimit.NewLimiter(rlConfig)

	processor := webhook.NewProcessor(webhook.NewPostgresStore(database), broker, logger)

	srv := server.New(server.Config{
		Port:            cfg.Port,
		WebhookSecret:   cfg.WebhookSecret,
		MaxBodyBytes:    cfg.MaxBodyBytes,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, server.Deps{
		Reader:    database,
		Processor: processor,
		Updates:   broker,
		Limiter:   limiter,
		Metrics:   server.NewMetrics(),
		Logger:    logger,
	})

	return srv.Start(ctx)
}

// newBroker uses Redis when configured so streams work across replicas,
// otherwise an in-process hub.
func newBroker(ctx context.Context, redisURL string, logger *zap.Logger) (realtime.Broker, error) {
	if redisURL == "" {
		logger.Info("REDIS_URL not set, using in-memory session updates")
		return realtime.NewHub(), nil
	}
	broker, err := realtime.NewRedisBroker(ctx, redisURL, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return broker, nil
}
