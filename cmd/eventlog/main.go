// Command eventlog tails the contributions change-event topic and logs
// every event it receives.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gartstein/contributions/internal/contributions/config"
	"github.com/gartstein/contributions/internal/contributions/events"
	"go.uber.org/zap"
)

func main() {
	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}
	if len(cfg.KafkaBrokers) == 0 {
		logger.Fatal("KAFKA_BROKERS is required")
	}

	groupID := os.Getenv("GROUP_ID")
	if groupID == "" {
		groupID = "contributions-eventlog"
	}

	consumer := events.NewConsumer(cfg.KafkaBrokers, groupID, cfg.Topic, logger)
	defer consumer.Close()
	consumer.RegisterHandler(func(_ context.Context, event events.Event) error {
		logger.Info("change event",
			zap.String("id", event.ID.String()),
			zap.String("type", string(event.Type)),
			zap.String("key", event.Key),
			zap.String("actor", event.Actor),
			zap.Time("occurred_at", event.OccurredAt),
			zap.ByteString("payload", event.Payload),
		)
		return nil
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := consumer.Run(ctx); err != nil {
		logger.Fatal("consumer failed", zap.Error(err))
	}
}
