package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/messaging/kafka"
	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/messaging/kafka/producer"
	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/shared/connection"

	"go.uber.org/zap"
)

// RunWorker drains the transactional outbox to Kafka until interrupted.
func RunWorker() error {
	logger := zap.L().Named("app.worker")

	_, sqlDB, err := connectDatabase()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	kafkaBroker := os.Getenv("KAFKA_BROKER")
	if kafkaBroker == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}

	kafkaWriter, err := connection.ConnectKafkaWithRetry(kafkaBroker, 5)
	if err != nil {
		return err
	}
	defer kafkaWriter.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	producer.ProcessOutboxEvents(
		ctx,
		kafka.NewOutboxRepository(sqlDB),
		kafkaWriter,
		logger,
		outboxPollIntervalFromEnv(),
	)

	logger.Info("worker shutting down")
	return nil
}

func outboxPollIntervalFromEnv() time.Duration {
	if raw := os.Getenv("OUTBOX_POLL_INTERVAL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			return d
		}
	}
	return 3 * time.Second
}
