package producer

import (
	"context"
	"time"

	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/messaging/kafka"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const drainBatchSize = 50

// ProcessOutboxEvents polls the outbox and publishes pending events until
// the context is cancelled. Failed publishes are retried on later ticks
// with backoff recorded by the repository.
func ProcessOutboxEvents(
	ctx context.Context,
	repo kafka.OutboxRepository,
	writer *kafkago.Writer,
	logger *zap.Logger,
	pollInterval time.Duration,
) {
	if pollInterval <= 0 {
		pollInterval = 3 * time.Second
	}

	log := logger.Named("kafka.producer.worker")
	log.Info("outbox worker started", zap.Duration("poll_interval", pollInterval))

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		if err := drainOutbox(ctx, repo, writer, log); err != nil {
			log.Error("outbox drain failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			log.Info("outbox worker stopped")
			return
		case <-ticker.C:
		}
	}
}

func drainOutbox(ctx context.Context, repo kafka.OutboxRepository, writer *kafkago.Writer, log *zap.Logger) error {
	events, err := repo.ListPending(ctx, drainBatchSize)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}

	sent := 0
	for _, event := range events {
		if err := publishEvent(ctx, writer, event); err != nil {
			log.Error("publish outbox event failed",
				zap.String("outbox_id", event.ID),
				zap.String("event_type", event.EventType),
				zap.String("topic", event.Topic),
				zap.Error(err),
			)
			_ = repo.MarkFailed(ctx, event.ID, err.Error())
			continue
		}
		if err := repo.MarkSent(ctx, event.ID); err != nil {
			// The event will be re-sent next tick; consumers dedupe on outbox id.
			log.Error("mark outbox sent failed", zap.String("outbox_id", event.ID), zap.Error(err))
			continue
		}
		sent++
	}

	log.Info("outbox batch drained", zap.Int("sent", sent), zap.Int("total", len(events)))
	return nil
}
