package consumer

import (
	"context"
	"encoding/json"

	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/events"
	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/jobsync"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ConsumeJobCompleted feeds job-completion events into the synchronizer.
// Malformed messages are committed and dropped; a sync failure leaves the
// message uncommitted so it is redelivered.
func ConsumeJobCompleted(
	ctx context.Context,
	reader *kafkago.Reader,
	syncService jobsync.Service,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.job_completed")
	log.Info("job completed consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("job completed consumer stopped")
				return
			}
			log.Error("fetch job completed message failed", zap.Error(err))
			continue
		}

		var event events.JobCompletedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error("decode job_completed event failed", zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		jobID, err := uuid.Parse(event.JobID)
		if err != nil {
			log.Error("job_completed event carries invalid job id",
				zap.String("job_id", event.JobID))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		result, err := syncService.SyncJob(ctx, jobID)
		if err != nil {
			log.Error("sync job from event failed",
				zap.String("job_id", event.JobID),
				zap.Error(err))
			continue
		}

		log.Info("job synced from event",
			zap.String("job_id", event.JobID),
			zap.Int("created", result.Created),
			zap.Int("missing_rates", len(result.MissingRates)),
		)
		_ = reader.CommitMessages(ctx, msg)
	}
}
