package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/directory"
	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/events"
	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/job"
	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/jobsync"
	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/ledger"
	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/messaging/kafka/consumer"
	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/rate"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

func RunConsumer() error {
	logger := zap.L().Named("app.consumer")

	gormDB, sqlDB, err := connectDatabase()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	kafkaBroker := os.Getenv("KAFKA_BROKER")
	if kafkaBroker == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}

	ledgerRepo := ledger.NewRepository(gormDB)
	ledgerService := ledger.NewService(sqlDB, ledgerRepo, logger)
	syncService := jobsync.NewService(
		job.NewRepository(gormDB),
		ledgerService,
		ledgerRepo,
		rate.NewResolver(rate.NewRepository(gormDB)),
		directory.NewCache(directory.NewGormDirectory(gormDB)),
		anchorFromEnv(),
		logger,
	)

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        []string{kafkaBroker},
		Topic:          events.JobCompletedTopic,
		GroupID:        "payroll-job-sync",
		CommitInterval: 0,
		StartOffset:    kafkago.FirstOffset,
	})
	defer reader.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer.ConsumeJobCompleted(ctx, reader, syncService, logger)

	logger.Info("consumer shutting down")
	return nil
}
