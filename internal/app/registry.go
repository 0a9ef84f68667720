package app

import (
	"database/sql"

	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/bootstrap"
	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/directory"
	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/expense"
	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/finalize"
	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/job"
	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/jobsync"
	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/ledger"
	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/messaging/kafka"
	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/middleware"
	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/monthly"
	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/payperiod"
	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/rate"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func registerModules(
	router *gin.Engine,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
	anchor payperiod.Anchor,
) error {
	logger := zap.L()

	// --- Repositories ---
	ledgerRepo := ledger.NewRepository(gormDB)
	rateRepo := rate.NewRepository(gormDB)
	jobRepo := job.NewRepository(gormDB)
	expenseRepo := expense.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)

	// --- Services ---
	owners := directory.NewCache(directory.NewGormDirectory(gormDB))
	resolver := rate.NewResolver(rateRepo)
	ledgerService := ledger.NewService(db, ledgerRepo, logger)
	jobsyncService := jobsync.NewService(jobRepo, ledgerService, ledgerRepo, resolver, owners, anchor, logger)
	monthlyService := monthly.NewService(db, jobRepo, ledgerService, ledgerRepo, resolver, owners, logger)
	finalizeService := finalize.NewService(
		db,
		ledgerService,
		ledgerRepo,
		expenseRepo,
		outboxRepo,
		bootstrap.NewStdoutAuditLogger(),
		logger,
	)

	// --- Handlers ---
	ledgerHandler := ledger.NewHandler(ledgerService, anchor)
	jobsyncHandler := jobsync.NewHandler(jobsyncService, monthlyService, anchor)
	finalizeHandler := finalize.NewHandler(finalizeService)

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	api.Use(middleware.ExtractActor())
	{
		ledger.RegisterRoutes(api, ledgerHandler, rdb)
		jobsync.RegisterRoutes(api, jobsyncHandler, rdb)
		finalize.RegisterRoutes(api, finalizeHandler, rdb)
	}

	return nil
}
