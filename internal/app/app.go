package app

import (
	"database/sql"
	"os"
	"strconv"

	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/middleware"
	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/payperiod"
	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/shared/connection"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func BuildApp(router *gin.Engine) error {
	router.Use(middleware.RequestID())
	router.Use(middleware.ContextLogger(zap.L()))
	router.Use(middleware.RateLimitByIP(10, 20))

	// 1. Setup Infrastructure
	gormDB, sqlDB, err := connectDatabase()
	if err != nil {
		return err
	}
	zap.L().Info("database connection established")

	redisClient, err := connection.ConnectRedisWithRetry(os.Getenv("REDIS_ADDR"), 5)
	if err != nil {
		return err
	}
	zap.L().Info("redis connection established")

	// Register Modules & Routes
	return registerModules(router, sqlDB, gormDB, redisClient, anchorFromEnv())
}

func connectDatabase() (*gorm.DB, *sql.DB, error) {
	gormDB, err := connection.ConnectGORMWithRetry(
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_SSLMODE"),
		5,
	)
	if err != nil {
		return nil, nil, err
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, nil, err
	}
	return gormDB, sqlDB, nil
}

// anchorFromEnv reads the pay delay; the default matches the company's
// published pay calendar (20th and 5th).
func anchorFromEnv() payperiod.Anchor {
	anchor := payperiod.DefaultAnchor
	if raw := os.Getenv("PAY_DELAY_DAYS"); raw != "" {
		if days, err := strconv.Atoi(raw); err == nil && days > 0 {
			anchor.PayDelayDays = days
		}
	}
	return anchor
}
