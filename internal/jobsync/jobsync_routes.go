package jobsync

import (
	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, rdb *redis.Client) {
	sync := r.Group("/payroll/sync")
	{
		sync.POST("/jobs",
			middleware.RateLimitByActor(0.5, 2),
			middleware.Idempotency(rdb),
			handler.SyncJobs,
		)
	}

	r.POST("/payroll/periods/:key/sync",
		middleware.RateLimitByActor(0.5, 2),
		middleware.Idempotency(rdb),
		handler.SyncPeriod,
	)
}
