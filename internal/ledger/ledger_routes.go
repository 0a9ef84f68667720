package ledger

import (
	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, rdb *redis.Client) {
	periods := r.Group("/payroll/periods")
	{
		periods.GET("",
			middleware.RateLimitByActor(2, 5),
			handler.ListPeriods,
		)
		periods.GET("/:key",
			middleware.RateLimitByActor(2, 5),
			handler.GetPeriod,
		)
	}

	entries := r.Group("/payroll/entries")
	{
		entries.POST("",
			middleware.RateLimitByActor(0.5, 2),
			middleware.Idempotency(rdb),
			handler.CreateEntry,
		)
		entries.POST("/:id/override",
			middleware.RateLimitByActor(0.5, 2),
			middleware.Idempotency(rdb),
			handler.OverrideEntry,
		)
	}
}
