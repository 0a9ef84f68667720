package finalize

import (
	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, rdb *redis.Client) {
	r.POST("/payroll/periods/:key/finalize",
		middleware.RateLimitByActor(0.2, 1),
		middleware.Idempotency(rdb),
		handler.Finalize,
	)
}
