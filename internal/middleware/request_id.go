package middleware

import (
	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/shared/contextutil"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-ID")
		if rid == "" {
			rid = uuid.New().String()
		}

		c.Set("request_id", rid)

		ctx := contextutil.WithRequestID(c.Request.Context(), rid)
		c.Request = c.Request.WithContext(ctx)

		c.Header("X-Request-ID", rid)
		c.Next()
	}
}

// ContextLogger attaches a request-scoped zap logger so services and
// repositories can log with request/actor metadata without knowing gin.
func ContextLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetString("request_id")
		actor := c.GetString("actor_id")

		reqLogger := logger.With(
			zap.String("request_id", rid),
			zap.String("actor_id", actor),
		)

		ctx := c.Request.Context()
		ctx = contextutil.WithActorID(ctx, actor)
		ctx = contextutil.WithLogger(ctx, reqLogger)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
