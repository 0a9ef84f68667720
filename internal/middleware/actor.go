package middleware

import (
	"net/http"

	"github.com/jmorrow08/ClevelandCleanSolutionsV2-sub004/internal/shared/response"

	"github.com/gin-gonic/gin"
)

// ExtractActor trusts the gateway-provided X-Actor-ID header. Authentication
// itself lives in front of this service; the engine only needs to know who
// to stamp onto overrides and finalizations.
func ExtractActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID := c.GetHeader("X-Actor-ID")
		if actorID == "" {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "X-Actor-ID header is required", nil)
			c.Abort()
			return
		}

		c.Set("actor_id", actorID)
		c.Next()
	}
}
