package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/sealbase/sealbase-api/internal/dto"
	"github.com/sealbase/sealbase-api/pkg/middleware/requestid"
)

// ContextEventKey is the gin context key storing request tracking data.
const ContextEventKey = "eventContext"

// Tracking captures the request metadata recorded alongside submitter
// lifecycle events.
func Tracking() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextEventKey, dto.EventContext{
			IP:        c.ClientIP(),
			UserAgent: c.GetHeader("User-Agent"),
			RequestID: requestid.Value(c),
		})
		c.Next()
	}
}

// EventContext returns the tracking data stored on the context.
func EventContext(c *gin.Context) dto.EventContext {
	if value, exists := c.Get(ContextEventKey); exists {
		if typed, ok := value.(dto.EventContext); ok {
			return typed
		}
	}
	return dto.EventContext{}
}
