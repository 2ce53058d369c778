package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sealbase/sealbase-api/pkg/middleware/requestid"
)

const (
	responseMetaKey = "responseMeta"
	cacheHitKey     = "cache_hit"
)

// WithResponseMeta seeds per-request response metadata (request id, timing)
// that handlers can extend and surface through the envelope meta field.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		meta := map[string]interface{}{}
		if reqID := requestid.Value(c); reqID != "" {
			meta["request_id"] = reqID
		}
		c.Set(responseMetaKey, meta)
		c.Next()
		duration := time.Since(start)
		meta = ensureMeta(c)
		if _, exists := meta["processing_time_ms"]; !exists {
			meta["processing_time_ms"] = duration.Milliseconds()
		}
	}
}

// SetCacheHit records whether the current response was served from cache.
func SetCacheHit(c *gin.Context, hit bool) {
	ensureMeta(c)[cacheHitKey] = hit
}

// ExtractMeta returns the metadata map stored on the context.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	if meta, exists := c.Get(responseMetaKey); exists {
		if typed, ok := meta.(map[string]interface{}); ok {
			return typed
		}
	}
	return nil
}

func ensureMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return map[string]interface{}{}
	}
	if meta, exists := c.Get(responseMetaKey); exists {
		if typed, ok := meta.(map[string]interface{}); ok {
			return typed
		}
	}
	newMeta := make(map[string]interface{})
	c.Set(responseMetaKey, newMeta)
	return newMeta
}
