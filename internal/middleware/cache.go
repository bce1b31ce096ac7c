package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const responseMetaKey = "response_meta"

// Envelope meta keys written by handlers.
const (
	MetaCacheHit    = "cache_hit"
	MetaUnavailable = "unavailable"
	MetaElapsedMs   = "processing_time_ms"
)

type responseMeta struct {
	start  time.Time
	values map[string]interface{}
}

// WithResponseMeta starts the clock for the request and gives handlers a
// place to leave envelope metadata.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(responseMetaKey, &responseMeta{start: time.Now(), values: map[string]interface{}{}})
		c.Next()
	}
}

// SetMeta stores one metadata value for the current response.
func SetMeta(c *gin.Context, key string, value interface{}) {
	if meta := metaFrom(c); meta != nil {
		meta.values[key] = value
	}
}

// SetCacheHit records whether the payload was served from cache.
func SetCacheHit(c *gin.Context, hit bool) {
	SetMeta(c, MetaCacheHit, hit)
}

// SetUnavailable lists response sections that could not be loaded.
func SetUnavailable(c *gin.Context, sections []string) {
	if len(sections) == 0 {
		return
	}
	SetMeta(c, MetaUnavailable, sections)
}

// ExtractMeta returns a copy of the stored metadata with the time spent so
// far, or nil when WithResponseMeta is not installed.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	meta := metaFrom(c)
	if meta == nil {
		return nil
	}
	out := make(map[string]interface{}, len(meta.values)+1)
	for k, v := range meta.values {
		out[k] = v
	}
	out[MetaElapsedMs] = time.Since(meta.start).Milliseconds()
	return out
}

func metaFrom(c *gin.Context) *responseMeta {
	if c == nil {
		return nil
	}
	value, ok := c.Get(responseMetaKey)
	if !ok {
		return nil
	}
	meta, _ := value.(*responseMeta)
	return meta
}
