package requestid

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Header carries the request id in both directions.
const Header = "X-Request-ID"

const (
	ginKey    = "request_id"
	maxLength = 64
)

type ctxKey struct{}

// Middleware tags every request with an id, echoes it back and stores it on
// both the gin context and the request context so services can log it.
// Client ids are kept only when short and made of [A-Za-z0-9._-].
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(Header)
		if !acceptable(id) {
			id = uuid.NewString()
		}

		c.Set(ginKey, id)
		c.Request = c.Request.WithContext(WithValue(c.Request.Context(), id))
		c.Writer.Header().Set(Header, id)

		c.Next()
	}
}

// Value returns the id assigned by Middleware, or "".
func Value(c *gin.Context) string {
	if id := c.GetString(ginKey); id != "" {
		return id
	}
	if c.Request != nil {
		return FromContext(c.Request.Context())
	}
	return ""
}

// WithValue stores id on ctx.
func WithValue(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext extracts an id stored by WithValue.
func FromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func acceptable(id string) bool {
	if id == "" || len(id) > maxLength {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.':
		default:
			return false
		}
	}
	return true
}
