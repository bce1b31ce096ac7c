package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/fleet-ops-api/internal/models"
)

// AuditWriter persists audit entries.
type AuditWriter interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

var auditActions = map[string]string{
	http.MethodPost:   models.AuditActionCreate,
	http.MethodPut:    models.AuditActionUpdate,
	http.MethodPatch:  models.AuditActionUpdate,
	http.MethodDelete: models.AuditActionDelete,
}

// Audit records successful writes on resource. Reads are not recorded.
func Audit(writer AuditWriter, resource string, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		action, isWrite := auditActions[c.Request.Method]
		if !isWrite || writer == nil {
			c.Next()
			return
		}
		start := time.Now().UTC()
		c.Next()

		if c.Writer.Status() >= http.StatusBadRequest {
			return
		}

		var userID *string
		if claims := Claims(c); claims != nil {
			id := claims.UserID
			userID = &id
		}
		var resourceID *string
		if id := c.Param("id"); id != "" {
			resourceID = &id
		}

		body, _ := json.Marshal(map[string]interface{}{
			"path":    c.FullPath(),
			"method":  c.Request.Method,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).Milliseconds(),
		})

		if err := writer.Create(c.Request.Context(), &models.AuditLog{
			UserID:     userID,
			Action:     action,
			Resource:   resource,
			ResourceID: resourceID,
			NewValues:  body,
			IPAddress:  c.ClientIP(),
			UserAgent:  c.GetHeader("User-Agent"),
		}); err != nil {
			logger.Warn("audit middleware write failed", zap.String("resource", resource), zap.Error(err))
		}
	}
}
