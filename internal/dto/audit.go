package dto

import "encoding/json"

// CreateAuditLogRequest records an explicit audit entry.
type CreateAuditLogRequest struct {
	Action     string          `json:"action" validate:"required,max=50"`
	Resource   string          `json:"resource" validate:"required,max=100"`
	ResourceID *string         `json:"resource_id"`
	OldValues  json.RawMessage `json:"old_values"`
	NewValues  json.RawMessage `json:"new_values"`
}
