package dto

import "github.com/noah-isme/fleet-ops-api/internal/models"

// AssistantPortalView is what the assistant portal shows for a QR token.
type AssistantPortalView struct {
	FullName     string                       `json:"full_name"`
	CanWork      bool                         `json:"can_work"`
	Expiries     []models.ExpiringCertificate `json:"expiries"`
	Requirements []models.DocumentRequirement `json:"requirements"`
	Documents    []models.Document            `json:"documents"`
}
