package dto

import "github.com/noah-isme/fleet-ops-api/internal/models"

// SweepResult summarises one expiry notification sweep.
type SweepResult struct {
	Examined int `json:"examined"`
	Created  int `json:"created"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// SweepAccepted acknowledges a queued sweep.
type SweepAccepted struct {
	Queued        bool   `json:"queued"`
	Queue         string `json:"queue"`
	AlreadyQueued bool   `json:"already_queued,omitempty"`
}

// CreateSummaryRequest bundles pending notifications into an email summary.
type CreateSummaryRequest struct {
	Recipients []string `json:"recipients" validate:"required,min=1,dive,email"`
	Subject    string   `json:"subject" validate:"omitempty,max=200"`
}

// NotificationPortalView is what the document portal shows for a token.
type NotificationPortalView struct {
	SubjectKind     models.SubjectKind `json:"subject_kind"`
	SubjectName     string             `json:"subject_name"`
	CertificateType string             `json:"certificate_type"`
	ExpiryDate      string             `json:"expiry_date,omitempty"`
	Title           string             `json:"title"`
	Message         string             `json:"message"`
	Status          string             `json:"status"`
}
