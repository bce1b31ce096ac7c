package dto

import (
	"time"

	"github.com/noah-isme/fleet-ops-api/internal/models"
)

// DocumentRequirementRequest creates or updates a document requirement.
type DocumentRequirementRequest struct {
	SubjectKind  string `json:"subject_kind" validate:"required,oneof=DRIVER ASSISTANT VEHICLE"`
	DocumentType string `json:"document_type" validate:"required,max=100"`
	Name         string `json:"name" validate:"required,max=200"`
	Description  string `json:"description"`
	Required     bool   `json:"required"`
	HasExpiry    bool   `json:"has_expiry"`
	BadgeColor   string `json:"badge_color" validate:"omitempty,hexcolor,len=7"`
	Active       *bool  `json:"active"`
}

// DocumentView is a document with a short lived download link.
type DocumentView struct {
	models.Document
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"download_expires_at"`
}

// UploadFileResult reports the outcome for one file of a batch.
type UploadFileResult struct {
	FileName string           `json:"file_name"`
	Uploaded bool             `json:"uploaded"`
	Error    string           `json:"error,omitempty"`
	Document *models.Document `json:"document,omitempty"`
}

// UploadResult reports a whole upload batch.
type UploadResult struct {
	Target   string             `json:"target"`
	OwnerID  string             `json:"owner_id"`
	Uploaded int                `json:"uploaded"`
	Failed   int                `json:"failed"`
	Aborted  bool               `json:"aborted"`
	Files    []UploadFileResult `json:"files"`
}
