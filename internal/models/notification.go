package models

import (
	"time"

	"github.com/lib/pq"
)

// NotificationStatus tracks whether an expiry reminder has been acted on.
type NotificationStatus string

const (
	NotificationPending  NotificationStatus = "PENDING"
	NotificationSent     NotificationStatus = "SENT"
	NotificationResolved NotificationStatus = "RESOLVED"
)

// Notification is a reminder that a certificate needs renewing. UploadToken
// grants access to the document upload portal until TokenExpiresAt.
type Notification struct {
	ID              string             `db:"id" json:"id"`
	SubjectKind     SubjectKind        `db:"subject_kind" json:"subject_kind"`
	SubjectID       string             `db:"subject_id" json:"subject_id"`
	SubjectName     string             `db:"subject_name" json:"subject_name"`
	CertificateType string             `db:"certificate_type" json:"certificate_type"`
	ExpiryDate      *time.Time         `db:"expiry_date" json:"expiry_date,omitempty"`
	Title           string             `db:"title" json:"title"`
	Message         string             `db:"message" json:"message"`
	Status          NotificationStatus `db:"status" json:"status"`
	UploadToken     *string            `db:"upload_token" json:"upload_token,omitempty"`
	TokenExpiresAt  *time.Time         `db:"token_expires_at" json:"token_expires_at,omitempty"`
	ResolvedAt      *time.Time         `db:"resolved_at" json:"resolved_at,omitempty"`
	CreatedAt       time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time          `db:"updated_at" json:"updated_at"`
}

// NotificationFilter captures list parameters for notifications.
type NotificationFilter struct {
	Status      NotificationStatus
	SubjectKind SubjectKind
	SubjectID   string
	ListOptions
}

// EmailSummary bundles pending notifications into one outbound message.
type EmailSummary struct {
	ID              string         `db:"id" json:"id"`
	Recipients      pq.StringArray `db:"recipients" json:"recipients"`
	Subject         string         `db:"subject" json:"subject"`
	Body            string         `db:"body" json:"body"`
	NotificationIDs pq.StringArray `db:"notification_ids" json:"notification_ids"`
	CreatedBy       *string        `db:"created_by" json:"created_by,omitempty"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
}
