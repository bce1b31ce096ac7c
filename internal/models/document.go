package models

import (
	"encoding/json"
	"strings"
	"time"
)

// DocumentOwner identifies the kind of record a document is linked to.
type DocumentOwner string

const (
	OwnerDriver    DocumentOwner = "DRIVER"
	OwnerAssistant DocumentOwner = "ASSISTANT"
	OwnerVehicle   DocumentOwner = "VEHICLE"
	OwnerRoute     DocumentOwner = "ROUTE"
	OwnerEmployee  DocumentOwner = "EMPLOYEE"
)

// UploadChannel records which surface a document arrived through.
type UploadChannel string

const (
	ChannelAdmin        UploadChannel = "ADMIN"
	ChannelAssistant    UploadChannel = "ASSISTANT_PORTAL"
	ChannelSupplier     UploadChannel = "SUPPLIER_PORTAL"
	ChannelNotification UploadChannel = "NOTIFICATION_PORTAL"
)

// Document is the metadata row for one stored file.
type Document struct {
	ID             string        `db:"id" json:"id"`
	OwnerType      DocumentOwner `db:"owner_type" json:"owner_type"`
	OwnerID        string        `db:"owner_id" json:"owner_id"`
	DocumentType   string        `db:"document_type" json:"document_type"`
	FileName       string        `db:"file_name" json:"file_name"`
	MimeType       string        `db:"mime_type" json:"mime_type"`
	Bucket         string        `db:"bucket" json:"bucket"`
	StoragePath    string        `db:"storage_path" json:"storage_path"`
	FileURL        string        `db:"file_url" json:"-"`
	SizeBytes      int64         `db:"size_bytes" json:"size_bytes"`
	UploadedVia    UploadChannel `db:"uploaded_via" json:"uploaded_via"`
	UploadedBy     *string       `db:"uploaded_by" json:"uploaded_by,omitempty"`
	NotificationID *string       `db:"notification_id" json:"notification_id,omitempty"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
}

// URLs returns every URL stored for the document.
func (d Document) URLs() []string {
	return DecodeFileURLs(d.FileURL)
}

// MarshalJSON exposes file_url as a list regardless of the stored shape.
func (d Document) MarshalJSON() ([]byte, error) {
	type alias Document
	return json.Marshal(struct {
		alias
		FileURLs []string `json:"file_urls"`
	}{alias: alias(d), FileURLs: d.URLs()})
}

// DecodeFileURLs reads the file_url column. Older rows hold a JSON encoded
// array of URLs, newer rows a single URL. Blank input yields nil.
func DecodeFileURLs(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if strings.HasPrefix(raw, "[") {
		var urls []string
		if err := json.Unmarshal([]byte(raw), &urls); err == nil {
			out := urls[:0]
			for _, u := range urls {
				if u = strings.TrimSpace(u); u != "" {
					out = append(out, u)
				}
			}
			return out
		}
	}
	return []string{raw}
}

// DocumentFilter captures list parameters for documents.
type DocumentFilter struct {
	OwnerType    DocumentOwner
	OwnerID      string
	DocumentType string
	ListOptions
}

// DocumentRequirement declares a document every subject of a kind must hold.
type DocumentRequirement struct {
	ID           string      `db:"id" json:"id"`
	SubjectKind  SubjectKind `db:"subject_kind" json:"subject_kind"`
	DocumentType string      `db:"document_type" json:"document_type"`
	Name         string      `db:"name" json:"name"`
	Description  string      `db:"description" json:"description"`
	Required     bool        `db:"required" json:"required"`
	HasExpiry    bool        `db:"has_expiry" json:"has_expiry"`
	BadgeColor   string      `db:"badge_color" json:"badge_color"`
	Active       bool        `db:"active" json:"active"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updated_at"`
}
