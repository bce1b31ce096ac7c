package models

import "time"

// SubjectKind identifies what a certificate or document belongs to.
type SubjectKind string

const (
	SubjectDriver    SubjectKind = "DRIVER"
	SubjectAssistant SubjectKind = "ASSISTANT"
	SubjectVehicle   SubjectKind = "VEHICLE"
)

// Certificate type labels shown to users.
const (
	CertTASBadge         = "TAS Badge"
	CertTaxiBadge        = "Taxi Badge"
	CertDBS              = "DBS"
	CertDrivingLicence   = "Driving Licence"
	CertCPC              = "CPC"
	CertFirstAid         = "First Aid"
	CertMedical          = "Medical"
	CertSafeguarding     = "Safeguarding"
	CertPassport         = "Passport"
	CertMOT              = "MOT"
	CertTax              = "Tax"
	CertInsurance        = "Insurance"
	CertPlate            = "Plate"
	CertLOLER            = "LOLER"
	CertFireExtinguisher = "Fire Extinguisher"
	CertFirstAidKit      = "First Aid Kit"
)

// ExpiryWindow selects a bucket of the expiry classifier.
type ExpiryWindow string

const (
	WindowExpired ExpiryWindow = "expired"
	Window14Days  ExpiryWindow = "14-days"
	Window30Days  ExpiryWindow = "30-days"
)

// ExpiryWindows lists the windows in display order.
var ExpiryWindows = []ExpiryWindow{WindowExpired, Window14Days, Window30Days}

// Valid reports whether w is a known window.
func (w ExpiryWindow) Valid() bool {
	switch w {
	case WindowExpired, Window14Days, Window30Days:
		return true
	}
	return false
}

// CertificateDate is one nullable expiry field of a subject.
type CertificateDate struct {
	Type   string
	Expiry *time.Time
}

// CertificateSubject is a driver, assistant or vehicle flattened to its expiry fields.
type CertificateSubject struct {
	Kind         SubjectKind
	ID           string
	Name         string
	Certificates []CertificateDate
}

// ExpiringCertificate is a single classified expiry row.
type ExpiringCertificate struct {
	SubjectKind     SubjectKind `json:"subject_kind"`
	SubjectID       string      `json:"subject_id"`
	SubjectName     string      `json:"subject_name"`
	CertificateType string      `json:"certificate_type"`
	ExpiryDate      time.Time   `json:"expiry_date"`
	DaysRemaining   int         `json:"days_remaining"`
}

// ExpirySummary holds every window computed in one pass.
type ExpirySummary struct {
	Expired    []ExpiringCertificate `json:"expired"`
	Within14   []ExpiringCertificate `json:"within_14_days"`
	Within30   []ExpiringCertificate `json:"within_30_days"`
	ComputedAt time.Time             `json:"computed_at"`
}

// Window returns the bucket for w.
func (s ExpirySummary) Window(w ExpiryWindow) []ExpiringCertificate {
	switch w {
	case WindowExpired:
		return s.Expired
	case Window14Days:
		return s.Within14
	case Window30Days:
		return s.Within30
	}
	return nil
}

// ExpiryCounts is the per-window size of a summary.
type ExpiryCounts struct {
	Expired  int `json:"expired"`
	Within14 int `json:"within_14_days"`
	Within30 int `json:"within_30_days"`
}

// Counts returns the bucket sizes.
func (s ExpirySummary) Counts() ExpiryCounts {
	return ExpiryCounts{Expired: len(s.Expired), Within14: len(s.Within14), Within30: len(s.Within30)}
}
