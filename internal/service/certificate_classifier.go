package service

import (
	"math"
	"sort"
	"time"

	"github.com/noah-isme/fleet-ops-api/internal/models"
)

// DaysRemaining returns the whole days from today until expiry, rounded up.
// Both instants are reduced to their calendar date first so clock time and
// timezone offsets never move a certificate across a day boundary.
func DaysRemaining(expiry, today time.Time) int {
	diff := civilDate(expiry).Sub(civilDate(today))
	return int(math.Ceil(diff.Hours() / 24))
}

// InWindow reports whether days falls in w.
func InWindow(days int, w models.ExpiryWindow) bool {
	switch w {
	case models.WindowExpired:
		return days < 0
	case models.Window14Days:
		return days >= 0 && days <= 14
	case models.Window30Days:
		return days >= 0 && days <= 30
	}
	return false
}

// ClassifyExpiries buckets every non-null expiry field of subjects into all
// windows in one pass. Each bucket is ordered by days remaining ascending;
// ties keep subject name then certificate type order.
func ClassifyExpiries(subjects []models.CertificateSubject, today time.Time) models.ExpirySummary {
	summary := models.ExpirySummary{
		Expired:    []models.ExpiringCertificate{},
		Within14:   []models.ExpiringCertificate{},
		Within30:   []models.ExpiringCertificate{},
		ComputedAt: today,
	}
	for _, subject := range subjects {
		for _, cert := range subject.Certificates {
			if cert.Expiry == nil {
				continue
			}
			days := DaysRemaining(*cert.Expiry, today)
			row := models.ExpiringCertificate{
				SubjectKind:     subject.Kind,
				SubjectID:       subject.ID,
				SubjectName:     subject.Name,
				CertificateType: cert.Type,
				ExpiryDate:      civilDate(*cert.Expiry),
				DaysRemaining:   days,
			}
			if InWindow(days, models.WindowExpired) {
				summary.Expired = append(summary.Expired, row)
			}
			if InWindow(days, models.Window14Days) {
				summary.Within14 = append(summary.Within14, row)
			}
			if InWindow(days, models.Window30Days) {
				summary.Within30 = append(summary.Within30, row)
			}
		}
	}
	sortExpiring(summary.Expired)
	sortExpiring(summary.Within14)
	sortExpiring(summary.Within30)
	return summary
}

// ClassifyWindow returns only the rows for w.
func ClassifyWindow(subjects []models.CertificateSubject, w models.ExpiryWindow, today time.Time) []models.ExpiringCertificate {
	return ClassifyExpiries(subjects, today).Window(w)
}

func sortExpiring(rows []models.ExpiringCertificate) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].DaysRemaining != rows[j].DaysRemaining {
			return rows[i].DaysRemaining < rows[j].DaysRemaining
		}
		if rows[i].SubjectName != rows[j].SubjectName {
			return rows[i].SubjectName < rows[j].SubjectName
		}
		return rows[i].CertificateType < rows[j].CertificateType
	})
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
