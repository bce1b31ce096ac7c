package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fleet-ops-api/internal/models"
)

func dateAt(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestDaysRemainingIgnoresClockTime(t *testing.T) {
	loc := time.FixedZone("BST", 3600)
	today := time.Date(2026, 3, 29, 23, 30, 0, 0, loc)
	assert.Equal(t, 0, DaysRemaining(*dateAt(2026, 3, 29), today))
	assert.Equal(t, 1, DaysRemaining(*dateAt(2026, 3, 30), today))
	assert.Equal(t, -1, DaysRemaining(*dateAt(2026, 3, 28), today))
	assert.Equal(t, 365, DaysRemaining(*dateAt(2027, 3, 29), today))
}

func TestInWindowPartition(t *testing.T) {
	cases := []struct {
		days                     int
		expired, within14, in30 bool
	}{
		{days: -1, expired: true},
		{days: 0, within14: true, in30: true},
		{days: 14, within14: true, in30: true},
		{days: 15, in30: true},
		{days: 30, in30: true},
		{days: 31},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.expired, InWindow(tc.days, models.WindowExpired), "expired d=%d", tc.days)
		assert.Equal(t, tc.within14, InWindow(tc.days, models.Window14Days), "14 d=%d", tc.days)
		assert.Equal(t, tc.in30, InWindow(tc.days, models.Window30Days), "30 d=%d", tc.days)
	}
	assert.False(t, InWindow(0, models.ExpiryWindow("90-days")))
}

func TestClassifyExpiriesExpiredBadgeYesterday(t *testing.T) {
	today := time.Date(2026, 10, 16, 9, 0, 0, 0, time.Local)
	driver := models.DriverRecord{FullName: "Sam Driver"}
	driver.EmployeeID = "emp-1"
	driver.TASBadgeExpiry = dateAt(2026, 10, 15)

	summary := ClassifyExpiries([]models.CertificateSubject{driver.CertificateSubject()}, today)

	require.Len(t, summary.Expired, 1)
	row := summary.Expired[0]
	assert.Equal(t, models.CertTASBadge, row.CertificateType)
	assert.Equal(t, -1, row.DaysRemaining)
	assert.Equal(t, models.SubjectDriver, row.SubjectKind)
	assert.Equal(t, "emp-1", row.SubjectID)
	assert.Empty(t, summary.Within14)
	assert.Empty(t, summary.Within30)
}

func TestClassifyExpiriesOneRowPerField(t *testing.T) {
	today := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	vehicle := models.Vehicle{
		ID:              "veh-1",
		Registration:    "AB12 CDE",
		MOTExpiry:       dateAt(2026, 10, 20),
		InsuranceExpiry: dateAt(2026, 10, 20),
		PlateExpiry:     dateAt(2026, 11, 10),
		LOLERExpiry:     dateAt(2027, 1, 1),
	}

	summary := ClassifyExpiries([]models.CertificateSubject{vehicle.CertificateSubject()}, today)

	assert.Len(t, summary.Expired, 0)
	require.Len(t, summary.Within14, 2)
	assert.Equal(t, models.CertInsurance, summary.Within14[0].CertificateType)
	assert.Equal(t, models.CertMOT, summary.Within14[1].CertificateType)
	require.Len(t, summary.Within30, 3)
	assert.Equal(t, 25, summary.Within30[2].DaysRemaining)
	assert.Equal(t, models.ExpiryCounts{Expired: 0, Within14: 2, Within30: 3}, summary.Counts())
}

func TestClassifyExpiriesSortedAscending(t *testing.T) {
	today := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	a := models.AssistantRecord{FullName: "Alex APA"}
	a.EmployeeID = "pa-1"
	a.DBSExpiry = dateAt(2026, 10, 1)
	a.FirstAidExpiry = dateAt(2026, 9, 1)
	a.PassportExpiry = dateAt(2026, 10, 10)
	d := models.DriverRecord{FullName: "Bo"}
	d.EmployeeID = "d-1"
	d.CPCExpiry = dateAt(2026, 10, 5)

	rows := ClassifyWindow([]models.CertificateSubject{a.CertificateSubject(), d.CertificateSubject()}, models.WindowExpired, today)

	require.Len(t, rows, 4)
	for i := 1; i < len(rows); i++ {
		assert.LessOrEqual(t, rows[i-1].DaysRemaining, rows[i].DaysRemaining)
	}
	assert.Equal(t, models.CertFirstAid, rows[0].CertificateType)
	assert.Equal(t, "Bo", rows[2].SubjectName)
}
