package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fleet-ops-api/internal/models"
	appErrors "github.com/noah-isme/fleet-ops-api/pkg/errors"
)

type jsonCache struct {
	values map[string][]byte
	sets   int
}

func newJSONCache() *jsonCache {
	return &jsonCache{values: map[string][]byte{}}
}

func (c *jsonCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, ok := c.values[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *jsonCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.values[key] = raw
	c.sets++
	return nil
}

type fakeHolders struct {
	drivers    []models.DriverRecord
	assistants []models.AssistantRecord
	err        error
	calls      int
}

func (f *fakeHolders) ListDrivers(ctx context.Context, activeOnly bool) ([]models.DriverRecord, error) {
	f.calls++
	return f.drivers, f.err
}

func (f *fakeHolders) ListAssistants(ctx context.Context, activeOnly bool) ([]models.AssistantRecord, error) {
	return f.assistants, nil
}

type fakeFleet struct {
	vehicles []models.Vehicle
}

func (f fakeFleet) ListAll(ctx context.Context) ([]models.Vehicle, error) {
	return f.vehicles, nil
}

func dayPtr(today time.Time, days int) *time.Time {
	t := today.AddDate(0, 0, days)
	return &t
}

func newExpiryServiceForTest(today time.Time, c readThroughCache) (*ExpiryService, *fakeHolders) {
	holders := &fakeHolders{
		drivers: []models.DriverRecord{{
			Driver:   models.Driver{EmployeeID: "d1", DBSExpiry: dayPtr(today, -3), TASBadgeExpiry: dayPtr(today, 10)},
			FullName: "Dan Driver",
		}},
		assistants: []models.AssistantRecord{{
			PassengerAssistant: models.PassengerAssistant{EmployeeID: "a1", DBSExpiry: dayPtr(today, 25)},
			FullName:           "Ann Assistant",
		}},
	}
	fleet := fakeFleet{vehicles: []models.Vehicle{{ID: "v1", Registration: "AB12 CDE", MOTExpiry: dayPtr(today, 0)}}}
	svc := NewExpiryService(holders, fleet, c, time.Minute, nil)
	svc.now = func() time.Time { return today }
	return svc, holders
}

func TestExpiryServiceSummaryClassifiesAllHolders(t *testing.T) {
	today := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	svc, _ := newExpiryServiceForTest(today, nil)

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)

	require.Len(t, summary.Expired, 1)
	assert.Equal(t, "Dan Driver", summary.Expired[0].SubjectName)
	assert.Equal(t, models.CertDBS, summary.Expired[0].CertificateType)

	names := make([]string, 0, len(summary.Within14))
	for _, row := range summary.Within14 {
		names = append(names, row.SubjectName)
	}
	assert.ElementsMatch(t, []string{"AB12 CDE", "Dan Driver"}, names)
	assert.Len(t, summary.Within30, 3)
}

func TestExpiryServiceSummaryIsCachedPerDay(t *testing.T) {
	today := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	c := newJSONCache()
	svc, holders := newExpiryServiceForTest(today, c)

	_, err := svc.Summary(context.Background())
	require.NoError(t, err)
	counts, err := svc.Counts(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, holders.calls)
	assert.Equal(t, 1, c.sets)
	assert.Equal(t, models.ExpiryCounts{Expired: 1, Within14: 2, Within30: 3}, counts)
}

func TestExpiryServiceWindowFiltersByKind(t *testing.T) {
	today := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	svc, _ := newExpiryServiceForTest(today, nil)

	rows, err := svc.Window(context.Background(), models.Window30Days, models.SubjectAssistant)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Ann Assistant", rows[0].SubjectName)
	assert.Equal(t, 25, rows[0].DaysRemaining)
}

func TestExpiryServiceWindowRejectsUnknownWindow(t *testing.T) {
	svc, _ := newExpiryServiceForTest(time.Now(), nil)

	_, err := svc.Window(context.Background(), models.ExpiryWindow("7-days"), "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExpiryServiceSubjectsWrapsLoadFailure(t *testing.T) {
	svc, holders := newExpiryServiceForTest(time.Now(), nil)
	holders.err = errors.New("db down")

	_, err := svc.Summary(context.Background())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestExpiryServiceExportCSV(t *testing.T) {
	today := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	svc, _ := newExpiryServiceForTest(today, nil)

	file, err := svc.Export(context.Background(), models.WindowExpired, "csv")
	require.NoError(t, err)
	assert.Equal(t, "certificates-expired-2024-03-10.csv", file.FileName)
	assert.Contains(t, file.ContentType, "text/csv")

	lines := strings.Split(strings.TrimSpace(string(file.Body)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Type,Name,Certificate,Expiry Date,Days Remaining", lines[0])
	assert.Equal(t, "DRIVER,Dan Driver,DBS,2024-03-07,-3", lines[1])
}

func TestExpiryServiceExportRejectsUnknownFormat(t *testing.T) {
	svc, _ := newExpiryServiceForTest(time.Now(), nil)

	_, err := svc.Export(context.Background(), models.WindowExpired, "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
