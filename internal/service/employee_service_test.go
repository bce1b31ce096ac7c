package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/fleet-ops-api/internal/dto"
	"github.com/noah-isme/fleet-ops-api/internal/models"
	"github.com/noah-isme/fleet-ops-api/internal/repository"
	appErrors "github.com/noah-isme/fleet-ops-api/pkg/errors"
)

type recordingInvalidator struct {
	views []string
}

func (r *recordingInvalidator) InvalidateViews(ctx context.Context, views ...string) error {
	r.views = append(r.views, views...)
	return nil
}

type mockEmployeeRepo struct {
	employees  map[string]models.Employee
	drivers    map[string]models.Driver
	assistants map[string]models.PassengerAssistant
	createErr  error
	qrTokens   map[string]string
}

func newMockEmployeeRepo() *mockEmployeeRepo {
	return &mockEmployeeRepo{
		employees:  map[string]models.Employee{},
		drivers:    map[string]models.Driver{},
		assistants: map[string]models.PassengerAssistant{},
		qrTokens:   map[string]string{},
	}
}

func (m *mockEmployeeRepo) List(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, int, error) {
	out := make([]models.Employee, 0, len(m.employees))
	for _, e := range m.employees {
		out = append(out, e)
	}
	return out, len(out), nil
}

func (m *mockEmployeeRepo) FindByID(ctx context.Context, id string) (*models.Employee, error) {
	if e, ok := m.employees[id]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEmployeeRepo) Create(ctx context.Context, employee *models.Employee) error {
	if m.createErr != nil {
		return m.createErr
	}
	employee.ID = "emp-new"
	m.employees[employee.ID] = *employee
	return nil
}

func (m *mockEmployeeRepo) Update(ctx context.Context, employee *models.Employee) error {
	m.employees[employee.ID] = *employee
	return nil
}

func (m *mockEmployeeRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.employees[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.employees, id)
	return nil
}

func (m *mockEmployeeRepo) FindDriver(ctx context.Context, employeeID string) (*models.Driver, error) {
	if d, ok := m.drivers[employeeID]; ok {
		return &d, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEmployeeRepo) UpsertDriver(ctx context.Context, driver *models.Driver) error {
	m.drivers[driver.EmployeeID] = *driver
	return nil
}

func (m *mockEmployeeRepo) FindAssistant(ctx context.Context, employeeID string) (*models.PassengerAssistant, error) {
	if a, ok := m.assistants[employeeID]; ok {
		return &a, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEmployeeRepo) UpsertAssistant(ctx context.Context, assistant *models.PassengerAssistant) error {
	m.assistants[assistant.EmployeeID] = *assistant
	return nil
}

func (m *mockEmployeeRepo) SetAssistantQRToken(ctx context.Context, employeeID, token string) error {
	m.qrTokens[employeeID] = token
	return nil
}

func newEmployeeServiceForTest(repo *mockEmployeeRepo) (*EmployeeService, *mockAuditWriter, *recordingInvalidator) {
	audit := &mockAuditWriter{}
	cache := &recordingInvalidator{}
	return NewEmployeeService(repo, audit, cache, validator.New(), zap.NewNop()), audit, cache
}

func TestEmployeeServiceCreate(t *testing.T) {
	repo := newMockEmployeeRepo()
	svc, audit, cache := newEmployeeServiceForTest(repo)

	start := "2023-09-01"
	employee, err := svc.Create(context.Background(), dto.EmployeeRequest{
		FullName:  "  Jo Smith ",
		Role:      string(models.EmployeeDriver),
		Postcode:  "ab1 2cd",
		StartDate: &start,
	}, Actor{})
	require.NoError(t, err)
	assert.Equal(t, "Jo Smith", employee.FullName)
	assert.Equal(t, "AB1 2CD", employee.Postcode)
	assert.Equal(t, models.EmploymentActive, employee.EmploymentStatus)
	assert.True(t, employee.CanWork)
	require.NotNil(t, employee.StartDate)
	assert.Equal(t, 2023, employee.StartDate.Year())
	assert.Equal(t, []string{models.AuditActionCreate}, audit.actions())
	assert.Equal(t, []string{ViewExpiry, ViewDashboard}, cache.views)
}

func TestEmployeeServiceCreateValidation(t *testing.T) {
	svc, _, _ := newEmployeeServiceForTest(newMockEmployeeRepo())

	_, err := svc.Create(context.Background(), dto.EmployeeRequest{FullName: "X", Role: "PILOT"}, Actor{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestEmployeeServiceCreateDuplicate(t *testing.T) {
	repo := newMockEmployeeRepo()
	repo.createErr = repository.ErrDuplicate
	svc, _, _ := newEmployeeServiceForTest(repo)

	_, err := svc.Create(context.Background(), dto.EmployeeRequest{FullName: "X", Role: "OFFICE"}, Actor{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestEmployeeServiceGetIncludesProfiles(t *testing.T) {
	repo := newMockEmployeeRepo()
	repo.employees["e1"] = models.Employee{ID: "e1", FullName: "Ann", Role: models.EmployeeDriver}
	repo.drivers["e1"] = models.Driver{EmployeeID: "e1", TASBadgeNumber: "T1"}
	svc, _, _ := newEmployeeServiceForTest(repo)

	detail, err := svc.Get(context.Background(), "e1")
	require.NoError(t, err)
	require.NotNil(t, detail.Driver)
	assert.Equal(t, "T1", detail.Driver.TASBadgeNumber)
	assert.Nil(t, detail.Assistant)

	_, err = svc.Get(context.Background(), "missing")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestEmployeeServiceUpsertDriver(t *testing.T) {
	repo := newMockEmployeeRepo()
	repo.employees["e1"] = models.Employee{ID: "e1", Role: models.EmployeeDriver}
	svc, _, cache := newEmployeeServiceForTest(repo)

	expiry := "2025-03-01"
	driver, err := svc.UpsertDriver(context.Background(), "e1", dto.DriverProfileRequest{
		TASBadgeNumber: "TAS-1",
		TASBadgeExpiry: &expiry,
		ChecklistRequest: dto.ChecklistRequest{
			PhotoProvided: true,
		},
	}, Actor{})
	require.NoError(t, err)
	require.NotNil(t, driver.TASBadgeExpiry)
	assert.Equal(t, "2025-03-01", driver.TASBadgeExpiry.Format(dateLayout))
	assert.True(t, driver.PhotoProvided)
	assert.Contains(t, repo.drivers, "e1")
	assert.NotEmpty(t, cache.views)
}

func TestEmployeeServiceUpsertDriverWrongRole(t *testing.T) {
	repo := newMockEmployeeRepo()
	repo.employees["e1"] = models.Employee{ID: "e1", Role: models.EmployeeOffice}
	svc, _, _ := newEmployeeServiceForTest(repo)

	_, err := svc.UpsertDriver(context.Background(), "e1", dto.DriverProfileRequest{}, Actor{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.drivers)
}

func TestEmployeeServiceUpsertAssistantBadDate(t *testing.T) {
	repo := newMockEmployeeRepo()
	repo.employees["a1"] = models.Employee{ID: "a1", Role: models.EmployeePassengerAssistant}
	svc, _, _ := newEmployeeServiceForTest(repo)

	bad := "01/02/2025"
	_, err := svc.UpsertAssistant(context.Background(), "a1", dto.AssistantProfileRequest{
		TrainingRequest: dto.TrainingRequest{PSATrainingDate: &bad},
	}, Actor{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestEmployeeServiceRotateAssistantQRToken(t *testing.T) {
	repo := newMockEmployeeRepo()
	repo.assistants["a1"] = models.PassengerAssistant{EmployeeID: "a1"}
	svc, audit, _ := newEmployeeServiceForTest(repo)

	token, err := svc.RotateAssistantQRToken(context.Background(), "a1", Actor{})
	require.NoError(t, err)
	assert.Len(t, token, 32)
	assert.Equal(t, token, repo.qrTokens["a1"])
	assert.Equal(t, []string{models.AuditActionTokenRotated}, audit.actions())

	_, err = svc.RotateAssistantQRToken(context.Background(), "nobody", Actor{})
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestEmployeeServiceDeleteMissing(t *testing.T) {
	svc, audit, _ := newEmployeeServiceForTest(newMockEmployeeRepo())

	err := svc.Delete(context.Background(), "missing", Actor{})
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Empty(t, audit.logs)
}
