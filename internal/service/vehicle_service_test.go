package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/fleet-ops-api/internal/dto"
	"github.com/noah-isme/fleet-ops-api/internal/models"
	appErrors "github.com/noah-isme/fleet-ops-api/pkg/errors"
)

type mockVehicleRepo struct {
	vehicles   map[string]models.Vehicle
	updates    []models.VehicleUpdate
	breakdowns []models.VehicleUpdate
	tokens     map[string]string
	listLimit  int
}

func newMockVehicleRepo() *mockVehicleRepo {
	return &mockVehicleRepo{vehicles: map[string]models.Vehicle{}, tokens: map[string]string{}}
}

func (m *mockVehicleRepo) List(ctx context.Context, filter models.VehicleFilter) ([]models.Vehicle, int, error) {
	out := make([]models.Vehicle, 0, len(m.vehicles))
	for _, v := range m.vehicles {
		out = append(out, v)
	}
	return out, len(out), nil
}

func (m *mockVehicleRepo) FindByID(ctx context.Context, id string) (*models.Vehicle, error) {
	if v, ok := m.vehicles[id]; ok {
		return &v, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockVehicleRepo) FindByQRToken(ctx context.Context, token string) (*models.Vehicle, error) {
	for id, t := range m.tokens {
		if t == token {
			v := m.vehicles[id]
			return &v, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockVehicleRepo) Create(ctx context.Context, vehicle *models.Vehicle) error {
	vehicle.ID = "veh-new"
	m.vehicles[vehicle.ID] = *vehicle
	return nil
}

func (m *mockVehicleRepo) Update(ctx context.Context, vehicle *models.Vehicle) error {
	m.vehicles[vehicle.ID] = *vehicle
	return nil
}

func (m *mockVehicleRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.vehicles[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.vehicles, id)
	return nil
}

func (m *mockVehicleRepo) SetQRToken(ctx context.Context, id, token string) error {
	if _, ok := m.vehicles[id]; !ok {
		return sql.ErrNoRows
	}
	m.tokens[id] = token
	return nil
}

func (m *mockVehicleRepo) CreateUpdate(ctx context.Context, update *models.VehicleUpdate) error {
	update.ID = "upd"
	m.updates = append(m.updates, *update)
	return nil
}

func (m *mockVehicleRepo) ReportBreakdown(ctx context.Context, update *models.VehicleUpdate) error {
	v, ok := m.vehicles[update.VehicleID]
	if !ok {
		return sql.ErrNoRows
	}
	v.OffRoad = true
	v.OffRoadReason = update.Message
	m.vehicles[v.ID] = v
	m.breakdowns = append(m.breakdowns, *update)
	return nil
}

func (m *mockVehicleRepo) ListUpdates(ctx context.Context, vehicleID string, limit int) ([]models.VehicleUpdate, error) {
	m.listLimit = limit
	return m.updates, nil
}

func TestVehicleServiceCreateNormalisesRegistration(t *testing.T) {
	repo := newMockVehicleRepo()
	svc := NewVehicleService(repo, &mockAuditWriter{}, &recordingInvalidator{}, validator.New(), zap.NewNop())

	mot := "2025-06-30"
	vehicle, err := svc.Create(context.Background(), dto.VehicleRequest{
		Registration:  " ab12  cde ",
		Seats:         8,
		OffRoadReason: "ignored while on road",
		MOTExpiry:     &mot,
	}, Actor{})
	require.NoError(t, err)
	assert.Equal(t, "AB12 CDE", vehicle.Registration)
	assert.Empty(t, vehicle.OffRoadReason)
	require.NotNil(t, vehicle.MOTExpiry)
	assert.Equal(t, time.June, vehicle.MOTExpiry.Month())
}

func TestVehicleServiceReportBreakdown(t *testing.T) {
	repo := newMockVehicleRepo()
	repo.vehicles["v1"] = models.Vehicle{ID: "v1", Registration: "AB12 CDE"}
	audit := &mockAuditWriter{}
	cache := &recordingInvalidator{}
	svc := NewVehicleService(repo, audit, cache, validator.New(), zap.NewNop())

	update, err := svc.ReportBreakdown(context.Background(), "v1", dto.BreakdownRequest{Message: " Flat tyre "}, Actor{Name: "Office"})
	require.NoError(t, err)
	assert.Equal(t, models.VehicleUpdateBreakdown, update.Kind)
	assert.Equal(t, "Office", update.SubmittedBy)
	assert.True(t, repo.vehicles["v1"].OffRoad)
	assert.Equal(t, "Flat tyre", repo.vehicles["v1"].OffRoadReason)
	assert.Equal(t, []string{models.AuditActionBreakdown}, audit.actions())
	assert.NotEmpty(t, cache.views)
}

func TestVehicleServiceReportBreakdownUnknownVehicle(t *testing.T) {
	svc := NewVehicleService(newMockVehicleRepo(), nil, nil, nil, nil)

	_, err := svc.ReportBreakdown(context.Background(), "nope", dto.BreakdownRequest{Message: "smoke"}, Actor{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestVehicleServiceAddNoteDefaultsKind(t *testing.T) {
	repo := newMockVehicleRepo()
	svc := NewVehicleService(repo, nil, nil, nil, nil)

	update, err := svc.AddNote(context.Background(), "v1", dto.VehicleNoteRequest{Message: "Serviced", SubmittedBy: "Garage"}, Actor{})
	require.NoError(t, err)
	assert.Equal(t, models.VehicleUpdateNote, update.Kind)
	assert.Equal(t, "Garage", update.SubmittedBy)

	_, err = svc.AddNote(context.Background(), "v1", dto.VehicleNoteRequest{Kind: "BREAKDOWN", Message: "x"}, Actor{})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestVehicleServiceListUpdatesUsesLimit(t *testing.T) {
	repo := newMockVehicleRepo()
	repo.vehicles["v1"] = models.Vehicle{ID: "v1"}
	svc := NewVehicleService(repo, nil, nil, nil, nil)

	_, err := svc.ListUpdates(context.Background(), "v1")
	require.NoError(t, err)
	assert.Equal(t, recentVehicleUpdates, repo.listLimit)
}

func TestVehicleServiceRotateQRToken(t *testing.T) {
	repo := newMockVehicleRepo()
	repo.vehicles["v1"] = models.Vehicle{ID: "v1"}
	svc := NewVehicleService(repo, nil, nil, nil, nil)

	first, err := svc.RotateQRToken(context.Background(), "v1", Actor{})
	require.NoError(t, err)
	second, err := svc.RotateQRToken(context.Background(), "v1", Actor{})
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.Equal(t, second, repo.tokens["v1"])
}
