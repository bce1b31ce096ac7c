package repository

import (
	"context"
	"database/sql"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fleet-ops-api/internal/models"
)

func TestVehicleRepositoryReportBreakdown(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewVehicleRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE vehicles SET off_road = TRUE, off_road_reason = \$2`).
		WithArgs("v1", "Clutch failure", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO vehicle_updates").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	update := &models.VehicleUpdate{VehicleID: "v1", Message: "Clutch failure", SubmittedBy: "Supplier"}
	require.NoError(t, repo.ReportBreakdown(context.Background(), update))
	assert.Equal(t, models.VehicleUpdateBreakdown, update.Kind)
	assert.NotEmpty(t, update.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVehicleRepositoryReportBreakdownUnknownVehicle(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewVehicleRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE vehicles SET off_road = TRUE`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.ReportBreakdown(context.Background(), &models.VehicleUpdate{VehicleID: "missing", Message: "x"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVehicleRepositoryListOffRoad(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewVehicleRepository(db)

	offRoad := true
	mock.ExpectQuery(`FROM vehicles WHERE 1=1 AND off_road = \$1 ORDER BY registration ASC LIMIT 20 OFFSET 0`).
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "registration", "off_road"}).AddRow("v1", "AB12 CDE", true))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM vehicles WHERE 1=1 AND off_road = \$1`).
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	vehicles, total, err := repo.List(context.Background(), models.VehicleFilter{OffRoad: &offRoad})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, vehicles, 1)
	assert.True(t, vehicles[0].OffRoad)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVehicleRepositoryListUpdatesDefaultLimit(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewVehicleRepository(db)

	mock.ExpectQuery(`FROM vehicle_updates WHERE vehicle_id = \$1 ORDER BY created_at DESC LIMIT \$2`).
		WithArgs("v1", 20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "vehicle_id", "kind", "message"}).AddRow("u1", "v1", "NOTE", "Tyres checked"))

	updates, err := repo.ListUpdates(context.Background(), "v1", 0)
	require.NoError(t, err)
	require.Len(t, updates, 1)
	assert.Equal(t, models.VehicleUpdateNote, updates[0].Kind)
}
