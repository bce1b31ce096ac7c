package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fleet-ops-api/internal/models"
)

var employeeCols = []string{"id", "full_name", "role", "employment_status", "can_work", "phone", "email", "address", "postcode", "home_latitude", "home_longitude", "start_date", "created_at", "updated_at"}

func TestEmployeeRepositoryListSearch(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEmployeeRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(employeeCols).
		AddRow("e1", "Jane Driver", "DRIVER", "ACTIVE", true, "0700", "jane@example.com", "1 High St", "AB1 2CD", nil, nil, nil, now, now)
	mock.ExpectQuery(`FROM employees e WHERE 1=1 AND e.role = \$1 AND \(LOWER\(e.full_name\) LIKE \$2 OR LOWER\(e.email\) LIKE \$2 OR LOWER\(e.phone\) LIKE \$2\) ORDER BY e.full_name ASC LIMIT 20 OFFSET 0`).
		WithArgs("DRIVER", "%jane%").
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM employees e`).
		WithArgs("DRIVER", "%jane%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	employees, total, err := repo.List(context.Background(), models.EmployeeFilter{
		Role:        models.EmployeeDriver,
		ListOptions: models.ListOptions{Search: "Jane"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, employees, 1)
	assert.Equal(t, "Jane Driver", employees[0].FullName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmployeeRepositoryCreateDuplicate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEmployeeRepository(db)

	mock.ExpectExec("INSERT INTO employees").WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.Employee{FullName: "Jane", Role: models.EmployeeDriver})
	assert.True(t, errors.Is(err, ErrDuplicate))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmployeeRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEmployeeRepository(db)

	mock.ExpectExec(`DELETE FROM employees WHERE id = \$1`).WithArgs("missing").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmployeeRepositoryUpsertDriver(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEmployeeRepository(db)

	mock.ExpectExec(`INSERT INTO drivers .* ON CONFLICT \(employee_id\) DO UPDATE`).WillReturnResult(sqlmock.NewResult(1, 1))

	driver := &models.Driver{EmployeeID: "e1", TASBadgeNumber: "TAS-1"}
	require.NoError(t, repo.UpsertDriver(context.Background(), driver))
	assert.False(t, driver.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmployeeRepositoryFindAssistantByQRToken(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEmployeeRepository(db)

	now := time.Now()
	cols := []string{"employee_id", "tas_badge_number", "dbs_number",
		"tas_badge_expiry_date", "dbs_expiry_date", "first_aid_expiry_date", "safeguarding_expiry_date", "passport_expiry_date",
		"safeguarding_training_completed", "safeguarding_training_date", "tas_pats_training_completed", "tas_pats_training_date", "psa_training_completed", "psa_training_date",
		"utility_bill_provided", "birth_certificate_provided", "photo_provided", "private_hire_badge_provided", "paper_licence_provided", "logbook_provided",
		"auto_home_stop", "qr_token", "created_at", "updated_at",
		"full_name", "can_work", "address", "postcode", "home_latitude", "home_longitude"}
	rows := sqlmock.NewRows(cols).AddRow(
		"e2", "TAS-2", "DBS-2",
		now, nil, nil, nil, nil,
		true, nil, false, nil, false, nil,
		true, true, false, false, false, false,
		true, "qr-abc", now, now,
		"Amy APA", true, "2 Low Rd", "ZZ1 1ZZ", 51.5, -0.12)
	mock.ExpectQuery(`JOIN employees e ON e.id = a.employee_id WHERE a.qr_token = \$1`).WithArgs("qr-abc").WillReturnRows(rows)

	rec, err := repo.FindAssistantByQRToken(context.Background(), "qr-abc")
	require.NoError(t, err)
	assert.Equal(t, "Amy APA", rec.FullName)
	assert.True(t, rec.AutoHomeStop)
	require.NotNil(t, rec.HomeLatitude)
	assert.InDelta(t, 51.5, *rec.HomeLatitude, 0.0001)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmployeeRepositoryFindAssistantByQRTokenMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEmployeeRepository(db)

	mock.ExpectQuery(`WHERE a.qr_token = \$1`).WithArgs("nope").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindAssistantByQRToken(context.Background(), "nope")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestEmployeeRepositoryCountByRole(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEmployeeRepository(db)

	mock.ExpectQuery(`SELECT role, COUNT\(\*\) AS count FROM employees`).
		WillReturnRows(sqlmock.NewRows([]string{"role", "count"}).AddRow("DRIVER", 4).AddRow("PASSENGER_ASSISTANT", 3))

	counts, err := repo.CountByRole(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, counts[models.EmployeeDriver])
	assert.Equal(t, 3, counts[models.EmployeePassengerAssistant])
}
