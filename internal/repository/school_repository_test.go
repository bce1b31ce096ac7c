package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fleet-ops-api/internal/models"
)

func TestSchoolRepositoryCreateAndUpdate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSchoolRepository(db)

	mock.ExpectExec("INSERT INTO schools").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE schools SET name").WillReturnResult(sqlmock.NewResult(0, 1))

	school := &models.School{Name: "Oak Primary"}
	require.NoError(t, repo.Create(context.Background(), school))
	assert.NotEmpty(t, school.ID)

	school.Phone = "01234"
	require.NoError(t, repo.Update(context.Background(), school))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchoolRepositoryListSortFallback(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSchoolRepository(db)

	mock.ExpectQuery(`FROM schools WHERE 1=1 ORDER BY name ASC LIMIT 50 OFFSET 50`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM schools`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(51))

	_, total, err := repo.List(context.Background(), models.ListOptions{Page: 2, SortBy: "; DROP TABLE"})
	require.NoError(t, err)
	assert.Equal(t, 51, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
