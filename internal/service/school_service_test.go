package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fleet-ops-api/internal/dto"
	"github.com/noah-isme/fleet-ops-api/internal/models"
	"github.com/noah-isme/fleet-ops-api/internal/repository"
	appErrors "github.com/noah-isme/fleet-ops-api/pkg/errors"
)

type mockSchoolRepo struct {
	schools   map[string]models.School
	createErr error
	lastOpts  models.ListOptions
}

func (m *mockSchoolRepo) List(ctx context.Context, opts models.ListOptions) ([]models.School, int, error) {
	m.lastOpts = opts
	out := make([]models.School, 0, len(m.schools))
	for _, s := range m.schools {
		out = append(out, s)
	}
	return out, len(out), nil
}

func (m *mockSchoolRepo) ListAll(ctx context.Context) ([]models.School, error) {
	out := make([]models.School, 0, len(m.schools))
	for _, s := range m.schools {
		out = append(out, s)
	}
	return out, nil
}

func (m *mockSchoolRepo) FindByID(ctx context.Context, id string) (*models.School, error) {
	if s, ok := m.schools[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSchoolRepo) Create(ctx context.Context, school *models.School) error {
	if m.createErr != nil {
		return m.createErr
	}
	school.ID = "sch-1"
	if m.schools == nil {
		m.schools = map[string]models.School{}
	}
	m.schools[school.ID] = *school
	return nil
}

func (m *mockSchoolRepo) Update(ctx context.Context, school *models.School) error {
	m.schools[school.ID] = *school
	return nil
}

func (m *mockSchoolRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.schools[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.schools, id)
	return nil
}

func TestSchoolServiceCreateNormalisesFields(t *testing.T) {
	repo := &mockSchoolRepo{}
	svc := NewSchoolService(repo, nil, nil)

	school, err := svc.Create(context.Background(), dto.SchoolRequest{
		Name:     "  Hillside Academy ",
		Postcode: " ab1 2cd",
		Phone:    "01234 567890 ",
	})
	require.NoError(t, err)
	assert.Equal(t, "sch-1", school.ID)
	assert.Equal(t, "Hillside Academy", school.Name)
	assert.Equal(t, "AB1 2CD", school.Postcode)
	assert.Equal(t, "01234 567890", school.Phone)
}

func TestSchoolServiceGetNotFound(t *testing.T) {
	svc := NewSchoolService(&mockSchoolRepo{}, nil, nil)

	_, err := svc.Get(context.Background(), "missing")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSchoolServiceCreateRequiresName(t *testing.T) {
	svc := NewSchoolService(&mockSchoolRepo{}, nil, nil)

	_, err := svc.Create(context.Background(), dto.SchoolRequest{Address: "1 High Street"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSchoolServiceCreateDuplicateIsConflict(t *testing.T) {
	repo := &mockSchoolRepo{createErr: fmt.Errorf("insert school: %w", repository.ErrDuplicate)}
	svc := NewSchoolService(repo, nil, nil)

	_, err := svc.Create(context.Background(), dto.SchoolRequest{Name: "Hillside Academy"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestSchoolServiceUpdateAndDeleteMissing(t *testing.T) {
	repo := &mockSchoolRepo{schools: map[string]models.School{"sch-1": {ID: "sch-1", Name: "Old"}}}
	svc := NewSchoolService(repo, nil, nil)

	school, err := svc.Update(context.Background(), "sch-1", dto.SchoolRequest{Name: "New"})
	require.NoError(t, err)
	assert.Equal(t, "New", school.Name)
	assert.Equal(t, "New", repo.schools["sch-1"].Name)

	_, err = svc.Update(context.Background(), "missing", dto.SchoolRequest{Name: "New"})
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	err = svc.Delete(context.Background(), "missing")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSchoolServiceListPagination(t *testing.T) {
	repo := &mockSchoolRepo{schools: map[string]models.School{"a": {ID: "a"}, "b": {ID: "b"}}}
	svc := NewSchoolService(repo, nil, nil)

	schools, pagination, err := svc.List(context.Background(), models.ListOptions{Search: "hill"})
	require.NoError(t, err)
	assert.Len(t, schools, 2)
	assert.Equal(t, "hill", repo.lastOpts.Search)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 50, pagination.PageSize)
	assert.Equal(t, 2, pagination.TotalCount)
}
