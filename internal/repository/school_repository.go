package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/fleet-ops-api/internal/models"
)

const schoolColumns = `id, name, address, postcode, phone, contact_name, created_at, updated_at`

// SchoolRepository persists schools.
type SchoolRepository struct {
	db *sqlx.DB
}

// NewSchoolRepository constructs a SchoolRepository.
func NewSchoolRepository(db *sqlx.DB) *SchoolRepository {
	return &SchoolRepository{db: db}
}

// List returns schools with the total count.
func (r *SchoolRepository) List(ctx context.Context, opts models.ListOptions) ([]models.School, int, error) {
	where := newWhere()
	where.search(opts.Search, "name", "postcode")
	order := orderClause(opts, map[string]string{"name": "name", "created_at": "created_at"}, "name", "ASC")
	page := pageClause(&opts, 50)

	var schools []models.School
	query := fmt.Sprintf(`SELECT %s FROM schools %s %s %s`, schoolColumns, where, order, page)
	if err := r.db.SelectContext(ctx, &schools, query, where.args...); err != nil {
		return nil, 0, fmt.Errorf("list schools: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM schools "+where.String(), where.args...); err != nil {
		return nil, 0, fmt.Errorf("count schools: %w", err)
	}
	return schools, total, nil
}

// ListAll returns every school by name.
func (r *SchoolRepository) ListAll(ctx context.Context) ([]models.School, error) {
	var schools []models.School
	if err := r.db.SelectContext(ctx, &schools, `SELECT `+schoolColumns+` FROM schools ORDER BY name`); err != nil {
		return nil, fmt.Errorf("list all schools: %w", err)
	}
	return schools, nil
}

// FindByID fetches a school.
func (r *SchoolRepository) FindByID(ctx context.Context, id string) (*models.School, error) {
	var school models.School
	if err := r.db.GetContext(ctx, &school, `SELECT `+schoolColumns+` FROM schools WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &school, nil
}

// Create inserts a school.
func (r *SchoolRepository) Create(ctx context.Context, school *models.School) error {
	if school.ID == "" {
		school.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	school.CreatedAt = now
	school.UpdatedAt = now
	const query = `INSERT INTO schools (id, name, address, postcode, phone, contact_name, created_at, updated_at)
        VALUES (:id, :name, :address, :postcode, :phone, :contact_name, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, school); err != nil {
		return mapWriteError("create school", err)
	}
	return nil
}

// Update modifies a school.
func (r *SchoolRepository) Update(ctx context.Context, school *models.School) error {
	school.UpdatedAt = time.Now().UTC()
	const query = `UPDATE schools SET name = :name, address = :address, postcode = :postcode, phone = :phone, contact_name = :contact_name, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, school)
	if err != nil {
		return mapWriteError("update school", err)
	}
	return expectRow(res)
}

// Delete removes a school.
func (r *SchoolRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM schools WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete school: %w", err)
	}
	return expectRow(res)
}
