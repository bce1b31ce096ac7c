package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/fleet-ops-api/internal/models"
)

const employeeColumns = `e.id, e.full_name, e.role, e.employment_status, e.can_work, e.phone, e.email, e.address, e.postcode, e.home_latitude, e.home_longitude, e.start_date, e.created_at, e.updated_at`

const trainingColumns = `safeguarding_training_completed, safeguarding_training_date, tas_pats_training_completed, tas_pats_training_date, psa_training_completed, psa_training_date`

const checklistColumns = `utility_bill_provided, birth_certificate_provided, photo_provided, private_hire_badge_provided, paper_licence_provided, logbook_provided`

const driverColumns = `d.employee_id, d.tas_badge_number, d.taxi_badge_number, d.dbs_number, d.driving_licence_number,
        d.tas_badge_expiry_date, d.taxi_badge_expiry_date, d.dbs_expiry_date, d.driving_licence_expiry_date, d.cpc_expiry_date,
        d.first_aid_expiry_date, d.medical_expiry_date, d.safeguarding_expiry_date, d.passport_expiry_date,
        d.safeguarding_training_completed, d.safeguarding_training_date, d.tas_pats_training_completed, d.tas_pats_training_date, d.psa_training_completed, d.psa_training_date,
        d.utility_bill_provided, d.birth_certificate_provided, d.photo_provided, d.private_hire_badge_provided, d.paper_licence_provided, d.logbook_provided,
        d.created_at, d.updated_at`

const assistantColumns = `a.employee_id, a.tas_badge_number, a.dbs_number,
        a.tas_badge_expiry_date, a.dbs_expiry_date, a.first_aid_expiry_date, a.safeguarding_expiry_date, a.passport_expiry_date,
        a.safeguarding_training_completed, a.safeguarding_training_date, a.tas_pats_training_completed, a.tas_pats_training_date, a.psa_training_completed, a.psa_training_date,
        a.utility_bill_provided, a.birth_certificate_provided, a.photo_provided, a.private_hire_badge_provided, a.paper_licence_provided, a.logbook_provided,
        a.auto_home_stop, a.qr_token, a.created_at, a.updated_at`

// EmployeeRepository manages employees and their driver / assistant profiles.
type EmployeeRepository struct {
	db *sqlx.DB
}

// NewEmployeeRepository constructs an EmployeeRepository.
func NewEmployeeRepository(db *sqlx.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

// List returns employees matching the filter with the total count.
func (r *EmployeeRepository) List(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, int, error) {
	where := newWhere()
	if filter.Role != "" {
		where.add("e.role = $%[1]d", filter.Role)
	}
	if filter.Status != "" {
		where.add("e.employment_status = $%[1]d", filter.Status)
	}
	if filter.CanWork != nil {
		where.add("e.can_work = $%[1]d", *filter.CanWork)
	}
	where.search(filter.Search, "e.full_name", "e.email", "e.phone")

	opts := filter.ListOptions
	order := orderClause(opts, map[string]string{
		"full_name":  "e.full_name",
		"role":       "e.role",
		"start_date": "e.start_date",
		"created_at": "e.created_at",
	}, "full_name", "ASC")
	page := pageClause(&opts, 20)

	query := fmt.Sprintf(`SELECT %s FROM employees e %s %s %s`, employeeColumns, where, order, page)
	var employees []models.Employee
	if err := r.db.SelectContext(ctx, &employees, query, where.args...); err != nil {
		return nil, 0, fmt.Errorf("list employees: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM employees e "+where.String(), where.args...); err != nil {
		return nil, 0, fmt.Errorf("count employees: %w", err)
	}
	return employees, total, nil
}

// FindByID fetches one employee.
func (r *EmployeeRepository) FindByID(ctx context.Context, id string) (*models.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees e WHERE e.id = $1`
	var employee models.Employee
	if err := r.db.GetContext(ctx, &employee, query, id); err != nil {
		return nil, err
	}
	return &employee, nil
}

// Create inserts a new employee.
func (r *EmployeeRepository) Create(ctx context.Context, employee *models.Employee) error {
	if employee.ID == "" {
		employee.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if employee.CreatedAt.IsZero() {
		employee.CreatedAt = now
	}
	employee.UpdatedAt = now
	const query = `INSERT INTO employees (id, full_name, role, employment_status, can_work, phone, email, address, postcode, home_latitude, home_longitude, start_date, created_at, updated_at)
        VALUES (:id, :full_name, :role, :employment_status, :can_work, :phone, :email, :address, :postcode, :home_latitude, :home_longitude, :start_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, employee); err != nil {
		return mapWriteError("create employee", err)
	}
	return nil
}

// Update modifies an existing employee.
func (r *EmployeeRepository) Update(ctx context.Context, employee *models.Employee) error {
	employee.UpdatedAt = time.Now().UTC()
	const query = `UPDATE employees SET full_name = :full_name, role = :role, employment_status = :employment_status, can_work = :can_work, phone = :phone, email = :email,
        address = :address, postcode = :postcode, home_latitude = :home_latitude, home_longitude = :home_longitude, start_date = :start_date, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, employee)
	if err != nil {
		return mapWriteError("update employee", err)
	}
	return expectRow(res)
}

// Delete removes an employee; profile rows cascade in the schema.
func (r *EmployeeRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete employee: %w", err)
	}
	return expectRow(res)
}

// FindDriver returns the driver profile of an employee.
func (r *EmployeeRepository) FindDriver(ctx context.Context, employeeID string) (*models.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers d WHERE d.employee_id = $1`
	var driver models.Driver
	if err := r.db.GetContext(ctx, &driver, query, employeeID); err != nil {
		return nil, err
	}
	return &driver, nil
}

// UpsertDriver creates or replaces the driver profile.
func (r *EmployeeRepository) UpsertDriver(ctx context.Context, driver *models.Driver) error {
	now := time.Now().UTC()
	if driver.CreatedAt.IsZero() {
		driver.CreatedAt = now
	}
	driver.UpdatedAt = now
	const query = `INSERT INTO drivers (employee_id, tas_badge_number, taxi_badge_number, dbs_number, driving_licence_number,
        tas_badge_expiry_date, taxi_badge_expiry_date, dbs_expiry_date, driving_licence_expiry_date, cpc_expiry_date,
        first_aid_expiry_date, medical_expiry_date, safeguarding_expiry_date, passport_expiry_date,
        ` + trainingColumns + `, ` + checklistColumns + `, created_at, updated_at)
        VALUES (:employee_id, :tas_badge_number, :taxi_badge_number, :dbs_number, :driving_licence_number,
        :tas_badge_expiry_date, :taxi_badge_expiry_date, :dbs_expiry_date, :driving_licence_expiry_date, :cpc_expiry_date,
        :first_aid_expiry_date, :medical_expiry_date, :safeguarding_expiry_date, :passport_expiry_date,
        :safeguarding_training_completed, :safeguarding_training_date, :tas_pats_training_completed, :tas_pats_training_date, :psa_training_completed, :psa_training_date,
        :utility_bill_provided, :birth_certificate_provided, :photo_provided, :private_hire_badge_provided, :paper_licence_provided, :logbook_provided,
        :created_at, :updated_at)
        ON CONFLICT (employee_id) DO UPDATE SET tas_badge_number = EXCLUDED.tas_badge_number, taxi_badge_number = EXCLUDED.taxi_badge_number,
        dbs_number = EXCLUDED.dbs_number, driving_licence_number = EXCLUDED.driving_licence_number,
        tas_badge_expiry_date = EXCLUDED.tas_badge_expiry_date, taxi_badge_expiry_date = EXCLUDED.taxi_badge_expiry_date, dbs_expiry_date = EXCLUDED.dbs_expiry_date,
        driving_licence_expiry_date = EXCLUDED.driving_licence_expiry_date, cpc_expiry_date = EXCLUDED.cpc_expiry_date, first_aid_expiry_date = EXCLUDED.first_aid_expiry_date,
        medical_expiry_date = EXCLUDED.medical_expiry_date, safeguarding_expiry_date = EXCLUDED.safeguarding_expiry_date, passport_expiry_date = EXCLUDED.passport_expiry_date,
        safeguarding_training_completed = EXCLUDED.safeguarding_training_completed, safeguarding_training_date = EXCLUDED.safeguarding_training_date,
        tas_pats_training_completed = EXCLUDED.tas_pats_training_completed, tas_pats_training_date = EXCLUDED.tas_pats_training_date,
        psa_training_completed = EXCLUDED.psa_training_completed, psa_training_date = EXCLUDED.psa_training_date,
        utility_bill_provided = EXCLUDED.utility_bill_provided, birth_certificate_provided = EXCLUDED.birth_certificate_provided, photo_provided = EXCLUDED.photo_provided,
        private_hire_badge_provided = EXCLUDED.private_hire_badge_provided, paper_licence_provided = EXCLUDED.paper_licence_provided, logbook_provided = EXCLUDED.logbook_provided,
        updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, driver); err != nil {
		return mapWriteError("upsert driver", err)
	}
	return nil
}

// FindAssistant returns the assistant profile of an employee.
func (r *EmployeeRepository) FindAssistant(ctx context.Context, employeeID string) (*models.PassengerAssistant, error) {
	query := `SELECT ` + assistantColumns + ` FROM passenger_assistants a WHERE a.employee_id = $1`
	var assistant models.PassengerAssistant
	if err := r.db.GetContext(ctx, &assistant, query, employeeID); err != nil {
		return nil, err
	}
	return &assistant, nil
}

// UpsertAssistant creates or replaces the assistant profile. The QR token is
// left untouched on update.
func (r *EmployeeRepository) UpsertAssistant(ctx context.Context, assistant *models.PassengerAssistant) error {
	now := time.Now().UTC()
	if assistant.CreatedAt.IsZero() {
		assistant.CreatedAt = now
	}
	assistant.UpdatedAt = now
	const query = `INSERT INTO passenger_assistants (employee_id, tas_badge_number, dbs_number,
        tas_badge_expiry_date, dbs_expiry_date, first_aid_expiry_date, safeguarding_expiry_date, passport_expiry_date,
        ` + trainingColumns + `, ` + checklistColumns + `, auto_home_stop, qr_token, created_at, updated_at)
        VALUES (:employee_id, :tas_badge_number, :dbs_number,
        :tas_badge_expiry_date, :dbs_expiry_date, :first_aid_expiry_date, :safeguarding_expiry_date, :passport_expiry_date,
        :safeguarding_training_completed, :safeguarding_training_date, :tas_pats_training_completed, :tas_pats_training_date, :psa_training_completed, :psa_training_date,
        :utility_bill_provided, :birth_certificate_provided, :photo_provided, :private_hire_badge_provided, :paper_licence_provided, :logbook_provided,
        :auto_home_stop, :qr_token, :created_at, :updated_at)
        ON CONFLICT (employee_id) DO UPDATE SET tas_badge_number = EXCLUDED.tas_badge_number, dbs_number = EXCLUDED.dbs_number,
        tas_badge_expiry_date = EXCLUDED.tas_badge_expiry_date, dbs_expiry_date = EXCLUDED.dbs_expiry_date, first_aid_expiry_date = EXCLUDED.first_aid_expiry_date,
        safeguarding_expiry_date = EXCLUDED.safeguarding_expiry_date, passport_expiry_date = EXCLUDED.passport_expiry_date,
        safeguarding_training_completed = EXCLUDED.safeguarding_training_completed, safeguarding_training_date = EXCLUDED.safeguarding_training_date,
        tas_pats_training_completed = EXCLUDED.tas_pats_training_completed, tas_pats_training_date = EXCLUDED.tas_pats_training_date,
        psa_training_completed = EXCLUDED.psa_training_completed, psa_training_date = EXCLUDED.psa_training_date,
        utility_bill_provided = EXCLUDED.utility_bill_provided, birth_certificate_provided = EXCLUDED.birth_certificate_provided, photo_provided = EXCLUDED.photo_provided,
        private_hire_badge_provided = EXCLUDED.private_hire_badge_provided, paper_licence_provided = EXCLUDED.paper_licence_provided, logbook_provided = EXCLUDED.logbook_provided,
        auto_home_stop = EXCLUDED.auto_home_stop, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, assistant); err != nil {
		return mapWriteError("upsert assistant", err)
	}
	return nil
}

// SetAssistantQRToken replaces the portal token of an assistant.
func (r *EmployeeRepository) SetAssistantQRToken(ctx context.Context, employeeID, token string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE passenger_assistants SET qr_token = $2, updated_at = $3 WHERE employee_id = $1`, employeeID, token, time.Now().UTC())
	if err != nil {
		return mapWriteError("set assistant qr token", err)
	}
	return expectRow(res)
}

// ListDrivers returns every driver joined with the employee name.
func (r *EmployeeRepository) ListDrivers(ctx context.Context, activeOnly bool) ([]models.DriverRecord, error) {
	query := `SELECT ` + driverColumns + `, e.full_name, e.can_work FROM drivers d JOIN employees e ON e.id = d.employee_id`
	if activeOnly {
		query += ` WHERE e.employment_status = 'ACTIVE'`
	}
	query += ` ORDER BY e.full_name`
	var drivers []models.DriverRecord
	if err := r.db.SelectContext(ctx, &drivers, query); err != nil {
		return nil, fmt.Errorf("list drivers: %w", err)
	}
	return drivers, nil
}

// ListAssistants returns every assistant joined with the employee identity.
func (r *EmployeeRepository) ListAssistants(ctx context.Context, activeOnly bool) ([]models.AssistantRecord, error) {
	query := `SELECT ` + assistantColumns + `, e.full_name, e.can_work, e.address, e.postcode, e.home_latitude, e.home_longitude
        FROM passenger_assistants a JOIN employees e ON e.id = a.employee_id`
	if activeOnly {
		query += ` WHERE e.employment_status = 'ACTIVE'`
	}
	query += ` ORDER BY e.full_name`
	var assistants []models.AssistantRecord
	if err := r.db.SelectContext(ctx, &assistants, query); err != nil {
		return nil, fmt.Errorf("list assistants: %w", err)
	}
	return assistants, nil
}

// FindAssistantRecord returns one assistant with identity fields.
func (r *EmployeeRepository) FindAssistantRecord(ctx context.Context, employeeID string) (*models.AssistantRecord, error) {
	return r.findAssistantRecord(ctx, "a.employee_id = $1", employeeID)
}

// FindAssistantByQRToken resolves an assistant portal token.
func (r *EmployeeRepository) FindAssistantByQRToken(ctx context.Context, token string) (*models.AssistantRecord, error) {
	return r.findAssistantRecord(ctx, "a.qr_token = $1", token)
}

func (r *EmployeeRepository) findAssistantRecord(ctx context.Context, cond string, arg interface{}) (*models.AssistantRecord, error) {
	query := `SELECT ` + assistantColumns + `, e.full_name, e.can_work, e.address, e.postcode, e.home_latitude, e.home_longitude
        FROM passenger_assistants a JOIN employees e ON e.id = a.employee_id WHERE ` + cond
	var rec models.AssistantRecord
	if err := r.db.GetContext(ctx, &rec, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find assistant: %w", err)
	}
	return &rec, nil
}

// CountByRole returns employee counts keyed by role.
func (r *EmployeeRepository) CountByRole(ctx context.Context) (map[models.EmployeeRole]int, error) {
	rows := []struct {
		Role  models.EmployeeRole `db:"role"`
		Count int                 `db:"count"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, `SELECT role, COUNT(*) AS count FROM employees WHERE employment_status = 'ACTIVE' GROUP BY role`); err != nil {
		return nil, fmt.Errorf("count employees by role: %w", err)
	}
	out := make(map[models.EmployeeRole]int, len(rows))
	for _, row := range rows {
		out[row.Role] = row.Count
	}
	return out, nil
}

// CountCannotWork returns active employees currently flagged as unable to work.
func (r *EmployeeRepository) CountCannotWork(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM employees WHERE employment_status = 'ACTIVE' AND can_work = FALSE`); err != nil {
		return 0, fmt.Errorf("count cannot work: %w", err)
	}
	return total, nil
}

// expectRow turns a zero-row update or delete into sql.ErrNoRows.
func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
