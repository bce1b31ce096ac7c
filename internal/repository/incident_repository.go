package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/fleet-ops-api/internal/models"
)

const incidentColumns = `id, incident_type, severity, occurred_at, location, route_id, vehicle_id, employee_id, passenger_id, description, status, resolution_notes, reported_by, created_at, updated_at`

// IncidentRepository persists incident reports.
type IncidentRepository struct {
	db *sqlx.DB
}

// NewIncidentRepository constructs an IncidentRepository.
func NewIncidentRepository(db *sqlx.DB) *IncidentRepository {
	return &IncidentRepository{db: db}
}

// List returns incidents newest first with the total count.
func (r *IncidentRepository) List(ctx context.Context, filter models.IncidentFilter) ([]models.Incident, int, error) {
	where := newWhere()
	if filter.Status != "" {
		where.add("status = $%[1]d", filter.Status)
	}
	if filter.Severity != "" {
		where.add("severity = $%[1]d", filter.Severity)
	}
	if filter.RouteID != "" {
		where.add("route_id = $%[1]d", filter.RouteID)
	}
	if filter.VehicleID != "" {
		where.add("vehicle_id = $%[1]d", filter.VehicleID)
	}
	if filter.From != nil {
		where.add("occurred_at >= $%[1]d", *filter.From)
	}
	if filter.To != nil {
		where.add("occurred_at < $%[1]d", *filter.To)
	}
	where.search(filter.Search, "description", "location", "incident_type")

	opts := filter.ListOptions
	order := orderClause(opts, map[string]string{"occurred_at": "occurred_at", "severity": "severity", "status": "status"}, "occurred_at", "DESC")
	page := pageClause(&opts, 20)

	var incidents []models.Incident
	query := fmt.Sprintf(`SELECT %s FROM incidents %s %s %s`, incidentColumns, where, order, page)
	if err := r.db.SelectContext(ctx, &incidents, query, where.args...); err != nil {
		return nil, 0, fmt.Errorf("list incidents: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM incidents "+where.String(), where.args...); err != nil {
		return nil, 0, fmt.Errorf("count incidents: %w", err)
	}
	return incidents, total, nil
}

// FindByID fetches an incident.
func (r *IncidentRepository) FindByID(ctx context.Context, id string) (*models.Incident, error) {
	var incident models.Incident
	if err := r.db.GetContext(ctx, &incident, `SELECT `+incidentColumns+` FROM incidents WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &incident, nil
}

// Create inserts an incident.
func (r *IncidentRepository) Create(ctx context.Context, incident *models.Incident) error {
	if incident.ID == "" {
		incident.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	incident.CreatedAt = now
	incident.UpdatedAt = now
	const query = `INSERT INTO incidents (id, incident_type, severity, occurred_at, location, route_id, vehicle_id, employee_id, passenger_id, description, status, resolution_notes, reported_by, created_at, updated_at)
        VALUES (:id, :incident_type, :severity, :occurred_at, :location, :route_id, :vehicle_id, :employee_id, :passenger_id, :description, :status, :resolution_notes, :reported_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, incident); err != nil {
		return mapWriteError("create incident", err)
	}
	return nil
}

// Update modifies an incident.
func (r *IncidentRepository) Update(ctx context.Context, incident *models.Incident) error {
	incident.UpdatedAt = time.Now().UTC()
	const query = `UPDATE incidents SET incident_type = :incident_type, severity = :severity, occurred_at = :occurred_at, location = :location,
        route_id = :route_id, vehicle_id = :vehicle_id, employee_id = :employee_id, passenger_id = :passenger_id, description = :description,
        status = :status, resolution_notes = :resolution_notes, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, incident)
	if err != nil {
		return mapWriteError("update incident", err)
	}
	return expectRow(res)
}

// Delete removes an incident.
func (r *IncidentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM incidents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete incident: %w", err)
	}
	return expectRow(res)
}

// CountOpen returns incidents that are not yet resolved.
func (r *IncidentRepository) CountOpen(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM incidents WHERE status <> $1`, models.IncidentResolved); err != nil {
		return 0, fmt.Errorf("count open incidents: %w", err)
	}
	return total, nil
}
