package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/fleet-ops-api/internal/models"
	"github.com/noah-isme/fleet-ops-api/pkg/database"
)

const vehicleColumns = `id, registration, fleet_number, make, model, colour, seats, vehicle_type, off_road, off_road_reason,
        mot_expiry_date, tax_expiry_date, insurance_expiry_date, plate_expiry_date, loler_expiry_date, fire_extinguisher_expiry_date, first_aid_kit_expiry_date,
        qr_token, notes, created_at, updated_at`

// VehicleRepository persists vehicles and their supplier updates.
type VehicleRepository struct {
	db *sqlx.DB
}

// NewVehicleRepository constructs a VehicleRepository.
func NewVehicleRepository(db *sqlx.DB) *VehicleRepository {
	return &VehicleRepository{db: db}
}

// List returns vehicles matching the filter with the total count.
func (r *VehicleRepository) List(ctx context.Context, filter models.VehicleFilter) ([]models.Vehicle, int, error) {
	where := newWhere()
	if filter.OffRoad != nil {
		where.add("off_road = $%[1]d", *filter.OffRoad)
	}
	if filter.Type != "" {
		where.add("vehicle_type = $%[1]d", filter.Type)
	}
	where.search(filter.Search, "registration", "fleet_number", "make", "model")

	opts := filter.ListOptions
	order := orderClause(opts, map[string]string{
		"registration": "registration",
		"fleet_number": "fleet_number",
		"created_at":   "created_at",
	}, "registration", "ASC")
	page := pageClause(&opts, 20)

	query := fmt.Sprintf(`SELECT %s FROM vehicles %s %s %s`, vehicleColumns, where, order, page)
	var vehicles []models.Vehicle
	if err := r.db.SelectContext(ctx, &vehicles, query, where.args...); err != nil {
		return nil, 0, fmt.Errorf("list vehicles: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM vehicles "+where.String(), where.args...); err != nil {
		return nil, 0, fmt.Errorf("count vehicles: %w", err)
	}
	return vehicles, total, nil
}

// ListAll returns every vehicle ordered by registration.
func (r *VehicleRepository) ListAll(ctx context.Context) ([]models.Vehicle, error) {
	var vehicles []models.Vehicle
	if err := r.db.SelectContext(ctx, &vehicles, `SELECT `+vehicleColumns+` FROM vehicles ORDER BY registration`); err != nil {
		return nil, fmt.Errorf("list all vehicles: %w", err)
	}
	return vehicles, nil
}

// FindByID fetches a vehicle.
func (r *VehicleRepository) FindByID(ctx context.Context, id string) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	if err := r.db.GetContext(ctx, &vehicle, `SELECT `+vehicleColumns+` FROM vehicles WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &vehicle, nil
}

// FindByQRToken resolves a supplier portal token.
func (r *VehicleRepository) FindByQRToken(ctx context.Context, token string) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	if err := r.db.GetContext(ctx, &vehicle, `SELECT `+vehicleColumns+` FROM vehicles WHERE qr_token = $1`, token); err != nil {
		return nil, err
	}
	return &vehicle, nil
}

// Create inserts a vehicle.
func (r *VehicleRepository) Create(ctx context.Context, vehicle *models.Vehicle) error {
	if vehicle.ID == "" {
		vehicle.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	vehicle.CreatedAt = now
	vehicle.UpdatedAt = now
	const query = `INSERT INTO vehicles (id, registration, fleet_number, make, model, colour, seats, vehicle_type, off_road, off_road_reason,
        mot_expiry_date, tax_expiry_date, insurance_expiry_date, plate_expiry_date, loler_expiry_date, fire_extinguisher_expiry_date, first_aid_kit_expiry_date,
        qr_token, notes, created_at, updated_at)
        VALUES (:id, :registration, :fleet_number, :make, :model, :colour, :seats, :vehicle_type, :off_road, :off_road_reason,
        :mot_expiry_date, :tax_expiry_date, :insurance_expiry_date, :plate_expiry_date, :loler_expiry_date, :fire_extinguisher_expiry_date, :first_aid_kit_expiry_date,
        :qr_token, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, vehicle); err != nil {
		return mapWriteError("create vehicle", err)
	}
	return nil
}

// Update modifies a vehicle. The QR token is managed by SetQRToken.
func (r *VehicleRepository) Update(ctx context.Context, vehicle *models.Vehicle) error {
	vehicle.UpdatedAt = time.Now().UTC()
	const query = `UPDATE vehicles SET registration = :registration, fleet_number = :fleet_number, make = :make, model = :model, colour = :colour,
        seats = :seats, vehicle_type = :vehicle_type, off_road = :off_road, off_road_reason = :off_road_reason,
        mot_expiry_date = :mot_expiry_date, tax_expiry_date = :tax_expiry_date, insurance_expiry_date = :insurance_expiry_date,
        plate_expiry_date = :plate_expiry_date, loler_expiry_date = :loler_expiry_date, fire_extinguisher_expiry_date = :fire_extinguisher_expiry_date,
        first_aid_kit_expiry_date = :first_aid_kit_expiry_date, notes = :notes, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, vehicle)
	if err != nil {
		return mapWriteError("update vehicle", err)
	}
	return expectRow(res)
}

// Delete removes a vehicle.
func (r *VehicleRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM vehicles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete vehicle: %w", err)
	}
	return expectRow(res)
}

// SetQRToken replaces the supplier portal token.
func (r *VehicleRepository) SetQRToken(ctx context.Context, id, token string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE vehicles SET qr_token = $2, updated_at = $3 WHERE id = $1`, id, token, time.Now().UTC())
	if err != nil {
		return mapWriteError("set vehicle qr token", err)
	}
	return expectRow(res)
}

// CreateUpdate records a note or status update against a vehicle.
func (r *VehicleRepository) CreateUpdate(ctx context.Context, update *models.VehicleUpdate) error {
	return insertVehicleUpdate(ctx, r.db, update)
}

// ReportBreakdown takes the vehicle off the road and records the breakdown in
// one transaction.
func (r *VehicleRepository) ReportBreakdown(ctx context.Context, update *models.VehicleUpdate) error {
	update.Kind = models.VehicleUpdateBreakdown
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE vehicles SET off_road = TRUE, off_road_reason = $2, updated_at = $3 WHERE id = $1`,
			update.VehicleID, update.Message, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("mark vehicle off road: %w", err)
		}
		if err := expectRow(res); err != nil {
			return err
		}
		return insertVehicleUpdate(ctx, tx, update)
	})
}

// ListUpdates returns the most recent updates for a vehicle.
func (r *VehicleRepository) ListUpdates(ctx context.Context, vehicleID string, limit int) ([]models.VehicleUpdate, error) {
	if limit <= 0 {
		limit = 20
	}
	var updates []models.VehicleUpdate
	const query = `SELECT id, vehicle_id, kind, mileage, message, submitted_by, created_at FROM vehicle_updates WHERE vehicle_id = $1 ORDER BY created_at DESC LIMIT $2`
	if err := r.db.SelectContext(ctx, &updates, query, vehicleID, limit); err != nil {
		return nil, fmt.Errorf("list vehicle updates: %w", err)
	}
	return updates, nil
}

// CountOffRoad returns the number of vehicles currently off the road.
func (r *VehicleRepository) CountOffRoad(ctx context.Context) (int, int, error) {
	row := struct {
		Total   int `db:"total"`
		OffRoad int `db:"off_road"`
	}{}
	if err := r.db.GetContext(ctx, &row, `SELECT COUNT(*) AS total, COUNT(*) FILTER (WHERE off_road) AS off_road FROM vehicles`); err != nil {
		return 0, 0, fmt.Errorf("count vehicles: %w", err)
	}
	return row.Total, row.OffRoad, nil
}

func insertVehicleUpdate(ctx context.Context, exec sqlx.ExtContext, update *models.VehicleUpdate) error {
	if update.ID == "" {
		update.ID = uuid.NewString()
	}
	update.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO vehicle_updates (id, vehicle_id, kind, mileage, message, submitted_by, created_at) VALUES (:id, :vehicle_id, :kind, :mileage, :message, :submitted_by, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, update); err != nil {
		return mapWriteError("create vehicle update", err)
	}
	return nil
}
