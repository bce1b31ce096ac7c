package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/fleet-ops-api/internal/models"
	"github.com/noah-isme/fleet-ops-api/pkg/database"
)

const routeSummarySelect = `SELECT r.id, r.route_number, r.school_id, r.driver_id, r.vehicle_id, r.am_start_time, r.pm_start_time, r.days_of_week, r.active, r.notes, r.created_at, r.updated_at,
        s.name AS school_name, e.full_name AS driver_name, v.registration AS vehicle_registration,
        (SELECT COUNT(*) FROM route_points p WHERE p.route_id = r.id) AS point_count
        FROM routes r
        LEFT JOIN schools s ON s.id = r.school_id
        LEFT JOIN employees e ON e.id = r.driver_id
        LEFT JOIN vehicles v ON v.id = r.vehicle_id`

const routePointColumns = `id, route_id, stop_order, point_name, address, latitude, longitude, am_pickup_time, pm_dropoff_time, passenger_id, origin, created_at`

// RouteRepository persists routes with their stops and assistants.
type RouteRepository struct {
	db *sqlx.DB
}

// NewRouteRepository constructs a RouteRepository.
func NewRouteRepository(db *sqlx.DB) *RouteRepository {
	return &RouteRepository{db: db}
}

// List returns route summaries with the total count.
func (r *RouteRepository) List(ctx context.Context, filter models.RouteFilter) ([]models.RouteSummary, int, error) {
	where := newWhere()
	if filter.SchoolID != "" {
		where.add("r.school_id = $%[1]d", filter.SchoolID)
	}
	if filter.DriverID != "" {
		where.add("r.driver_id = $%[1]d", filter.DriverID)
	}
	if filter.VehicleID != "" {
		where.add("r.vehicle_id = $%[1]d", filter.VehicleID)
	}
	if filter.Active != nil {
		where.add("r.active = $%[1]d", *filter.Active)
	}
	if filter.Day != "" {
		where.add("$%[1]d = ANY(r.days_of_week)", filter.Day)
	}
	where.search(filter.Search, "r.route_number", "s.name")

	opts := filter.ListOptions
	order := orderClause(opts, map[string]string{
		"route_number": "r.route_number",
		"school":       "s.name",
		"created_at":   "r.created_at",
	}, "route_number", "ASC")
	page := pageClause(&opts, 20)

	var routes []models.RouteSummary
	query := fmt.Sprintf("%s %s %s %s", routeSummarySelect, where, order, page)
	if err := r.db.SelectContext(ctx, &routes, query, where.args...); err != nil {
		return nil, 0, fmt.Errorf("list routes: %w", err)
	}
	var total int
	countQuery := "SELECT COUNT(*) FROM routes r LEFT JOIN schools s ON s.id = r.school_id " + where.String()
	if err := r.db.GetContext(ctx, &total, countQuery, where.args...); err != nil {
		return nil, 0, fmt.Errorf("count routes: %w", err)
	}
	return routes, total, nil
}

// FindByID returns the route with its ordered stops and assistants.
func (r *RouteRepository) FindByID(ctx context.Context, id string) (*models.RouteDetail, error) {
	var summary models.RouteSummary
	if err := r.db.GetContext(ctx, &summary, routeSummarySelect+" WHERE r.id = $1", id); err != nil {
		return nil, err
	}
	points, err := r.ListPoints(ctx, id)
	if err != nil {
		return nil, err
	}
	assistants, err := r.ListAssistantIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.RouteDetail{RouteSummary: summary, AssistantIDs: assistants, Points: points}, nil
}

// ListPoints returns the stops of a route in order.
func (r *RouteRepository) ListPoints(ctx context.Context, routeID string) ([]models.RoutePoint, error) {
	points := []models.RoutePoint{}
	if err := r.db.SelectContext(ctx, &points, `SELECT `+routePointColumns+` FROM route_points WHERE route_id = $1 ORDER BY stop_order`, routeID); err != nil {
		return nil, fmt.Errorf("list route points: %w", err)
	}
	return points, nil
}

// ListAssistantIDs returns the assistants assigned to a route.
func (r *RouteRepository) ListAssistantIDs(ctx context.Context, routeID string) ([]string, error) {
	ids := []string{}
	if err := r.db.SelectContext(ctx, &ids, `SELECT assistant_id FROM route_passenger_assistants WHERE route_id = $1 ORDER BY assistant_id`, routeID); err != nil {
		return nil, fmt.Errorf("list route assistants: %w", err)
	}
	return ids, nil
}

// Create stores a route, its stops and its assistants in one transaction.
func (r *RouteRepository) Create(ctx context.Context, route *models.Route, points []models.RoutePoint, assistantIDs []string) error {
	if route.ID == "" {
		route.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	route.CreatedAt = now
	route.UpdatedAt = now
	if route.DaysOfWeek == nil {
		route.DaysOfWeek = pq.StringArray{}
	}
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		const query = `INSERT INTO routes (id, route_number, school_id, driver_id, vehicle_id, am_start_time, pm_start_time, days_of_week, active, notes, created_at, updated_at)
            VALUES (:id, :route_number, :school_id, :driver_id, :vehicle_id, :am_start_time, :pm_start_time, :days_of_week, :active, :notes, :created_at, :updated_at)`
		if _, err := tx.NamedExecContext(ctx, query, route); err != nil {
			return mapWriteError("create route", err)
		}
		return replaceRouteChildren(ctx, tx, route.ID, points, assistantIDs)
	})
}

// Update modifies a route and replaces its stops and assistants in one
// transaction.
func (r *RouteRepository) Update(ctx context.Context, route *models.Route, points []models.RoutePoint, assistantIDs []string) error {
	route.UpdatedAt = time.Now().UTC()
	if route.DaysOfWeek == nil {
		route.DaysOfWeek = pq.StringArray{}
	}
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		const query = `UPDATE routes SET route_number = :route_number, school_id = :school_id, driver_id = :driver_id, vehicle_id = :vehicle_id,
            am_start_time = :am_start_time, pm_start_time = :pm_start_time, days_of_week = :days_of_week, active = :active, notes = :notes, updated_at = :updated_at
            WHERE id = :id`
		res, err := tx.NamedExecContext(ctx, query, route)
		if err != nil {
			return mapWriteError("update route", err)
		}
		if err := expectRow(res); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM route_points WHERE route_id = $1`, route.ID); err != nil {
			return fmt.Errorf("clear route points: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM route_passenger_assistants WHERE route_id = $1`, route.ID); err != nil {
			return fmt.Errorf("clear route assistants: %w", err)
		}
		return replaceRouteChildren(ctx, tx, route.ID, points, assistantIDs)
	})
}

// Delete removes a route; stops and assistant links cascade.
func (r *RouteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM routes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete route: %w", err)
	}
	return expectRow(res)
}

// CountActive returns the number of active routes.
func (r *RouteRepository) CountActive(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM routes WHERE active = TRUE`); err != nil {
		return 0, fmt.Errorf("count active routes: %w", err)
	}
	return total, nil
}

func replaceRouteChildren(ctx context.Context, tx *sqlx.Tx, routeID string, points []models.RoutePoint, assistantIDs []string) error {
	now := time.Now().UTC()
	const pointQuery = `INSERT INTO route_points (id, route_id, stop_order, point_name, address, latitude, longitude, am_pickup_time, pm_dropoff_time, passenger_id, origin, created_at)
        VALUES (:id, :route_id, :stop_order, :point_name, :address, :latitude, :longitude, :am_pickup_time, :pm_dropoff_time, :passenger_id, :origin, :created_at)`
	for i := range points {
		p := &points[i]
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		p.RouteID = routeID
		p.CreatedAt = now
		if _, err := tx.NamedExecContext(ctx, pointQuery, p); err != nil {
			return mapWriteError("insert route point", err)
		}
	}
	for _, assistantID := range assistantIDs {
		if _, err := tx.ExecContext(ctx, `INSERT INTO route_passenger_assistants (route_id, assistant_id) VALUES ($1, $2)`, routeID, assistantID); err != nil {
			return mapWriteError("insert route assistant", err)
		}
	}
	return nil
}
