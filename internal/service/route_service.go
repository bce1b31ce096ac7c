package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/fleet-ops-api/internal/dto"
	"github.com/noah-isme/fleet-ops-api/internal/models"
	appErrors "github.com/noah-isme/fleet-ops-api/pkg/errors"
)

type routeRepository interface {
	List(ctx context.Context, filter models.RouteFilter) ([]models.RouteSummary, int, error)
	FindByID(ctx context.Context, id string) (*models.RouteDetail, error)
	Create(ctx context.Context, route *models.Route, points []models.RoutePoint, assistantIDs []string) error
	Update(ctx context.Context, route *models.Route, points []models.RoutePoint, assistantIDs []string) error
	Delete(ctx context.Context, id string) error
}

type routeStaffSource interface {
	FindAssistantRecord(ctx context.Context, employeeID string) (*models.AssistantRecord, error)
	ListDrivers(ctx context.Context, activeOnly bool) ([]models.DriverRecord, error)
	ListAssistants(ctx context.Context, activeOnly bool) ([]models.AssistantRecord, error)
}

type vehicleLister interface {
	ListAll(ctx context.Context) ([]models.Vehicle, error)
}

type schoolLister interface {
	ListAll(ctx context.Context) ([]models.School, error)
}

// RouteService manages routes and keeps their stop lists sequenced.
type RouteService struct {
	repo      routeRepository
	staff     routeStaffSource
	vehicles  vehicleLister
	schools   schoolLister
	audit     auditWriter
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRouteService constructs the route service.
func NewRouteService(repo routeRepository, staff routeStaffSource, vehicles vehicleLister, schools schoolLister, audit auditWriter, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *RouteService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RouteService{
		repo:      repo,
		staff:     staff,
		vehicles:  vehicles,
		schools:   schools,
		audit:     audit,
		cache:     cache,
		validator: validate,
		logger:    logger,
	}
}

// List returns route summaries.
func (s *RouteService) List(ctx context.Context, filter models.RouteFilter) ([]models.RouteSummary, *models.Pagination, error) {
	routes, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list routes")
	}
	return routes, paginationFor(filter.ListOptions, 20, total), nil
}

// Get returns a route with its stops and assistants.
func (s *RouteService) Get(ctx context.Context, id string) (*models.RouteDetail, error) {
	route, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "route not found", "failed to load route")
	}
	return route, nil
}

// Create stores a route with its stops and assistants in one transaction.
// Home stops for the first assistant are derived before saving.
func (s *RouteService) Create(ctx context.Context, req dto.RouteRequest, actor Actor) (*models.RouteDetail, error) {
	route, points, assistantIDs, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	route.Active = boolOr(req.Active, true)
	if err := s.repo.Create(ctx, route, points, assistantIDs); err != nil {
		return nil, mapRepoError(err, "route not found", "failed to create route")
	}
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionCreate, "route", &route.ID, req)
	invalidateDerived(ctx, s.cache, s.logger)
	return s.Get(ctx, route.ID)
}

// Update replaces a route, its stops and its assistants.
func (s *RouteService) Update(ctx context.Context, id string, req dto.RouteRequest, actor Actor) (*models.RouteDetail, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "route not found", "failed to load route")
	}
	route, points, assistantIDs, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	route.ID = existing.ID
	route.CreatedAt = existing.CreatedAt
	route.Active = boolOr(req.Active, existing.Active)
	if err := s.repo.Update(ctx, route, points, assistantIDs); err != nil {
		return nil, mapRepoError(err, "route not found", "failed to update route")
	}
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionUpdate, "route", &route.ID, req)
	invalidateDerived(ctx, s.cache, s.logger)
	return s.Get(ctx, route.ID)
}

// Delete removes a route with its stops.
func (s *RouteService) Delete(ctx context.Context, id string, actor Actor) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapRepoError(err, "route not found", "failed to delete route")
	}
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionDelete, "route", &id, nil)
	invalidateDerived(ctx, s.cache, s.logger)
	return nil
}

// Plan applies manual stop edits and re-derives the automatic home stops
// without saving anything.
func (s *RouteService) Plan(ctx context.Context, req dto.RoutePlanRequest) (*dto.RoutePlanResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid route plan")
	}
	points := pointsFromRequest(req.Points)
	for _, op := range req.Operations {
		switch op.Type {
		case dto.PlanAdd:
			if op.Point == nil {
				return nil, appErrors.Clone(appErrors.ErrValidation, "add operation requires a point")
			}
			points = AddStop(points, pointFromRequest(*op.Point))
		case dto.PlanRemove:
			points = RemoveStop(points, op.Index)
		case dto.PlanMoveUp:
			points = MoveStopUp(points, op.Index)
		case dto.PlanMoveDown:
			points = MoveStopDown(points, op.Index)
		}
	}

	var assistantIDs []string
	if id := trimOptional(req.AssistantID); id != nil {
		assistantIDs = []string{*id}
	}
	assistant, err := s.homeStopAssistant(ctx, assistantIDs)
	if err != nil {
		return nil, err
	}
	points = SyncAssistantHomeStops(points, assistant, deref(req.AMStartTime), deref(req.PMStartTime))
	return &dto.RoutePlanResponse{Points: points}, nil
}

// FormOptions loads the drivers, assistants, vehicles and schools offered
// when composing a route. The four lists are fetched concurrently.
func (s *RouteService) FormOptions(ctx context.Context) (*models.RouteFormOptions, error) {
	opts := &models.RouteFormOptions{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		drivers, err := s.staff.ListDrivers(gctx, true)
		if err != nil {
			return err
		}
		opts.Drivers = drivers
		return nil
	})
	g.Go(func() error {
		assistants, err := s.staff.ListAssistants(gctx, true)
		if err != nil {
			return err
		}
		opts.Assistants = assistants
		return nil
	})
	g.Go(func() error {
		vehicles, err := s.vehicles.ListAll(gctx)
		if err != nil {
			return err
		}
		opts.Vehicles = vehicles
		return nil
	})
	g.Go(func() error {
		schools, err := s.schools.ListAll(gctx)
		if err != nil {
			return err
		}
		opts.Schools = schools
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, appErrors.Internal(err, "failed to load route form options")
	}
	return opts, nil
}

// Geometry returns the route as a GeoJSON FeatureCollection: one Point per
// stop with coordinates and, with two or more such stops, a LineString
// through them in stop order.
func (s *RouteService) Geometry(ctx context.Context, id string) (*geojson.FeatureCollection, error) {
	route, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return routeGeometry(route)
}

func routeGeometry(route *models.RouteDetail) (*geojson.FeatureCollection, error) {
	fc := &geojson.FeatureCollection{Features: []*geojson.Feature{}}
	coords := make([]geom.Coord, 0, len(route.Points))
	for _, p := range route.Points {
		if p.Latitude == nil || p.Longitude == nil {
			continue
		}
		coord := geom.Coord{*p.Longitude, *p.Latitude}
		coords = append(coords, coord)
		point, err := geom.NewPoint(geom.XY).SetCoords(coord)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to build route geometry")
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       p.ID,
			Geometry: point,
			Properties: map[string]interface{}{
				"stop_order": p.StopOrder,
				"point_name": p.PointName,
				"address":    p.Address,
				"origin":     string(p.Origin),
			},
		})
	}
	if len(coords) >= 2 {
		line, err := geom.NewLineString(geom.XY).SetCoords(coords)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to build route geometry")
		}
		fc.Features = append([]*geojson.Feature{{
			ID:       route.ID,
			Geometry: line,
			Properties: map[string]interface{}{
				"route_number": route.RouteNumber,
			},
		}}, fc.Features...)
	}
	return fc, nil
}

func (s *RouteService) prepare(ctx context.Context, req dto.RouteRequest) (*models.Route, []models.RoutePoint, []string, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, nil, validationError(err, "invalid route payload")
	}
	days := pq.StringArray(req.DaysOfWeek)
	if days == nil {
		days = pq.StringArray{}
	}
	route := &models.Route{
		RouteNumber: strings.TrimSpace(req.RouteNumber),
		SchoolID:    trimOptional(req.SchoolID),
		DriverID:    trimOptional(req.DriverID),
		VehicleID:   trimOptional(req.VehicleID),
		AMStartTime: trimOptional(req.AMStartTime),
		PMStartTime: trimOptional(req.PMStartTime),
		DaysOfWeek:  days,
		Notes:       req.Notes,
	}
	assistantIDs := uniqueIDs(req.AssistantIDs)

	assistant, err := s.homeStopAssistant(ctx, assistantIDs)
	if err != nil {
		return nil, nil, nil, err
	}
	points := SyncAssistantHomeStops(pointsFromRequest(req.Points), assistant, deref(route.AMStartTime), deref(route.PMStartTime))
	return route, FinalizeStops(points), assistantIDs, nil
}

// homeStopAssistant loads the first assigned assistant, the one whose home
// anchors the automatic stops.
func (s *RouteService) homeStopAssistant(ctx context.Context, assistantIDs []string) (*HomeStopAssistant, error) {
	if len(assistantIDs) == 0 {
		return nil, nil
	}
	rec, err := s.staff.FindAssistantRecord(ctx, assistantIDs[0])
	if err != nil {
		return nil, mapRepoError(err, "assistant "+assistantIDs[0]+" not found", "failed to load assistant")
	}
	return NewHomeStopAssistant(*rec), nil
}

func pointsFromRequest(reqs []dto.RoutePointRequest) []models.RoutePoint {
	points := make([]models.RoutePoint, 0, len(reqs))
	for _, r := range reqs {
		p := pointFromRequest(r)
		if r.Origin == string(models.OriginAutoAssistantHome) {
			p.Origin = models.OriginAutoAssistantHome
		}
		points = append(points, p)
	}
	return RenumberStops(points)
}

func pointFromRequest(r dto.RoutePointRequest) models.RoutePoint {
	return models.RoutePoint{
		PointName:     strings.TrimSpace(r.PointName),
		Address:       strings.TrimSpace(r.Address),
		Latitude:      r.Latitude,
		Longitude:     r.Longitude,
		AMPickupTime:  trimOptional(r.AMPickupTime),
		PMDropoffTime: trimOptional(r.PMDropoffTime),
		PassengerID:   trimOptional(r.PassengerID),
		Origin:        models.OriginUser,
	}
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
