package dto

import "github.com/noah-isme/fleet-ops-api/internal/models"

// RoutePointRequest is one stop as submitted by the route form.
type RoutePointRequest struct {
	PointName     string   `json:"point_name"`
	Address       string   `json:"address"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
	AMPickupTime  *string  `json:"am_pickup_time" validate:"omitempty,datetime=15:04"`
	PMDropoffTime *string  `json:"pm_dropoff_time" validate:"omitempty,datetime=15:04"`
	PassengerID   *string  `json:"passenger_id"`
	Origin        string   `json:"origin" validate:"omitempty,oneof=USER AUTO_ASSISTANT_HOME"`
}

// RouteRequest is the payload for creating or updating a route.
type RouteRequest struct {
	RouteNumber  string              `json:"route_number" validate:"required,max=50"`
	SchoolID     *string             `json:"school_id"`
	DriverID     *string             `json:"driver_id"`
	VehicleID    *string             `json:"vehicle_id"`
	AMStartTime  *string             `json:"am_start_time" validate:"omitempty,datetime=15:04"`
	PMStartTime  *string             `json:"pm_start_time" validate:"omitempty,datetime=15:04"`
	DaysOfWeek   []string            `json:"days_of_week" validate:"omitempty,dive,oneof=MON TUE WED THU FRI SAT SUN"`
	Active       *bool               `json:"active"`
	Notes        string              `json:"notes"`
	AssistantIDs []string            `json:"assistant_ids"`
	Points       []RoutePointRequest `json:"points" validate:"dive"`
}

// Route plan operations applied before the home stop sync.
const (
	PlanAdd      = "add"
	PlanRemove   = "remove"
	PlanMoveUp   = "move_up"
	PlanMoveDown = "move_down"
)

// RoutePlanOperation is a manual edit applied to the stop list.
type RoutePlanOperation struct {
	Type  string             `json:"type" validate:"required,oneof=add remove move_up move_down"`
	Index int                `json:"index"`
	Point *RoutePointRequest `json:"point"`
}

// RoutePlanRequest previews the stop list after edits. The automatic home
// stops are re-derived from AssistantID and the AM and PM times.
type RoutePlanRequest struct {
	AssistantID *string              `json:"assistant_id"`
	AMStartTime *string              `json:"am_start_time" validate:"omitempty,datetime=15:04"`
	PMStartTime *string              `json:"pm_start_time" validate:"omitempty,datetime=15:04"`
	Points      []RoutePointRequest  `json:"points" validate:"dive"`
	Operations  []RoutePlanOperation `json:"operations" validate:"dive"`
}

// RoutePlanResponse is the resequenced stop list.
type RoutePlanResponse struct {
	Points []models.RoutePoint `json:"points"`
}
