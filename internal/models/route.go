package models

import (
	"time"

	"github.com/lib/pq"
)

// RoutePointOrigin records who created a stop.
type RoutePointOrigin string

const (
	OriginUser              RoutePointOrigin = "USER"
	OriginAutoAssistantHome RoutePointOrigin = "AUTO_ASSISTANT_HOME"
)

// Route is a scheduled school run.
type Route struct {
	ID          string         `db:"id" json:"id"`
	RouteNumber string         `db:"route_number" json:"route_number"`
	SchoolID    *string        `db:"school_id" json:"school_id,omitempty"`
	DriverID    *string        `db:"driver_id" json:"driver_id,omitempty"`
	VehicleID   *string        `db:"vehicle_id" json:"vehicle_id,omitempty"`
	AMStartTime *string        `db:"am_start_time" json:"am_start_time,omitempty"`
	PMStartTime *string        `db:"pm_start_time" json:"pm_start_time,omitempty"`
	DaysOfWeek  pq.StringArray `db:"days_of_week" json:"days_of_week"`
	Active      bool           `db:"active" json:"active"`
	Notes       string         `db:"notes" json:"notes"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// RouteSummary is a list row with the display names of linked records.
type RouteSummary struct {
	Route
	SchoolName          *string `db:"school_name" json:"school_name,omitempty"`
	DriverName          *string `db:"driver_name" json:"driver_name,omitempty"`
	VehicleRegistration *string `db:"vehicle_registration" json:"vehicle_registration,omitempty"`
	PointCount          int     `db:"point_count" json:"point_count"`
}

// RouteDetail is a route with its assistants and ordered stops.
type RouteDetail struct {
	RouteSummary
	AssistantIDs []string     `json:"assistant_ids"`
	Points       []RoutePoint `json:"points"`
}

// RouteFilter captures list parameters for routes.
type RouteFilter struct {
	SchoolID  string
	DriverID  string
	VehicleID string
	Active    *bool
	Day       string
	ListOptions
}

// RoutePoint is one ordered stop. StopOrder is dense from 1 within a route.
type RoutePoint struct {
	ID            string           `db:"id" json:"id"`
	RouteID       string           `db:"route_id" json:"route_id"`
	StopOrder     int              `db:"stop_order" json:"stop_order"`
	PointName     string           `db:"point_name" json:"point_name"`
	Address       string           `db:"address" json:"address"`
	Latitude      *float64         `db:"latitude" json:"latitude,omitempty"`
	Longitude     *float64         `db:"longitude" json:"longitude,omitempty"`
	AMPickupTime  *string          `db:"am_pickup_time" json:"am_pickup_time,omitempty"`
	PMDropoffTime *string          `db:"pm_dropoff_time" json:"pm_dropoff_time,omitempty"`
	PassengerID   *string          `db:"passenger_id" json:"passenger_id,omitempty"`
	Origin        RoutePointOrigin `db:"origin" json:"origin"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
}

// IsAutoHome reports whether the stop was inserted for an assistant's home.
func (p RoutePoint) IsAutoHome() bool {
	return p.Origin == OriginAutoAssistantHome
}

// RouteFormOptions holds the pick lists used when composing a route.
type RouteFormOptions struct {
	Drivers    []DriverRecord    `json:"drivers"`
	Assistants []AssistantRecord `json:"assistants"`
	Vehicles   []Vehicle         `json:"vehicles"`
	Schools    []School          `json:"schools"`
}
