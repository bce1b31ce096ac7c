package models

import "time"

// IncidentStatus tracks the investigation lifecycle.
type IncidentStatus string

const (
	IncidentOpen          IncidentStatus = "OPEN"
	IncidentInvestigating IncidentStatus = "INVESTIGATING"
	IncidentResolved      IncidentStatus = "RESOLVED"
)

// Incident is a reported event on a route or involving fleet staff.
type Incident struct {
	ID              string         `db:"id" json:"id"`
	IncidentType    string         `db:"incident_type" json:"incident_type"`
	Severity        string         `db:"severity" json:"severity"`
	OccurredAt      time.Time      `db:"occurred_at" json:"occurred_at"`
	Location        string         `db:"location" json:"location"`
	RouteID         *string        `db:"route_id" json:"route_id,omitempty"`
	VehicleID       *string        `db:"vehicle_id" json:"vehicle_id,omitempty"`
	EmployeeID      *string        `db:"employee_id" json:"employee_id,omitempty"`
	PassengerID     *string        `db:"passenger_id" json:"passenger_id,omitempty"`
	Description     string         `db:"description" json:"description"`
	Status          IncidentStatus `db:"status" json:"status"`
	ResolutionNotes string         `db:"resolution_notes" json:"resolution_notes"`
	ReportedBy      *string        `db:"reported_by" json:"reported_by,omitempty"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

// IncidentFilter captures list parameters for incidents.
type IncidentFilter struct {
	Status    IncidentStatus
	Severity  string
	RouteID   string
	VehicleID string
	From      *time.Time
	To        *time.Time
	ListOptions
}
