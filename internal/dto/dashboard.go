package dto

import (
	"time"

	"github.com/noah-isme/fleet-ops-api/internal/models"
)

// DashboardResponse is the office overview. Sections that could not be
// loaded are listed in Unavailable and left at their zero value.
type DashboardResponse struct {
	Employees        map[models.EmployeeRole]int `json:"employees"`
	CannotWork       int                         `json:"cannot_work"`
	Vehicles         int                         `json:"vehicles"`
	VehiclesOffRoad  int                         `json:"vehicles_off_road"`
	ActiveRoutes     int                         `json:"active_routes"`
	ActivePassengers int                         `json:"active_passengers"`
	OpenIncidents    int                         `json:"open_incidents"`
	Expiry           models.ExpiryCounts         `json:"expiry"`
	PendingNotices   int                         `json:"pending_notifications"`
	GeneratedAt      time.Time                   `json:"generated_at"`
	Unavailable      []string                    `json:"-"`
}
