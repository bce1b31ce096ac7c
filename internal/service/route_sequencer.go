package service

import (
	"fmt"
	"strings"

	"github.com/noah-isme/fleet-ops-api/internal/models"
)

// autoHomeMarker is the naming convention that opts an assistant into
// automatic home stops when the explicit flag is not set.
const autoHomeMarker = "APA"

// HomeStopAssistant carries the assistant fields the sequencer needs.
type HomeStopAssistant struct {
	ID           string
	Name         string
	Address      string
	Postcode     string
	Latitude     *float64
	Longitude    *float64
	AutoHomeStop bool
}

// NewHomeStopAssistant adapts a stored assistant record.
func NewHomeStopAssistant(rec models.AssistantRecord) *HomeStopAssistant {
	return &HomeStopAssistant{
		ID:           rec.EmployeeID,
		Name:         rec.FullName,
		Address:      rec.Address,
		Postcode:     rec.Postcode,
		Latitude:     rec.HomeLatitude,
		Longitude:    rec.HomeLongitude,
		AutoHomeStop: rec.AutoHomeStop,
	}
}

// Qualifies reports whether the assistant gets automatic home stops.
func (a *HomeStopAssistant) Qualifies() bool {
	if a == nil {
		return false
	}
	return a.AutoHomeStop || strings.Contains(strings.ToUpper(a.Name), autoHomeMarker)
}

// SyncAssistantHomeStops re-derives the automatic home stops after the
// assistant, AM time or PM time changed. A qualifying assistant with an AM
// time gets a home stop first in the list; with a PM time, a home stop last.
// The two ends are handled independently. User stops keep their relative
// order and the result is renumbered from 1.
func SyncAssistantHomeStops(points []models.RoutePoint, assistant *HomeStopAssistant, amTime, pmTime string) []models.RoutePoint {
	head, tail, user := splitAutoStops(points)
	amTime = strings.TrimSpace(amTime)
	pmTime = strings.TrimSpace(pmTime)

	if assistant.Qualifies() && amTime != "" {
		head = homeStop(head, assistant)
		head.AMPickupTime = stringPtr(amTime)
		head.PMDropoffTime = nil
	} else {
		head = nil
	}
	if assistant.Qualifies() && pmTime != "" {
		tail = homeStop(tail, assistant)
		tail.PMDropoffTime = stringPtr(pmTime)
		tail.AMPickupTime = nil
	} else {
		tail = nil
	}

	out := make([]models.RoutePoint, 0, len(user)+2)
	if head != nil {
		out = append(out, *head)
	}
	out = append(out, user...)
	if tail != nil {
		out = append(out, *tail)
	}
	return RenumberStops(out)
}

// AddStop appends a user stop, keeping a trailing home stop last.
func AddStop(points []models.RoutePoint, stop models.RoutePoint) []models.RoutePoint {
	stop.Origin = models.OriginUser
	out := make([]models.RoutePoint, 0, len(points)+1)
	n := len(points)
	if n > 0 && isTailHome(points[n-1]) {
		out = append(out, points[:n-1]...)
		out = append(out, stop, points[n-1])
	} else {
		out = append(out, points...)
		out = append(out, stop)
	}
	return RenumberStops(out)
}

// RemoveStop drops the stop at index. Out of range indexes are ignored.
func RemoveStop(points []models.RoutePoint, index int) []models.RoutePoint {
	if index < 0 || index >= len(points) {
		return RenumberStops(cloneStops(points))
	}
	out := make([]models.RoutePoint, 0, len(points)-1)
	out = append(out, points[:index]...)
	out = append(out, points[index+1:]...)
	return RenumberStops(out)
}

// MoveStopUp swaps the stop at index with its predecessor. Automatic home
// stops stay pinned to the ends of the list.
func MoveStopUp(points []models.RoutePoint, index int) []models.RoutePoint {
	return swapStops(points, index, index-1)
}

// MoveStopDown swaps the stop at index with its successor.
func MoveStopDown(points []models.RoutePoint, index int) []models.RoutePoint {
	return swapStops(points, index, index+1)
}

// FinalizeStops drops stops with a blank name and renumbers the rest. It is
// applied before a route is saved.
func FinalizeStops(points []models.RoutePoint) []models.RoutePoint {
	out := make([]models.RoutePoint, 0, len(points))
	for _, p := range points {
		if strings.TrimSpace(p.PointName) == "" {
			continue
		}
		if p.Origin == "" {
			p.Origin = models.OriginUser
		}
		out = append(out, p)
	}
	return RenumberStops(out)
}

// RenumberStops assigns stop_order 1..N in slice order.
func RenumberStops(points []models.RoutePoint) []models.RoutePoint {
	for i := range points {
		points[i].StopOrder = i + 1
	}
	return points
}

func swapStops(points []models.RoutePoint, i, j int) []models.RoutePoint {
	out := cloneStops(points)
	if i < 0 || j < 0 || i >= len(out) || j >= len(out) {
		return RenumberStops(out)
	}
	if out[i].IsAutoHome() || out[j].IsAutoHome() {
		return RenumberStops(out)
	}
	out[i], out[j] = out[j], out[i]
	return RenumberStops(out)
}

// splitAutoStops separates the automatic head and tail stops from user stops.
// A head stop is an automatic stop carrying an AM pickup time.
func splitAutoStops(points []models.RoutePoint) (head, tail *models.RoutePoint, user []models.RoutePoint) {
	user = make([]models.RoutePoint, 0, len(points))
	for i := range points {
		p := points[i]
		if !p.IsAutoHome() {
			user = append(user, p)
			continue
		}
		if p.AMPickupTime != nil && head == nil {
			head = &p
			continue
		}
		if tail == nil {
			tail = &p
		}
	}
	return head, tail, user
}

func isTailHome(p models.RoutePoint) bool {
	return p.IsAutoHome() && p.AMPickupTime == nil
}

func homeStop(existing *models.RoutePoint, assistant *HomeStopAssistant) *models.RoutePoint {
	stop := models.RoutePoint{}
	if existing != nil {
		stop = *existing
	}
	stop.Origin = models.OriginAutoAssistantHome
	stop.PointName = fmt.Sprintf("%s (home)", strings.TrimSpace(assistant.Name))
	stop.Address = joinAddress(assistant.Address, assistant.Postcode)
	stop.Latitude = assistant.Latitude
	stop.Longitude = assistant.Longitude
	stop.PassengerID = nil
	return &stop
}

func joinAddress(address, postcode string) string {
	address = strings.TrimSpace(address)
	postcode = strings.TrimSpace(postcode)
	switch {
	case address == "":
		return postcode
	case postcode == "":
		return address
	}
	return address + ", " + postcode
}

func cloneStops(points []models.RoutePoint) []models.RoutePoint {
	out := make([]models.RoutePoint, len(points))
	copy(out, points)
	return out
}

func stringPtr(s string) *string {
	return &s
}
