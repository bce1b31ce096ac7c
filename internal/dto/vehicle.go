package dto

import "github.com/noah-isme/fleet-ops-api/internal/models"

// VehicleRequest is the payload for creating or updating a vehicle.
type VehicleRequest struct {
	Registration           string  `json:"registration" validate:"required,max=20"`
	FleetNumber            string  `json:"fleet_number" validate:"omitempty,max=50"`
	Make                   string  `json:"make" validate:"omitempty,max=100"`
	Model                  string  `json:"model" validate:"omitempty,max=100"`
	Colour                 string  `json:"colour" validate:"omitempty,max=50"`
	Seats                  int     `json:"seats" validate:"gte=0,lte=100"`
	VehicleType            string  `json:"vehicle_type" validate:"omitempty,max=50"`
	OffRoad                bool    `json:"off_road"`
	OffRoadReason          string  `json:"off_road_reason" validate:"omitempty,max=500"`
	MOTExpiry              *string `json:"mot_expiry_date" validate:"omitempty,datetime=2006-01-02"`
	TaxExpiry              *string `json:"tax_expiry_date" validate:"omitempty,datetime=2006-01-02"`
	InsuranceExpiry        *string `json:"insurance_expiry_date" validate:"omitempty,datetime=2006-01-02"`
	PlateExpiry            *string `json:"plate_expiry_date" validate:"omitempty,datetime=2006-01-02"`
	LOLERExpiry            *string `json:"loler_expiry_date" validate:"omitempty,datetime=2006-01-02"`
	FireExtinguisherExpiry *string `json:"fire_extinguisher_expiry_date" validate:"omitempty,datetime=2006-01-02"`
	FirstAidKitExpiry      *string `json:"first_aid_kit_expiry_date" validate:"omitempty,datetime=2006-01-02"`
	Notes                  string  `json:"notes"`
}

// VehicleNoteRequest records a note or status update against a vehicle.
type VehicleNoteRequest struct {
	Kind        string `json:"kind" validate:"omitempty,oneof=NOTE UPDATE"`
	Message     string `json:"message" validate:"required,max=2000"`
	Mileage     *int   `json:"mileage" validate:"omitempty,gte=0"`
	SubmittedBy string `json:"submitted_by" validate:"omitempty,max=200"`
}

// BreakdownRequest reports a vehicle breakdown.
type BreakdownRequest struct {
	Message     string `json:"message" validate:"required,max=2000"`
	Mileage     *int   `json:"mileage" validate:"omitempty,gte=0"`
	SubmittedBy string `json:"submitted_by" validate:"omitempty,max=200"`
}

// VehiclePortalView is what the supplier portal shows for a vehicle.
type VehiclePortalView struct {
	Vehicle  models.Vehicle                `json:"vehicle"`
	Expiries []models.ExpiringCertificate `json:"expiries"`
	Updates  []models.VehicleUpdate       `json:"updates"`
}
