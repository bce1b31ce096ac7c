package models

import "time"

// Vehicle is a fleet vehicle with its compliance dates.
type Vehicle struct {
	ID                     string     `db:"id" json:"id"`
	Registration           string     `db:"registration" json:"registration"`
	FleetNumber            string     `db:"fleet_number" json:"fleet_number"`
	Make                   string     `db:"make" json:"make"`
	Model                  string     `db:"model" json:"model"`
	Colour                 string     `db:"colour" json:"colour"`
	Seats                  int        `db:"seats" json:"seats"`
	VehicleType            string     `db:"vehicle_type" json:"vehicle_type"`
	OffRoad                bool       `db:"off_road" json:"off_road"`
	OffRoadReason          string     `db:"off_road_reason" json:"off_road_reason"`
	MOTExpiry              *time.Time `db:"mot_expiry_date" json:"mot_expiry_date,omitempty"`
	TaxExpiry              *time.Time `db:"tax_expiry_date" json:"tax_expiry_date,omitempty"`
	InsuranceExpiry        *time.Time `db:"insurance_expiry_date" json:"insurance_expiry_date,omitempty"`
	PlateExpiry            *time.Time `db:"plate_expiry_date" json:"plate_expiry_date,omitempty"`
	LOLERExpiry            *time.Time `db:"loler_expiry_date" json:"loler_expiry_date,omitempty"`
	FireExtinguisherExpiry *time.Time `db:"fire_extinguisher_expiry_date" json:"fire_extinguisher_expiry_date,omitempty"`
	FirstAidKitExpiry      *time.Time `db:"first_aid_kit_expiry_date" json:"first_aid_kit_expiry_date,omitempty"`
	QRToken                *string    `db:"qr_token" json:"qr_token,omitempty"`
	Notes                  string     `db:"notes" json:"notes"`
	CreatedAt              time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time  `db:"updated_at" json:"updated_at"`
}

// VehicleFilter captures list parameters for vehicles.
type VehicleFilter struct {
	OffRoad *bool
	Type    string
	ListOptions
}

// CertificateSubject flattens the vehicle's seven expiry fields.
func (v Vehicle) CertificateSubject() CertificateSubject {
	return CertificateSubject{
		Kind: SubjectVehicle,
		ID:   v.ID,
		Name: v.Registration,
		Certificates: []CertificateDate{
			{Type: CertMOT, Expiry: v.MOTExpiry},
			{Type: CertTax, Expiry: v.TaxExpiry},
			{Type: CertInsurance, Expiry: v.InsuranceExpiry},
			{Type: CertPlate, Expiry: v.PlateExpiry},
			{Type: CertLOLER, Expiry: v.LOLERExpiry},
			{Type: CertFireExtinguisher, Expiry: v.FireExtinguisherExpiry},
			{Type: CertFirstAidKit, Expiry: v.FirstAidKitExpiry},
		},
	}
}

// VehicleUpdateKind classifies supplier submissions.
type VehicleUpdateKind string

const (
	VehicleUpdateNote      VehicleUpdateKind = "NOTE"
	VehicleUpdateStatus    VehicleUpdateKind = "UPDATE"
	VehicleUpdateBreakdown VehicleUpdateKind = "BREAKDOWN"
)

// VehicleUpdate is a note, status update or breakdown report on a vehicle.
type VehicleUpdate struct {
	ID          string            `db:"id" json:"id"`
	VehicleID   string            `db:"vehicle_id" json:"vehicle_id"`
	Kind        VehicleUpdateKind `db:"kind" json:"kind"`
	Mileage     *int              `db:"mileage" json:"mileage,omitempty"`
	Message     string            `db:"message" json:"message"`
	SubmittedBy string            `db:"submitted_by" json:"submitted_by"`
	CreatedAt   time.Time         `db:"created_at" json:"created_at"`
}
