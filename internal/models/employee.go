package models

import "time"

// EmployeeRole describes an employee's job.
type EmployeeRole string

const (
	EmployeeDriver             EmployeeRole = "DRIVER"
	EmployeePassengerAssistant EmployeeRole = "PASSENGER_ASSISTANT"
	EmployeeOffice             EmployeeRole = "OFFICE"
	EmployeeMechanic           EmployeeRole = "MECHANIC"
)

// EmploymentStatus tracks whether an employee is currently engaged.
type EmploymentStatus string

const (
	EmploymentActive    EmploymentStatus = "ACTIVE"
	EmploymentOnLeave   EmploymentStatus = "ON_LEAVE"
	EmploymentSuspended EmploymentStatus = "SUSPENDED"
	EmploymentLeft      EmploymentStatus = "LEFT"
)

// Employee is the identity record shared by drivers, assistants and office staff.
// CanWork is maintained outside this service and is stored as supplied.
type Employee struct {
	ID               string           `db:"id" json:"id"`
	FullName         string           `db:"full_name" json:"full_name"`
	Role             EmployeeRole     `db:"role" json:"role"`
	EmploymentStatus EmploymentStatus `db:"employment_status" json:"employment_status"`
	CanWork          bool             `db:"can_work" json:"can_work"`
	Phone            string           `db:"phone" json:"phone"`
	Email            string           `db:"email" json:"email"`
	Address          string           `db:"address" json:"address"`
	Postcode         string           `db:"postcode" json:"postcode"`
	HomeLatitude     *float64         `db:"home_latitude" json:"home_latitude,omitempty"`
	HomeLongitude    *float64         `db:"home_longitude" json:"home_longitude,omitempty"`
	StartDate        *time.Time       `db:"start_date" json:"start_date,omitempty"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updated_at"`
}

// EmployeeFilter captures list parameters for employees.
type EmployeeFilter struct {
	Role    EmployeeRole
	Status  EmploymentStatus
	CanWork *bool
	ListOptions
}

// EmployeeDetail bundles an employee with its optional role profiles.
type EmployeeDetail struct {
	Employee
	Driver    *Driver             `json:"driver,omitempty"`
	Assistant *PassengerAssistant `json:"assistant,omitempty"`
}

// Driver holds the driver specific certificate and checklist fields.
type Driver struct {
	EmployeeID           string `db:"employee_id" json:"employee_id"`
	TASBadgeNumber       string `db:"tas_badge_number" json:"tas_badge_number"`
	TaxiBadgeNumber      string `db:"taxi_badge_number" json:"taxi_badge_number"`
	DBSNumber            string `db:"dbs_number" json:"dbs_number"`
	DrivingLicenceNumber string `db:"driving_licence_number" json:"driving_licence_number"`

	TASBadgeExpiry       *time.Time `db:"tas_badge_expiry_date" json:"tas_badge_expiry_date,omitempty"`
	TaxiBadgeExpiry      *time.Time `db:"taxi_badge_expiry_date" json:"taxi_badge_expiry_date,omitempty"`
	DBSExpiry            *time.Time `db:"dbs_expiry_date" json:"dbs_expiry_date,omitempty"`
	DrivingLicenceExpiry *time.Time `db:"driving_licence_expiry_date" json:"driving_licence_expiry_date,omitempty"`
	CPCExpiry            *time.Time `db:"cpc_expiry_date" json:"cpc_expiry_date,omitempty"`
	FirstAidExpiry       *time.Time `db:"first_aid_expiry_date" json:"first_aid_expiry_date,omitempty"`
	MedicalExpiry        *time.Time `db:"medical_expiry_date" json:"medical_expiry_date,omitempty"`
	SafeguardingExpiry   *time.Time `db:"safeguarding_expiry_date" json:"safeguarding_expiry_date,omitempty"`
	PassportExpiry       *time.Time `db:"passport_expiry_date" json:"passport_expiry_date,omitempty"`

	Training
	Checklist

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// PassengerAssistant holds assistant certificates. AutoHomeStop opts the
// assistant into automatic home stops on the routes they are assigned to.
type PassengerAssistant struct {
	EmployeeID     string `db:"employee_id" json:"employee_id"`
	TASBadgeNumber string `db:"tas_badge_number" json:"tas_badge_number"`
	DBSNumber      string `db:"dbs_number" json:"dbs_number"`

	TASBadgeExpiry     *time.Time `db:"tas_badge_expiry_date" json:"tas_badge_expiry_date,omitempty"`
	DBSExpiry          *time.Time `db:"dbs_expiry_date" json:"dbs_expiry_date,omitempty"`
	FirstAidExpiry     *time.Time `db:"first_aid_expiry_date" json:"first_aid_expiry_date,omitempty"`
	SafeguardingExpiry *time.Time `db:"safeguarding_expiry_date" json:"safeguarding_expiry_date,omitempty"`
	PassportExpiry     *time.Time `db:"passport_expiry_date" json:"passport_expiry_date,omitempty"`

	Training
	Checklist

	AutoHomeStop bool    `db:"auto_home_stop" json:"auto_home_stop"`
	QRToken      *string `db:"qr_token" json:"qr_token,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Training records completion of mandatory courses.
type Training struct {
	SafeguardingTrainingCompleted bool       `db:"safeguarding_training_completed" json:"safeguarding_training_completed"`
	SafeguardingTrainingDate      *time.Time `db:"safeguarding_training_date" json:"safeguarding_training_date,omitempty"`
	TASPATSTrainingCompleted      bool       `db:"tas_pats_training_completed" json:"tas_pats_training_completed"`
	TASPATSTrainingDate           *time.Time `db:"tas_pats_training_date" json:"tas_pats_training_date,omitempty"`
	PSATrainingCompleted          bool       `db:"psa_training_completed" json:"psa_training_completed"`
	PSATrainingDate               *time.Time `db:"psa_training_date" json:"psa_training_date,omitempty"`
}

// Checklist records which identity documents have been seen.
type Checklist struct {
	UtilityBillProvided      bool `db:"utility_bill_provided" json:"utility_bill_provided"`
	BirthCertificateProvided bool `db:"birth_certificate_provided" json:"birth_certificate_provided"`
	PhotoProvided            bool `db:"photo_provided" json:"photo_provided"`
	PrivateHireBadgeProvided bool `db:"private_hire_badge_provided" json:"private_hire_badge_provided"`
	PaperLicenceProvided     bool `db:"paper_licence_provided" json:"paper_licence_provided"`
	LogbookProvided          bool `db:"logbook_provided" json:"logbook_provided"`
}

// DriverRecord is a driver joined with the employee name.
type DriverRecord struct {
	Driver
	FullName string `db:"full_name" json:"full_name"`
	CanWork  bool   `db:"can_work" json:"can_work"`
}

// AssistantRecord is an assistant joined with the employee identity fields
// needed for home stops and the portal.
type AssistantRecord struct {
	PassengerAssistant
	FullName      string   `db:"full_name" json:"full_name"`
	CanWork       bool     `db:"can_work" json:"can_work"`
	Address       string   `db:"address" json:"address"`
	Postcode      string   `db:"postcode" json:"postcode"`
	HomeLatitude  *float64 `db:"home_latitude" json:"home_latitude,omitempty"`
	HomeLongitude *float64 `db:"home_longitude" json:"home_longitude,omitempty"`
}

// CertificateSubject flattens the driver's nine expiry fields.
func (d DriverRecord) CertificateSubject() CertificateSubject {
	return CertificateSubject{
		Kind: SubjectDriver,
		ID:   d.EmployeeID,
		Name: d.FullName,
		Certificates: []CertificateDate{
			{Type: CertTASBadge, Expiry: d.TASBadgeExpiry},
			{Type: CertTaxiBadge, Expiry: d.TaxiBadgeExpiry},
			{Type: CertDBS, Expiry: d.DBSExpiry},
			{Type: CertDrivingLicence, Expiry: d.DrivingLicenceExpiry},
			{Type: CertCPC, Expiry: d.CPCExpiry},
			{Type: CertFirstAid, Expiry: d.FirstAidExpiry},
			{Type: CertMedical, Expiry: d.MedicalExpiry},
			{Type: CertSafeguarding, Expiry: d.SafeguardingExpiry},
			{Type: CertPassport, Expiry: d.PassportExpiry},
		},
	}
}

// CertificateSubject flattens the assistant's five expiry fields.
func (a AssistantRecord) CertificateSubject() CertificateSubject {
	return CertificateSubject{
		Kind: SubjectAssistant,
		ID:   a.EmployeeID,
		Name: a.FullName,
		Certificates: []CertificateDate{
			{Type: CertTASBadge, Expiry: a.TASBadgeExpiry},
			{Type: CertDBS, Expiry: a.DBSExpiry},
			{Type: CertFirstAid, Expiry: a.FirstAidExpiry},
			{Type: CertSafeguarding, Expiry: a.SafeguardingExpiry},
			{Type: CertPassport, Expiry: a.PassportExpiry},
		},
	}
}
