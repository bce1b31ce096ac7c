package dto

// EmployeeRequest is the payload for creating or updating an employee.
type EmployeeRequest struct {
	FullName         string   `json:"full_name" validate:"required,max=200"`
	Role             string   `json:"role" validate:"required,oneof=DRIVER PASSENGER_ASSISTANT OFFICE MECHANIC"`
	EmploymentStatus string   `json:"employment_status" validate:"omitempty,oneof=ACTIVE ON_LEAVE SUSPENDED LEFT"`
	CanWork          *bool    `json:"can_work"`
	Phone            string   `json:"phone" validate:"omitempty,max=50"`
	Email            string   `json:"email" validate:"omitempty,email"`
	Address          string   `json:"address" validate:"omitempty,max=500"`
	Postcode         string   `json:"postcode" validate:"omitempty,max=20"`
	HomeLatitude     *float64 `json:"home_latitude"`
	HomeLongitude    *float64 `json:"home_longitude"`
	StartDate        *string  `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
}

// TrainingRequest carries training completion flags.
type TrainingRequest struct {
	SafeguardingTrainingCompleted bool    `json:"safeguarding_training_completed"`
	SafeguardingTrainingDate      *string `json:"safeguarding_training_date" validate:"omitempty,datetime=2006-01-02"`
	TASPATSTrainingCompleted      bool    `json:"tas_pats_training_completed"`
	TASPATSTrainingDate           *string `json:"tas_pats_training_date" validate:"omitempty,datetime=2006-01-02"`
	PSATrainingCompleted          bool    `json:"psa_training_completed"`
	PSATrainingDate               *string `json:"psa_training_date" validate:"omitempty,datetime=2006-01-02"`
}

// ChecklistRequest carries the identity document checklist.
type ChecklistRequest struct {
	UtilityBillProvided      bool `json:"utility_bill_provided"`
	BirthCertificateProvided bool `json:"birth_certificate_provided"`
	PhotoProvided            bool `json:"photo_provided"`
	PrivateHireBadgeProvided bool `json:"private_hire_badge_provided"`
	PaperLicenceProvided     bool `json:"paper_licence_provided"`
	LogbookProvided          bool `json:"logbook_provided"`
}

// DriverProfileRequest upserts the driver profile of an employee.
type DriverProfileRequest struct {
	TASBadgeNumber       string  `json:"tas_badge_number" validate:"omitempty,max=50"`
	TaxiBadgeNumber      string  `json:"taxi_badge_number" validate:"omitempty,max=50"`
	DBSNumber            string  `json:"dbs_number" validate:"omitempty,max=50"`
	DrivingLicenceNumber string  `json:"driving_licence_number" validate:"omitempty,max=50"`
	TASBadgeExpiry       *string `json:"tas_badge_expiry_date" validate:"omitempty,datetime=2006-01-02"`
	TaxiBadgeExpiry      *string `json:"taxi_badge_expiry_date" validate:"omitempty,datetime=2006-01-02"`
	DBSExpiry            *string `json:"dbs_expiry_date" validate:"omitempty,datetime=2006-01-02"`
	DrivingLicenceExpiry *string `json:"driving_licence_expiry_date" validate:"omitempty,datetime=2006-01-02"`
	CPCExpiry            *string `json:"cpc_expiry_date" validate:"omitempty,datetime=2006-01-02"`
	FirstAidExpiry       *string `json:"first_aid_expiry_date" validate:"omitempty,datetime=2006-01-02"`
	MedicalExpiry        *string `json:"medical_expiry_date" validate:"omitempty,datetime=2006-01-02"`
	SafeguardingExpiry   *string `json:"safeguarding_expiry_date" validate:"omitempty,datetime=2006-01-02"`
	PassportExpiry       *string `json:"passport_expiry_date" validate:"omitempty,datetime=2006-01-02"`
	TrainingRequest
	ChecklistRequest
}

// AssistantProfileRequest upserts the passenger assistant profile.
type AssistantProfileRequest struct {
	TASBadgeNumber     string  `json:"tas_badge_number" validate:"omitempty,max=50"`
	DBSNumber          string  `json:"dbs_number" validate:"omitempty,max=50"`
	TASBadgeExpiry     *string `json:"tas_badge_expiry_date" validate:"omitempty,datetime=2006-01-02"`
	DBSExpiry          *string `json:"dbs_expiry_date" validate:"omitempty,datetime=2006-01-02"`
	FirstAidExpiry     *string `json:"first_aid_expiry_date" validate:"omitempty,datetime=2006-01-02"`
	SafeguardingExpiry *string `json:"safeguarding_expiry_date" validate:"omitempty,datetime=2006-01-02"`
	PassportExpiry     *string `json:"passport_expiry_date" validate:"omitempty,datetime=2006-01-02"`
	AutoHomeStop       bool    `json:"auto_home_stop"`
	TrainingRequest
	ChecklistRequest
}

// QRTokenResponse returns a freshly rotated portal token.
type QRTokenResponse struct {
	Token string `json:"token"`
}
