package dto

// CallLogRequest is the payload for creating or updating a call log entry.
type CallLogRequest struct {
	CallDate       string  `json:"call_date" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	CallerName     string  `json:"caller_name" validate:"required,max=200"`
	CallerType     string  `json:"caller_type" validate:"omitempty,oneof=PARENT SCHOOL DRIVER ASSISTANT COUNCIL OTHER"`
	Phone          string  `json:"phone" validate:"omitempty,max=50"`
	Subject        string  `json:"subject" validate:"required,max=200"`
	Notes          string  `json:"notes"`
	RouteID        *string `json:"route_id"`
	PassengerID    *string `json:"passenger_id"`
	ActionRequired bool    `json:"action_required"`
	ActionTaken    string  `json:"action_taken"`
	FollowUpDate   *string `json:"follow_up_date" validate:"omitempty,datetime=2006-01-02"`
}

// IncidentRequest is the payload for creating or updating an incident.
type IncidentRequest struct {
	IncidentType    string  `json:"incident_type" validate:"required,max=100"`
	Severity        string  `json:"severity" validate:"required,oneof=LOW MEDIUM HIGH CRITICAL"`
	OccurredAt      string  `json:"occurred_at" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	Location        string  `json:"location" validate:"omitempty,max=500"`
	RouteID         *string `json:"route_id"`
	VehicleID       *string `json:"vehicle_id"`
	EmployeeID      *string `json:"employee_id"`
	PassengerID     *string `json:"passenger_id"`
	Description     string  `json:"description" validate:"required"`
	Status          string  `json:"status" validate:"omitempty,oneof=OPEN INVESTIGATING RESOLVED"`
	ResolutionNotes string  `json:"resolution_notes"`
}
