package models

import "time"

// CallLog records an inbound or outbound phone call.
type CallLog struct {
	ID             string     `db:"id" json:"id"`
	CallDate       time.Time  `db:"call_date" json:"call_date"`
	CallerName     string     `db:"caller_name" json:"caller_name"`
	CallerType     string     `db:"caller_type" json:"caller_type"`
	Phone          string     `db:"phone" json:"phone"`
	Subject        string     `db:"subject" json:"subject"`
	Notes          string     `db:"notes" json:"notes"`
	RouteID        *string    `db:"route_id" json:"route_id,omitempty"`
	PassengerID    *string    `db:"passenger_id" json:"passenger_id,omitempty"`
	ActionRequired bool       `db:"action_required" json:"action_required"`
	ActionTaken    string     `db:"action_taken" json:"action_taken"`
	FollowUpDate   *time.Time `db:"follow_up_date" json:"follow_up_date,omitempty"`
	CreatedBy      *string    `db:"created_by" json:"created_by,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// CallLogFilter captures list parameters for call logs.
type CallLogFilter struct {
	CallerType     string
	RouteID        string
	ActionRequired *bool
	From           *time.Time
	To             *time.Time
	ListOptions
}
