package models

import "time"

// Passenger is a child or adult transported on routes.
type Passenger struct {
	ID            string     `db:"id" json:"id"`
	FullName      string     `db:"full_name" json:"full_name"`
	DateOfBirth   *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Address       string     `db:"address" json:"address"`
	Postcode      string     `db:"postcode" json:"postcode"`
	SchoolID      *string    `db:"school_id" json:"school_id,omitempty"`
	MobilityNeeds string     `db:"mobility_needs" json:"mobility_needs"`
	Notes         string     `db:"notes" json:"notes"`
	Active        bool       `db:"active" json:"active"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// ParentContact is a parent or guardian linked to one or more passengers.
type ParentContact struct {
	ID           string    `db:"id" json:"id"`
	FullName     string    `db:"full_name" json:"full_name"`
	Relationship string    `db:"relationship" json:"relationship"`
	Phone        string    `db:"phone" json:"phone"`
	Email        string    `db:"email" json:"email"`
	Address      string    `db:"address" json:"address"`
	IsPrimary    bool      `db:"is_primary" json:"is_primary"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// PassengerDetail is a passenger with their contacts.
type PassengerDetail struct {
	Passenger
	SchoolName *string         `db:"school_name" json:"school_name,omitempty"`
	Contacts   []ParentContact `json:"contacts"`
}

// PassengerFilter captures list parameters for passengers.
type PassengerFilter struct {
	SchoolID string
	Active   *bool
	ListOptions
}
