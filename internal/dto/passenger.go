package dto

// ParentContactRequest is a parent or guardian submitted with a passenger.
type ParentContactRequest struct {
	FullName     string `json:"full_name" validate:"required,max=200"`
	Relationship string `json:"relationship" validate:"omitempty,max=50"`
	Phone        string `json:"phone" validate:"omitempty,max=50"`
	Email        string `json:"email" validate:"omitempty,email"`
	Address      string `json:"address" validate:"omitempty,max=500"`
	IsPrimary    bool   `json:"is_primary"`
}

// PassengerRequest is the payload for creating or updating a passenger.
// A nil Contacts list on update leaves existing contacts untouched.
type PassengerRequest struct {
	FullName      string                 `json:"full_name" validate:"required,max=200"`
	DateOfBirth   *string                `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Address       string                 `json:"address" validate:"omitempty,max=500"`
	Postcode      string                 `json:"postcode" validate:"omitempty,max=20"`
	SchoolID      *string                `json:"school_id"`
	MobilityNeeds string                 `json:"mobility_needs"`
	Notes         string                 `json:"notes"`
	Active        *bool                  `json:"active"`
	Contacts      []ParentContactRequest `json:"contacts" validate:"omitempty,dive"`
}
