package dto

// SchoolRequest is the payload for creating or updating a school.
type SchoolRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Address     string `json:"address" validate:"omitempty,max=500"`
	Postcode    string `json:"postcode" validate:"omitempty,max=20"`
	Phone       string `json:"phone" validate:"omitempty,max=50"`
	ContactName string `json:"contact_name" validate:"omitempty,max=200"`
}
