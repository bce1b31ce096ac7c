package models

import "time"

// School is a destination served by routes.
type School struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Address     string    `db:"address" json:"address"`
	Postcode    string    `db:"postcode" json:"postcode"`
	Phone       string    `db:"phone" json:"phone"`
	ContactName string    `db:"contact_name" json:"contact_name"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
