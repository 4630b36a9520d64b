package models

import "time"

// User is the credit-holding account behind an authenticated identity.
// Credits only change through the credit ledger.
type User struct {
	ID             string    `json:"id" db:"id"`
	Email          string    `json:"email,omitempty" db:"email"`
	Credits        int       `json:"credits" db:"credits"`
	TotalCreations int       `json:"total_creations" db:"total_creations"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}
