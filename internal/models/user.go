// internal/models/user.go
package models

import "time"

// User is an account row from the users table. HashedPassword never leaves
// the service layer.
type User struct {
	ID             int64     `json:"id"`
	Email          string    `json:"email"`
	Username       string    `json:"username"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	PhoneNumber    string    `json:"phoneNumber"`
	HashedPassword string    `json:"-"`
	CreatedAt      time.Time `json:"createdAt"`
}
