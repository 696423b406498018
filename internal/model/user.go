// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account. Users log in with their email;
// the integer ID is generated by the database and owns their recipes.
//
// PasswordHash is tagged json:"-" so a User can never leak the hash, even
// if a handler encodes the model directly by mistake.
type User struct {
	ID           int64     `json:"id"        db:"id"`
	Email        string    `json:"email"     db:"email"`
	Name         string    `json:"name"      db:"name"`
	PasswordHash string    `json:"-"         db:"password_hash"`
	IsActive     bool      `json:"isActive"  db:"is_active"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}
