// Package models holds the server-side persistent types.
package models

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is an account row. Username is stored lowercase.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}
