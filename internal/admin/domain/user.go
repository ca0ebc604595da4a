package domain

import "time"

type User struct {
	ID           string
	Username     string
	Email        string
	FullName     string
	PasswordHash string // argon2 encoded
	Role         string // "admin" or "user"
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
