package model

import (
	"errors"
	"time"
)

// User is an account that can log in and act on stock.
type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	CreatedAt    time.Time  `json:"created_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// Roles.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleUser    = "user"
)

// RoleAtLeast checks if role meets or exceeds the minimum required role.
func RoleAtLeast(role, minimum string) bool {
	levels := map[string]int{
		RoleAdmin:   3,
		RoleManager: 2,
		RoleUser:    1,
	}
	have, ok := levels[role]
	if !ok {
		return false
	}
	want, ok := levels[minimum]
	if !ok {
		return false
	}
	return have >= want
}

// MinPasswordLength is the shortest password accepted for an account.
const MinPasswordLength = 8

// ValidatePassword checks password strength requirements.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return errors.New("password must be at least 8 characters")
	}
	return nil
}
