// Package models holds server-only records that never leave the server.
package models

import "time"

// User is an account that owns diary entries.
type User struct {
	ID           string
	UserName     string
	PasswordHash []byte
	Salt         []byte
	CreatedAt    time.Time
}
