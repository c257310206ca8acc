// Package common defines sentinel errors and constants shared by the diary
// client and server. Callers should match errors with errors.Is.
package common

import "errors"

var (
	// Gateway errors.
	ErrNotAuthenticated = errors.New("user is not logged in")
	ErrNotFound         = errors.New("diary does not exist")

	// Auth errors.
	ErrUnauthorized  = errors.New("unauthorized")
	ErrInvalidToken  = errors.New("invalid token")
	ErrTokenExpired  = errors.New("token expired")
	ErrAlreadyExists = errors.New("already exists")

	// Validation errors.
	ErrInvalidMood     = errors.New("invalid mood")
	ErrInvalidArgument = errors.New("invalid argument")

	ErrInternal = errors.New("internal error")
)
