package model

import "errors"

var (
	// User related errors
	ErrUserNotFound = errors.New("user not found")

	// Token related errors
	ErrTokenMalformed        = errors.New("token malformed")
	ErrTokenInvalidSignature = errors.New("token signature invalid")
	ErrTokenExpired          = errors.New("token expired")

	// Permission/Access related errors
	ErrUnauthorized = errors.New("unauthorized")

	// Task related errors
	ErrTaskNotFound = errors.New("task not found")
)
