package services

import "errors"

// Shared error taxonomy. The merges are deliberate: callers must not be
// able to tell an unknown user from a wrong password, or a missing task
// from another user's task.
var (
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("incorrect username or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTaskNotFound       = errors.New("task not found")
)
