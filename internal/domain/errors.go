package domain

import "errors"

// Sentinel errors shared across services and repositories.
var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when the acting user may not perform the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidInput is returned when the request is invalid (e.g. empty message content, malformed start time).
	ErrInvalidInput = errors.New("invalid input")
	// ErrAlreadyJoined is returned by the participant store when the (user, proposal)
	// uniqueness constraint is violated. Services treat it as "already joined", not a failure.
	ErrAlreadyJoined = errors.New("already joined")
)

// Sentinel errors for user operations.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateUsername  = errors.New("username already taken")
	ErrDuplicateEmail     = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
