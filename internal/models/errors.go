package models

import "errors"

var (
	// ErrNotFound is returned when no fridge has the requested identifier.
	ErrNotFound = errors.New("fridge not found")
	// ErrValidation is returned when a fridge or an update is missing required data or is malformed.
	ErrValidation = errors.New("validation failed")
)
