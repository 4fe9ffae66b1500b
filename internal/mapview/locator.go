package mapview

import (
	"context"

	"fridgemap/internal/models"
)

// StaticLocator reports a fixed position, e.g. one given on the command line.
type StaticLocator struct {
	Position models.Coordinates
}

// Locate returns Position.
func (l StaticLocator) Locate(context.Context) (models.Coordinates, error) {
	return l.Position, nil
}

// DeniedLocator behaves like a user who refuses to share a location.
type DeniedLocator struct{}

// Locate always fails with ErrLocationDenied.
func (DeniedLocator) Locate(context.Context) (models.Coordinates, error) {
	return models.Coordinates{}, ErrLocationDenied
}
