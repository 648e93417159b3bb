package domain

import (
	"context"
	"time"
)

// RunRepository defines the interface for simulation run persistence.
// This follows the Dependency Inversion Principle - domain defines the interface
type RunRepository interface {
	// SaveRun persists a finished (completed or errored) simulation run
	SaveRun(ctx context.Context, run *SimulationRun) error

	// GetRun retrieves a persisted run by ID
	GetRun(ctx context.Context, id string) (*SimulationRun, error)

	// ListRuns retrieves runs created within a time range, newest first
	ListRuns(ctx context.Context, from, to time.Time) ([]*SimulationRun, error)

	// Health checks database connectivity
	Health(ctx context.Context) error
}
