package postgres

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/citytwin/backend/internal/domain"
)

// MockRepository implements domain.RunRepository in memory for testing/demo
// mode. Runs survive only for the process lifetime.
type MockRepository struct {
	runs *xsync.MapOf[string, *domain.SimulationRun]
}

// NewMockRepository creates a new in-memory repository
func NewMockRepository() *MockRepository {
	return &MockRepository{
		runs: xsync.NewMapOf[string, *domain.SimulationRun](),
	}
}

// SaveRun stores the run in memory
func (r *MockRepository) SaveRun(ctx context.Context, run *domain.SimulationRun) error {
	r.runs.Store(run.ID, run)
	return nil
}

// GetRun retrieves a stored run by ID
func (r *MockRepository) GetRun(ctx context.Context, id string) (*domain.SimulationRun, error) {
	run, ok := r.runs.Load(id)
	if !ok {
		return nil, fmt.Errorf("mock: run %s not found", id)
	}
	return run, nil
}

// ListRuns returns stored runs created within the range, newest first
func (r *MockRepository) ListRuns(ctx context.Context, from, to time.Time) ([]*domain.SimulationRun, error) {
	var results []*domain.SimulationRun
	r.runs.Range(func(_ string, run *domain.SimulationRun) bool {
		if !run.CreatedAt.Before(from) && !run.CreatedAt.After(to) {
			results = append(results, run)
		}
		return true
	})
	sort.Slice(results, func(i, j int) bool {
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})
	return results, nil
}

// Health always returns nil in mock mode
func (r *MockRepository) Health(ctx context.Context) error {
	return nil
}
