package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/sirupsen/logrus"

	"github.com/citytwin/backend/internal/domain"
)

var (
	// ErrRunNotFound indicates an unknown run ID.
	ErrRunNotFound = errors.New("simulation run not found")
	// ErrRunNotQueued indicates a run that has already been streamed.
	ErrRunNotQueued = errors.New("simulation run already started")
)

// SimulationService owns the simulation jobs: creation, streaming execution,
// and persistence of finished runs. Runs are independent; each owns its own
// network copies and only shares the read-only enriched baseline.
//
// The registry stores immutable snapshots: a *SimulationRun is never mutated
// after it is published to the map. Status transitions replace the stored
// snapshot with a fresh copy, so concurrent readers always see a consistent
// record.
type SimulationService struct {
	pipeline *PipelineService
	repo     domain.RunRepository
	runs     *xsync.MapOf[string, *domain.SimulationRun]
	log      *logrus.Entry

	wgBg sync.WaitGroup // tracks background persistence for graceful shutdown
}

// NewSimulationService creates a new simulation service
func NewSimulationService(pipeline *PipelineService, repo domain.RunRepository) *SimulationService {
	return &SimulationService{
		pipeline: pipeline,
		repo:     repo,
		runs:     xsync.NewMapOf[string, *domain.SimulationRun](),
		log:      logrus.WithField("service", "simulation"),
	}
}

// Create registers a new queued run for a policy description.
func (s *SimulationService) Create(policy, city string) (*domain.SimulationRun, error) {
	if strings.TrimSpace(policy) == "" {
		return nil, fmt.Errorf("simulation: policy description cannot be empty")
	}
	run := &domain.SimulationRun{
		ID:        uuid.NewString(),
		City:      city,
		Policy:    policy,
		Status:    domain.RunQueued,
		CreatedAt: time.Now(),
	}
	s.runs.Store(run.ID, run)
	s.log.Infof("simulation run created: %s", run.ID)
	return run, nil
}

// Get returns the current snapshot of a run by ID.
func (s *SimulationService) Get(id string) (*domain.SimulationRun, bool) {
	return s.runs.Load(id)
}

// Stream executes a queued run and returns its progress events. The
// queued-to-running transition happens atomically under the map entry lock,
// so concurrent stream requests for the same run start it exactly once.
// Terminal events publish a finished snapshot and persist it in a tracked
// background goroutine.
func (s *SimulationService) Stream(ctx context.Context, id string) (<-chan domain.ProgressEvent, error) {
	var claimed bool
	run, ok := s.runs.Compute(id, func(old *domain.SimulationRun, loaded bool) (*domain.SimulationRun, bool) {
		claimed = false
		if !loaded {
			return nil, true
		}
		if old.Status != domain.RunQueued {
			return old, false
		}
		next := *old
		next.Status = domain.RunRunning
		claimed = true
		return &next, false
	})
	if !ok {
		return nil, fmt.Errorf("simulation: run %s: %w", id, ErrRunNotFound)
	}
	if !claimed {
		return nil, fmt.Errorf("simulation: run %s is %s: %w", id, run.Status, ErrRunNotQueued)
	}

	out := make(chan domain.ProgressEvent, 8)
	go func() {
		defer close(out)
		for event := range s.pipeline.Run(ctx, run.Policy, run.City) {
			switch event.Type {
			case domain.EventComplete:
				finished := s.finish(run, domain.RunCompleted, func(r *domain.SimulationRun) {
					if result, ok := event.Data.(*domain.RunResult); ok {
						r.Result = result
					}
				})
				s.persist(finished)
			case domain.EventError:
				finished := s.finish(run, domain.RunError, func(r *domain.SimulationRun) {
					r.Error = event.Message
				})
				s.persist(finished)
			}
			out <- event
		}
	}()
	return out, nil
}

// finish publishes a terminal snapshot of the run.
func (s *SimulationService) finish(run *domain.SimulationRun, status string, fill func(*domain.SimulationRun)) *domain.SimulationRun {
	next := *run
	fill(&next)
	now := time.Now()
	next.CompletedAt = &now
	next.Status = status
	s.runs.Store(next.ID, &next)
	return &next
}

// persist saves a finished run without blocking the event stream.
func (s *SimulationService) persist(run *domain.SimulationRun) {
	s.wgBg.Add(1)
	go func() {
		defer s.wgBg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.repo.SaveRun(ctx, run); err != nil {
			s.log.Errorf("failed to save run %s: %v", run.ID, err)
		}
	}()
}

// WaitBackground blocks until all background save goroutines complete.
// Call during graceful shutdown to avoid dropped writes.
func (s *SimulationService) WaitBackground() {
	s.wgBg.Wait()
}
