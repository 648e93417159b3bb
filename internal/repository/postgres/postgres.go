package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/citytwin/backend/internal/domain"
)

// PostgresRepository implements domain.RunRepository
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// SaveRun persists a finished simulation run to PostgreSQL. The result is
// stored as JSONB since it is a plain nested record.
func (r *PostgresRepository) SaveRun(ctx context.Context, run *domain.SimulationRun) error {
	var result []byte
	if run.Result != nil {
		var err error
		result, err = json.Marshal(run.Result)
		if err != nil {
			return fmt.Errorf("postgres: failed to encode run result: %w", err)
		}
	}

	query := `
		INSERT INTO simulation_runs (
			id, city, policy, status, error, result, created_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			error = EXCLUDED.error,
			result = EXCLUDED.result,
			completed_at = EXCLUDED.completed_at
	`

	// Nullable error column
	var runErr interface{}
	if run.Error != "" {
		runErr = run.Error
	}

	_, err := r.pool.Exec(ctx, query,
		run.ID, run.City, run.Policy, run.Status, runErr, result,
		run.CreatedAt, run.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to save simulation run: %w", err)
	}

	return nil
}

// GetRun retrieves a persisted run by ID
func (r *PostgresRepository) GetRun(ctx context.Context, id string) (*domain.SimulationRun, error) {
	query := `
		SELECT id, city, policy, status, COALESCE(error, ''), result, created_at, completed_at
		FROM simulation_runs
		WHERE id = $1
	`

	run, err := scanRun(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("postgres: run %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query run: %w", err)
	}
	return run, nil
}

// ListRuns retrieves runs created within a time range, newest first
func (r *PostgresRepository) ListRuns(ctx context.Context, from, to time.Time) ([]*domain.SimulationRun, error) {
	query := `
		SELECT id, city, policy, status, COALESCE(error, ''), result, created_at, completed_at
		FROM simulation_runs
		WHERE created_at BETWEEN $1 AND $2
		ORDER BY created_at DESC
		LIMIT 100
	`

	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query runs: %w", err)
	}
	defer rows.Close()

	var results []*domain.SimulationRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan run row: %w", err)
		}
		results = append(results, run)
	}

	return results, nil
}

// Health checks database connectivity
func (r *PostgresRepository) Health(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: health check failed: %w", err)
	}
	return nil
}

func scanRun(row pgx.Row) (*domain.SimulationRun, error) {
	var run domain.SimulationRun
	var result []byte
	err := row.Scan(
		&run.ID, &run.City, &run.Policy, &run.Status, &run.Error,
		&result, &run.CreatedAt, &run.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(result) > 0 {
		if err := json.Unmarshal(result, &run.Result); err != nil {
			return nil, fmt.Errorf("decode result: %w", err)
		}
	}
	return &run, nil
}
