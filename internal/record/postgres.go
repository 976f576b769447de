package record

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"solana-lottery/internal/domain"
)

// Pool wraps pgxpool.Pool for dependency injection.
type Pool struct {
	*pgxpool.Pool
}

// NewPool creates a new Postgres connection pool.
func NewPool(ctx context.Context, dsn string) (*Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// Close closes the connection pool.
func (p *Pool) Close() {
	p.Pool.Close()
}

// PostgresRecorder appends run results to the lottery_runs table so past
// draws stay queryable after the history file is overwritten.
type PostgresRecorder struct {
	pool *Pool
}

// NewPostgresRecorder creates a PostgresRecorder.
func NewPostgresRecorder(pool *Pool) *PostgresRecorder {
	return &PostgresRecorder{pool: pool}
}

// Compile-time interface check.
var _ Recorder = (*PostgresRecorder)(nil)

// Record inserts one run.
func (r *PostgresRecorder) Record(ctx context.Context, result *domain.RunResult) error {
	winners, err := json.Marshal(result.Winners)
	if err != nil {
		return fmt.Errorf("marshal winners: %w", err)
	}
	batches, err := json.Marshal(result.Batches)
	if err != nil {
		return fmt.Errorf("marshal batches: %w", err)
	}

	query := `
		INSERT INTO lottery_runs (
			run_at, endpoint, holder_count, overall_status, winners, batches
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err = r.pool.Exec(ctx, query,
		result.Timestamp,
		result.Endpoint,
		result.HolderCount,
		string(result.Overall),
		winners,
		batches,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// LatestRun returns the most recent recorded run, or nil when the table is
// empty. Used by the status frontend's backing queries.
func (r *PostgresRecorder) LatestRun(ctx context.Context) (*domain.RunResult, error) {
	query := `
		SELECT run_at, endpoint, holder_count, overall_status, winners, batches
		FROM lottery_runs
		ORDER BY run_at DESC
		LIMIT 1
	`

	var (
		result  domain.RunResult
		overall string
		winners []byte
		batches []byte
	)
	row := r.pool.QueryRow(ctx, query)
	if err := row.Scan(&result.Timestamp, &result.Endpoint, &result.HolderCount, &overall, &winners, &batches); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query latest run: %w", err)
	}
	result.Overall = domain.OverallStatus(overall)
	if err := json.Unmarshal(winners, &result.Winners); err != nil {
		return nil, fmt.Errorf("unmarshal winners: %w", err)
	}
	if err := json.Unmarshal(batches, &result.Batches); err != nil {
		return nil, fmt.Errorf("unmarshal batches: %w", err)
	}
	return &result, nil
}
