package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang/snappy"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bionetlab/netcontrol/pkg/analysis"
)

// PGStore persists analyses in PostgreSQL. Each progress write is a
// single-row upsert, so concurrent pollers read either the previous or
// the new snapshot, never a mix.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore connects to PostgreSQL and creates the schema if needed
func NewPGStore(ctx context.Context, databaseURL string) (*PGStore, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	s := &PGStore{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return s, nil
}

func (s *PGStore) migrate(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS analyses (
			id             TEXT PRIMARY KEY,
			algorithm      TEXT NOT NULL,
			status         TEXT NOT NULL,
			iteration      INTEGER NOT NULL DEFAULT 0,
			no_improvement INTEGER NOT NULL DEFAULT 0,
			elapsed_ms     BIGINT NOT NULL DEFAULT 0,
			best_drivers   BIGINT[] NOT NULL DEFAULT '{}',
			best_coverage  DOUBLE PRECISION NOT NULL DEFAULT 0,
			started_at     TIMESTAMPTZ,
			ended_at       TIMESTAMPTZ
		);

		CREATE TABLE IF NOT EXISTS analysis_log (
			id          BIGSERIAL PRIMARY KEY,
			analysis_id TEXT NOT NULL,
			logged_at   TIMESTAMPTZ NOT NULL,
			message     BYTEA NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_analysis_log_analysis
			ON analysis_log (analysis_id, id);
	`
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// Ping checks database connectivity
func (s *PGStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the connection pool
func (s *PGStore) Close() error {
	s.pool.Close()
	return nil
}

// SaveProgress upserts the analysis row in one statement
func (s *PGStore) SaveProgress(ctx context.Context, snap analysis.Snapshot) error {
	query := `
		INSERT INTO analyses
			(id, algorithm, status, iteration, no_improvement, elapsed_ms,
			 best_drivers, best_coverage, started_at, ended_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			status         = EXCLUDED.status,
			iteration      = EXCLUDED.iteration,
			no_improvement = EXCLUDED.no_improvement,
			elapsed_ms     = EXCLUDED.elapsed_ms,
			best_drivers   = EXCLUDED.best_drivers,
			best_coverage  = EXCLUDED.best_coverage,
			ended_at       = EXCLUDED.ended_at
	`

	drivers := make([]int64, len(snap.BestDrivers))
	for i, d := range snap.BestDrivers {
		drivers[i] = int64(d)
	}

	var endedAt *time.Time
	if !snap.EndedAt.IsZero() {
		endedAt = &snap.EndedAt
	}

	_, err := s.pool.Exec(ctx, query,
		snap.ID,
		string(snap.Algorithm),
		string(snap.Status),
		snap.Iteration,
		snap.NoImprovement,
		snap.Elapsed.Milliseconds(),
		drivers,
		snap.BestCoverage,
		snap.StartedAt,
		endedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save progress: %w", err)
	}
	return nil
}

// AppendLog inserts one log row. Messages are snappy-compressed; operator
// logs for long genetic runs repeat heavily and compress well.
func (s *PGStore) AppendLog(ctx context.Context, analysisID string, entry analysis.LogEntry) error {
	query := `
		INSERT INTO analysis_log (analysis_id, logged_at, message)
		VALUES ($1, $2, $3)
	`
	_, err := s.pool.Exec(ctx, query, analysisID, entry.Time, snappy.Encode(nil, []byte(entry.Message)))
	if err != nil {
		return fmt.Errorf("failed to append log: %w", err)
	}
	return nil
}

// GetSnapshot returns the latest stored snapshot for the analysis
func (s *PGStore) GetSnapshot(ctx context.Context, analysisID string) (analysis.Snapshot, error) {
	query := `
		SELECT id, algorithm, status, iteration, no_improvement, elapsed_ms,
		       best_drivers, best_coverage, started_at, ended_at
		FROM analyses
		WHERE id = $1
	`

	var (
		snap      analysis.Snapshot
		algorithm string
		status    string
		elapsedMS int64
		drivers   []int64
		startedAt *time.Time
		endedAt   *time.Time
	)

	err := s.pool.QueryRow(ctx, query, analysisID).Scan(
		&snap.ID,
		&algorithm,
		&status,
		&snap.Iteration,
		&snap.NoImprovement,
		&elapsedMS,
		&drivers,
		&snap.BestCoverage,
		&startedAt,
		&endedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return analysis.Snapshot{}, ErrNotFound
	}
	if err != nil {
		return analysis.Snapshot{}, fmt.Errorf("failed to get snapshot: %w", err)
	}

	snap.Algorithm = analysis.Algorithm(algorithm)
	snap.Status = analysis.Status(status)
	snap.Elapsed = time.Duration(elapsedMS) * time.Millisecond
	snap.BestDrivers = make([]uint64, len(drivers))
	for i, d := range drivers {
		snap.BestDrivers[i] = uint64(d)
	}
	if startedAt != nil {
		snap.StartedAt = *startedAt
	}
	if endedAt != nil {
		snap.EndedAt = *endedAt
	}
	return snap, nil
}

// GetLog returns the ordered log of one analysis
func (s *PGStore) GetLog(ctx context.Context, analysisID string) ([]analysis.LogEntry, error) {
	if _, err := s.GetSnapshot(ctx, analysisID); err != nil {
		return nil, err
	}

	query := `
		SELECT logged_at, message
		FROM analysis_log
		WHERE analysis_id = $1
		ORDER BY id
	`
	rows, err := s.pool.Query(ctx, query, analysisID)
	if err != nil {
		return nil, fmt.Errorf("failed to read log: %w", err)
	}
	defer rows.Close()

	var entries []analysis.LogEntry
	for rows.Next() {
		var (
			entry      analysis.LogEntry
			compressed []byte
		)
		if err := rows.Scan(&entry.Time, &compressed); err != nil {
			return nil, fmt.Errorf("failed to scan log row: %w", err)
		}
		message, err := snappy.Decode(nil, compressed)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress log message: %w", err)
		}
		entry.Message = string(message)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// ListSnapshots returns the latest snapshot of every analysis, newest first
func (s *PGStore) ListSnapshots(ctx context.Context) ([]analysis.Snapshot, error) {
	query := `
		SELECT id FROM analyses ORDER BY started_at DESC NULLS LAST
	`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan analysis id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]analysis.Snapshot, 0, len(ids))
	for _, id := range ids {
		snap, err := s.GetSnapshot(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, nil
}
