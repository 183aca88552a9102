package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

var _ SourceRepository = (*PostgresSourceRepository)(nil)

// PostgresSourceRepository handles database operations for feed sources
type PostgresSourceRepository struct {
	db *DB
}

func NewSourceRepository(db *DB) *PostgresSourceRepository {
	return &PostgresSourceRepository{db: db}
}

func (r *PostgresSourceRepository) UpsertSource(ctx context.Context, name, url, feedType string, fetchInterval int, enabled bool, config []byte) (string, error) {
	if len(config) == 0 {
		config = []byte("{}")
	}

	var id string
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO sources (name, url, feed_type, fetch_interval, enabled, config)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (name) DO UPDATE SET
			url = EXCLUDED.url,
			feed_type = EXCLUDED.feed_type,
			fetch_interval = EXCLUDED.fetch_interval,
			enabled = EXCLUDED.enabled,
			config = EXCLUDED.config,
			updated_at = NOW()
		RETURNING id
	`, name, url, feedType, fetchInterval, enabled, config).Scan(&id)

	if err != nil {
		return "", fmt.Errorf("failed to upsert source: %w", err)
	}

	return id, nil
}

func (r *PostgresSourceRepository) GetSource(ctx context.Context, name string) (*Source, error) {
	row := r.db.QueryRowContext(ctx, sourceSelectColumns+` WHERE name = $1`, name)

	source, err := scanSource(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("source %q: %w", name, ErrSourceNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get source: %w", err)
	}

	return source, nil
}

func (r *PostgresSourceRepository) GetActiveSources(ctx context.Context) ([]Source, error) {
	rows, err := r.db.QueryContext(ctx, sourceSelectColumns+` WHERE enabled = true ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to get active sources: %w", err)
	}
	defer rows.Close()

	return collectSources(rows)
}

func (r *PostgresSourceRepository) GetDueSources(ctx context.Context, cutoff time.Time) ([]Source, error) {
	rows, err := r.db.QueryContext(ctx, sourceSelectColumns+`
		WHERE enabled = true
		  AND (last_fetched_at IS NULL OR last_fetched_at < $1)
		ORDER BY name
	`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to get due sources: %w", err)
	}
	defer rows.Close()

	return collectSources(rows)
}

func (r *PostgresSourceRepository) RecordFetchAttempt(ctx context.Context, sourceID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE sources
		SET last_fetched_at = NOW(), updated_at = NOW()
		WHERE id = $1
	`, sourceID)

	if err != nil {
		return fmt.Errorf("failed to record fetch attempt: %w", err)
	}

	return nil
}

func (r *PostgresSourceRepository) RecordSuccess(ctx context.Context, sourceID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE sources
		SET last_success_at = NOW(), consecutive_failures = 0, updated_at = NOW()
		WHERE id = $1
	`, sourceID)

	if err != nil {
		return fmt.Errorf("failed to record success: %w", err)
	}

	return nil
}

func (r *PostgresSourceRepository) RecordFailure(ctx context.Context, sourceID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE sources
		SET consecutive_failures = consecutive_failures + 1, updated_at = NOW()
		WHERE id = $1
	`, sourceID)

	if err != nil {
		return fmt.Errorf("failed to record failure: %w", err)
	}

	return nil
}

func (r *PostgresSourceRepository) GetSourceCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sources").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get source count: %w", err)
	}
	return count, nil
}

const sourceSelectColumns = `
	SELECT id, name, url, feed_type, enabled, fetch_interval,
	       last_fetched_at, last_success_at, consecutive_failures,
	       config, created_at, updated_at
	FROM sources`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSource(row rowScanner) (*Source, error) {
	var source Source
	err := row.Scan(
		&source.ID, &source.Name, &source.URL, &source.FeedType,
		&source.Enabled, &source.FetchInterval,
		&source.LastFetchedAt, &source.LastSuccessAt, &source.ConsecutiveFailures,
		&source.Config, &source.CreatedAt, &source.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &source, nil
}

func collectSources(rows *sql.Rows) ([]Source, error) {
	var sources []Source
	for rows.Next() {
		source, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		sources = append(sources, *source)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating source rows: %w", err)
	}

	return sources, nil
}
