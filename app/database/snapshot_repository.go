package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
)

var _ SnapshotRepository = (*PostgresSnapshotRepository)(nil)

// PostgresSnapshotRepository handles database operations for feed snapshots
type PostgresSnapshotRepository struct {
	db *DB
}

func NewSnapshotRepository(db *DB) *PostgresSnapshotRepository {
	return &PostgresSnapshotRepository{db: db}
}

func (r *PostgresSnapshotRepository) ExistingURLHashes(ctx context.Context, sourceID string, urlHashes []string) (map[string]bool, error) {
	existing := make(map[string]bool)
	if len(urlHashes) == 0 {
		return existing, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT url_hash FROM feed_snapshots
		WHERE source_id = $1 AND url_hash = ANY($2)
	`, sourceID, pq.Array(urlHashes))
	if err != nil {
		return nil, fmt.Errorf("failed to query existing url hashes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			return nil, fmt.Errorf("failed to scan url hash: %w", err)
		}
		existing[hash] = true
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating url hash rows: %w", err)
	}

	return existing, nil
}

// InsertSnapshots batch-inserts in one transaction. The ON CONFLICT clause
// is the storage-level backstop for the (source_id, url_hash) invariant
// under concurrent cycles; skipped rows are simply not returned.
func (r *PostgresSnapshotRepository) InsertSnapshots(ctx context.Context, snapshots []Snapshot) ([]Snapshot, error) {
	if len(snapshots) == 0 {
		return nil, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	inserted := make([]Snapshot, 0, len(snapshots))
	for _, snapshot := range snapshots {
		var id string
		var createdAt time.Time
		err := tx.QueryRowContext(ctx, `
			INSERT INTO feed_snapshots (source_id, url_hash, content_hash, minhash_signature, raw_item, status)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (source_id, url_hash) DO NOTHING
			RETURNING id, created_at
		`, snapshot.SourceID, snapshot.URLHash, snapshot.ContentHash,
			snapshot.Signature, snapshot.RawItem, StatusPending).Scan(&id, &createdAt)

		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to insert snapshot: %w", err)
		}

		snapshot.ID = id
		snapshot.Status = StatusPending
		snapshot.CreatedAt = createdAt
		inserted = append(inserted, snapshot)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit snapshot batch: %w", err)
	}

	return inserted, nil
}

func (r *PostgresSnapshotRepository) MarkCompleted(ctx context.Context, snapshotID string) error {
	return r.markTerminal(ctx, snapshotID, StatusCompleted, "")
}

func (r *PostgresSnapshotRepository) MarkDuplicate(ctx context.Context, snapshotID string) error {
	return r.markTerminal(ctx, snapshotID, StatusDuplicate, "")
}

func (r *PostgresSnapshotRepository) MarkFailed(ctx context.Context, snapshotID string, message string) error {
	return r.markTerminal(ctx, snapshotID, StatusFailed, message)
}

// markTerminal transitions a pending snapshot to a terminal status. The
// status guard in the WHERE clause keeps terminal snapshots immutable.
func (r *PostgresSnapshotRepository) markTerminal(ctx context.Context, snapshotID, status, message string) error {
	var errorMessage sql.NullString
	if message != "" {
		errorMessage = sql.NullString{String: message, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		UPDATE feed_snapshots
		SET status = $2, error_message = $3, processed_at = NOW()
		WHERE id = $1 AND status = $4
	`, snapshotID, status, errorMessage, StatusPending)

	if err != nil {
		return fmt.Errorf("failed to mark snapshot %s: %w", status, err)
	}

	return nil
}

func (r *PostgresSnapshotRepository) GetRecentSignatures(ctx context.Context, cutoff time.Time, excludeID string) ([]SignatureRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, content_hash, minhash_signature
		FROM feed_snapshots
		WHERE status = $1
		  AND created_at >= $2
		  AND id != $3
		  AND minhash_signature IS NOT NULL
	`, StatusCompleted, cutoff, excludeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent signatures: %w", err)
	}
	defer rows.Close()

	var records []SignatureRecord
	for rows.Next() {
		var record SignatureRecord
		if err := rows.Scan(&record.ID, &record.ContentHash, &record.Signature); err != nil {
			return nil, fmt.Errorf("failed to scan signature row: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating signature rows: %w", err)
	}

	return records, nil
}

func (r *PostgresSnapshotRepository) GetStatusCounts(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM feed_snapshots GROUP BY status
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get status counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[status] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status counts: %w", err)
	}

	return counts, nil
}
