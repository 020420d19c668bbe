package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kiranshivaraju/contentdesk/pkg/models"
)

// PostgresStore keeps the full content snapshot in a single jsonb row.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// SaveSnapshot replaces the stored snapshot with records and bumps its version.
func (s *PostgresStore) SaveSnapshot(ctx context.Context, records []models.ContentRecord) error {
	if records == nil {
		records = []models.ContentRecord{}
	}
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	_, err = tx.Exec(ctx,
		`INSERT INTO content_snapshots (id, version, records, updated_at)
		 VALUES (1, 1, $1::jsonb, now())
		 ON CONFLICT (id) DO UPDATE
		 SET version = content_snapshots.version + 1,
		     records = EXCLUDED.records,
		     updated_at = EXCLUDED.updated_at`,
		string(payload))
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns the stored records, or an empty slice when nothing was saved yet.
func (s *PostgresStore) LoadSnapshot(ctx context.Context) ([]models.ContentRecord, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Records, nil
}

// Snapshot returns the stored snapshot with its metadata.
func (s *PostgresStore) Snapshot(ctx context.Context) (Snapshot, error) {
	var (
		snap    Snapshot
		payload []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT version, records, updated_at FROM content_snapshots WHERE id = 1`,
	).Scan(&snap.Version, &payload, &snap.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Snapshot{Records: []models.ContentRecord{}}, nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}

	if err := json.Unmarshal(payload, &snap.Records); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Records == nil {
		snap.Records = []models.ContentRecord{}
	}
	return snap, nil
}
