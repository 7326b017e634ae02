// Package postgres provides Postgres-backed persistence implementations.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brandloom/shopify-insights/internal/insights"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ErrNotFound is returned when no snapshot row exists for a store.
var ErrNotFound = errors.New("snapshot not found")

// SnapshotStoreConfig controls the Postgres connection pool.
type SnapshotStoreConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type queryExecCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	Close()
}

// SnapshotStore writes finished BrandContext snapshots into Postgres.
type SnapshotStore struct {
	pool  queryExecCloser
	table string
}

// NewSnapshotStore creates a Postgres-backed SnapshotStore using the
// provided config.
func NewSnapshotStore(ctx context.Context, cfg SnapshotStoreConfig) (*SnapshotStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "brand_snapshots"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &SnapshotStore{pool: pool, table: table}, nil
}

// NewSnapshotStoreWithPool constructs a store from an existing pool
// (primarily for testing).
func NewSnapshotStoreWithPool(pool queryExecCloser, table string) (*SnapshotStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "brand_snapshots"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &SnapshotStore{pool: pool, table: table}, nil
}

// Close releases the underlying pool resources.
func (s *SnapshotStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// SaveSnapshot inserts a snapshot row keyed by store URL and capture time.
func (s *SnapshotStore) SaveSnapshot(ctx context.Context, snapshot insights.Snapshot) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("snapshot store is not configured")
	}
	if snapshot.ID == "" {
		return fmt.Errorf("snapshot id is required")
	}
	if snapshot.StoreURL == "" {
		return fmt.Errorf("snapshot store url is required")
	}
	contextJSON, err := json.Marshal(snapshot.Context)
	if err != nil {
		return fmt.Errorf("marshal brand context: %w", err)
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	id,
	store_url,
	captured_at,
	content_hash,
	blob_uri,
	context
) VALUES (
	$1,$2,$3,$4,$5,$6
)`, s.table)

	args := []any{
		snapshot.ID,
		snapshot.StoreURL,
		snapshot.CapturedAt,
		snapshot.ContentHash,
		snapshot.BlobURI,
		contextJSON,
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// LatestSnapshot returns the newest snapshot row for a store URL.
func (s *SnapshotStore) LatestSnapshot(ctx context.Context, storeURL string) (insights.Snapshot, error) {
	if s == nil || s.pool == nil {
		return insights.Snapshot{}, fmt.Errorf("snapshot store is not configured")
	}
	query := fmt.Sprintf(`
SELECT id, store_url, captured_at, content_hash, blob_uri, context
FROM %s
WHERE store_url = $1
ORDER BY captured_at DESC
LIMIT 1`, s.table)

	var (
		snapshot    insights.Snapshot
		contextJSON []byte
	)
	row := s.pool.QueryRow(ctx, query, storeURL)
	err := row.Scan(
		&snapshot.ID,
		&snapshot.StoreURL,
		&snapshot.CapturedAt,
		&snapshot.ContentHash,
		&snapshot.BlobURI,
		&contextJSON,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return insights.Snapshot{}, ErrNotFound
	}
	if err != nil {
		return insights.Snapshot{}, fmt.Errorf("query snapshot: %w", err)
	}
	if len(contextJSON) > 0 {
		var bc insights.BrandContext
		if err := json.Unmarshal(contextJSON, &bc); err != nil {
			return insights.Snapshot{}, fmt.Errorf("unmarshal brand context: %w", err)
		}
		snapshot.Context = &bc
	}
	return snapshot, nil
}
