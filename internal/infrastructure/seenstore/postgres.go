package seenstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"github.com/zachcoudlntcode/Visual-Warnings-Beta/internal/ports"
)

// PostgresStore persists processed alert identifiers in Postgres for
// deployments where the state must survive host replacement.
//
// Schema:
//
//	CREATE TABLE processed_alerts (
//	    alert_id     TEXT PRIMARY KEY,
//	    processed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
//	);
type PostgresStore struct {
	db  *sql.DB
	ttl time.Duration
	sb  sq.StatementBuilderType
}

var _ ports.SeenStore = (*PostgresStore)(nil)

// NewPostgresStore wires a sql.DB implementation; ttl <= 0 defaults to 24h.
func NewPostgresStore(db *sql.DB, ttl time.Duration) *PostgresStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &PostgresStore{
		db:  db,
		ttl: ttl,
		sb:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// OpenPostgresStore opens a connection from a DSN and verifies it.
func OpenPostgresStore(ctx context.Context, dsn string, ttl time.Duration) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewPostgresStore(db, ttl), nil
}

// Load returns identifiers processed within the TTL window.
func (s *PostgresStore) Load(ctx context.Context) ([]string, error) {
	if s.db == nil {
		return nil, nil
	}

	query, args, err := s.sb.
		Select("alert_id").
		From("processed_alerts").
		Where(sq.GtOrEq{"processed_at": time.Now().Add(-s.ttl)}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query processed alerts: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return ids, nil
}

// Save upserts the snapshot. Identifiers already present keep their original
// processed_at.
func (s *PostgresStore) Save(ctx context.Context, ids []string) error {
	if s.db == nil || len(ids) == 0 {
		return nil
	}

	insert := s.sb.
		Insert("processed_alerts").
		Columns("alert_id", "processed_at")

	now := time.Now()
	for _, id := range ids {
		insert = insert.Values(id, now)
	}

	query, args, err := insert.
		Suffix("ON CONFLICT (alert_id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert processed alerts: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
