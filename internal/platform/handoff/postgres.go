package handoff

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pujar/labbill/internal/domain/billing"
	"github.com/pujar/labbill/internal/platform/db"
)

// pgRow represents a single row returned by QueryRow.
type pgRow interface {
	Scan(dest ...any) error
}

// pgConn is the subset of *pgxpool.Pool the store needs.
type pgConn interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgRow
	Exec(ctx context.Context, sql string, args ...any) error
	Ping(ctx context.Context) error
}

// PostgresStore keeps slots in the billing_handoff table. A NULL expires_at
// never expires; expired rows are invisible to Get and removed by Purge.
type PostgresStore struct {
	db  pgConn
	now func() time.Time
}

func NewPostgresStore(db pgConn) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

func NewPostgresStoreFromPool(pool *pgxpool.Pool) *PostgresStore {
	return NewPostgresStore(&poolConn{pool: pool})
}

func (s *PostgresStore) Put(ctx context.Context, key string, rec billing.PatientRecord, ttl time.Duration) error {
	data, err := Encode(rec)
	if err != nil {
		return err
	}
	var expiresAt *time.Time
	if ttl > 0 {
		t := s.now().Add(ttl)
		expiresAt = &t
	}

	const query = `INSERT INTO billing_handoff (key, payload, expires_at)
VALUES ($1, $2, $3)
ON CONFLICT (key) DO UPDATE SET payload    = EXCLUDED.payload,
                                expires_at = EXCLUDED.expires_at,
                                updated_at = now()`

	if err := s.db.Exec(ctx, query, key, data, expiresAt); err != nil {
		return fmt.Errorf("put handoff slot: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) (billing.PatientRecord, error) {
	const query = `SELECT payload FROM billing_handoff
WHERE key = $1 AND (expires_at IS NULL OR expires_at > now())`

	var data []byte
	if err := s.db.QueryRow(ctx, query, key).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return billing.PatientRecord{}, ErrNotFound
		}
		return billing.PatientRecord{}, fmt.Errorf("get handoff slot: %w", err)
	}
	return Decode(data)
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	if err := s.db.Exec(ctx, `DELETE FROM billing_handoff WHERE key = $1`, key); err != nil {
		return fmt.Errorf("delete handoff slot: %w", err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Purge deletes expired rows.
func (s *PostgresStore) Purge(ctx context.Context) error {
	if err := s.db.Exec(ctx, `DELETE FROM billing_handoff WHERE expires_at <= now()`); err != nil {
		return fmt.Errorf("purge handoff slots: %w", err)
	}
	return nil
}

// PoolStats reports connection pool statistics, or nil when the store does
// not sit on a pgx pool.
func (s *PostgresStore) PoolStats() *db.PoolStats {
	if pc, ok := s.db.(*poolConn); ok {
		return db.GetPoolStats(pc.pool)
	}
	return nil
}

type poolConn struct {
	pool *pgxpool.Pool
}

func (c *poolConn) QueryRow(ctx context.Context, sql string, args ...any) pgRow {
	return c.pool.QueryRow(ctx, sql, args...)
}

func (c *poolConn) Exec(ctx context.Context, sql string, args ...any) error {
	_, err := c.pool.Exec(ctx, sql, args...)
	return err
}

func (c *poolConn) Ping(ctx context.Context) error {
	return c.pool.Ping(ctx)
}
