package ledger

import (
	"context"
	_ "embed"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// schemaSQL is embedded so the ledger can self-bootstrap its table.
//
//go:embed schema.sql
var schemaSQL string

// Postgres is a durable delivery ledger backed by a unique constraint.
//
// Unlike Memory it survives restarts, but it is still a single-writer,
// best-effort record: there is no cross-instance coordination beyond what
// the constraint provides, and no eviction.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a connection pool and fails fast if the database is
// unreachable.
func NewPostgres(dbURL string) (*Postgres, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Postgres{pool: pool}, nil
}

// EnsureSchema applies schema.sql. Safe to run multiple times.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, schemaSQL)
	return err
}

// Ping validates database connectivity for the health endpoint.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// CheckAndRecord implements Ledger. Atomicity comes from the primary-key
// constraint: the insert either lands or conflicts, never both.
func (p *Postgres) CheckAndRecord(ctx context.Context, id string) (bool, error) {
	// RETURNING 1 only when inserted; duplicates return no rows.
	var one int
	err := p.pool.QueryRow(ctx, `
		INSERT INTO processed_deliveries(delivery_id)
		VALUES ($1)
		ON CONFLICT (delivery_id) DO NOTHING
		RETURNING 1
	`, id).Scan(&one)

	if err == nil {
		return true, nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return false, err
}

// Size implements Ledger.
func (p *Postgres) Size(ctx context.Context) (int, error) {
	var count int
	err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM processed_deliveries`).Scan(&count)
	return count, err
}

// Close shuts down the connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}
