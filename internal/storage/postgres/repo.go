// Package postgres implements a Postgres warehouse backend using pgx v5.
// Reset creates the destination table if needed and truncates it; CopyFrom
// uses the Postgres COPY protocol for bulk appends.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"songlake/internal/schema"
	"songlake/internal/storage"
)

// Repository is a Postgres-backed implementation of storage.Repository.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository opens a pgx pool for the given DSN.
func NewRepository(ctx context.Context, dsn string) (*Repository, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &Repository{pool: pool}, nil
}

// Reset ensures the destination table exists and empties it. TRUNCATE
// rather than DROP keeps grants and dependent views intact across runs.
func (r *Repository) Reset(ctx context.Context, t schema.Table) error {
	ddl := strings.Replace(
		storage.CreateTableSQL(t, typeFor, quoteIdent),
		"CREATE TABLE", "CREATE TABLE IF NOT EXISTS", 1,
	)
	if _, err := r.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("postgres: create %s: %w", t.Name, err)
	}
	if _, err := r.pool.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s", quoteIdent(t.Name))); err != nil {
		return fmt.Errorf("postgres: truncate %s: %w", t.Name, err)
	}
	return nil
}

// CopyFrom streams the batch via the COPY protocol.
func (r *Repository) CopyFrom(ctx context.Context, t schema.Table, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	n, err := r.pool.CopyFrom(
		ctx,
		pgx.Identifier{t.Name},
		t.ColumnNames(),
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return n, fmt.Errorf("postgres: copy into %s: %w", t.Name, err)
	}
	return n, nil
}

// Finalize is a no-op; the truncate-then-copy sequence already realizes the
// overwrite.
func (r *Repository) Finalize(ctx context.Context, t schema.Table) error {
	return nil
}

// Close closes the pool.
func (r *Repository) Close() {
	r.pool.Close()
}

func typeFor(ct schema.ColumnType) string {
	switch ct {
	case schema.TypeInt:
		return "INTEGER"
	case schema.TypeBigInt:
		return "BIGINT"
	case schema.TypeDouble:
		return "DOUBLE PRECISION"
	case schema.TypeTimestamp:
		return "TIMESTAMPTZ"
	default:
		return "TEXT"
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// init registers the "postgres" backend with the storage factory.
func init() {
	storage.Register("postgres", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return NewRepository(ctx, cfg.DSN)
	})
}
