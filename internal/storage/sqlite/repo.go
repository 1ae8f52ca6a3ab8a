// Package sqlite implements a SQLite-backed warehouse backend using
// database/sql. It performs batched INSERTs inside a transaction; SQLite
// has no dedicated bulk-load API like Postgres COPY, but transactions keep
// performance acceptable for the volumes a local run produces. Handy for
// development and CI where no warehouse is reachable.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // cgo-free SQLite driver

	"songlake/internal/schema"
	"songlake/internal/storage"
)

// Repository is a SQLite-backed implementation of storage.Repository.
type Repository struct {
	db *sql.DB
}

// NewRepository opens a SQLite connection using the provided DSN, e.g.
//
//	"file:warehouse.db?cache=shared"
//	"warehouse.db"
func NewRepository(ctx context.Context, dsn string) (*Repository, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("sqlite: DSN must not be empty")
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	return &Repository{db: db}, nil
}

// Reset drops and recreates the destination table.
func (r *Repository) Reset(ctx context.Context, t schema.Table) error {
	if _, err := r.db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteIdent(t.Name))); err != nil {
		return fmt.Errorf("sqlite: drop %s: %w", t.Name, err)
	}
	if _, err := r.db.ExecContext(ctx, storage.CreateTableSQL(t, typeFor, quoteIdent)); err != nil {
		return fmt.Errorf("sqlite: create %s: %w", t.Name, err)
	}
	return nil
}

// CopyFrom inserts the batch inside a single transaction using a prepared
// statement.
func (r *Repository) CopyFrom(ctx context.Context, t schema.Table, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	columns := t.ColumnNames()
	stmtSQL := storage.InsertSQL(t, quoteIdent, func(int) string { return "?" })

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, stmtSQL)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("sqlite: prepare insert: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for _, row := range rows {
		if len(row) != len(columns) {
			_ = tx.Rollback()
			return inserted, fmt.Errorf("sqlite: CopyFrom: row length %d != columns length %d", len(row), len(columns))
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			_ = tx.Rollback()
			return inserted, fmt.Errorf("sqlite: insert into %s: %w", t.Name, err)
		}
		inserted++
	}
	if err := tx.Commit(); err != nil {
		return inserted, fmt.Errorf("sqlite: commit: %w", err)
	}
	return inserted, nil
}

// Finalize is a no-op for SQLite.
func (r *Repository) Finalize(ctx context.Context, t schema.Table) error {
	return nil
}

// Close closes the underlying database.
func (r *Repository) Close() {
	_ = r.db.Close()
}

func typeFor(ct schema.ColumnType) string {
	switch ct {
	case schema.TypeInt, schema.TypeBigInt:
		return "INTEGER"
	case schema.TypeDouble:
		return "REAL"
	case schema.TypeTimestamp:
		return "TIMESTAMP"
	default:
		return "TEXT"
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// init registers the "sqlite" backend with the storage factory.
func init() {
	storage.Register("sqlite", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return NewRepository(ctx, cfg.DSN)
	})
}
