// Package duckdb implements the columnar warehouse backend. Rows are staged
// into an embedded DuckDB table and Finalize exports the staged table as a
// partitioned parquet dataset under the configured output root:
//
//	<output>/dim_songs/year=2018/artist_id=AR1/data_0.parquet
//	<output>/dim_time/year=2018/month=11/data_0.parquet
//
// Partition values are read from the row's own year/month/artist_id
// columns by DuckDB's PARTITION_BY, so a row can never be written under a
// partition that disagrees with its fields. The export overwrites the
// dataset directory wholesale, which gives the destination the required
// full-overwrite semantics.
//
// With an empty Output the staged tables themselves are the destination
// (useful for local inspection: duckdb file DSN + any SQL client).
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2" // database/sql driver

	"songlake/internal/schema"
	"songlake/internal/storage"
)

// Repository stages rows in DuckDB and exports parquet on Finalize.
type Repository struct {
	db     *sql.DB
	output string
}

// NewRepository opens a DuckDB database. dsn may be empty (in-memory), a
// file path, or a path with driver options ("wh.db?threads=4").
func NewRepository(ctx context.Context, dsn, output string) (*Repository, error) {
	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("duckdb: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("duckdb: ping: %w", err)
	}
	return &Repository{db: db, output: output}, nil
}

// Reset drops and recreates the staging table for t.
func (r *Repository) Reset(ctx context.Context, t schema.Table) error {
	ddl := storage.CreateTableSQL(t, typeFor, quoteIdent)
	drop := fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteIdent(t.Name))
	if _, err := r.db.ExecContext(ctx, drop); err != nil {
		return fmt.Errorf("duckdb: drop %s: %w", t.Name, err)
	}
	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("duckdb: create %s: %w", t.Name, err)
	}
	return nil
}

// CopyFrom appends a batch into the staging table inside one transaction.
func (r *Repository) CopyFrom(ctx context.Context, t schema.Table, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	columns := t.ColumnNames()
	stmtSQL := storage.InsertSQL(t, quoteIdent, func(int) string { return "?" })

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("duckdb: begin tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, stmtSQL)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("duckdb: prepare insert: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for _, row := range rows {
		if len(row) != len(columns) {
			_ = tx.Rollback()
			return inserted, fmt.Errorf("duckdb: CopyFrom: row length %d != columns length %d", len(row), len(columns))
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			_ = tx.Rollback()
			return inserted, fmt.Errorf("duckdb: insert into %s: %w", t.Name, err)
		}
		inserted++
	}
	if err := tx.Commit(); err != nil {
		return inserted, fmt.Errorf("duckdb: commit: %w", err)
	}
	return inserted, nil
}

// Finalize exports the staged table as a parquet dataset under the output
// root, partitioned per the table definition. No-op when no output root is
// configured.
func (r *Repository) Finalize(ctx context.Context, t schema.Table) error {
	if r.output == "" {
		return nil
	}
	dest := filepath.ToSlash(filepath.Join(r.output, t.Name))

	opts := []string{"FORMAT PARQUET", "OVERWRITE_OR_IGNORE"}
	if len(t.PartitionBy) > 0 {
		quoted := make([]string, len(t.PartitionBy))
		for i, c := range t.PartitionBy {
			quoted[i] = quoteIdent(c)
		}
		opts = append(opts, fmt.Sprintf("PARTITION_BY (%s)", strings.Join(quoted, ", ")))
	}
	copySQL := fmt.Sprintf(
		"COPY (SELECT * FROM %s) TO '%s' (%s)",
		quoteIdent(t.Name), strings.ReplaceAll(dest, "'", "''"), strings.Join(opts, ", "),
	)
	if _, err := r.db.ExecContext(ctx, copySQL); err != nil {
		return fmt.Errorf("duckdb: export %s: %w", t.Name, err)
	}
	return nil
}

// Close closes the underlying database.
func (r *Repository) Close() {
	_ = r.db.Close()
}

func typeFor(ct schema.ColumnType) string {
	switch ct {
	case schema.TypeInt:
		return "INTEGER"
	case schema.TypeBigInt:
		return "BIGINT"
	case schema.TypeDouble:
		return "DOUBLE"
	case schema.TypeTimestamp:
		return "TIMESTAMP"
	default:
		return "VARCHAR"
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// init registers the "duckdb" backend with the storage factory.
func init() {
	storage.Register("duckdb", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return NewRepository(ctx, cfg.DSN, cfg.Output)
	})
}
