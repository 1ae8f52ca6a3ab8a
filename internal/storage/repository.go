// Package storage contains storage-agnostic contracts and utilities for
// writing warehouse datasets.
//
// Every output dataset is written with full-overwrite semantics in three
// steps: Reset prepares an empty destination, CopyFrom appends batches, and
// Finalize completes the overwrite (for file-exporting backends this is
// where the partitioned columnar files are produced). There is no merge or
// append mode; concurrent runs against one destination are the caller's
// responsibility to serialize.
//
// Backends register themselves with the factory at init time; callers
// resolve one via New without importing backend packages directly. Import
// songlake/internal/storage/all (typically as a blank import in the CLI) to
// make every built-in backend available.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"songlake/internal/schema"
)

// Config selects and configures a storage backend.
type Config struct {
	// Kind selects the backend implementation, e.g. "duckdb", "postgres",
	// "sqlite", "mysql", "mssql".
	Kind string

	// DSN is the backend connection string, passed through uninspected.
	DSN string

	// Output is the destination root for backends that export files (the
	// duckdb backend writes one partitioned parquet dataset per table under
	// this root). SQL-only backends ignore it.
	Output string
}

// Repository is the minimal write surface of a warehouse backend.
type Repository interface {
	// Reset prepares the destination for a full overwrite of table t:
	// after Reset the destination holds zero rows for t.
	Reset(ctx context.Context, t schema.Table) error

	// CopyFrom bulk-appends a batch of rows aligned to t.ColumnNames() and
	// returns the number of rows written.
	CopyFrom(ctx context.Context, t schema.Table, rows [][]any) (int64, error)

	// Finalize completes the overwrite of t. For SQL backends this is a
	// no-op; file-exporting backends materialize the destination here.
	Finalize(ctx context.Context, t schema.Table) error

	// Close releases the backend's resources.
	Close()
}

// Factory constructs a Repository for a Config.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) the factory for a storage kind. It is
// called from backend packages' init functions.
func Register(kind string, fn Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	factories[kind] = fn
}

// Kinds returns the registered storage kinds, sorted, for error messages
// and config validation.
func Kinds() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	kinds := make([]string, 0, len(factories))
	for k := range factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// New resolves cfg.Kind against the registered backends and opens a
// Repository.
func New(ctx context.Context, cfg Config) (Repository, error) {
	regMu.RLock()
	fn, ok := factories[cfg.Kind]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: unknown kind %q (registered: %v)", cfg.Kind, Kinds())
	}
	return fn(ctx, cfg)
}
