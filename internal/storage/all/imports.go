// Package all wires all built-in storage backends into the storage factory.
//
// This package exists purely for side effects: importing it (even as a
// blank import) causes the init functions of each concrete backend to run,
// which registers their factories with the storage package. Importing it
// makes the following storage kinds available at runtime:
//
//   - "duckdb"   (songlake/internal/storage/duckdb)
//   - "postgres" (songlake/internal/storage/postgres)
//   - "sqlite"   (songlake/internal/storage/sqlite)
//   - "mysql"    (songlake/internal/storage/mysql)
//   - "mssql"    (songlake/internal/storage/mssql)
//
// A binary that only needs a subset of backends can blank-import the
// individual backend packages instead.
package all

import (
	_ "songlake/internal/storage/duckdb"
	_ "songlake/internal/storage/mssql"
	_ "songlake/internal/storage/mysql"
	_ "songlake/internal/storage/postgres"
	_ "songlake/internal/storage/sqlite"
)
