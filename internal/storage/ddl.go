// Shared DDL generation. Backends supply their own type mapping and
// identifier quoting; the column order always follows the schema table so
// DDL and CopyFrom can never disagree.
package storage

import (
	"fmt"
	"strings"

	"songlake/internal/schema"
)

// CreateTableSQL renders a CREATE TABLE statement for t. typeFor maps the
// storage-agnostic column types onto backend SQL types; quote quotes an
// identifier for the backend's dialect.
func CreateTableSQL(
	t schema.Table,
	typeFor func(schema.ColumnType) string,
	quote func(string) string,
) string {
	cols := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = fmt.Sprintf("%s %s", quote(c.Name), typeFor(c.Type))
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", quote(t.Name), strings.Join(cols, ", "))
}

// InsertSQL renders a positional INSERT for t using the given placeholder
// generator (i is 1-based), e.g. "?" for sqlite/mysql or "$1" for postgres.
func InsertSQL(
	t schema.Table,
	quote func(string) string,
	placeholder func(i int) string,
) string {
	names := t.ColumnNames()
	cols := make([]string, len(names))
	ph := make([]string, len(names))
	for i, name := range names {
		cols[i] = quote(name)
		ph[i] = placeholder(i + 1)
	}
	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		quote(t.Name), strings.Join(cols, ", "), strings.Join(ph, ", "),
	)
}
