package schema

import (
	"reflect"
	"testing"
)

// TestColumnNames pins the column order of every output table; builders emit
// positional rows, so any reorder here is a breaking change.
func TestColumnNames(t *testing.T) {
	t.Parallel()

	cases := []struct {
		table Table
		want  []string
	}{
		{Songs, []string{"song_id", "title", "artist_id", "year", "duration"}},
		{Artists, []string{"artist_id", "name", "location", "latitude", "longitude"}},
		{Users, []string{"user_id", "first_name", "last_name", "gender", "level"}},
		{Time, []string{"start_time", "hour", "day", "week", "month", "year", "weekday"}},
		{Songplays, []string{"songplay_id", "start_time", "user_id", "level", "song_id", "artist_id", "session_id", "location", "user_agent", "year", "month"}},
	}
	for _, c := range cases {
		if got := c.table.ColumnNames(); !reflect.DeepEqual(got, c.want) {
			t.Errorf("%s columns = %v, want %v", c.table.Name, got, c.want)
		}
	}
}

// TestPartitionColumnsExist ensures every partition column is a real column
// of its table, since partition values are read from the row itself.
func TestPartitionColumnsExist(t *testing.T) {
	t.Parallel()

	for _, tbl := range []Table{Songs, Artists, Users, Time, Songplays} {
		cols := map[string]bool{}
		for _, name := range tbl.ColumnNames() {
			cols[name] = true
		}
		for _, p := range tbl.PartitionBy {
			if !cols[p] {
				t.Errorf("%s: partition column %q is not a table column", tbl.Name, p)
			}
		}
	}
}
