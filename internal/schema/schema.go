// Package schema defines the canonical star-schema model: the raw input
// field names, the five output tables with their columns, types and
// partition layout, and the field-name normalization applied at the parse
// boundary.
//
// The tables here are the single source of truth for column order. Builders
// emit rows as []any aligned to Table.ColumnNames(), and storage backends
// derive their DDL from the same Column definitions, so the transform and
// load stages can never disagree about positions.
package schema

// ColumnType is a storage-agnostic column type. Each backend maps these to
// its own SQL types in its DDL helper.
type ColumnType string

const (
	TypeText      ColumnType = "text"
	TypeInt       ColumnType = "int"
	TypeBigInt    ColumnType = "bigint"
	TypeDouble    ColumnType = "double"
	TypeTimestamp ColumnType = "timestamp"
)

// Column describes a single output column.
type Column struct {
	Name string
	Type ColumnType
}

// Table describes one output dataset: its name, ordered columns, and the
// columns it is partitioned by on columnar destinations. PartitionBy names
// must be a subset of Columns; partition values are read from the row itself
// so a row can never land under a partition that disagrees with its fields.
type Table struct {
	Name        string
	Columns     []Column
	PartitionBy []string
}

// ColumnNames returns the ordered column names of t.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Songs is the song dimension, one row per distinct (song_id, title,
// artist_id, year, duration) tuple from the song metadata set.
var Songs = Table{
	Name: "dim_songs",
	Columns: []Column{
		{Name: "song_id", Type: TypeText},
		{Name: "title", Type: TypeText},
		{Name: "artist_id", Type: TypeText},
		{Name: "year", Type: TypeInt},
		{Name: "duration", Type: TypeDouble},
	},
	PartitionBy: []string{"year", "artist_id"},
}

// Artists is the artist dimension, renamed from the raw artist_* fields.
var Artists = Table{
	Name: "dim_artists",
	Columns: []Column{
		{Name: "artist_id", Type: TypeText},
		{Name: "name", Type: TypeText},
		{Name: "location", Type: TypeText},
		{Name: "latitude", Type: TypeDouble},
		{Name: "longitude", Type: TypeDouble},
	},
}

// Users is the user dimension: the most recent known state per user_id.
var Users = Table{
	Name: "dim_users",
	Columns: []Column{
		{Name: "user_id", Type: TypeText},
		{Name: "first_name", Type: TypeText},
		{Name: "last_name", Type: TypeText},
		{Name: "gender", Type: TypeText},
		{Name: "level", Type: TypeText},
	},
}

// Time is the calendar dimension, one row per filtered log event.
var Time = Table{
	Name: "dim_time",
	Columns: []Column{
		{Name: "start_time", Type: TypeTimestamp},
		{Name: "hour", Type: TypeInt},
		{Name: "day", Type: TypeInt},
		{Name: "week", Type: TypeInt},
		{Name: "month", Type: TypeInt},
		{Name: "year", Type: TypeInt},
		{Name: "weekday", Type: TypeInt},
	},
	PartitionBy: []string{"year", "month"},
}

// Songplays is the event-grain fact table, one row per filtered log event.
// song_id and artist_id are null when the event's (song, artist) pair does
// not exactly match a song record.
var Songplays = Table{
	Name: "fact_songplays",
	Columns: []Column{
		{Name: "songplay_id", Type: TypeBigInt},
		{Name: "start_time", Type: TypeTimestamp},
		{Name: "user_id", Type: TypeText},
		{Name: "level", Type: TypeText},
		{Name: "song_id", Type: TypeText},
		{Name: "artist_id", Type: TypeText},
		{Name: "session_id", Type: TypeBigInt},
		{Name: "location", Type: TypeText},
		{Name: "user_agent", Type: TypeText},
		{Name: "year", Type: TypeInt},
		{Name: "month", Type: TypeInt},
	},
	PartitionBy: []string{"year", "month"},
}

// LogRenames maps raw log-event field names to canonical names. Applied at
// the parse boundary so every downstream stage sees canonical keys. Raw
// fields not listed here (gender, level, page, song, artist, location, ts)
// already carry their canonical names and pass through unchanged.
var LogRenames = map[string]string{
	"userId":    "user_id",
	"firstName": "first_name",
	"lastName":  "last_name",
	"sessionId": "session_id",
	"userAgent": "user_agent",
}

// ArtistRenames maps raw song-record artist fields to the artist dimension
// columns. Applied by the artist dimension builder at projection time.
var ArtistRenames = map[string]string{
	"artist_name":      "name",
	"artist_location":  "location",
	"artist_latitude":  "latitude",
	"artist_longitude": "longitude",
}
