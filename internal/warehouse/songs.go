// Song and artist dimension builders.
//
// Both dimensions project from the same song metadata set and then apply
// row-level dedup: a song_id may legitimately appear twice when the source
// carries true duplicates with differing attributes, so collapsing happens
// only on full-row identity.
package warehouse

import (
	"fmt"

	"songlake/internal/records"
)

// BuildSongs projects the song dimension (song_id, title, artist_id, year,
// duration) from raw song records and removes exact-duplicate rows. Row
// order follows input order, first occurrence winning.
func BuildSongs(songs []records.Record) ([][]any, error) {
	rows := make([][]any, 0, len(songs))
	for i, rec := range songs {
		songID, err := rec.Str("song_id")
		if err != nil {
			return nil, fmt.Errorf("song record %d: %w", i, err)
		}
		title, err := rec.Str("title")
		if err != nil {
			return nil, fmt.Errorf("song record %d (%s): %w", i, songID, err)
		}
		artistID, err := rec.Str("artist_id")
		if err != nil {
			return nil, fmt.Errorf("song record %d (%s): %w", i, songID, err)
		}
		year, err := rec.Int64("year")
		if err != nil {
			return nil, fmt.Errorf("song record %d (%s): %w", i, songID, err)
		}
		duration, err := rec.Float64("duration")
		if err != nil {
			return nil, fmt.Errorf("song record %d (%s): %w", i, songID, err)
		}
		rows = append(rows, []any{songID, title, artistID, int32(year), duration})
	}
	return dedupRows(rows), nil
}

// BuildArtists projects the artist dimension from raw song records, renames
// the artist_* fields per schema.ArtistRenames, and removes exact-duplicate
// rows. Location, latitude, and longitude are nullable; absent or null raw
// values stay NULL rather than collapsing to zero values, which keeps the
// row-identity dedup honest.
func BuildArtists(songs []records.Record) ([][]any, error) {
	rows := make([][]any, 0, len(songs))
	for i, rec := range songs {
		artistID, err := rec.Str("artist_id")
		if err != nil {
			return nil, fmt.Errorf("song record %d: %w", i, err)
		}
		name, err := rec.Str("artist_name")
		if err != nil {
			return nil, fmt.Errorf("song record %d (%s): %w", i, artistID, err)
		}
		location, err := rec.StrOrNil("artist_location")
		if err != nil {
			return nil, fmt.Errorf("song record %d (%s): %w", i, artistID, err)
		}
		latitude, err := rec.FloatOrNil("artist_latitude")
		if err != nil {
			return nil, fmt.Errorf("song record %d (%s): %w", i, artistID, err)
		}
		longitude, err := rec.FloatOrNil("artist_longitude")
		if err != nil {
			return nil, fmt.Errorf("song record %d (%s): %w", i, artistID, err)
		}
		rows = append(rows, []any{artistID, name, location, latitude, longitude})
	}
	return dedupRows(rows), nil
}
