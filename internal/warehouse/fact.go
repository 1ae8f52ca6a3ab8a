// Fact table construction.
//
// The songplays fact is a left join of filtered log events against song
// metadata on exact, case-sensitive string equality of
// (event.song == song.title) AND (event.artist == song.artist_name).
// No trimming, no case folding, no fuzzy matching: titles that differ by a
// trailing space simply do not match. That is a known data-quality limit of
// the source pairing; unmatched plays are still facts and are emitted with
// NULL song_id/artist_id.
package warehouse

import (
	"fmt"

	"songlake/internal/records"
)

// matchKey joins the two equality columns with an unlikely separator so the
// composite behaves like the two-column join predicate.
func matchKey(song, artist string) string {
	return song + "\x1f" + artist
}

// songMatch carries the dimension keys resolved by a successful match.
type songMatch struct {
	songID   string
	artistID string
}

// buildMatchIndex indexes song records by (title, artist_name). When the
// metadata carries several records for the same pair, the first one wins,
// which pins the fact grain at exactly one row per log event.
func buildMatchIndex(songs []records.Record) (map[string]songMatch, error) {
	idx := make(map[string]songMatch, len(songs))
	for i, rec := range songs {
		title, err := rec.Str("title")
		if err != nil {
			return nil, fmt.Errorf("song record %d: %w", i, err)
		}
		artistName, err := rec.Str("artist_name")
		if err != nil {
			return nil, fmt.Errorf("song record %d: %w", i, err)
		}
		songID, err := rec.Str("song_id")
		if err != nil {
			return nil, fmt.Errorf("song record %d: %w", i, err)
		}
		artistID, err := rec.Str("artist_id")
		if err != nil {
			return nil, fmt.Errorf("song record %d: %w", i, err)
		}
		key := matchKey(title, artistName)
		if _, exists := idx[key]; !exists {
			idx[key] = songMatch{songID: songID, artistID: artistID}
		}
	}
	return idx, nil
}

// BuildSongplays assembles the fact table from filtered (NextSong-only) log
// events and the full song metadata set. One output row per input event,
// match or not; song_id/artist_id stay NULL on a miss. songplay_id values
// come from nexter and are unique within the run, with no ordering promise
// across runs.
func BuildSongplays(events, songs []records.Record, nexter *Nexter) ([][]any, error) {
	idx, err := buildMatchIndex(songs)
	if err != nil {
		return nil, err
	}

	rows := make([][]any, 0, len(events))
	for i, ev := range events {
		userID, err := ev.Text("user_id")
		if err != nil {
			return nil, fmt.Errorf("log event %d: %w", i, err)
		}
		ms, err := ev.Int64("ts")
		if err != nil {
			return nil, fmt.Errorf("log event %d (user %s): %w", i, userID, err)
		}
		level, err := ev.StrOrNil("level")
		if err != nil {
			return nil, fmt.Errorf("log event %d (user %s): %w", i, userID, err)
		}
		sessionID, err := ev.Int64OrNil("session_id")
		if err != nil {
			return nil, fmt.Errorf("log event %d (user %s): %w", i, userID, err)
		}
		location, err := ev.StrOrNil("location")
		if err != nil {
			return nil, fmt.Errorf("log event %d (user %s): %w", i, userID, err)
		}
		userAgent, err := ev.StrOrNil("user_agent")
		if err != nil {
			return nil, fmt.Errorf("log event %d (user %s): %w", i, userID, err)
		}

		var songID, artistID any
		song, ok1 := ev["song"].(string)
		artist, ok2 := ev["artist"].(string)
		if ok1 && ok2 {
			if m, ok := idx[matchKey(song, artist)]; ok {
				songID, artistID = m.songID, m.artistID
			}
		}

		t := StartTime(ms)
		rows = append(rows, []any{
			nexter.Next(),
			t,
			userID,
			level,
			songID,
			artistID,
			sessionID,
			location,
			userAgent,
			int32(t.Year()),
			int32(t.Month()),
		})
	}
	return rows, nil
}
