package warehouse

import (
	"testing"
	"time"

	"songlake/internal/records"
)

func playEvent(userID, song, artist string, ms int64) records.Record {
	ev := records.Record{
		"user_id":    userID,
		"ts":         float64(ms),
		"level":      "paid",
		"session_id": float64(583),
		"location":   "San Jose-Sunnyvale-Santa Clara, CA",
		"user_agent": "Mozilla/5.0",
	}
	if song != "" {
		ev["song"] = song
		ev["artist"] = artist
	}
	return ev
}

// TestBuildSongplays covers the match/miss split: matched events carry the
// dimension keys, unmatched events still become facts with NULL keys, and
// the output has exactly one row per input event.
func TestBuildSongplays(t *testing.T) {
	t.Parallel()

	const ms = int64(1542242205796)
	songs := []records.Record{
		songRecord("SOZCTXZ12AB0182364", "Setanta matins", "AR5KOSW1187FB35FF4", 0, 269.58),
	}
	events := []records.Record{
		playEvent("15", "Setanta matins", "Elena", ms),
		playEvent("15", "setanta matins", "Elena", ms), // case differs: no match
		playEvent("26", "", "", ms),                    // song/artist null in the raw event
	}

	var nexter Nexter
	rows, err := BuildSongplays(events, songs, &nexter)
	if err != nil {
		t.Fatalf("BuildSongplays: %v", err)
	}
	if len(rows) != len(events) {
		t.Fatalf("BuildSongplays produced %d rows for %d events", len(rows), len(events))
	}

	// Surrogate ids are dense from zero.
	for i, row := range rows {
		if row[0] != int64(i) {
			t.Errorf("row %d: songplay_id = %v, want %d", i, row[0], i)
		}
	}

	if rows[0][4] != "SOZCTXZ12AB0182364" || rows[0][5] != "AR5KOSW1187FB35FF4" {
		t.Errorf("matched row keys = %v/%v, want song and artist ids", rows[0][4], rows[0][5])
	}
	for _, i := range []int{1, 2} {
		if rows[i][4] != nil || rows[i][5] != nil {
			t.Errorf("row %d: unmatched event keys = %v/%v, want nil/nil", i, rows[i][4], rows[i][5])
		}
	}

	// Partition columns must agree with the row's own start_time.
	start := rows[0][1].(time.Time)
	if rows[0][9] != int32(start.Year()) || rows[0][10] != int32(start.Month()) {
		t.Errorf("partition fields %v/%v disagree with start_time %v", rows[0][9], rows[0][10], start)
	}
	if rows[0][9] != int32(2018) || rows[0][10] != int32(11) {
		t.Errorf("partition fields = %v/%v, want 2018/11", rows[0][9], rows[0][10])
	}
}

// TestBuildSongplaysFirstSongWins pins the fact grain when the metadata
// carries duplicate (title, artist) pairs: the first record resolves the
// keys and the event still yields exactly one row.
func TestBuildSongplaysFirstSongWins(t *testing.T) {
	t.Parallel()

	songs := []records.Record{
		songRecord("S1", "Setanta matins", "AR1", 0, 269.58),
		songRecord("S2", "Setanta matins", "AR2", 0, 123.45),
	}
	// songRecord fixes artist_name to "Elena".
	events := []records.Record{playEvent("15", "Setanta matins", "Elena", 1542242205796)}

	var nexter Nexter
	rows, err := BuildSongplays(events, songs, &nexter)
	if err != nil {
		t.Fatalf("BuildSongplays: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("duplicate metadata fanned out the fact: %d rows, want 1", len(rows))
	}
	if rows[0][4] != "S1" || rows[0][5] != "AR1" {
		t.Errorf("keys = %v/%v, want first record S1/AR1", rows[0][4], rows[0][5])
	}
}

// TestBuildSongplaysMissingUser ensures a play without user_id aborts.
func TestBuildSongplaysMissingUser(t *testing.T) {
	t.Parallel()

	events := []records.Record{{"ts": float64(1542242205796)}}
	var nexter Nexter
	if _, err := BuildSongplays(events, nil, &nexter); err == nil {
		t.Fatal("BuildSongplays without user_id: want error, got nil")
	}
}
