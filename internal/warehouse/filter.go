package warehouse

import "songlake/internal/records"

// PageNextSong marks the log events that represent actual song plays. All
// other page values (Home, Login, Logout, ...) are navigation noise and
// must never reach the user/time/fact builders.
const PageNextSong = "NextSong"

// FilterPlays returns only the events whose page is exactly PageNextSong.
// Events without a page field are dropped with the rest; the page check is
// the single gate in front of every log-derived dataset, so applying it
// once here keeps the builders consistent with each other.
func FilterPlays(events []records.Record) []records.Record {
	out := make([]records.Record, 0, len(events))
	for _, ev := range events {
		if page, ok := ev["page"].(string); ok && page == PageNextSong {
			out = append(out, ev)
		}
	}
	return out
}
