// Calendar decomposition for the time dimension.
//
// Weekday numbering is 1=Sunday through 7=Saturday and every calendar field
// is derived from the UTC reading of the timestamp. Both choices are fixed
// here and nowhere else; builders and tests reference these helpers instead
// of re-deriving calendar math ad hoc.
package warehouse

import (
	"fmt"
	"time"

	"songlake/internal/records"
)

// EpochMillisToSeconds truncates an epoch-milliseconds value to whole epoch
// seconds. Truncation, not rounding: 1999 ms is second 1.
func EpochMillisToSeconds(ms int64) int64 {
	return ms / 1000
}

// StartTime converts an event's epoch-milliseconds ts to the UTC timestamp
// stored in start_time columns. Sub-second precision is dropped by the
// seconds conversion above.
func StartTime(ms int64) time.Time {
	return time.Unix(EpochMillisToSeconds(ms), 0).UTC()
}

// Weekday numbers a UTC timestamp's day of week: 1=Sunday ... 7=Saturday.
func Weekday(t time.Time) int32 {
	return int32(t.Weekday()) + 1
}

// BuildTime derives the time dimension from filtered (NextSong-only) log
// events: one output row per input event, in input order. Duplicate
// timestamps produce duplicate rows; the dimension mirrors event grain
// rather than distinct calendar identities, matching the snapshot the rest
// of the warehouse is rebuilt from.
func BuildTime(events []records.Record) ([][]any, error) {
	rows := make([][]any, 0, len(events))
	for i, ev := range events {
		ms, err := ev.Int64("ts")
		if err != nil {
			return nil, fmt.Errorf("log event %d: %w", i, err)
		}
		t := StartTime(ms)
		_, week := t.ISOWeek()
		rows = append(rows, []any{
			t,
			int32(t.Hour()),
			int32(t.Day()),
			int32(week),
			int32(t.Month()),
			int32(t.Year()),
			Weekday(t),
		})
	}
	return rows, nil
}
