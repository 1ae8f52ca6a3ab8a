// Latest-state resolution for the user dimension.
//
// level and the name fields are event-attached attributes that change over
// time (users upgrade from free to paid mid-month), so the dimension must
// carry each user's most recent known state: group events by user_id,
// find the per-user maximum ts, then re-scan the event set keeping the rows
// whose (user_id, ts) matches that maximum. This is the overwrite-with-
// latest (SCD Type 1) resolution.
//
// Known data-shape risk: when several events for one user share the
// identical maximum ts, every one of them survives the rejoin, so dim_users
// can carry more than one row for that user_id. The fan-out is preserved
// (collapsing it would silently pick an arbitrary winner) and downstream
// consumers must tolerate it.
package warehouse

import (
	"fmt"

	"songlake/internal/records"
)

// BuildUsers derives the user dimension from filtered (NextSong-only) log
// events. Output order follows the event order of each winning row, which
// makes runs over the same snapshot deterministic, ties included.
func BuildUsers(events []records.Record) ([][]any, error) {
	maxTS := make(map[string]int64, len(events))
	for i, ev := range events {
		userID, err := ev.Text("user_id")
		if err != nil {
			return nil, fmt.Errorf("log event %d: %w", i, err)
		}
		ts, err := ev.Int64("ts")
		if err != nil {
			return nil, fmt.Errorf("log event %d (user %s): %w", i, userID, err)
		}
		if cur, ok := maxTS[userID]; !ok || ts > cur {
			maxTS[userID] = ts
		}
	}

	rows := make([][]any, 0, len(maxTS))
	for i, ev := range events {
		userID, _ := ev.Text("user_id")
		ts, _ := ev.Int64("ts")
		if ts != maxTS[userID] {
			continue
		}
		firstName, err := ev.StrOrNil("first_name")
		if err != nil {
			return nil, fmt.Errorf("log event %d (user %s): %w", i, userID, err)
		}
		lastName, err := ev.StrOrNil("last_name")
		if err != nil {
			return nil, fmt.Errorf("log event %d (user %s): %w", i, userID, err)
		}
		gender, err := ev.StrOrNil("gender")
		if err != nil {
			return nil, fmt.Errorf("log event %d (user %s): %w", i, userID, err)
		}
		level, err := ev.StrOrNil("level")
		if err != nil {
			return nil, fmt.Errorf("log event %d (user %s): %w", i, userID, err)
		}
		rows = append(rows, []any{userID, firstName, lastName, gender, level})
	}
	return rows, nil
}
