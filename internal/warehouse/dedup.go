// Row-identity de-duplication for dimension builders.
//
// Dimension dedup is row-level, not key-level: two rows are duplicates only
// when every field matches. Each row is reduced to a \x1f-joined string key
// (nil renders as \x00 so "" and NULL stay distinct) and hashed with
// 128-bit xxh3; the first occurrence wins and input order is preserved, so
// repeated runs over the same snapshot produce identical output.
package warehouse

import (
	"fmt"
	"strings"

	"github.com/zeebo/xxh3"
)

// dedupRows removes exact-duplicate rows, keeping the first occurrence.
func dedupRows(rows [][]any) [][]any {
	seen := make(map[xxh3.Uint128]struct{}, len(rows))
	out := rows[:0:0]
	for _, row := range rows {
		h := xxh3.Hash128([]byte(rowKey(row)))
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, row)
	}
	return out
}

// rowKey builds the full-row identity key.
func rowKey(row []any) string {
	var b strings.Builder
	for i, v := range row {
		if i > 0 {
			b.WriteByte('\x1f')
		}
		switch t := v.(type) {
		case nil:
			b.WriteByte('\x00')
		case string:
			b.WriteString(t)
		default:
			b.WriteString(fmt.Sprint(t))
		}
	}
	return b.String()
}
