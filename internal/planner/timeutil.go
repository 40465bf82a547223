// Package planner splits a [start, end] time range into a sequence of
// grid-aligned sub-query batches, each tainted as "future" when it
// reaches into the last minute so the cache layer never persists a
// result that could still change.
package planner

import (
	"strings"
	"time"
)

// ParseTimestamp accepts either a bare date ("2024-01-02") or a full
// RFC3339-with-milliseconds timestamp; a bare date is widened to midnight
// UTC before parsing.
func ParseTimestamp(s string) (time.Time, error) {
	if !strings.Contains(s, "T") {
		s += "T00:00:00.000Z"
	}
	if t, err := time.Parse("2006-01-02T15:04:05.000Z", s); err == nil {
		return t.UTC(), nil
	}
	return time.Parse(time.RFC3339, s)
}

// FormatTimestamp renders epochMs as a UTC timestamp with millisecond
// precision, e.g. "2024-01-02T15:04:05.000Z".
func FormatTimestamp(epochMs int64) string {
	return time.UnixMilli(epochMs).UTC().Format("2006-01-02T15:04:05.000") + "Z"
}

// SubstituteArgs replaces each "?" placeholder in sql, in order, with the
// corresponding arg quoted as a SQL string literal. Only the first
// occurrence of "?" is considered per arg, so a literal question mark
// earlier in the string than an intended placeholder consumes an arg
// meant for later.
func SubstituteArgs(sql string, args []string) string {
	for _, arg := range args {
		idx := strings.Index(sql, "?")
		if idx < 0 {
			break
		}
		sql = sql[:idx] + "'" + arg + "'" + sql[idx+1:]
	}
	return sql
}
