package analytics

import (
	"strconv"
	"time"

	"github.com/ScrubLabs/scrub-web/internal/redact"
)

// timeLayouts are tried in order against string timestamps. Exports are
// wildly inconsistent about formats, so parsing is lenient: rows whose
// timestamp cannot be understood are skipped, never fatal.
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseTime interprets a JSON value as a timestamp: a string in one of the
// known layouts, or a number of Unix seconds.
func parseTime(v *redact.Value) (time.Time, bool) {
	if v == nil {
		return time.Time{}, false
	}
	switch v.Kind {
	case redact.String:
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, v.Str); err == nil {
				return t.UTC(), true
			}
		}
		// Some exports put Unix seconds in strings.
		if secs, err := strconv.ParseFloat(v.Str, 64); err == nil && secs > 0 {
			return time.Unix(int64(secs), 0).UTC(), true
		}
	case redact.Number:
		if secs, err := strconv.ParseFloat(v.Num, 64); err == nil && secs > 0 {
			return time.Unix(int64(secs), 0).UTC(), true
		}
	}
	return time.Time{}, false
}

// parseNumber interprets a JSON value as a float: a Number literal or a
// numeric string (TikTok ships like counts as strings).
func parseNumber(v *redact.Value) (float64, bool) {
	if v == nil {
		return 0, false
	}
	switch v.Kind {
	case redact.Number:
		f, err := strconv.ParseFloat(v.Num, 64)
		return f, err == nil
	case redact.String:
		f, err := strconv.ParseFloat(v.Str, 64)
		return f, err == nil
	}
	return 0, false
}

// weekStart truncates a time to the Monday of its week.
func weekStart(t time.Time) time.Time {
	t = t.Truncate(24 * time.Hour)
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset)
}
