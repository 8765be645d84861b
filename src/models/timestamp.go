package models

import "time"

// TimestampLayout is the wire form of every timestamp: ISO-8601, UTC,
// millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp reads the wire form back. An empty string is the zero time.
func ParseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(TimestampLayout, s)
}
