package sqlite

import (
	"fmt"
	"time"
)

// sqliteTimeFormat is the layout written by this package for TEXT timestamp columns.
const sqliteTimeFormat = "2006-01-02 15:04:05"

// parseTime accepts both the CURRENT_TIMESTAMP layout and RFC 3339 variants.
func parseTime(s string) (time.Time, error) {
	formats := []string{
		sqliteTimeFormat,
		"2006-01-02T15:04:05Z",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05.000",
		time.RFC3339,
		time.RFC3339Nano,
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}
