package utils

import "time"

// ISODateFormat is the canonical calendar date layout used in the ETrade
// schema, the database and the JSON API.
const ISODateFormat = "2006-01-02"

// ParseISODate parses a YYYY-MM-DD calendar date.
func ParseISODate(s string) (time.Time, error) {
	return time.Parse(ISODateFormat, s)
}

// FormatISODate renders a date as YYYY-MM-DD.
func FormatISODate(t time.Time) string {
	return t.Format(ISODateFormat)
}
