package ingest

import (
	"fmt"
	"strings"
	"time"
)

// isoLayouts are the self-describing timestamp forms accepted from
// structured records, tried in order.
var isoLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

var monthsByName = map[string]time.Month{
	"jan": time.January,
	"feb": time.February,
	"mar": time.March,
	"apr": time.April,
	"may": time.May,
	"jun": time.June,
	"jul": time.July,
	"aug": time.August,
	"sep": time.September,
	"oct": time.October,
	"nov": time.November,
	"dec": time.December,
}

// parseTimestamp parses ISO-8601 style timestamps, accepting both "T"
// and space separators. Unparsable input degrades to the current time.
func parseTimestamp(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Now().UTC()
	}

	for _, layout := range isoLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC()
		}
	}
	return time.Now().UTC()
}

// maxFutureSkew bounds how far ahead of now a syslog timestamp may land
// before the previous year is assumed. Syslog lines carry no year, so a
// January line read in December must roll back.
const maxFutureSkew = 30 * 24 * time.Hour

// parseSyslogTime builds a timestamp from syslog month/day/clock tokens.
// The current year is assumed unless that places the timestamp
// implausibly in the future.
func parseSyslogTime(month, day, clock string, now time.Time) time.Time {
	monthNum, ok := monthsByName[strings.ToLower(month)]
	if !ok {
		monthNum = now.Month()
	}

	candidate := fmt.Sprintf("%04d-%02d-%s %s", now.Year(), monthNum, pad2(day), clock)
	ts, err := time.Parse("2006-01-02 15:04:05", candidate)
	if err != nil {
		return now.UTC()
	}

	if ts.After(now.Add(maxFutureSkew)) {
		ts = ts.AddDate(-1, 0, 0)
	}
	return ts.UTC()
}

func pad2(day string) string {
	if len(day) == 1 {
		return "0" + day
	}
	return day
}
