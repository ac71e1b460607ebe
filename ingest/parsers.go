// Package ingest normalizes raw log text into core.Events. Parsing is
// pure: no I/O, no shared state, and malformed input never produces an
// error. Unparsable lines degrade to a best-effort event with activity
// kind "unparsed" so nothing is silently dropped.
package ingest

import (
	"strings"

	"argus/core"
)

// LineMatcher attempts to parse one raw line into an event. Matchers
// return (nil, false) when the line is not in their format.
type LineMatcher func(line string) (*core.Event, bool)

// matchers is the ordered format cascade; first match wins.
var matchers = []LineMatcher{
	parseJSONLine,
	parseWindowsLine,
	parseSyslogLine,
}

// ParseLine normalizes a single raw line. It returns nil for empty or
// whitespace-only input; anything else yields exactly one event, falling
// back to an "unparsed" event when no matcher recognizes the format.
func ParseLine(line string) *core.Event {
	raw := strings.TrimSpace(line)
	if raw == "" {
		return nil
	}

	for _, match := range matchers {
		if event, ok := match(raw); ok {
			return event
		}
	}

	event := core.NewEvent(raw)
	event.ActivityKind = core.ActivityUnparsed
	return event
}

// Normalize parses a full upload into events. CSV uploads (detected by
// filename) are parsed row-wise with column-name fallbacks; everything
// else is treated as line-oriented log text.
func Normalize(content, filename string) []*core.Event {
	if strings.TrimSpace(content) == "" {
		return nil
	}

	if strings.HasSuffix(strings.ToLower(filename), ".csv") {
		return parseCSV(content)
	}

	var events []*core.Event
	for _, line := range strings.Split(content, "\n") {
		if event := ParseLine(line); event != nil {
			events = append(events, event)
		}
	}
	return events
}

// normalizeOutcome folds arbitrary status strings into the outcome enum.
func normalizeOutcome(raw string) core.Outcome {
	outcome := core.Outcome(strings.ToLower(strings.TrimSpace(raw)))
	if outcome.IsValid() {
		return outcome
	}
	return core.OutcomeUnknown
}

// fieldOr returns the first non-empty value among candidates, or fallback.
func fieldOr(fallback string, candidates ...string) string {
	for _, c := range candidates {
		if strings.TrimSpace(c) != "" {
			return strings.TrimSpace(c)
		}
	}
	return fallback
}
