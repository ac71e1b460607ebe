package ingest

import (
	"encoding/csv"
	"encoding/json"
	"strings"

	"argus/core"
)

// parseCSV parses a CSV upload with a header row into one event per
// record. Column names are matched with fallbacks so exports from
// different tools normalize the same way. Short or malformed rows are
// skipped rather than failing the batch.
func parseCSV(content string) []*core.Event {
	reader := csv.NewReader(strings.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil || len(records) < 2 {
		return nil
	}

	header := make([]string, len(records[0]))
	for i, name := range records[0] {
		header[i] = strings.ToLower(strings.TrimSpace(name))
	}

	var events []*core.Event
	for _, record := range records[1:] {
		row := make(map[string]string, len(header))
		for i, value := range record {
			if i < len(header) {
				row[header[i]] = strings.TrimSpace(value)
			}
		}
		if len(row) == 0 {
			continue
		}

		// Raw data is the re-encoded row so the event stays traceable
		// even though the original line had no self-describing format.
		rawBytes, err := json.Marshal(row)
		if err != nil {
			continue
		}

		event := core.NewEvent(string(rawBytes))
		event.SourceCategory = strings.ToLower(fieldOr(core.SourceCategorySyslog,
			row["source_category"], row["source_type"], row["type"]))
		event.Device = fieldOr(core.ValueUnknown, row["device"], row["host"])
		event.SourceIP = fieldOr(core.ValueUnknown, row["ip"], row["source_ip"])
		event.Principal = fieldOr(core.ValueUnknown, row["username"], row["user"])
		event.Outcome = normalizeOutcome(fieldOr("", row["outcome"], row["status"]))
		event.ActivityKind = fieldOr(core.ActivitySystem, row["event_type"], row["event"])
		if ts := row["timestamp"]; ts != "" {
			event.Timestamp = parseTimestamp(ts)
		}
		events = append(events, event)
	}
	return events
}
