package ingest

import (
	"encoding/json"
	"strings"

	"argus/core"
)

// parseJSONLine parses a self-describing JSON record. Field names follow
// the structured upload format, with the older short names accepted as
// fallbacks (source_type, ip, username, status, event_type).
func parseJSONLine(line string) (*core.Event, bool) {
	if !strings.HasPrefix(line, "{") {
		return nil, false
	}

	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(line), &payload); err != nil {
		return nil, false
	}

	event := core.NewEvent(line)
	event.SourceCategory = strings.ToLower(fieldOr(core.SourceCategorySyslog,
		stringField(payload, "source_category"), stringField(payload, "source_type")))
	event.Device = fieldOr(core.ValueUnknown, stringField(payload, "device"))
	event.SourceIP = fieldOr(core.ValueUnknown,
		stringField(payload, "source_ip"), stringField(payload, "ip"))
	event.Principal = fieldOr(core.ValueUnknown,
		stringField(payload, "principal"), stringField(payload, "username"))
	event.Outcome = normalizeOutcome(fieldOr("",
		stringField(payload, "outcome"), stringField(payload, "status")))
	event.ActivityKind = fieldOr(core.ActivitySystem,
		stringField(payload, "activity_kind"), stringField(payload, "event_type"))

	if ts := stringField(payload, "timestamp"); ts != "" {
		event.Timestamp = parseTimestamp(ts)
	}
	return event, true
}

// stringField extracts a string-valued field, ignoring non-string values.
func stringField(payload map[string]interface{}, key string) string {
	if value, ok := payload[key].(string); ok {
		return value
	}
	return ""
}
