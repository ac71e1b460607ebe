package ingest

import (
	"regexp"
	"strings"
	"time"

	"argus/core"
)

// syslogRe matches classic syslog lines: month/day/clock, a device
// token, then an optional "from"/"SRC=" IPv4 capture.
var syslogRe = regexp.MustCompile(
	`(?i)^(\w{3})\s+(\d{1,2})\s+(\d{2}:\d{2}:\d{2})\s+([\w\-.]+)\s+(?:.*?(?:from|SRC=)\s*(\d+\.\d+\.\d+\.\d+))?`)

// failedRe classifies the outcome of a syslog message.
var failedRe = regexp.MustCompile(`(?i)failed|failure|invalid|denied`)

func parseSyslogLine(line string) (*core.Event, bool) {
	m := syslogRe.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}

	event := core.NewEvent(line)
	event.SourceCategory = core.SourceCategorySyslog
	event.Timestamp = parseSyslogTime(m[1], m[2], m[3], time.Now().UTC())
	event.Device = m[4]
	event.SourceIP = fieldOr(core.ValueUnknown, m[5])
	event.Principal = extractPrincipal(line)

	if failedRe.MatchString(line) {
		event.Outcome = core.OutcomeFailed
	} else {
		event.Outcome = core.OutcomeSuccess
	}

	if strings.Contains(strings.ToLower(line), "ssh") {
		event.ActivityKind = core.ActivityAuthentication
	} else {
		event.ActivityKind = core.ActivitySystem
	}
	return event, true
}
