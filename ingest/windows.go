package ingest

import (
	"regexp"
	"strings"

	"argus/core"
)

// windowsAuthRe matches Windows-style authentication lines: an ISO
// timestamp, a device token, an event-kind phrase, and an IPv4 address,
// in that order.
var windowsAuthRe = regexp.MustCompile(
	`(?i)(\d{4}-\d{2}-\d{2}[ T]\d{2}:\d{2}:\d{2}).*?([\w\-.]+).*?(failed login|success login|logon failure|login failed|logon success).*?(\d+\.\d+\.\d+\.\d+)`)

// principalRe extracts a best-effort account name ("user <token>" or
// "for <token>", case-insensitive).
var principalRe = regexp.MustCompile(`(?i)(?:user|for)\s+([\w\-.]+)`)

func parseWindowsLine(line string) (*core.Event, bool) {
	m := windowsAuthRe.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}

	event := core.NewEvent(line)
	event.SourceCategory = core.SourceCategoryWindows
	event.Timestamp = parseTimestamp(m[1])
	event.Device = m[2]
	event.SourceIP = m[4]
	event.ActivityKind = core.ActivityAuthentication
	event.Principal = extractPrincipal(line)

	if strings.Contains(strings.ToLower(m[3]), "fail") {
		event.Outcome = core.OutcomeFailed
	} else {
		event.Outcome = core.OutcomeSuccess
	}
	return event, true
}

func extractPrincipal(line string) string {
	if m := principalRe.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	return core.ValueUnknown
}
