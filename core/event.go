package core

import (
	"time"

	"github.com/google/uuid"
)

// Outcome represents the result of the activity an event describes.
type Outcome string

const (
	// OutcomeSuccess indicates the observed activity succeeded
	OutcomeSuccess Outcome = "success"
	// OutcomeFailed indicates the observed activity failed
	OutcomeFailed Outcome = "failed"
	// OutcomeUnknown indicates the outcome could not be determined
	OutcomeUnknown Outcome = "unknown"
)

// String returns the string representation of the outcome
func (o Outcome) String() string {
	return string(o)
}

// IsValid checks if the outcome is a known value
func (o Outcome) IsValid() bool {
	switch o {
	case OutcomeSuccess, OutcomeFailed, OutcomeUnknown:
		return true
	}
	return false
}

// Source categories assigned by the normalizer.
const (
	SourceCategoryWindows    = "windows"
	SourceCategorySyslog     = "syslog"
	SourceCategoryStructured = "structured"
)

// Activity kinds assigned by the normalizer. ActivityKind is free-form;
// these are the values the built-in matchers produce.
const (
	ActivityAuthentication = "authentication"
	ActivitySystem         = "system"
	ActivityUnparsed       = "unparsed"
)

// ValueUnknown is the placeholder for fields the normalizer could not extract.
const ValueUnknown = "unknown"

// Event represents one normalized observation from an ingested log line.
// RawData always holds the original input verbatim so every event stays
// traceable to its source line; events are immutable once created.
type Event struct {
	EventID        string    `json:"event_id"`
	Timestamp      time.Time `json:"timestamp"`
	SourceCategory string    `json:"source_category"`
	Device         string    `json:"device"`
	SourceIP       string    `json:"source_ip"`
	Principal      string    `json:"principal"`
	Outcome        Outcome   `json:"outcome"`
	ActivityKind   string    `json:"activity_kind"`
	RawData        string    `json:"raw_data"`
}

// NewEvent creates a new Event with a generated UUID and defaults for
// every field the normalizer may fail to extract.
func NewEvent(raw string) *Event {
	return &Event{
		EventID:        uuid.New().String(),
		Timestamp:      time.Now().UTC(),
		SourceCategory: SourceCategorySyslog,
		Device:         ValueUnknown,
		SourceIP:       ValueUnknown,
		Principal:      ValueUnknown,
		Outcome:        OutcomeUnknown,
		ActivityKind:   ActivitySystem,
		RawData:        raw,
	}
}
