package storage

import (
	"context"
	"time"

	"argus/core"
)

// EventFilter narrows event counting queries. The zero value matches all
// events.
type EventFilter struct {
	Outcome core.Outcome
}

// AlertFilter narrows alert queries. Zero-valued fields are ignored.
type AlertFilter struct {
	Types    []core.AlertType
	SourceIP string
	Since    time.Time
	Limit    int
}

// EventStore is the narrow read/write surface the detection core uses
// for events. Windowed counts are always recomputed through CountEvents
// rather than kept in memory, so results stay correct across restarts
// and backfills.
type EventStore interface {
	// InsertEvents persists a batch atomically; partial commits are not
	// permitted. A failed batch can be retried as a whole.
	InsertEvents(ctx context.Context, events []*core.Event) error
	// CountEvents counts events for one source IP matching the filter
	// with timestamp >= since.
	CountEvents(ctx context.Context, sourceIP string, filter EventFilter, since time.Time) (int64, error)
	// GetEvents returns events ordered newest first.
	GetEvents(ctx context.Context, limit, offset int) ([]core.Event, error)
	// GetEvent returns one event by ID, or ErrEventNotFound.
	GetEvent(ctx context.Context, eventID string) (*core.Event, error)
}

// AlertStore is the narrow read/write surface for alerts.
type AlertStore interface {
	// InsertAlerts persists a batch atomically.
	InsertAlerts(ctx context.Context, alerts []*core.Alert) error
	// RecentAlerts returns alerts matching the filter, newest first.
	RecentAlerts(ctx context.Context, filter AlertFilter) ([]core.Alert, error)
	// HasRecentAlert reports whether an alert of the given type and
	// source IP exists with timestamp >= since (deduplication lookups).
	HasRecentAlert(ctx context.Context, alertType core.AlertType, sourceIP string, since time.Time) (bool, error)
	// GetAlert returns one alert by ID, or ErrAlertNotFound.
	GetAlert(ctx context.Context, alertID string) (*core.Alert, error)
	// UpdateAlertStatus transitions an alert's workflow status. The
	// detection core never calls this; it is the write surface for
	// external triage actions. Returns ErrAlertNotFound for unknown IDs.
	UpdateAlertStatus(ctx context.Context, alertID string, status core.AlertStatus) error
}

// ConfigStore persists detection thresholds and the live-monitoring
// switch. Missing keys fall back to documented defaults and are never an
// error.
type ConfigStore interface {
	GetThresholds(ctx context.Context) (map[string]int, error)
	SetThreshold(ctx context.Context, key string, value int) error
	LiveMonitoringEnabled(ctx context.Context) (bool, error)
	SetLiveMonitoring(ctx context.Context, enabled bool) error
}

// BlockStore records externally requested IP blocks. The detection core
// never blocks on its own; this is the write surface workflow actions
// use.
type BlockStore interface {
	BlockIP(ctx context.Context, sourceIP, reason, sourceAlertID string) error
	IsBlocked(ctx context.Context, sourceIP string) (bool, error)
	ListBlocked(ctx context.Context) ([]BlockedIP, error)
}

// BlockedIP is one entry in the block list.
type BlockedIP struct {
	ID            int64     `json:"id"`
	SourceIP      string    `json:"source_ip"`
	Reason        string    `json:"reason"`
	SourceAlertID string    `json:"source_alert_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
