package core

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Severity represents the ordered severity of an alert
type Severity string

const (
	// SeverityLow is informational severity
	SeverityLow Severity = "Low"
	// SeverityMedium indicates suspicious activity worth review
	SeverityMedium Severity = "Medium"
	// SeverityHigh indicates likely hostile activity
	SeverityHigh Severity = "High"
	// SeverityCritical indicates confirmed or correlated hostile activity
	SeverityCritical Severity = "Critical"
)

// String returns the string representation of the severity
func (s Severity) String() string {
	return string(s)
}

// IsValid checks if the severity is a known value
func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Weight returns the risk contribution of one alert at this severity.
// Unknown severities contribute nothing.
func (s Severity) Weight() int {
	switch s {
	case SeverityCritical:
		return 10
	case SeverityHigh:
		return 7
	case SeverityMedium:
		return 4
	case SeverityLow:
		return 1
	}
	return 0
}

// rank orders severities for comparison (Low < Medium < High < Critical).
func (s Severity) rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}

// AtLeast reports whether s is at least as severe as min.
func (s Severity) AtLeast(min Severity) bool {
	return s.rank() >= min.rank()
}

// AlertType identifies which detection rule produced an alert
type AlertType string

const (
	// AlertMalwareDetection fires on known malware signatures in raw log text
	AlertMalwareDetection AlertType = "malware_detection"
	// AlertBruteForce fires on a high volume of failed authentications from one IP
	AlertBruteForce AlertType = "brute_force"
	// AlertFailedLoginSpike fires on elevated failed authentications below the brute-force band
	AlertFailedLoginSpike AlertType = "failed_login_spike"
	// AlertUnknownIPSpike fires on a burst of activity from a public IP
	AlertUnknownIPSpike AlertType = "unknown_ip_spike"
	// AlertCorrelatedAttack is emitted by the correlation engine for fused signals
	AlertCorrelatedAttack AlertType = "correlated_attack"
)

// String returns the string representation of the alert type
func (t AlertType) String() string {
	return string(t)
}

// severityByType is the single canonical type → severity mapping.
// Severity is never set independently of the alert type.
var severityByType = map[AlertType]Severity{
	AlertMalwareDetection: SeverityCritical,
	AlertBruteForce:       SeverityHigh,
	AlertFailedLoginSpike: SeverityMedium,
	AlertUnknownIPSpike:   SeverityMedium,
	AlertCorrelatedAttack: SeverityCritical,
}

// SeverityForType returns the fixed severity for an alert type.
func SeverityForType(t AlertType) (Severity, error) {
	sev, ok := severityByType[t]
	if !ok {
		return "", fmt.Errorf("unknown alert type: %s", t)
	}
	return sev, nil
}

// AlertStatus represents the workflow status of an alert
type AlertStatus string

const (
	// AlertStatusNew indicates an alert that hasn't been reviewed
	AlertStatusNew AlertStatus = "New"
	// AlertStatusInvestigating indicates an alert under active review
	AlertStatusInvestigating AlertStatus = "Investigating"
	// AlertStatusResolved indicates a closed alert
	AlertStatusResolved AlertStatus = "Resolved"
)

// String returns the string representation of the status
func (s AlertStatus) String() string {
	return string(s)
}

// IsValid checks if the status is a known value
func (s AlertStatus) IsValid() bool {
	switch s {
	case AlertStatusNew, AlertStatusInvestigating, AlertStatusResolved:
		return true
	}
	return false
}

// Alert represents a detection finding. The detection core only ever
// creates alerts in status New; Status and Blocked are mutated by
// external workflow actions, never by detection itself.
type Alert struct {
	AlertID     string      `json:"alert_id"`
	Timestamp   time.Time   `json:"timestamp"`
	SourceIP    string      `json:"source_ip"`
	Type        AlertType   `json:"type"`
	Severity    Severity    `json:"severity"`
	Description string      `json:"description"`
	Status      AlertStatus `json:"status"`
	Blocked     bool        `json:"blocked"`
}

// NewAlert creates an alert of the given type with its canonical severity.
// It returns an error for types outside the fixed catalog.
func NewAlert(alertType AlertType, sourceIP, description string, ts time.Time) (*Alert, error) {
	severity, err := SeverityForType(alertType)
	if err != nil {
		return nil, err
	}
	return &Alert{
		AlertID:     uuid.New().String(),
		Timestamp:   ts.UTC(),
		SourceIP:    sourceIP,
		Type:        alertType,
		Severity:    severity,
		Description: description,
		Status:      AlertStatusNew,
	}, nil
}
