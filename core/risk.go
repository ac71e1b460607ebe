package core

// HighRiskThreshold is the score above which a source is flagged high risk.
// Strictly greater-than: a score of exactly 25 is not high risk.
const HighRiskThreshold = 25

// RiskSnapshot is a derived, point-in-time aggregation of one source IP's
// recent alert severities. It is always recomputed from the alert store
// and never persisted.
type RiskSnapshot struct {
	SourceIP      string `json:"source_ip"`
	RiskScore     int    `json:"risk_score"`
	HighRisk      bool   `json:"high_risk"`
	CriticalCount int    `json:"critical_count"`
	HighCount     int    `json:"high_count"`
	MediumCount   int    `json:"medium_count"`
	LowCount      int    `json:"low_count"`
	TotalAlerts   int    `json:"total_alerts"`
}

// Add folds one alert's severity into the snapshot.
func (r *RiskSnapshot) Add(severity Severity) {
	r.RiskScore += severity.Weight()
	r.TotalAlerts++

	switch severity {
	case SeverityCritical:
		r.CriticalCount++
	case SeverityHigh:
		r.HighCount++
	case SeverityMedium:
		r.MediumCount++
	case SeverityLow:
		r.LowCount++
	}

	r.HighRisk = r.RiskScore > HighRiskThreshold
}
