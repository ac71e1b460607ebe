package detect

import (
	"context"
	"fmt"

	"argus/core"
	"argus/storage"
)

// Correlation pattern: distinct co-occurring attack signals from one
// source are a stronger signal than either alone.
const (
	minBruteForceForCorrelation = 3
	minMalwareForCorrelation    = 1
)

// Correlate scans recent alerts for the brute-force + malware
// co-occurrence pattern and returns escalated correlated_attack
// candidates, one per offending source IP. It runs after the rule
// evaluator's alerts have been committed so it always sees a fresh
// window. Candidates are not persisted here.
func (e *Engine) Correlate(ctx context.Context) ([]*core.Alert, error) {
	now := e.now()
	cutoff := now.Add(-e.correlationWindow)

	recent, err := e.alerts.RecentAlerts(ctx, storage.AlertFilter{
		Types: []core.AlertType{core.AlertBruteForce, core.AlertMalwareDetection},
		Since: cutoff,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts for correlation: %w", err)
	}

	type signalCounts struct {
		bruteForce int
		malware    int
	}
	grouped := make(map[string]*signalCounts)
	var order []string
	for _, alert := range recent {
		counts, ok := grouped[alert.SourceIP]
		if !ok {
			counts = &signalCounts{}
			grouped[alert.SourceIP] = counts
			order = append(order, alert.SourceIP)
		}
		switch alert.Type {
		case core.AlertBruteForce:
			counts.bruteForce++
		case core.AlertMalwareDetection:
			counts.malware++
		}
	}

	var correlated []*core.Alert
	for _, ip := range order {
		counts := grouped[ip]
		if counts.bruteForce < minBruteForceForCorrelation || counts.malware < minMalwareForCorrelation {
			continue
		}

		// Dedup scoped to the correlation window itself.
		exists, err := e.alerts.HasRecentAlert(ctx, core.AlertCorrelatedAttack, ip, cutoff)
		if err != nil {
			return nil, fmt.Errorf("failed correlation dedup lookup for %s: %w", ip, err)
		}
		if exists {
			continue
		}

		description := fmt.Sprintf(
			"Correlation rule matched: %d+ brute_force and %d+ malware_detection from %s within %d seconds.",
			minBruteForceForCorrelation, minMalwareForCorrelation, ip, int(e.correlationWindow.Seconds()))
		alert, err := core.NewAlert(core.AlertCorrelatedAttack, ip, description, now)
		if err != nil {
			return nil, err
		}

		e.logger.Infow("correlated attack detected",
			"source_ip", ip,
			"brute_force_count", counts.bruteForce,
			"malware_count", counts.malware,
		)
		correlated = append(correlated, alert)
	}

	return correlated, nil
}
