package detect

import (
	"context"
	"fmt"
	"time"

	"argus/core"
	"argus/storage"
)

// RiskSnapshots aggregates every source IP's alerts within the trailing
// window into weighted risk scores. This is a pure recomputation over
// the alert store; no incremental state exists to go stale.
func (e *Engine) RiskSnapshots(ctx context.Context, window time.Duration) (map[string]*core.RiskSnapshot, error) {
	if window <= 0 {
		window = 10 * time.Minute
	}
	cutoff := e.now().Add(-window)

	recent, err := e.alerts.RecentAlerts(ctx, storage.AlertFilter{Since: cutoff})
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts for risk scoring: %w", err)
	}

	snapshots := make(map[string]*core.RiskSnapshot)
	for _, alert := range recent {
		snapshot, ok := snapshots[alert.SourceIP]
		if !ok {
			snapshot = &core.RiskSnapshot{SourceIP: alert.SourceIP}
			snapshots[alert.SourceIP] = snapshot
		}
		snapshot.Add(alert.Severity)
	}
	return snapshots, nil
}

// RiskFor returns the snapshot for one source IP, zero-valued when the
// IP has no recent alerts.
func (e *Engine) RiskFor(ctx context.Context, sourceIP string, window time.Duration) (*core.RiskSnapshot, error) {
	snapshots, err := e.RiskSnapshots(ctx, window)
	if err != nil {
		return nil, err
	}
	if snapshot, ok := snapshots[sourceIP]; ok {
		return snapshot, nil
	}
	return &core.RiskSnapshot{SourceIP: sourceIP}, nil
}
