package detect

import (
	"context"
	"fmt"
	"time"

	"argus/core"
	"argus/metrics"
	"argus/storage"
)

// Per-rule deduplication cooldowns: the minimum interval between two
// alerts of the same type and source IP.
var dedupCooldowns = map[core.AlertType]time.Duration{
	core.AlertMalwareDetection: 30 * time.Second,
	core.AlertBruteForce:       20 * time.Second,
	core.AlertFailedLoginSpike: 90 * time.Second,
	core.AlertUnknownIPSpike:   90 * time.Second,
}

// defaultCooldown applies to alert types without a specific cooldown.
const defaultCooldown = 90 * time.Second

func cooldownFor(alertType core.AlertType) time.Duration {
	if cooldown, ok := dedupCooldowns[alertType]; ok {
		return cooldown
	}
	return defaultCooldown
}

// deduper suppresses repeated alerts of the same (type, source IP) pair.
// Within one evaluation batch at most one alert per pair is ever
// emitted; across batches the persisted alert log is consulted with the
// rule's cooldown. Store-backed lookups are what make re-evaluating an
// unchanged event set idempotent.
type deduper struct {
	alerts storage.AlertStore
	now    time.Time
	seen   map[string]struct{}
}

func newDeduper(alerts storage.AlertStore, now time.Time) *deduper {
	return &deduper{
		alerts: alerts,
		now:    now,
		seen:   make(map[string]struct{}),
	}
}

// shouldEmit reports whether an alert of this type and source IP may be
// emitted now. The first trigger in a batch wins.
func (d *deduper) shouldEmit(ctx context.Context, alertType core.AlertType, sourceIP string) (bool, error) {
	key := alertType.String() + "|" + sourceIP
	if _, dup := d.seen[key]; dup {
		metrics.AlertsDeduplicated.WithLabelValues(alertType.String()).Inc()
		return false, nil
	}

	since := d.now.Add(-cooldownFor(alertType))
	exists, err := d.alerts.HasRecentAlert(ctx, alertType, sourceIP, since)
	if err != nil {
		return false, fmt.Errorf("failed dedup lookup for %s/%s: %w", alertType, sourceIP, err)
	}
	if exists {
		metrics.AlertsDeduplicated.WithLabelValues(alertType.String()).Inc()
		return false, nil
	}

	d.seen[key] = struct{}{}
	return true, nil
}
