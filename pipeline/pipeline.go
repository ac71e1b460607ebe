// Package pipeline orchestrates one ingested batch end to end:
// normalize, commit events transactionally, evaluate the rule catalog,
// correlate, commit alerts, and fan out notifications. Only store
// commit failures propagate to the caller; everything else degrades.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"argus/core"
	"argus/detect"
	"argus/enrich"
	"argus/ingest"
	"argus/metrics"
	"argus/notify"
	"argus/storage"

	"go.uber.org/zap"
)

// Result summarizes one processed batch. Zero accepted events on
// non-empty input is a degraded result, not an error.
type Result struct {
	EventsAccepted   int `json:"events_accepted"`
	AlertsGenerated  int `json:"alerts_generated"`
	CorrelatedAlerts int `json:"correlated_alerts"`
}

// Pipeline wires the normalizer, store, detection engine, enrichment
// oracle, and notifier together.
type Pipeline struct {
	events     storage.EventStore
	alerts     storage.AlertStore
	configs    storage.ConfigStore
	engine     *detect.Engine
	notifier   *notify.Notifier
	oracle     enrich.Oracle
	riskWindow time.Duration
	logger     *zap.SugaredLogger
}

// New creates a pipeline. oracle may be enrich.NoopOracle{} when
// enrichment is disabled; notifier may have zero sinks.
func New(events storage.EventStore, alerts storage.AlertStore, configs storage.ConfigStore,
	engine *detect.Engine, notifier *notify.Notifier, oracle enrich.Oracle,
	riskWindow time.Duration, logger *zap.SugaredLogger) *Pipeline {
	if riskWindow <= 0 {
		riskWindow = 10 * time.Minute
	}
	return &Pipeline{
		events:     events,
		alerts:     alerts,
		configs:    configs,
		engine:     engine,
		notifier:   notifier,
		oracle:     oracle,
		riskWindow: riskWindow,
		logger:     logger,
	}
}

// ProcessBatch ingests one upload or tail interval. The whole batch of
// events commits in a single transaction before any rule runs, so a
// returned error always means the batch can be retried as a unit;
// re-processing after a failure cannot double-fire alerts because
// deduplication consults the persisted alert log.
func (p *Pipeline) ProcessBatch(ctx context.Context, rawContent, filename string) (*Result, error) {
	started := time.Now()
	defer func() {
		metrics.BatchProcessingDuration.Observe(time.Since(started).Seconds())
	}()

	events := ingest.Normalize(rawContent, filename)
	if len(events) == 0 {
		p.logger.Infow("batch produced no events", "filename", filename)
		return &Result{}, nil
	}

	if err := p.events.InsertEvents(ctx, events); err != nil {
		return nil, fmt.Errorf("failed to commit event batch: %w", err)
	}
	for _, event := range events {
		metrics.EventsIngested.WithLabelValues(event.SourceCategory).Inc()
	}

	live, err := p.configs.LiveMonitoringEnabled(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read live monitoring flag: %w", err)
	}

	result := &Result{EventsAccepted: len(events)}
	if !live {
		p.logger.Debugw("live monitoring disabled; batch stored without evaluation",
			"events", len(events))
		return result, nil
	}

	newAlerts, err := p.runDetection(ctx, events)
	if err != nil {
		return nil, err
	}

	correlated, err := p.runCorrelation(ctx)
	if err != nil {
		return nil, err
	}

	result.AlertsGenerated = len(newAlerts) + len(correlated)
	result.CorrelatedAlerts = len(correlated)

	p.notifyAll(ctx, append(newAlerts, correlated...))

	p.logger.Infow("batch processed",
		"filename", filename,
		"events", result.EventsAccepted,
		"alerts", result.AlertsGenerated,
		"correlated", result.CorrelatedAlerts,
	)
	return result, nil
}

// runDetection evaluates the rule catalog and commits surviving alerts.
func (p *Pipeline) runDetection(ctx context.Context, events []*core.Event) ([]*core.Alert, error) {
	alerts, err := p.engine.Evaluate(ctx, events)
	if err != nil {
		return nil, fmt.Errorf("rule evaluation failed: %w", err)
	}
	if len(alerts) == 0 {
		return nil, nil
	}

	if err := p.alerts.InsertAlerts(ctx, alerts); err != nil {
		return nil, fmt.Errorf("failed to commit alerts: %w", err)
	}
	for _, alert := range alerts {
		metrics.AlertsGenerated.WithLabelValues(alert.Type.String(), alert.Severity.String()).Inc()
	}
	return alerts, nil
}

// runCorrelation fuses recent alerts and commits any escalations. It
// runs after detection's alerts are committed so it sees them.
func (p *Pipeline) runCorrelation(ctx context.Context) ([]*core.Alert, error) {
	correlated, err := p.engine.Correlate(ctx)
	if err != nil {
		return nil, fmt.Errorf("correlation failed: %w", err)
	}
	if len(correlated) == 0 {
		return nil, nil
	}

	if err := p.alerts.InsertAlerts(ctx, correlated); err != nil {
		return nil, fmt.Errorf("failed to commit correlated alerts: %w", err)
	}
	for _, alert := range correlated {
		metrics.AlertsGenerated.WithLabelValues(alert.Type.String(), alert.Severity.String()).Inc()
	}
	return correlated, nil
}

// notifyAll delivers committed alerts in creation order, each carrying a
// fresh risk view and optional geo enrichment. Delivery problems never
// fail the batch.
func (p *Pipeline) notifyAll(ctx context.Context, alerts []*core.Alert) {
	if p.notifier == nil || len(alerts) == 0 {
		return
	}

	snapshots, err := p.engine.RiskSnapshots(ctx, p.riskWindow)
	if err != nil {
		p.logger.Warnw("risk snapshot unavailable for notifications", "error", err)
		snapshots = map[string]*core.RiskSnapshot{}
	}

	for _, alert := range alerts {
		notification := notify.AlertNotification{Alert: *alert}
		if snapshot, ok := snapshots[alert.SourceIP]; ok {
			notification.RiskScore = snapshot.RiskScore
			notification.HighRisk = snapshot.HighRisk
		}
		if p.oracle != nil {
			notification.Geo = p.oracle.Lookup(ctx, alert.SourceIP)
		}
		p.notifier.Notify(ctx, notification)
	}
}
