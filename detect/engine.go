// Package detect implements the fixed detection catalog: per-batch rule
// evaluation, alert deduplication, multi-signal correlation, and risk
// scoring. Windowed counts are always recomputed against the persisted
// event log, never against in-memory accumulators, so results stay
// correct across restarts, retries, and out-of-order ingestion.
package detect

import (
	"context"
	"fmt"
	"time"

	"argus/config"
	"argus/core"
	"argus/storage"

	"go.uber.org/zap"
)

// Engine evaluates the rule catalog against newly ingested event
// batches. It holds no counters of its own; all window state lives in
// the store.
type Engine struct {
	events  storage.EventStore
	alerts  storage.AlertStore
	configs storage.ConfigStore

	window            time.Duration
	correlationWindow time.Duration

	logger *zap.SugaredLogger
	now    func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithWindow overrides the trailing duration for rule counters.
func WithWindow(window time.Duration) Option {
	return func(e *Engine) { e.window = window }
}

// WithCorrelationWindow overrides the trailing duration for correlation.
func WithCorrelationWindow(window time.Duration) Option {
	return func(e *Engine) { e.correlationWindow = window }
}

// WithClock overrides the time source. Tests use this to pin windows.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates a rule evaluation engine.
func NewEngine(events storage.EventStore, alerts storage.AlertStore, configs storage.ConfigStore, logger *zap.SugaredLogger, opts ...Option) *Engine {
	e := &Engine{
		events:            events,
		alerts:            alerts,
		configs:           configs,
		window:            10 * time.Minute,
		correlationWindow: 120 * time.Second,
		logger:            logger,
		now:               func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// thresholds loads persisted overrides and merges them over the
// documented defaults. A missing key is never an error.
func (e *Engine) thresholds(ctx context.Context) (map[string]int, error) {
	overrides, err := e.configs.GetThresholds(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load thresholds: %w", err)
	}
	return config.MergeThresholds(overrides), nil
}

// Evaluate applies the rule catalog to one freshly committed batch and
// returns the alert candidates that survived deduplication. The batch
// must already be persisted: windowed counts are queried from the store
// and include the batch itself. Candidates are not persisted here.
func (e *Engine) Evaluate(ctx context.Context, batch []*core.Event) ([]*core.Alert, error) {
	if len(batch) == 0 {
		return nil, nil
	}

	thresholds, err := e.thresholds(ctx)
	if err != nil {
		return nil, err
	}

	now := e.now()
	windowStart := now.Add(-e.window)
	dedup := newDeduper(e.alerts, now)

	// Track which source IPs the batch touched, preserving first-seen
	// order so alerts come out in input order.
	var failedIPs, activeIPs []string
	seenFailed := make(map[string]bool)
	seenActive := make(map[string]bool)

	var alerts []*core.Alert

	for _, event := range batch {
		ip := event.SourceIP
		if ip == "" {
			ip = core.ValueUnknown
		}

		if !seenActive[ip] {
			seenActive[ip] = true
			activeIPs = append(activeIPs, ip)
		}
		if event.Outcome == core.OutcomeFailed && !seenFailed[ip] {
			seenFailed[ip] = true
			failedIPs = append(failedIPs, ip)
		}

		if matchesMalwareSignature(event.RawData) {
			alert, err := e.propose(ctx, dedup, core.AlertMalwareDetection, ip, now,
				fmt.Sprintf("Malware signature pattern detected in log payload from %s.", ip))
			if err != nil {
				return nil, err
			}
			if alert != nil {
				alerts = append(alerts, alert)
			}
		}
	}

	for _, ip := range failedIPs {
		failedCount, err := e.events.CountEvents(ctx, ip, storage.EventFilter{Outcome: core.OutcomeFailed}, windowStart)
		if err != nil {
			return nil, fmt.Errorf("failed to count failed events for %s: %w", ip, err)
		}

		switch {
		case failedCount >= int64(thresholds[config.KeyBruteForceCount]):
			alert, err := e.propose(ctx, dedup, core.AlertBruteForce, ip, now,
				fmt.Sprintf("Brute force detected from %s: %d failed attempts.", ip, failedCount))
			if err != nil {
				return nil, err
			}
			if alert != nil {
				alerts = append(alerts, alert)
			}
		case failedCount >= int64(thresholds[config.KeyRepeatedFailedThreshold]):
			alert, err := e.propose(ctx, dedup, core.AlertFailedLoginSpike, ip, now,
				fmt.Sprintf("Failed login spike for %s: %d failed logins.", ip, failedCount))
			if err != nil {
				return nil, err
			}
			if alert != nil {
				alerts = append(alerts, alert)
			}
		}
	}

	for _, ip := range activeIPs {
		if !isPublicIP(ip) {
			continue
		}
		totalCount, err := e.events.CountEvents(ctx, ip, storage.EventFilter{}, windowStart)
		if err != nil {
			return nil, fmt.Errorf("failed to count events for %s: %w", ip, err)
		}
		if totalCount >= int64(thresholds[config.KeyUnknownIPSpikeThreshold]) {
			alert, err := e.propose(ctx, dedup, core.AlertUnknownIPSpike, ip, now,
				fmt.Sprintf("Unknown IP spike detected for %s: %d events in %d minutes.",
					ip, totalCount, int(e.window.Minutes())))
			if err != nil {
				return nil, err
			}
			if alert != nil {
				alerts = append(alerts, alert)
			}
		}
	}

	return alerts, nil
}

// propose builds an alert candidate unless deduplication suppresses it.
func (e *Engine) propose(ctx context.Context, dedup *deduper, alertType core.AlertType, ip string, ts time.Time, description string) (*core.Alert, error) {
	emit, err := dedup.shouldEmit(ctx, alertType, ip)
	if err != nil {
		return nil, err
	}
	if !emit {
		return nil, nil
	}

	alert, err := core.NewAlert(alertType, ip, description, ts)
	if err != nil {
		return nil, err
	}

	e.logger.Infow("alert candidate",
		"type", alertType.String(),
		"source_ip", ip,
		"severity", alert.Severity.String(),
	)
	return alert, nil
}
