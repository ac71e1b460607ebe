// Package notify fans newly created alerts out to external sinks. The
// contract is at-least-once delivery after commit, in creation order
// within a batch; sink failures are logged and counted but never fail
// the ingest path.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"argus/core"
	"argus/enrich"
	"argus/metrics"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// AlertNotification is the payload delivered for each new alert,
// enriched with a point-in-time risk view of the offending source.
type AlertNotification struct {
	Alert     core.Alert         `json:"alert"`
	RiskScore int                `json:"risk_score"`
	HighRisk  bool               `json:"high_risk"`
	Geo       *enrich.GeoDetails `json:"geo,omitempty"`
}

// Sink delivers one alert notification to an external consumer.
type Sink interface {
	Name() string
	Publish(ctx context.Context, notification AlertNotification) error
}

// Notifier fans notifications out to every configured sink, filtered by
// minimum severity.
type Notifier struct {
	sinks       []Sink
	minSeverity core.Severity
	logger      *zap.SugaredLogger
}

// NewNotifier creates a notifier. An invalid minSeverity defaults to Low
// (no filtering).
func NewNotifier(sinks []Sink, minSeverity core.Severity, logger *zap.SugaredLogger) *Notifier {
	if !minSeverity.IsValid() {
		minSeverity = core.SeverityLow
	}
	return &Notifier{sinks: sinks, minSeverity: minSeverity, logger: logger}
}

// Notify delivers one notification to every sink. Failures are logged
// per sink and do not stop delivery to the others.
func (n *Notifier) Notify(ctx context.Context, notification AlertNotification) {
	if !notification.Alert.Severity.AtLeast(n.minSeverity) {
		return
	}

	for _, sink := range n.sinks {
		if err := sink.Publish(ctx, notification); err != nil {
			metrics.NotificationFailures.WithLabelValues(sink.Name()).Inc()
			n.logger.Errorw("notification delivery failed",
				"sink", sink.Name(),
				"alert_id", notification.Alert.AlertID,
				"error", err,
			)
		}
	}
}

// RedisSink publishes notifications as JSON on a redis pub/sub channel
// for real-time consumers (dashboards, responders).
type RedisSink struct {
	client  *redis.Client
	channel string
}

// NewRedisSink creates a redis pub/sub sink.
func NewRedisSink(addr, password string, db int, channel string) *RedisSink {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisSink{client: client, channel: channel}
}

// Name implements Sink.
func (s *RedisSink) Name() string { return "redis" }

// Publish implements Sink.
func (s *RedisSink) Publish(ctx context.Context, notification AlertNotification) error {
	payload, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	if err := s.client.Publish(ctx, s.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", s.channel, err)
	}
	return nil
}

// Close closes the redis connection.
func (s *RedisSink) Close() error {
	return s.client.Close()
}

// WebhookSink POSTs notifications as JSON to an external HTTP endpoint.
type WebhookSink struct {
	url    string
	client *http.Client
}

// NewWebhookSink creates a webhook sink.
func NewWebhookSink(url string, timeout time.Duration) *WebhookSink {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookSink{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Name implements Sink.
func (s *WebhookSink) Name() string { return "webhook" }

// Publish implements Sink.
func (s *WebhookSink) Publish(ctx context.Context, notification AlertNotification) error {
	payload, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
