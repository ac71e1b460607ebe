package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"argus/core"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func notification(t *testing.T, alertType core.AlertType, ip string) AlertNotification {
	t.Helper()
	alert, err := core.NewAlert(alertType, ip, "test alert", time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return AlertNotification{Alert: *alert, RiskScore: 7}
}

func TestNotifierDeliversToAllSinks(t *testing.T) {
	first := NewMockSink()
	second := NewMockSink()
	notifier := NewNotifier([]Sink{first, second}, core.SeverityLow, zap.NewNop().Sugar())

	n := notification(t, core.AlertBruteForce, "203.0.113.5")
	notifier.Notify(context.Background(), n)

	require.Len(t, first.Notifications(), 1)
	require.Len(t, second.Notifications(), 1)
	assert.Equal(t, n.Alert.AlertID, first.Notifications()[0].Alert.AlertID)
}

func TestNotifierMinSeverityFilter(t *testing.T) {
	sink := NewMockSink()
	notifier := NewNotifier([]Sink{sink}, core.SeverityHigh, zap.NewNop().Sugar())
	ctx := context.Background()

	notifier.Notify(ctx, notification(t, core.AlertFailedLoginSpike, "203.0.113.5"))
	assert.Empty(t, sink.Notifications(), "Medium is below the High floor")

	notifier.Notify(ctx, notification(t, core.AlertBruteForce, "203.0.113.5"))
	notifier.Notify(ctx, notification(t, core.AlertMalwareDetection, "203.0.113.5"))
	assert.Len(t, sink.Notifications(), 2)
}

func TestNotifierSinkFailureDoesNotStopOthers(t *testing.T) {
	failing := NewMockSink()
	failing.Err = errors.New("connection refused")
	working := NewMockSink()
	notifier := NewNotifier([]Sink{failing, working}, core.SeverityLow, zap.NewNop().Sugar())

	notifier.Notify(context.Background(), notification(t, core.AlertBruteForce, "203.0.113.5"))

	assert.Empty(t, failing.Notifications())
	assert.Len(t, working.Notifications(), 1)
}

func TestNotifierInvalidMinSeverityDefaultsToLow(t *testing.T) {
	sink := NewMockSink()
	notifier := NewNotifier([]Sink{sink}, core.Severity("bogus"), zap.NewNop().Sugar())

	notifier.Notify(context.Background(), notification(t, core.AlertFailedLoginSpike, "203.0.113.5"))
	assert.Len(t, sink.Notifications(), 1)
}

func TestNotifierPreservesOrder(t *testing.T) {
	sink := NewMockSink()
	notifier := NewNotifier([]Sink{sink}, core.SeverityLow, zap.NewNop().Sugar())
	ctx := context.Background()

	a := notification(t, core.AlertBruteForce, "203.0.113.5")
	b := notification(t, core.AlertMalwareDetection, "198.51.100.9")
	notifier.Notify(ctx, a)
	notifier.Notify(ctx, b)

	got := sink.Notifications()
	require.Len(t, got, 2)
	assert.Equal(t, a.Alert.AlertID, got[0].Alert.AlertID)
	assert.Equal(t, b.Alert.AlertID, got[1].Alert.AlertID)
}

func TestRedisSinkPublish(t *testing.T) {
	srv := miniredis.RunT(t)
	sink := NewRedisSink(srv.Addr(), "", 0, "argus:alerts")
	defer sink.Close()

	ctx := context.Background()
	n := notification(t, core.AlertMalwareDetection, "203.0.113.7")
	n.HighRisk = true

	// Subscribe before publishing so the message is not dropped.
	subscriber := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	defer subscriber.Close()
	pubsub := subscriber.Subscribe(ctx, "argus:alerts")
	defer pubsub.Close()
	_, err := pubsub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, sink.Publish(ctx, n))

	select {
	case msg := <-pubsub.Channel():
		assert.Equal(t, "argus:alerts", msg.Channel)

		var decoded AlertNotification
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &decoded))
		assert.Equal(t, n.Alert.AlertID, decoded.Alert.AlertID)
		assert.True(t, decoded.HighRisk)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for published message")
	}
}

func TestWebhookSinkPublish(t *testing.T) {
	var received AlertNotification
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sink := NewWebhookSink(server.URL, 5*time.Second)
	n := notification(t, core.AlertCorrelatedAttack, "203.0.113.5")
	require.NoError(t, sink.Publish(context.Background(), n))

	assert.Equal(t, n.Alert.AlertID, received.Alert.AlertID)
	assert.Equal(t, core.AlertCorrelatedAttack, received.Alert.Type)
}

func TestWebhookSinkNon2xxIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	sink := NewWebhookSink(server.URL, 5*time.Second)
	err := sink.Publish(context.Background(), notification(t, core.AlertBruteForce, "203.0.113.5"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}
