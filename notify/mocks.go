package notify

import (
	"context"
	"sync"
)

// MockSink records notifications for tests.
type MockSink struct {
	mu            sync.Mutex
	notifications []AlertNotification
	// Err, when set, is returned from every Publish call.
	Err error
}

// NewMockSink creates a recording sink.
func NewMockSink() *MockSink {
	return &MockSink{}
}

// Name implements Sink.
func (m *MockSink) Name() string { return "mock" }

// Publish implements Sink.
func (m *MockSink) Publish(_ context.Context, notification AlertNotification) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications = append(m.notifications, notification)
	return nil
}

// Notifications returns a copy of everything published so far.
func (m *MockSink) Notifications() []AlertNotification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]AlertNotification, len(m.notifications))
	copy(out, m.notifications)
	return out
}
