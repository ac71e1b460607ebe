// Package monitor provides the live-tail mode: a log file is followed
// and accumulated lines are flushed through the pipeline as one batch
// per poll interval. The loop is cooperatively scheduled; stop requests
// are honored at the top of each iteration, never by interruption.
package monitor

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"argus/pipeline"

	"github.com/nxadm/tail"
	"go.uber.org/zap"
)

// DefaultPollInterval is how often buffered lines are flushed as a batch.
const DefaultPollInterval = 2 * time.Second

// Monitor tails one log file through the detection pipeline.
type Monitor struct {
	path         string
	pollInterval time.Duration
	pipe         *pipeline.Pipeline
	logger       *zap.SugaredLogger

	mu      sync.Mutex
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// New creates a monitor for path.
func New(path string, pollInterval time.Duration, pipe *pipeline.Pipeline, logger *zap.SugaredLogger) *Monitor {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &Monitor{
		path:         path,
		pollInterval: pollInterval,
		pipe:         pipe,
		logger:       logger,
	}
}

// Start begins tailing from the end of the file and blocks until the
// monitor stops. Calling Start while already running returns
// immediately. Already committed events and alerts are left intact on
// stop; only unflushed buffered lines are discarded.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = true
	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})
	stopCh, doneCh := m.stopCh, m.doneCh
	m.mu.Unlock()

	defer close(doneCh)
	defer func() {
		m.mu.Lock()
		m.running = false
		m.mu.Unlock()
	}()

	t, err := tail.TailFile(m.path, tail.Config{
		Follow:    true,
		ReOpen:    true,
		MustExist: true,
		Location:  &tail.SeekInfo{Whence: io.SeekEnd},
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return err
	}
	defer t.Cleanup()

	m.logger.Infow("live monitoring started",
		"path", m.path, "poll_interval", m.pollInterval.String())

	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	var pending []string
	for {
		// Stop is checked first, at the top of every iteration.
		select {
		case <-ctx.Done():
			m.shutdown(t)
			return ctx.Err()
		case <-stopCh:
			m.shutdown(t)
			return nil
		default:
		}

		select {
		case line, ok := <-t.Lines:
			if !ok {
				m.shutdown(t)
				return t.Err()
			}
			if line.Err != nil {
				m.logger.Warnw("tail read error", "error", line.Err)
				continue
			}
			pending = append(pending, line.Text)

		case <-ticker.C:
			if len(pending) == 0 {
				continue
			}
			batch := strings.Join(pending, "\n")
			pending = pending[:0]
			if _, err := m.pipe.ProcessBatch(ctx, batch, m.path); err != nil {
				// The batch stays unprocessed in the store's view; log
				// and keep tailing rather than dying mid-stream.
				m.logger.Errorw("live batch failed", "error", err)
			}

		case <-ctx.Done():
			m.shutdown(t)
			return ctx.Err()
		case <-stopCh:
			m.shutdown(t)
			return nil
		}
	}
}

// shutdown closes the tail handle.
func (m *Monitor) shutdown(t *tail.Tail) {
	if err := t.Stop(); err != nil {
		m.logger.Warnw("failed to stop tail", "error", err)
	}
	m.logger.Info("live monitoring stopped")
}

// Stop requests a cooperative stop and waits for the loop to exit.
// Stopping a monitor that is not running is a no-op.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	select {
	case <-m.stopCh:
	default:
		close(m.stopCh)
	}
	doneCh := m.doneCh
	m.mu.Unlock()

	<-doneCh
}
