package workflow

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"tonearm/internal/logging"
)

// Start launches the configured lanes. It returns immediately; lanes run
// until Stop or context cancellation.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	scan := m.scan
	claims := append([]*claimLane(nil), m.claims...)
	if scan == nil && len(claims) == 0 {
		m.mu.Unlock()
		return errors.New("workflow lanes not configured")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true

	if scan != nil {
		scan.logger = m.laneLogger("scan")
	}
	for _, lane := range claims {
		lane.logger = m.laneLogger(lane.name)
	}
	count := len(claims)
	if scan != nil {
		count++
	}
	m.wg.Add(count)
	m.mu.Unlock()

	if scan != nil {
		go m.runScanLane(runCtx, scan)
	}
	for _, lane := range claims {
		go m.runClaimLane(runCtx, lane)
	}
	return nil
}

// Stop cancels the lanes and waits for in-progress work to wind down.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

func (m *Manager) laneLogger(name string) *slog.Logger {
	return m.logger.With(
		logging.String(logging.FieldComponent, "workflow-"+name+"-runner"),
		logging.String(logging.FieldLane, name),
	)
}

// runScanLane cycles the producer immediately on start, then on its
// interval. A failed cycle is logged and retried next interval.
func (m *Manager) runScanLane(ctx context.Context, lane *scanLane) {
	defer m.wg.Done()
	logger := lane.logger

	for {
		discovered, err := lane.producer.RunOnce(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			m.setLastError(err)
			logger.Error("scan cycle failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the source root"))
		}
		if discovered > 0 {
			m.announce(ctx)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(lane.interval):
		}
	}
}

// runClaimLane drains claimable jobs back to back, sleeping only when the
// queue for its status is empty.
func (m *Manager) runClaimLane(ctx context.Context, lane *claimLane) {
	defer m.wg.Done()
	logger := lane.logger

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := m.store.ClaimNext(ctx, lane.from, lane.to)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			m.setLastError(err)
			logger.Error("claim failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check job store access"))
			m.sleep(ctx, lane.interval)
			continue
		}
		if job == nil {
			m.sleep(ctx, lane.interval)
			continue
		}

		m.processJob(ctx, lane, job)
	}
}

func (m *Manager) sleep(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Second
	}
	select {
	case <-ctx.Done():
	case <-time.After(interval):
	}
}
