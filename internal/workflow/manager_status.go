package workflow

import (
	"context"

	"tonearm/internal/jobs"
	"tonearm/internal/logging"
	"tonearm/internal/stage"
)

// StatusSummary is the manager's lightweight diagnostics view.
type StatusSummary struct {
	Running     bool
	LastError   string
	Counts      map[jobs.Status]int
	StageHealth map[string]stage.Health
}

// Status reports lane health and job counts.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.RLock()
	running := m.running
	lastErr := m.lastErr
	scan := m.scan
	claims := append([]*claimLane(nil), m.claims...)
	m.mu.RUnlock()

	counts, err := m.store.Counts(ctx)
	if err != nil {
		m.logger.Warn("job counts unavailable", logging.Error(err))
	}

	health := make(map[string]stage.Health, len(claims)+1)
	if scan != nil {
		h := scan.producer.HealthCheck(ctx)
		health[h.Name] = h
	}
	for _, lane := range claims {
		h := lane.handler.HealthCheck(ctx)
		health[h.Name] = h
	}

	summary := StatusSummary{Running: running, Counts: counts, StageHealth: health}
	if lastErr != nil {
		summary.LastError = lastErr.Error()
	}
	return summary
}
