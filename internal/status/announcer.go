package status

import (
	"context"
	"log/slog"

	"tonearm/internal/events"
	"tonearm/internal/logging"
)

// EventTypeStatus marks full-snapshot events on the hub.
const EventTypeStatus = "status"

// Announcer publishes fresh snapshots to the event hub. Announcements are
// best-effort: a failed snapshot is logged and dropped, readers re-sync
// from GET /api/status.
type Announcer struct {
	aggregator *Aggregator
	hub        *events.Hub
	logger     *slog.Logger
}

// NewAnnouncer wires the aggregator to the hub.
func NewAnnouncer(aggregator *Aggregator, hub *events.Hub, logger *slog.Logger) *Announcer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Announcer{
		aggregator: aggregator,
		hub:        hub,
		logger:     logger.With(logging.String(logging.FieldComponent, "status")),
	}
}

// Announce recomputes the snapshot and publishes it. Components call this
// after every transition they cause.
func (a *Announcer) Announce(ctx context.Context) {
	if a == nil || a.hub == nil {
		return
	}
	snapshot, err := a.aggregator.Snapshot(ctx)
	if err != nil {
		a.logger.Warn("status announcement skipped", logging.Error(err))
		return
	}
	evt, err := events.New(EventTypeStatus, snapshot)
	if err != nil {
		a.logger.Warn("status event could not be encoded", logging.Error(err))
		return
	}
	a.hub.Publish(evt)
}
