package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tonearm/internal/events"
	"tonearm/internal/status"
)

const (
	eventBatchLimit   = 64
	heartbeatInterval = 15 * time.Second
)

// handleEvents serves the SSE stream: one data frame per published event,
// heartbeat comments while idle. Clients resume with ?since= or the
// Last-Event-ID header; cursors that have fallen off the ring are covered
// by the snapshot frame every subscription opens with.
func (s *apiServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	since, _ := strconv.ParseUint(strings.TrimSpace(r.URL.Query().Get("since")), 10, 64)
	if since == 0 {
		if last := strings.TrimSpace(r.Header.Get("Last-Event-ID")); last != "" {
			since, _ = strconv.ParseUint(last, 10, 64)
		}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	if snapshot, err := s.daemon.aggregator.Snapshot(r.Context()); err == nil {
		if evt, err := events.New(status.EventTypeStatus, snapshot); err == nil {
			evt.Timestamp = time.Now().UTC()
			writeEventFrame(w, evt)
			flusher.Flush()
		}
	}

	for {
		fetchCtx, cancel := context.WithTimeout(r.Context(), heartbeatInterval)
		batch, next, err := s.daemon.hub.Fetch(fetchCtx, since, eventBatchLimit, true)
		cancel()

		for _, evt := range batch {
			writeEventFrame(w, evt)
		}
		if len(batch) > 0 {
			since = next
			flusher.Flush()
		}
		if err != nil {
			if r.Context().Err() != nil {
				return
			}
			fmt.Fprint(w, ": heartbeat\n\n")
			flusher.Flush()
		}
	}
}

func writeEventFrame(w io.Writer, evt events.Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", evt.Sequence, evt.Type, data)
}
