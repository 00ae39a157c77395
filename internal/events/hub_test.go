package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"tonearm/internal/events"
)

func publishN(t *testing.T, hub *events.Hub, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		evt, err := events.New("status", map[string]int{"total": i})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		hub.Publish(evt)
	}
}

func TestHubAssignsSequences(t *testing.T) {
	hub := events.NewHub(16)
	publishN(t, hub, 3)

	batch, next, err := hub.Fetch(context.Background(), 0, 0, false)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(batch) != 3 || next != 3 {
		t.Fatalf("batch=%d next=%d, want 3 and 3", len(batch), next)
	}
	for i, evt := range batch {
		if evt.Sequence != uint64(i+1) {
			t.Fatalf("sequence[%d] = %d", i, evt.Sequence)
		}
		if evt.Timestamp.IsZero() {
			t.Fatalf("event %d missing timestamp", i)
		}
		if evt.Type != "status" {
			t.Fatalf("event type = %q", evt.Type)
		}
	}

	var payload map[string]int
	if err := json.Unmarshal(batch[2].Payload, &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload["total"] != 2 {
		t.Fatalf("payload = %v", payload)
	}
}

func TestHubFetchSinceCursor(t *testing.T) {
	hub := events.NewHub(16)
	publishN(t, hub, 5)

	batch, next, err := hub.Fetch(context.Background(), 2, 2, false)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(batch) != 2 || batch[0].Sequence != 3 || batch[1].Sequence != 4 {
		t.Fatalf("unexpected batch %+v", batch)
	}
	if next != 5 {
		t.Fatalf("next = %d, want newest assigned sequence", next)
	}

	batch, _, err = hub.Fetch(context.Background(), 5, 0, false)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(batch) != 0 {
		t.Fatalf("expected empty batch past the cursor, got %d", len(batch))
	}
}

func TestHubDropsOldestBeyondCapacity(t *testing.T) {
	hub := events.NewHub(4)
	publishN(t, hub, 6)

	if first := hub.FirstSequence(); first != 3 {
		t.Fatalf("FirstSequence = %d, want 3", first)
	}
	batch, next, err := hub.Fetch(context.Background(), 0, 0, false)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(batch) != 4 || batch[0].Sequence != 3 || batch[3].Sequence != 6 {
		t.Fatalf("unexpected ring contents %+v", batch)
	}
	if next != 6 {
		t.Fatalf("next = %d", next)
	}
}

func TestHubTail(t *testing.T) {
	hub := events.NewHub(16)
	publishN(t, hub, 5)

	tail, next := hub.Tail(2)
	if len(tail) != 2 || tail[0].Sequence != 4 || tail[1].Sequence != 5 {
		t.Fatalf("unexpected tail %+v", tail)
	}
	if next != 5 {
		t.Fatalf("next = %d", next)
	}
}

func TestHubFetchWaitWakesOnPublish(t *testing.T) {
	hub := events.NewHub(16)

	type result struct {
		batch []events.Event
		err   error
	}
	got := make(chan result, 1)
	go func() {
		batch, _, err := hub.Fetch(context.Background(), 0, 0, true)
		got <- result{batch: batch, err: err}
	}()

	time.Sleep(20 * time.Millisecond)
	publishN(t, hub, 1)

	select {
	case res := <-got:
		if res.err != nil {
			t.Fatalf("Fetch: %v", res.err)
		}
		if len(res.batch) != 1 || res.batch[0].Sequence != 1 {
			t.Fatalf("unexpected batch %+v", res.batch)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Fetch did not wake on publish")
	}
}

func TestHubFetchWaitHonorsContext(t *testing.T) {
	hub := events.NewHub(16)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, _, err := hub.Fetch(ctx, 0, 0, true)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}
