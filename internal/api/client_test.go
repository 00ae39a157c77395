package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tonearm/internal/api"
	"tonearm/internal/events"
	"tonearm/internal/jobs"
	"tonearm/internal/services"
)

func TestBaseURL(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"127.0.0.1:7878", "http://127.0.0.1:7878"},
		{"http://127.0.0.1:7878/", "http://127.0.0.1:7878"},
		{"https://music.example.net", "https://music.example.net"},
		{"  10.0.0.4:80  ", "http://10.0.0.4:80"},
	}
	for _, tc := range cases {
		if got := api.BaseURL(tc.in); got != tc.want {
			t.Errorf("BaseURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestClientStatusDecodesSnapshot(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/status" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"counts": {"queued": 2, "ready": 1},
			"processed": 4,
			"total": 7,
			"source_dir": "/music/incoming",
			"target_dir": "/music/library",
			"ready": [{"path": "/music/incoming/blue", "name": "blue"}]
		}`)
	}))
	defer server.Close()

	client := api.NewClient(server.URL)
	snap, err := client.Status(context.Background())
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if snap.Total != 7 || snap.Processed != 4 {
		t.Fatalf("unexpected totals: %+v", snap)
	}
	if snap.Counts[jobs.StatusQueued] != 2 {
		t.Fatalf("expected 2 queued, got %+v", snap.Counts)
	}
	if len(snap.Ready) != 1 || snap.Ready[0].Name != "blue" {
		t.Fatalf("unexpected ready listing: %+v", snap.Ready)
	}
	if snap.SourceDir != "/music/incoming" {
		t.Fatalf("unexpected source dir %q", snap.SourceDir)
	}
}

func TestClientDecideRoundTrip(t *testing.T) {
	var got api.DecisionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/decision" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"ok": true, "status": "accepted"}`)
	}))
	defer server.Close()

	client := api.NewClient(server.URL)
	resp, err := client.Decide(context.Background(), api.DecisionRequest{
		Path:     "/music/incoming/blue",
		Action:   "accept",
		Proposal: &jobs.Proposal{Album: "Blue Train"},
	})
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if !resp.OK || resp.Status != jobs.StatusAccepted {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if got.Path != "/music/incoming/blue" || got.Action != "accept" {
		t.Fatalf("request did not round-trip: %+v", got)
	}
	if got.Proposal == nil || got.Proposal.Album != "Blue Train" {
		t.Fatalf("proposal did not round-trip: %+v", got.Proposal)
	}
}

func TestClientMapsErrorStatuses(t *testing.T) {
	cases := []struct {
		code   int
		marker error
	}{
		{http.StatusBadRequest, services.ErrValidation},
		{http.StatusNotFound, services.ErrNotFound},
		{http.StatusConflict, services.ErrConflict},
		{http.StatusInternalServerError, services.ErrTransient},
	}
	for _, tc := range cases {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(tc.code)
			fmt.Fprint(w, `{"error": "job moved on"}`)
		}))
		client := api.NewClient(server.URL)
		_, err := client.Status(context.Background())
		server.Close()
		if err == nil {
			t.Fatalf("expected error for status %d", tc.code)
		}
		if !errors.Is(err, tc.marker) {
			t.Fatalf("status %d: expected marker %v, got %v", tc.code, tc.marker, err)
		}
		if !strings.Contains(err.Error(), "job moved on") {
			t.Fatalf("expected server message in %q", err.Error())
		}
	}
}

func TestClientReportsUnreachableDaemon(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	addr := server.URL
	server.Close()

	client := api.NewClient(addr, api.WithTimeout(time.Second))
	_, err := client.Status(context.Background())
	if err == nil {
		t.Fatal("expected an error against a closed port")
	}
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestClientEventsStreamsFrames(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept"); got != "text/event-stream" {
			t.Errorf("expected event-stream accept header, got %q", got)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, ": heartbeat\n\n")
		fmt.Fprint(w, "id: 1\nevent: status\ndata: {\"seq\":1,\"ts\":\"2026-08-22T10:00:00Z\",\"type\":\"status\",\"payload\":{\"total\":1}}\n\n")
		fmt.Fprint(w, "id: 2\nevent: status\ndata: {\"seq\":2,\"ts\":\"2026-08-22T10:00:01Z\",\"type\":\"status\",\"payload\":{\"total\":2}}\n\n")
	}))
	defer server.Close()

	client := api.NewClient(server.URL)
	var seen []events.Event
	err := client.Events(context.Background(), 0, func(evt events.Event) error {
		seen = append(seen, evt)
		return nil
	})
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}
	if len(seen) != 2 {
		t.Fatalf("expected 2 events, got %d", len(seen))
	}
	if seen[0].Sequence != 1 || seen[1].Sequence != 2 {
		t.Fatalf("unexpected sequences: %+v", seen)
	}
	if seen[0].Type != "status" {
		t.Fatalf("unexpected type %q", seen[0].Type)
	}
	var payload struct {
		Total int `json:"total"`
	}
	if err := json.Unmarshal(seen[1].Payload, &payload); err != nil || payload.Total != 2 {
		t.Fatalf("payload did not survive: %v %+v", err, payload)
	}
}

func TestClientEventsStopsOnHandlerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for i := 1; i <= 5; i++ {
			fmt.Fprintf(w, "data: {\"seq\":%d,\"type\":\"status\"}\n\n", i)
		}
	}))
	defer server.Close()

	stop := errors.New("enough")
	count := 0
	client := api.NewClient(server.URL)
	err := client.Events(context.Background(), 0, func(events.Event) error {
		count++
		if count == 2 {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) {
		t.Fatalf("expected handler error to surface, got %v", err)
	}
	if count != 2 {
		t.Fatalf("expected the stream to stop after 2 events, got %d", count)
	}
}
