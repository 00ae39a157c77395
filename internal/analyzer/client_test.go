package analyzer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tonearm/internal/library"
)

func testRequest() Request {
	return Request{
		FolderName: "1971 - Blue",
		Snapshot: &library.Snapshot{
			FolderName:     "1971 - Blue",
			AudioFileCount: 2,
			DirectAudio:    2,
			Files:          []string{"01 - All I Want.mp3", "02 - My Old Man.mp3"},
		},
	}
}

func proposalResponse(content string) map[string]any {
	return map[string]any{
		"choices": []any{
			map[string]any{
				"message": map[string]any{
					"content": content,
				},
			},
		},
	}
}

func TestClientProposeDecodesAndCanonicalizes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected authorization header %q", got)
		}
		var req chatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "demo-model" {
			t.Errorf("unexpected model %q", req.Model)
		}
		if req.Temperature != 0 {
			t.Errorf("unexpected temperature %v", req.Temperature)
		}
		if req.ResponseFormat["type"] != "json_object" {
			t.Errorf("unexpected response_format %v", req.ResponseFormat)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
			t.Errorf("unexpected messages %+v", req.Messages)
		}
		if !strings.Contains(req.Messages[1].Content, "1971 - Blue") {
			t.Errorf("user prompt missing folder name: %q", req.Messages[1].Content)
		}
		payload := proposalResponse(`{"artist":" Joni Mitchell ","album":"Blue","year":1971,"release_type":"album","confidence":"HIGH","reasoning":"Track listing matches the 1971 release."}`)
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test-key", BaseURL: server.URL, Model: "demo-model"})
	proposal, err := client.Propose(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Propose returned error: %v", err)
	}
	if proposal.Artist != "Joni Mitchell" {
		t.Errorf("artist = %q", proposal.Artist)
	}
	if proposal.Album != "Blue" || proposal.Year != 1971 {
		t.Errorf("album/year = %q/%d", proposal.Album, proposal.Year)
	}
	if proposal.ReleaseType != "Album" {
		t.Errorf("release type not canonicalized: %q", proposal.ReleaseType)
	}
	if proposal.Confidence != "high" {
		t.Errorf("confidence not canonicalized: %q", proposal.Confidence)
	}
}

func TestClientProposeStripsCodeFence(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		content := "```json\n{\"artist\":\"Neil Young\",\"album\":\"Harvest\",\"year\":1972,\"release_type\":\"Album\",\"confidence\":\"medium\",\"reasoning\":\"demo\"}\n```"
		_ = json.NewEncoder(w).Encode(proposalResponse(content))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo"})
	proposal, err := client.Propose(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Propose returned error: %v", err)
	}
	if proposal.Artist != "Neil Young" || proposal.Album != "Harvest" {
		t.Fatalf("unexpected proposal %+v", proposal)
	}
}

func TestClientProposeRejectsInvalidReleaseType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		content := `{"artist":"A","album":"B","year":2000,"release_type":"Mixtape","confidence":"low","reasoning":"demo"}`
		_ = json.NewEncoder(w).Encode(proposalResponse(content))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo"})
	_, err := client.Propose(context.Background(), testRequest())
	if err == nil {
		t.Fatal("expected error for invalid release type")
	}
	if !strings.Contains(err.Error(), "release_type") {
		t.Fatalf("expected release_type in error, got %v", err)
	}
}

func TestClientProposeRejectsInvalidConfidence(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		content := `{"artist":"A","album":"B","year":2000,"release_type":"Album","confidence":"certain","reasoning":"demo"}`
		_ = json.NewEncoder(w).Encode(proposalResponse(content))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo"})
	_, err := client.Propose(context.Background(), testRequest())
	if err == nil {
		t.Fatal("expected error for invalid confidence")
	}
	if !strings.Contains(err.Error(), "confidence") {
		t.Fatalf("expected confidence in error, got %v", err)
	}
}

func TestClientProposeRetriesOn429(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "rate limited"})
			return
		}
		content := `{"artist":"A","album":"B","year":0,"release_type":"Album","confidence":"low","reasoning":"demo"}`
		_ = json.NewEncoder(w).Encode(proposalResponse(content))
	}))
	defer server.Close()

	var slept []time.Duration
	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo"},
		WithSleeper(func(d time.Duration) { slept = append(slept, d) }),
		WithRetryBackoff(0, 10*time.Second),
		WithRetryMaxAttempts(5),
	)
	proposal, err := client.Propose(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Propose returned error: %v", err)
	}
	if proposal.Album != "B" {
		t.Fatalf("unexpected proposal %+v", proposal)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
	if len(slept) != 1 || slept[0] != time.Second {
		t.Fatalf("expected single sleep of 1s honoring Retry-After, got %v", slept)
	}
}

func TestClientProposeRetriesOnEmptyContentThenSucceeds(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		content := ""
		if calls >= 3 {
			content = `{"artist":"A","album":"B","year":0,"release_type":"EP","confidence":"medium","reasoning":"demo"}`
		}
		payload := map[string]any{
			"choices": []any{
				map[string]any{
					"finish_reason": "stop",
					"message":       map[string]any{"content": content},
				},
			},
		}
		_ = json.NewEncoder(w).Encode(payload)
	}))
	defer server.Close()

	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo"},
		WithRetryBackoff(0, 0),
		WithSleeper(func(time.Duration) {}),
		WithRetryMaxAttempts(5),
	)
	proposal, err := client.Propose(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Propose returned error: %v", err)
	}
	if proposal.ReleaseType != "EP" {
		t.Fatalf("unexpected proposal %+v", proposal)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestClientProposeDoesNotRetryClientErrors(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "bad request"})
	}))
	defer server.Close()

	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo"},
		WithSleeper(func(time.Duration) {}),
	)
	_, err := client.Propose(context.Background(), testRequest())
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	if calls != 1 {
		t.Fatalf("expected exactly 1 call, got %d", calls)
	}
}

func TestClientProposeRequiresConfiguration(t *testing.T) {
	client := NewClient(Config{})
	if client.Configured() {
		t.Fatal("expected empty config to be unconfigured")
	}
	if _, err := client.Propose(context.Background(), testRequest()); err == nil {
		t.Fatal("expected error from unconfigured client")
	}
}
