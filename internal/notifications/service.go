package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tonearm/internal/config"
)

const userAgent = "Tonearm/0.1.0"

// Service defines the notification surface exposed to pipeline components.
type Service interface {
	ProposalReady(ctx context.Context, folderName, artist, album string) error
	MoveCompleted(ctx context.Context, title, finalPath string) error
	JobFailed(ctx context.Context, folderName string, err error) error
	ScanSummary(ctx context.Context, discovered int) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) ProposalReady(ctx context.Context, folderName, artist, album string) error {
	folderName = strings.TrimSpace(folderName)
	proposed := strings.TrimSpace(strings.TrimSpace(artist) + " - " + strings.TrimSpace(album))
	proposed = strings.Trim(proposed, "- ")
	if proposed == "" {
		proposed = folderName
	}
	data := payload{
		title:   "Tonearm - Review Needed",
		message: fmt.Sprintf("🎵 Proposal ready: %s\nFolder: %s", proposed, folderName),
		tags:    []string{"tonearm", "review", "ready"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) MoveCompleted(ctx context.Context, title, finalPath string) error {
	title = strings.TrimSpace(title)
	finalPath = strings.TrimSpace(finalPath)
	message := fmt.Sprintf("✅ Added to library: %s", title)
	if finalPath != "" {
		message = fmt.Sprintf("%s\nLocation: %s", message, finalPath)
	}
	data := payload{
		title:   "Tonearm - Library Updated",
		message: message,
		tags:    []string{"tonearm", "move", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) JobFailed(ctx context.Context, folderName string, err error) error {
	var builder strings.Builder
	builder.WriteString("❌ Failed")
	if folderName = strings.TrimSpace(folderName); folderName != "" {
		builder.WriteString(": ")
		builder.WriteString(folderName)
	}
	builder.WriteString("\n")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown failure")
	}

	data := payload{
		title:    "Tonearm - Error",
		message:  builder.String(),
		tags:     []string{"tonearm", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) ScanSummary(ctx context.Context, discovered int) error {
	noun := "folders"
	if discovered == 1 {
		noun = "folder"
	}
	data := payload{
		title:   "Tonearm - Scan",
		message: fmt.Sprintf("Queued %d new %s for analysis", discovered, noun),
		tags:    []string{"tonearm", "scan", "queued"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Tonearm - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"tonearm", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) ProposalReady(context.Context, string, string, string) error { return nil }
func (noopService) MoveCompleted(context.Context, string, string) error         { return nil }
func (noopService) JobFailed(context.Context, string, error) error              { return nil }
func (noopService) ScanSummary(context.Context, int) error                      { return nil }
func (noopService) TestNotification(context.Context) error                      { return nil }
