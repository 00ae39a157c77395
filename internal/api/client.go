package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tonearm/internal/events"
	"tonearm/internal/services"
	"tonearm/internal/status"
)

const defaultRequestTimeout = 10 * time.Second

// Client is a typed HTTP client for a running daemon.
type Client struct {
	baseURL string
	http    *http.Client
	stream  *http.Client
}

// Option customizes client construction.
type Option func(*Client)

// WithHTTPClient overrides the request client (useful for tests).
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.http.Timeout = timeout
		}
	}
}

// BaseURL normalizes a bind address or URL into a client base URL.
func BaseURL(addr string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return ""
	}
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	return strings.TrimRight(addr, "/")
}

// NewClient constructs a client for the daemon at baseURL. A bare host:port
// is accepted and assumed to be http.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: BaseURL(baseURL),
		http:    &http.Client{Timeout: defaultRequestTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	// The stream client carries no global timeout; one would cut the
	// long-lived event stream mid-flight.
	c.stream = &http.Client{Transport: c.http.Transport}
	return c
}

// Status fetches the aggregated pipeline snapshot.
func (c *Client) Status(ctx context.Context) (*status.Snapshot, error) {
	var snap status.Snapshot
	if err := c.get(ctx, "/api/status", nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Ready lists folders awaiting a verdict, oldest first.
func (c *Client) Ready(ctx context.Context, limit int) ([]status.ReadyFolder, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var folders []status.ReadyFolder
	if err := c.get(ctx, "/api/ready", query, &folders); err != nil {
		return nil, err
	}
	return folders, nil
}

// Folder fetches the review detail for one folder.
func (c *Client) Folder(ctx context.Context, path string) (*FolderDetail, error) {
	query := url.Values{}
	query.Set("path", path)
	var detail FolderDetail
	if err := c.get(ctx, "/api/folder", query, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Decide submits a review verdict.
func (c *Client) Decide(ctx context.Context, req DecisionRequest) (*DecisionResponse, error) {
	var resp DecisionResponse
	if err := c.post(ctx, "/api/decision", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Paths fetches the active and staged library roots.
func (c *Client) Paths(ctx context.Context) (*PathsState, error) {
	var state PathsState
	if err := c.get(ctx, "/api/paths", nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// UpdatePaths stages roots or resolves the staged change.
func (c *Client) UpdatePaths(ctx context.Context, req PathsRequest) (*PathsState, error) {
	var state PathsState
	if err := c.post(ctx, "/api/paths", req, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// List browses one directory on the daemon's filesystem.
func (c *Client) List(ctx context.Context, path string) (*ListResponse, error) {
	query := url.Values{}
	if strings.TrimSpace(path) != "" {
		query.Set("path", path)
	}
	var listing ListResponse
	if err := c.get(ctx, "/api/list", query, &listing); err != nil {
		return nil, err
	}
	return &listing, nil
}

// DebugJobs fetches the diagnostics view of the job table.
func (c *Client) DebugJobs(ctx context.Context, limit int) (*DebugJobs, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var debug DebugJobs
	if err := c.get(ctx, "/api/debug/jobs", query, &debug); err != nil {
		return nil, err
	}
	return &debug, nil
}

// Events subscribes to the daemon's event stream and invokes fn for every
// event until the stream ends, the context is canceled, or fn returns an
// error. A since cursor of zero starts at the live tail.
func (c *Client) Events(ctx context.Context, since uint64, fn func(events.Event) error) error {
	if c.baseURL == "" {
		return services.Wrap(services.ErrConfiguration, "api", "events",
			"API address is not configured", nil)
	}
	endpoint := c.baseURL + "/api/events"
	if since > 0 {
		endpoint += "?since=" + strconv.FormatUint(since, 10)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	if since > 0 {
		req.Header.Set("Last-Event-ID", strconv.FormatUint(since, 10))
	}

	resp, err := c.stream.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return services.Wrap(services.ErrTransient, "api", "events",
			"Daemon is unreachable; is it running?", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decodeError(resp, "events")
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var data bytes.Buffer
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if data.Len() == 0 {
				continue
			}
			var evt events.Event
			err := json.Unmarshal(data.Bytes(), &evt)
			data.Reset()
			if err != nil {
				continue
			}
			if err := fn(evt); err != nil {
				return err
			}
		case strings.HasPrefix(line, ":"):
			// Heartbeat comment, keeps the connection warm.
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		default:
			// id: and event: fields repeat what the payload carries.
		}
	}
	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("read event stream: %w", err)
	}
	return ctx.Err()
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if c.baseURL == "" {
		return services.Wrap(services.ErrConfiguration, "api", "request",
			"API address is not configured", nil)
	}
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return services.Wrap(services.ErrTransient, "api", method+" "+path,
			"Daemon is unreachable; is it running?", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return decodeError(resp, strings.TrimPrefix(path, "/api/"))
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeError maps a non-2xx response back onto the service error markers
// so callers can branch with errors.Is the same way on both sides of the
// wire.
func decodeError(resp *http.Response, operation string) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body ErrorBody
	if err := json.Unmarshal(raw, &body); err != nil || strings.TrimSpace(body.Error) == "" {
		body.Error = strings.TrimSpace(string(raw))
	}
	if body.Error == "" {
		body.Error = resp.Status
	}

	marker := services.ErrTransient
	switch resp.StatusCode {
	case http.StatusBadRequest:
		marker = services.ErrValidation
	case http.StatusNotFound:
		marker = services.ErrNotFound
	case http.StatusConflict:
		marker = services.ErrConflict
	}
	return services.Wrap(marker, "api", operation, body.Error, nil)
}
