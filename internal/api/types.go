package api

import (
	"encoding/json"

	"tonearm/internal/jobs"
	"tonearm/internal/paths"
	"tonearm/internal/status"
)

// PathsState mirrors GET /api/paths: the active roots plus whatever is
// staged for the next confirm.
type PathsState struct {
	Current paths.Snapshot `json:"current"`
	Staged  paths.Staged   `json:"staged"`
}

// Actions accepted by POST /api/paths alongside plain staging fields.
const (
	PathsActionConfirm = "confirm"
	PathsActionCancel  = "cancel"
)

// PathsRequest stages new roots or resolves the staged change. A request
// carries either staging fields or an action, not both.
type PathsRequest struct {
	SourceDir string `json:"source_dir,omitempty"`
	TargetDir string `json:"target_dir,omitempty"`
	Action    string `json:"action,omitempty"`
}

// DecisionRequest carries one review verdict for a folder.
type DecisionRequest struct {
	Path     string         `json:"path"`
	Action   string         `json:"action"`
	Proposal *jobs.Proposal `json:"proposal,omitempty"`
	Feedback string         `json:"feedback,omitempty"`
}

// DecisionResponse acknowledges an applied verdict with the status the job
// landed in.
type DecisionResponse struct {
	OK     bool        `json:"ok"`
	Status jobs.Status `json:"status,omitempty"`
}

// FolderDetail mirrors GET /api/folder: the captured folder metadata and
// the stored proposal for the latest job on that folder.
type FolderDetail struct {
	Metadata json.RawMessage `json:"metadata"`
	Proposal jobs.Proposal   `json:"proposal"`
}

// ListEntry is one subdirectory in a browse listing.
type ListEntry struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// ListResponse mirrors GET /api/list. Parent is empty at the filesystem
// root.
type ListResponse struct {
	Entries []ListEntry `json:"entries"`
	Parent  string      `json:"parent"`
}

// DebugJobs mirrors GET /api/debug/jobs.
type DebugJobs struct {
	Counts map[jobs.Status]int `json:"counts"`
	Recent []status.JobSummary `json:"recent"`
}

// ErrorBody is the envelope every non-2xx response carries.
type ErrorBody struct {
	Error string `json:"error"`
}
