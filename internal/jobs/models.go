package jobs

import (
	"path/filepath"
	"strings"
	"time"
)

// Status represents the lifecycle of a pipeline job.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusAnalyzing Status = "analyzing"
	StatusReady     Status = "ready"
	StatusAccepted  Status = "accepted"
	StatusMoving    Status = "moving"
	StatusSkipped   Status = "skipped"
	StatusError     Status = "error"
	StatusCompleted Status = "completed"
)

var allStatuses = []Status{
	StatusQueued,
	StatusAnalyzing,
	StatusReady,
	StatusAccepted,
	StatusMoving,
	StatusSkipped,
	StatusError,
	StatusCompleted,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// terminalStatuses never change again. Error is deliberately absent: an
// error job stays live and re-enters the pipeline through reconsideration.
var terminalStatuses = map[Status]struct{}{
	StatusSkipped:   {},
	StatusCompleted: {},
}

// inFlightStatuses mark a worker actively holding a job. The watchdog
// reverts these when a worker dies without releasing.
var inFlightStatuses = map[Status]struct{}{
	StatusAnalyzing: {},
	StatusMoving:    {},
}

// JobType records which stage created a job. Informational only.
type JobType string

const (
	TypeScanDiscovered JobType = "scan-discovered"
	TypeAnalyze        JobType = "analyze"
	TypeMove           JobType = "move"
)

// Job represents a pipeline job persisted in SQLite.
type Job struct {
	ID           int64
	Type         JobType
	FolderPath   string
	Status       Status
	MetadataJSON string
	ProposalJSON string
	ErrorMessage string
	UserFeedback string
	ArtistHint   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether the status is final for its folder.
func (s Status) IsTerminal() bool {
	_, ok := terminalStatuses[s]
	return ok
}

// IsInFlight reports whether a worker currently holds jobs in this status.
func (s Status) IsInFlight() bool {
	_, ok := inFlightStatuses[s]
	return ok
}

// FolderName returns the last path component of the job's folder.
func (j Job) FolderName() string {
	return filepath.Base(j.FolderPath)
}

// Proposal decodes the stored proposal. ok is false when none is stored.
func (j Job) Proposal() (Proposal, bool) {
	return ProposalFromJSON(j.ProposalJSON)
}
