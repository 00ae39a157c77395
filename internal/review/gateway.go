package review

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"tonearm/internal/jobs"
	"tonearm/internal/logging"
	"tonearm/internal/services"
)

// Verdict names a human decision on a reviewed folder.
type Verdict string

const (
	VerdictAccept     Verdict = "accept"
	VerdictReconsider Verdict = "reconsider"
	VerdictSkip       Verdict = "skip"
)

// ParseVerdict converts a wire string into a known Verdict.
func ParseVerdict(value string) (Verdict, bool) {
	v := Verdict(strings.ToLower(strings.TrimSpace(value)))
	switch v {
	case VerdictAccept, VerdictReconsider, VerdictSkip:
		return v, true
	}
	return "", false
}

// Decision carries one verdict for one folder.
type Decision struct {
	FolderPath string
	Verdict    Verdict

	// Feedback is required for reconsider and ignored otherwise.
	Feedback string

	// Override optionally replaces proposal fields on accept; zero-value
	// fields keep the stored values.
	Override *jobs.Proposal
}

// Gateway resolves verdicts against the latest job for a folder.
type Gateway struct {
	store  *jobs.Store
	logger *slog.Logger
}

// NewGateway constructs the decision gateway.
func NewGateway(store *jobs.Store, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Gateway{
		store:  store,
		logger: logger.With(logging.String(logging.FieldComponent, "review")),
	}
}

// Apply executes one decision and returns the job in its new state.
// Ineligible statuses and lost races surface as conflicts so the caller
// re-fetches instead of assuming the verdict landed.
func (g *Gateway) Apply(ctx context.Context, decision Decision) (*jobs.Job, error) {
	folder := strings.TrimSpace(decision.FolderPath)
	if folder == "" {
		return nil, services.Wrap(services.ErrValidation, "review", "apply verdict",
			"A folder path is required", nil)
	}

	job, err := g.store.LatestForFolder(ctx, folder)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "review", "load job",
			"Job lookup failed", err)
	}
	if job == nil {
		return nil, services.Wrap(services.ErrNotFound, "review", "load job",
			fmt.Sprintf("No job record exists for %s", folder), nil)
	}

	switch decision.Verdict {
	case VerdictAccept:
		err = g.accept(ctx, job, decision.Override)
	case VerdictReconsider:
		err = g.reconsider(ctx, job, decision.Feedback)
	case VerdictSkip:
		err = g.skip(ctx, job)
	default:
		return nil, services.Wrap(services.ErrValidation, "review", "apply verdict",
			fmt.Sprintf("Unknown verdict %q; use accept, reconsider, or skip", decision.Verdict), nil)
	}
	if err != nil {
		return nil, err
	}

	updated, err := g.store.GetByID(ctx, job.ID)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "review", "reload job",
			"Verdict applied but the job could not be reloaded", err)
	}
	g.logger.Info("verdict applied",
		logging.String("verdict", string(decision.Verdict)),
		logging.String(logging.FieldFolder, folder),
		logging.Int64(logging.FieldJobID, job.ID),
		logging.String(logging.FieldStatus, string(updated.Status)))
	return updated, nil
}

func (g *Gateway) accept(ctx context.Context, job *jobs.Job, override *jobs.Proposal) error {
	if job.Status != jobs.StatusReady {
		return services.Wrap(services.ErrConflict, "review", "accept",
			fmt.Sprintf("Job is %s; only ready jobs can be accepted", job.Status), nil)
	}
	proposal, ok := jobs.ProposalFromJSON(job.ProposalJSON)
	if !ok {
		return services.Wrap(services.ErrValidation, "review", "accept",
			"Job has no stored proposal; rerun analysis before accepting", nil)
	}
	if override != nil {
		proposal = proposal.Merge(*override)
	}
	encoded, err := proposal.JSON()
	if err != nil {
		return services.Wrap(services.ErrValidation, "review", "accept",
			"Final proposal could not be encoded", err)
	}
	won, err := g.store.AcceptDecision(ctx, job.ID, encoded)
	if err != nil {
		return services.Wrap(services.ErrTransient, "review", "accept",
			"Accept could not be persisted", err)
	}
	if !won {
		return conflictMovedOn("accept")
	}
	return nil
}

func (g *Gateway) reconsider(ctx context.Context, job *jobs.Job, feedback string) error {
	if job.Status != jobs.StatusReady && job.Status != jobs.StatusError {
		return services.Wrap(services.ErrConflict, "review", "reconsider",
			fmt.Sprintf("Job is %s; only ready or error jobs can be reconsidered", job.Status), nil)
	}
	if strings.TrimSpace(feedback) == "" {
		return services.Wrap(services.ErrValidation, "review", "reconsider",
			"Reconsider requires feedback for the next analysis pass", nil)
	}
	won, err := g.store.RequeueForReconsideration(ctx, job.ID, job.Status, feedback)
	if err != nil {
		return services.Wrap(services.ErrTransient, "review", "reconsider",
			"Reconsider could not be persisted", err)
	}
	if !won {
		return conflictMovedOn("reconsider")
	}
	return nil
}

func (g *Gateway) skip(ctx context.Context, job *jobs.Job) error {
	if job.Status != jobs.StatusReady {
		return services.Wrap(services.ErrConflict, "review", "skip",
			fmt.Sprintf("Job is %s; only ready jobs can be skipped", job.Status), nil)
	}
	won, err := g.store.SkipDecision(ctx, job.ID)
	if err != nil {
		return services.Wrap(services.ErrTransient, "review", "skip",
			"Skip could not be persisted", err)
	}
	if !won {
		return conflictMovedOn("skip")
	}
	return nil
}

func conflictMovedOn(operation string) error {
	return services.Wrap(services.ErrConflict, "review", operation,
		"Job changed status while the verdict was applied; fetch the latest state and retry", nil)
}
