package stage

import (
	"tonearm/internal/jobs"
	"tonearm/internal/services"
)

// RequireProposal returns the proposal stored on a job.
// On a missing or undecodable proposal it returns a services.ErrValidation
// suitable for stage Execute methods.
func RequireProposal(job *jobs.Job) (jobs.Proposal, error) {
	proposal, ok := jobs.ProposalFromJSON(job.ProposalJSON)
	if !ok {
		return jobs.Proposal{}, services.Wrap(
			services.ErrValidation, "stage", "decode proposal",
			"Job proposal missing or invalid; rerun analysis", nil)
	}
	return proposal, nil
}
