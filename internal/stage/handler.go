package stage

import (
	"context"

	"tonearm/internal/jobs"
)

// Handler describes the contract the workflow manager needs from each stage.
//
// Execute receives a job already claimed into the stage's in-flight status and
// performs the stage's own success transitions on the store. The manager owns
// the failure path: an Execute error is recorded via MarkError.
type Handler interface {
	Prepare(context.Context, *jobs.Job) error
	Execute(context.Context, *jobs.Job) error
	HealthCheck(context.Context) Health
}
