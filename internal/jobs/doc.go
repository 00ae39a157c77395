// Package jobs persists pipeline jobs in SQLite and exposes helpers for
// driving their lifecycle.
//
// The Store manages database connections, schema initialization, status
// counts, stale-job recovery, and the status transitions that make up the
// pipeline state machine. A job tracks one source folder from discovery
// through analysis, human review, and relocation.
//
// Two rules hold everywhere: at most one non-terminal job exists per folder
// path (enforced by a partial unique index), and every contended transition
// is a single compare-and-swap UPDATE so concurrent workers claim each job
// exactly once.
//
// The database is durable state, not an archive. Schema changes bump the
// version in schema.go; users delete the database file to adopt the new
// schema.
package jobs
