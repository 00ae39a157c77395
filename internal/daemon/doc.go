// Package daemon ties the workflow manager, job store, path manager, and
// event hub into a single lifecycle with flock-based locking to prevent
// multiple daemon instances, and serves the HTTP API the CLI and review
// clients talk to.
package daemon
