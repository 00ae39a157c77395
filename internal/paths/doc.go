// Package paths manages the library roots with two-phase changes.
//
// Staging records a proposed source or target root without touching the
// running pipeline; confirming validates the pair, promotes it atomically,
// and persists it to the config file so the next boot agrees with the
// running daemon. The manager is the live authority for the active roots:
// the scan producer and move stage read through it, so a confirm takes
// effect on the next cycle without a restart. Jobs created under the old
// roots keep their recorded folder paths.
package paths
