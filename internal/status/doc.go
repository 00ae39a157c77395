// Package status aggregates pipeline state for the API and event stream.
//
// The aggregator recomputes every snapshot from the job store; nothing in
// this package keeps a running tally, so a snapshot is correct even after
// crashes or concurrent transitions. The announcer publishes snapshots to
// the event hub whenever a component reports a transition.
package status
