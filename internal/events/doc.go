// Package events is a bounded in-memory fan-out buffer for pipeline
// events. Publish assigns sequence numbers and drops the oldest entries
// beyond capacity; Fetch long-polls for entries after a sequence. A reader
// that falls off the ring re-syncs from the status snapshot rather than
// replaying deltas.
package events
