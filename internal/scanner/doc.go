// Package scanner discovers album folders dropped into the source root and
// enqueues them for analysis.
//
// Each cycle lists the immediate subdirectories of the active source root
// (read live, so a confirmed path change applies without a restart), skips
// hidden entries, and creates a queued job for every folder the store has
// never seen. A terminal record suppresses re-enqueue forever; removing the
// row is the only way to process a folder again. Each cycle also runs the
// stale-job watchdog so work abandoned by a dead worker is re-queued.
package scanner
