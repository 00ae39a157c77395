// Package workflow drives jobs through the pipeline stages.
//
// The Manager runs three independent polling lanes: scan enumerates the
// source root on an interval, analyze claims queued jobs into analysis,
// and move claims accepted jobs into relocation. Claim lanes drain their
// queue before sleeping, so a burst of work is processed back to back.
// Correctness across lanes rests entirely on the store's compare-and-swap
// claims; the lanes never coordinate directly.
//
// Stage handlers land their own success transitions. The manager owns the
// failure path: an Execute error is recorded on the job as the error
// status, notified, and the lane moves on. One job's failure never stops
// a lane.
package workflow
