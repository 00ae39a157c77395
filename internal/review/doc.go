// Package review applies human verdicts to proposals awaiting review.
//
// Verdicts address a folder path and act on its latest job: accept promotes
// a ready job (optionally merging proposal edits), reconsider sends a ready
// or error job back to the queue with feedback for the next analysis pass,
// and skip retires a ready job. A verdict against a job that has moved on
// fails with a conflict instead of being applied silently.
package review
