// Package library inspects candidate music folders: which files are audio,
// what the embedded tags agree on, and whether a folder is a single album,
// an artist collection of albums, or nothing worth processing.
//
// The Snapshot captures folder contents at analysis time and is persisted on
// the job as metadata, so review surfaces and the analyzer prompt both see
// exactly what the analyze worker saw.
package library
