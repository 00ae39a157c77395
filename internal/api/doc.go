// Package api defines the wire types of the daemon's HTTP surface and a
// typed client for them.
//
// The daemon serves these shapes under /api; the CLI talks to a running
// daemon exclusively through Client. Both sides share this package so the
// contract cannot drift.
package api
