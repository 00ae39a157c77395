// Package preflight validates the runtime environment before and while
// the daemon processes folders: library root access and analyzer API
// reachability. The CLI status command and the daemon share these checks
// so the requirements list lives in one place.
package preflight
