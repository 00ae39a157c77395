package jobs

import "errors"

// ErrActiveJobExists is returned by Enqueue when the folder already has a
// non-terminal job. The scanner treats this as routine; decision callers
// surface it as a conflict.
var ErrActiveJobExists = errors.New("folder already has an active job")
