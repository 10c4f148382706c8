package types

import "github.com/m-mizutani/goerr/v2"

// Error tags classify run failures by the stage they belong to. A tag is
// attached when the error is first created and survives wrapping, so callers
// can switch on the failure class without string matching.
var (
	// ErrTagConfig marks configuration errors: a required secret or
	// connection parameter is missing or malformed. These are fatal and are
	// raised before any network I/O happens.
	ErrTagConfig = goerr.NewTag("config")

	// ErrTagConn marks connection errors: the target host is unreachable or
	// rejected our authentication.
	ErrTagConn = goerr.NewTag("connection")

	// ErrTagExec marks remote execution errors: the update script itself
	// exited non-zero.
	ErrTagExec = goerr.NewTag("execution")
)

// ErrDeployInProgress is returned when a run is requested while another run
// owned by this process is still in flight. Overlapping runs against the same
// working directory are never allowed to race.
var ErrDeployInProgress = goerr.New("deployment already in progress")
