package interfaces

import (
	"context"

	"github.com/athleteai/drover/pkg/domain/model"
)

// RemoteSession is an authenticated channel to the deploy target. It is
// opened once per run and must be closed on every exit path; Close releases
// the scoped credential material loaded for the run.
type RemoteSession interface {
	// Execute runs the fixed update script in the target's working
	// directory with fail-fast semantics and returns its result. A non-nil
	// error means the script exited non-zero or the session broke.
	Execute(ctx context.Context) (*model.ExecutionResult, error)
	Close() error
}

// RemoteRunner opens authenticated sessions to the deploy target.
type RemoteRunner interface {
	// Connect loads the run's credential and dials the target. Errors are
	// tagged as connection errors; no retry is performed.
	Connect(ctx context.Context) (RemoteSession, error)
}

// Notifier delivers the outcome of a finished run to an external channel.
type Notifier interface {
	NotifyResult(ctx context.Context, run *model.DeploymentRun) error
}

// StatusReporter publishes run progress to the source code host, e.g. as a
// GitHub commit status on the pushed SHA.
type StatusReporter interface {
	ReportPending(ctx context.Context, event *model.PushEvent) error
	ReportResult(ctx context.Context, run *model.DeploymentRun) error
}
