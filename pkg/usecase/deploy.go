package usecase

import (
	"context"
	"sync"

	"github.com/athleteai/drover/pkg/domain/interfaces"
	"github.com/athleteai/drover/pkg/domain/model"
	"github.com/athleteai/drover/pkg/domain/types"
	"github.com/athleteai/drover/pkg/utils/async"
	"github.com/m-mizutani/ctxlog"
)

type deployUseCase struct {
	runner   interfaces.RemoteRunner
	notifier interfaces.Notifier
	reporter interfaces.StatusReporter

	// mu is the overlap gate: the remote working directory tolerates one
	// run at a time, so a second trigger while a run is in flight fails
	// immediately instead of racing.
	mu sync.Mutex
}

// DeployOption is a functional option for the deploy use case
type DeployOption func(*deployUseCase)

// WithNotifier attaches a result notifier (e.g. Slack).
func WithNotifier(n interfaces.Notifier) DeployOption {
	return func(uc *deployUseCase) {
		uc.notifier = n
	}
}

// WithStatusReporter attaches a commit status reporter.
func WithStatusReporter(r interfaces.StatusReporter) DeployOption {
	return func(uc *deployUseCase) {
		uc.reporter = r
	}
}

// NewDeploy creates a new instance of DeployUseCase. The runner's target
// configuration must have been validated before construction; Run performs
// no configuration checks of its own.
func NewDeploy(runner interfaces.RemoteRunner, opts ...DeployOption) *deployUseCase {
	uc := &deployUseCase{runner: runner}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Run executes one deployment run: authenticate, connect, execute the update
// script, and settle into a terminal state. Every error is terminal for the
// run; there are no retries and no partial success.
func (uc *deployUseCase) Run(ctx context.Context, trigger *model.PushEvent) (*model.DeploymentRun, error) {
	logger := ctxlog.From(ctx)
	run := model.NewDeploymentRun(trigger)

	if !uc.mu.TryLock() {
		run.Fail(types.ErrDeployInProgress)
		return run, types.ErrDeployInProgress
	}
	defer uc.mu.Unlock()

	_ = run.Transition(model.StateTriggered)
	logger.Info("deployment run triggered", "run_id", run.ID)

	if uc.reporter != nil && trigger != nil {
		if err := uc.reporter.ReportPending(ctx, trigger); err != nil {
			// Status reporting is best-effort and never fails the run.
			logger.Warn("failed to report pending status", "run_id", run.ID, "error", err)
		}
	}

	_ = run.Transition(model.StateAuthenticating)
	sess, err := uc.runner.Connect(ctx)
	if err != nil {
		return uc.settle(ctx, run, err)
	}
	defer func() {
		if closeErr := sess.Close(); closeErr != nil {
			logger.Warn("failed to close remote session", "run_id", run.ID, "error", closeErr)
		}
	}()

	_ = run.Transition(model.StateConnected)
	logger.Info("connected to deploy target", "run_id", run.ID)

	_ = run.Transition(model.StateExecuting)
	result, err := sess.Execute(ctx)
	run.Result = result
	if err != nil {
		return uc.settle(ctx, run, err)
	}

	_ = run.Transition(model.StateSucceeded)
	return uc.settle(ctx, run, nil)
}

// settle moves the run to its terminal state, dispatches outcome
// notifications, and returns the run together with its error.
func (uc *deployUseCase) settle(ctx context.Context, run *model.DeploymentRun, err error) (*model.DeploymentRun, error) {
	logger := ctxlog.From(ctx)

	if err != nil {
		run.Fail(err)
		logger.Error("deployment run failed",
			"run_id", run.ID,
			"state", run.State,
			"error", err,
		)
	} else {
		logger.Info("deployment run succeeded",
			"run_id", run.ID,
			"duration_ms", run.Duration().Milliseconds(),
		)
	}

	if uc.reporter != nil && run.Trigger != nil {
		async.Dispatch(ctx, func(ctx context.Context) error {
			return uc.reporter.ReportResult(ctx, run)
		})
	}
	if uc.notifier != nil {
		async.Dispatch(ctx, func(ctx context.Context) error {
			return uc.notifier.NotifyResult(ctx, run)
		})
	}

	return run, err
}
