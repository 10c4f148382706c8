package usecase

import (
	"context"

	"github.com/athleteai/drover/pkg/domain/interfaces"
	"github.com/athleteai/drover/pkg/domain/model"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

type webhookUseCase struct {
	branch string
	deploy interfaces.DeployUseCase
}

// NewWebhook creates a new instance of WebhookUseCase. branch is the single
// designated branch whose pushes trigger a deployment.
func NewWebhook(branch string, deploy interfaces.DeployUseCase) *webhookUseCase {
	return &webhookUseCase{
		branch: branch,
		deploy: deploy,
	}
}

// ProcessPush filters the push event on the designated branch. Pushes to any
// other ref are acknowledged without side effects; a matching push triggers
// exactly one deployment run.
func (uc *webhookUseCase) ProcessPush(ctx context.Context, event *model.PushEvent) error {
	logger := ctxlog.From(ctx)

	if !event.IsBranchPush(uc.branch) {
		logger.Info("ignoring push outside designated branch",
			"delivery_id", event.DeliveryID,
			"ref", event.Ref,
			"designated_branch", uc.branch,
		)
		return nil
	}

	logger.Info("push on designated branch, starting deployment",
		"delivery_id", event.DeliveryID,
		"repository", event.Repository,
		"commit_sha", event.CommitSHA,
		"pusher", event.Pusher,
	)

	run, err := uc.deploy.Run(ctx, event)
	if err != nil {
		return goerr.Wrap(err, "deployment run failed",
			goerr.V("run_id", run.ID),
			goerr.V("delivery_id", event.DeliveryID),
		)
	}

	logger.Info("deployment run succeeded",
		"run_id", run.ID,
		"duration_ms", run.Duration().Milliseconds(),
	)
	return nil
}
