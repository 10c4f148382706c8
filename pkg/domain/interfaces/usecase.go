package interfaces

//go:generate moq -out mocks/usecase_mock.go -pkg mocks . WebhookUseCase DeployUseCase

import (
	"context"

	"github.com/athleteai/drover/pkg/domain/model"
)

// WebhookUseCase defines the interface for webhook event processing
type WebhookUseCase interface {
	// ProcessPush handles a push event: it filters on the designated branch
	// and triggers at most one deployment run per invocation.
	ProcessPush(ctx context.Context, event *model.PushEvent) error
}

// DeployUseCase defines the trigger-to-outcome deployment flow
type DeployUseCase interface {
	// Run executes one deployment run and returns it in a terminal state.
	// The returned run carries the execution result; err is non-nil iff the
	// run failed.
	Run(ctx context.Context, trigger *model.PushEvent) (*model.DeploymentRun, error)
}
