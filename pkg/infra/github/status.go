package github

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/athleteai/drover/pkg/domain/model"
	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v75/github"
	"github.com/m-mizutani/goerr/v2"
)

const statusContext = "drover/deploy"

// StatusReporter publishes deployment progress as commit statuses on the
// pushed SHA, authenticated as a GitHub App installation.
type StatusReporter struct {
	client *github.Client
}

// NewStatusReporter creates a reporter with GitHub App authentication.
func NewStatusReporter(appID, installationID int64, privateKey []byte) (*StatusReporter, error) {
	itr, err := ghinstallation.New(http.DefaultTransport, appID, installationID, privateKey)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create GitHub App transport")
	}

	return &StatusReporter{
		client: github.NewClient(&http.Client{Transport: itr}),
	}, nil
}

// ReportPending marks the pushed commit as having a deployment in flight.
func (r *StatusReporter) ReportPending(ctx context.Context, event *model.PushEvent) error {
	return r.createStatus(ctx, event, "pending", "deployment started")
}

// ReportResult publishes the terminal state of the run on its trigger commit.
func (r *StatusReporter) ReportResult(ctx context.Context, run *model.DeploymentRun) error {
	if run.Succeeded() {
		desc := fmt.Sprintf("deployed in %s", run.Duration().Round(100*time.Millisecond))
		return r.createStatus(ctx, run.Trigger, "success", desc)
	}

	desc := "deployment failed"
	if run.Result != nil && run.Result.ExitStatus > 0 {
		desc = fmt.Sprintf("update script exited %d", run.Result.ExitStatus)
	}
	return r.createStatus(ctx, run.Trigger, "failure", desc)
}

func (r *StatusReporter) createStatus(ctx context.Context, event *model.PushEvent, state, description string) error {
	owner, repo, err := splitRepository(event.Repository)
	if err != nil {
		return err
	}

	status := &github.RepoStatus{
		State:       github.Ptr(state),
		Context:     github.Ptr(statusContext),
		Description: github.Ptr(description),
	}
	if _, _, err := r.client.Repositories.CreateStatus(ctx, owner, repo, event.CommitSHA, status); err != nil {
		return goerr.Wrap(err, "failed to create commit status",
			goerr.V("repository", event.Repository),
			goerr.V("commit_sha", event.CommitSHA),
			goerr.V("state", state),
		)
	}
	return nil
}

func splitRepository(fullName string) (string, string, error) {
	owner, repo, ok := strings.Cut(fullName, "/")
	if !ok || owner == "" || repo == "" {
		return "", "", goerr.New("malformed repository full name",
			goerr.V("repository", fullName),
		)
	}
	return owner, repo, nil
}
