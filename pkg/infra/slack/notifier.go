package slack

import (
	"context"
	"fmt"
	"time"

	"github.com/athleteai/drover/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"
)

// Notifier posts run outcomes to a Slack incoming webhook.
type Notifier struct {
	webhookURL string
}

// NewNotifier creates a Notifier for the given incoming webhook URL.
func NewNotifier(webhookURL string) *Notifier {
	return &Notifier{webhookURL: webhookURL}
}

// NotifyResult posts a compact summary of a finished run.
func (n *Notifier) NotifyResult(ctx context.Context, run *model.DeploymentRun) error {
	color := "good"
	title := "Deployment succeeded"
	if !run.Succeeded() {
		color = "danger"
		title = "Deployment failed"
	}

	fields := []slack.AttachmentField{
		{Title: "Run", Value: run.ID, Short: true},
		{Title: "Duration", Value: run.Duration().Round(100 * time.Millisecond).String(), Short: true},
	}
	if run.Trigger != nil {
		fields = append(fields,
			slack.AttachmentField{Title: "Repository", Value: run.Trigger.Repository, Short: true},
			slack.AttachmentField{Title: "Branch", Value: run.Trigger.Branch(), Short: true},
			slack.AttachmentField{Title: "Commit", Value: run.Trigger.CommitSHA, Short: false},
		)
	}
	if run.Err != nil {
		fields = append(fields, slack.AttachmentField{
			Title: "Error",
			Value: run.Err.Error(),
			Short: false,
		})
	}
	if run.Result != nil && run.Result.ExitStatus != 0 {
		fields = append(fields, slack.AttachmentField{
			Title: "Exit status",
			Value: fmt.Sprintf("%d", run.Result.ExitStatus),
			Short: true,
		})
	}

	msg := &slack.WebhookMessage{
		Attachments: []slack.Attachment{{
			Color:  color,
			Title:  title,
			Fields: fields,
		}},
	}

	if err := slack.PostWebhookContext(ctx, n.webhookURL, msg); err != nil {
		return goerr.Wrap(err, "failed to post slack notification",
			goerr.V("run_id", run.ID),
		)
	}
	return nil
}
