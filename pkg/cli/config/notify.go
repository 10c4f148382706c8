package config

import (
	"github.com/athleteai/drover/pkg/domain/interfaces"
	"github.com/athleteai/drover/pkg/infra/slack"
	"github.com/urfave/cli/v3"
)

// Notify holds outcome notification configuration
type Notify struct {
	SlackWebhookURL string `masq:"secret"`
}

// Flags returns CLI flags for notification configuration
func (c *Notify) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-webhook-url",
			Usage:       "Slack incoming webhook URL for run outcome notifications",
			Destination: &c.SlackWebhookURL,
			Sources:     cli.EnvVars("DROVER_SLACK_WEBHOOK_URL"),
		},
	}
}

// Notifier returns the configured notifier, or nil when notifications are
// disabled.
func (c *Notify) Notifier() interfaces.Notifier {
	if c.SlackWebhookURL == "" {
		return nil
	}
	return slack.NewNotifier(c.SlackWebhookURL)
}
