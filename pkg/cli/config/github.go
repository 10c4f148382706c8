package config

import (
	"os"

	"github.com/athleteai/drover/pkg/domain/interfaces"
	infra "github.com/athleteai/drover/pkg/infra/github"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// GitHub holds GitHub configuration
type GitHub struct {
	WebhookSecret string
	Branch        string

	// App credentials for commit status reporting, optional as a set.
	AppID          int64
	InstallationID int64
	AppKeyPath     string
}

// Flags returns CLI flags for GitHub configuration
func (c *GitHub) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "github-webhook-secret",
			Usage:       "GitHub webhook secret",
			Required:    true,
			Destination: &c.WebhookSecret,
			Sources:     cli.EnvVars("DROVER_GITHUB_WEBHOOK_SECRET"),
		},
		&cli.StringFlag{
			Name:        "branch",
			Usage:       "Designated branch whose pushes trigger a deployment",
			Value:       "main",
			Destination: &c.Branch,
			Sources:     cli.EnvVars("DROVER_BRANCH"),
		},
		&cli.Int64Flag{
			Name:        "github-app-id",
			Usage:       "GitHub App ID for commit status reporting (optional)",
			Destination: &c.AppID,
			Sources:     cli.EnvVars("DROVER_GITHUB_APP_ID"),
		},
		&cli.Int64Flag{
			Name:        "github-installation-id",
			Usage:       "GitHub App installation ID",
			Destination: &c.InstallationID,
			Sources:     cli.EnvVars("DROVER_GITHUB_INSTALLATION_ID"),
		},
		&cli.StringFlag{
			Name:        "github-app-key",
			Usage:       "Path to the GitHub App private key",
			Destination: &c.AppKeyPath,
			Sources:     cli.EnvVars("DROVER_GITHUB_APP_KEY"),
		},
	}
}

// StatusReporter builds a commit status reporter when App credentials are
// configured, or returns nil when status reporting is disabled.
func (c *GitHub) StatusReporter() (interfaces.StatusReporter, error) {
	if c.AppID == 0 {
		return nil, nil
	}
	if c.InstallationID == 0 || c.AppKeyPath == "" {
		return nil, goerr.New("github-app-id is set but installation ID or app key is missing")
	}

	key, err := os.ReadFile(c.AppKeyPath)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read GitHub App private key",
			goerr.V("path", c.AppKeyPath),
		)
	}
	return infra.NewStatusReporter(c.AppID, c.InstallationID, key)
}
