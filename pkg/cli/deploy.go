package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/athleteai/drover/pkg/cli/config"
	"github.com/athleteai/drover/pkg/infra/remote"
	"github.com/athleteai/drover/pkg/usecase"
	"github.com/fatih/color"
	"github.com/m-mizutani/ctxlog"
	"github.com/urfave/cli/v3"
)

// cmdDeploy runs the deployment flow once, outside the webhook server. The
// process exit status is the run outcome, so it can stand in for the
// original CI job directly.
func cmdDeploy() *cli.Command {
	var (
		targetCfg config.Target
		notifyCfg config.Notify
	)

	flags := append(targetCfg.Flags(), notifyCfg.Flags()...)

	return &cli.Command{
		Name:  "deploy",
		Usage: "Run one deployment against the configured target",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			target, err := targetCfg.Build()
			if err != nil {
				return err
			}

			if target.InsecureSkipHostKeyVerify {
				logger.Warn("host key verification is DISABLED; the target's identity will not be checked")
			}

			opts := []usecase.DeployOption{}
			if notifier := notifyCfg.Notifier(); notifier != nil {
				opts = append(opts, usecase.WithNotifier(notifier))
			}
			deployUC := usecase.NewDeploy(remote.New(target), opts...)

			run, err := deployUC.Run(ctx, nil)
			if run.Result != nil && run.Result.Output != "" {
				fmt.Fprint(os.Stdout, run.Result.Output)
			}

			if err != nil {
				color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "✗ deployment failed: %v\n", err)
				return err
			}

			color.New(color.FgGreen, color.Bold).Fprintf(os.Stdout, "✓ deployed %s in %s\n",
				target.Addr(), run.Duration().Round(time.Millisecond),
			)
			return nil
		},
	}
}
