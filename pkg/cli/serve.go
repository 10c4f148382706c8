package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/athleteai/drover/pkg/cli/config"
	controller "github.com/athleteai/drover/pkg/controller/http"
	"github.com/athleteai/drover/pkg/infra/remote"
	"github.com/athleteai/drover/pkg/usecase"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var (
		serverCfg config.Server
		githubCfg config.GitHub
		targetCfg config.Target
		notifyCfg config.Notify
		sentryCfg config.Sentry
	)

	flags := append(serverCfg.Flags(), githubCfg.Flags()...)
	flags = append(flags, targetCfg.Flags()...)
	flags = append(flags, notifyCfg.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start the webhook server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			// Fail on bad configuration before anything touches the network.
			target, err := targetCfg.Build()
			if err != nil {
				return err
			}

			flushSentry, err := sentryCfg.Configure()
			if err != nil {
				return err
			}
			defer flushSentry()

			reporter, err := githubCfg.StatusReporter()
			if err != nil {
				return err
			}

			logger.Info("Starting drover server",
				slog.String("addr", serverCfg.Addr),
				slog.String("branch", githubCfg.Branch),
				slog.String("target", target.Addr()),
				slog.Bool("host_key_verification", !target.InsecureSkipHostKeyVerify),
			)
			if target.InsecureSkipHostKeyVerify {
				logger.Warn("host key verification is DISABLED; the target's identity will not be checked")
			}

			// Create use cases
			opts := []usecase.DeployOption{}
			if notifier := notifyCfg.Notifier(); notifier != nil {
				opts = append(opts, usecase.WithNotifier(notifier))
			}
			if reporter != nil {
				opts = append(opts, usecase.WithStatusReporter(reporter))
			}
			deployUC := usecase.NewDeploy(remote.New(target), opts...)
			webhookUC := usecase.NewWebhook(githubCfg.Branch, deployUC)

			// Create HTTP server with options
			server, err := controller.NewServer(
				ctx,
				webhookUC,
				controller.WithAddr(serverCfg.Addr),
				controller.WithWebhookSecret(githubCfg.WebhookSecret),
			)
			if err != nil {
				return goerr.Wrap(err, "failed to create HTTP server")
			}

			// Start server in goroutine
			go func() {
				logger.Info("HTTP server starting", slog.String("addr", serverCfg.Addr))
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("HTTP server error", slog.Any("error", err))
				}
			}()

			// Wait for interrupt signal
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			select {
			case <-ctx.Done():
				logger.Info("Context cancelled, shutting down...")
			case sig := <-sigChan:
				logger.Info("Signal received, shutting down...", slog.Any("signal", sig))
			}

			// Graceful shutdown
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shutdown server gracefully")
			}

			logger.Info("Server shutdown complete")
			return nil
		},
	}
}
