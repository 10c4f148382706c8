package remote

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/athleteai/drover/pkg/domain/interfaces"
	"github.com/athleteai/drover/pkg/domain/model"
	"github.com/athleteai/drover/pkg/domain/types"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/crypto/ssh"
)

// Runner opens authenticated SSH sessions to a deploy target.
type Runner struct {
	target *model.Target
}

// New creates a Runner for the given target. The target must already have
// passed Validate.
func New(target *model.Target) *Runner {
	return &Runner{target: target}
}

// Connect loads the run's credential into a scoped keyring and dials the
// target. The credential is released if the connection cannot be
// established; otherwise it is released when the returned session closes.
func (r *Runner) Connect(ctx context.Context) (interfaces.RemoteSession, error) {
	cred, err := newScopedCredential(r.target.PrivateKey)
	if err != nil {
		return nil, err
	}

	callback, err := hostKeyCallback(r.target)
	if err != nil {
		cred.release()
		return nil, err
	}

	config := &ssh.ClientConfig{
		User:            r.target.User,
		Auth:            []ssh.AuthMethod{cred.authMethod()},
		HostKeyCallback: callback,
		Timeout:         r.target.DialTimeout,
	}

	addr := r.target.Addr()
	ctxlog.From(ctx).Debug("dialing deploy target", "addr", addr, "user", r.target.User)

	client, err := ssh.Dial("tcp", addr, config)
	if err != nil {
		cred.release()
		return nil, goerr.Wrap(err, "failed to connect to deploy target",
			goerr.T(types.ErrTagConn),
			goerr.V("addr", addr),
			goerr.V("user", r.target.User),
		)
	}

	return &session{client: client, cred: cred, target: r.target}, nil
}

// session is one authenticated channel to the target. Execute may be called
// once; Close releases the connection and the scoped credential.
type session struct {
	client *ssh.Client
	cred   *scopedCredential
	target *model.Target
}

// Execute runs the update script in the target's working directory. The
// script is run under "sh -e" so the first failing step aborts the rest,
// regardless of what the script itself declares. Output is the combined
// stdout/stderr of the remote shell.
func (s *session) Execute(ctx context.Context) (*model.ExecutionResult, error) {
	sess, err := s.client.NewSession()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open remote session",
			goerr.T(types.ErrTagConn),
		)
	}
	defer sess.Close()

	ctx, cancel := context.WithTimeout(ctx, s.target.CommandTimeout)
	defer cancel()

	cmd := buildCommand(s.target)
	start := time.Now()

	type execOutcome struct {
		output []byte
		err    error
	}
	done := make(chan execOutcome, 1)
	go func() {
		output, err := sess.CombinedOutput(cmd)
		done <- execOutcome{output: output, err: err}
	}()

	select {
	case <-ctx.Done():
		// Closing the session tears down the channel; the remote process is
		// not killable from here once started.
		return nil, goerr.Wrap(ctx.Err(), "remote script did not finish in time",
			goerr.T(types.ErrTagExec),
			goerr.V("timeout", s.target.CommandTimeout),
		)
	case outcome := <-done:
		result := &model.ExecutionResult{
			Output:   string(outcome.output),
			Duration: time.Since(start),
		}
		if outcome.err == nil {
			return result, nil
		}

		if exitErr, ok := outcome.err.(*ssh.ExitError); ok {
			result.ExitStatus = exitErr.ExitStatus()
			return result, goerr.Wrap(outcome.err, "update script exited non-zero",
				goerr.T(types.ErrTagExec),
				goerr.V("exit_status", result.ExitStatus),
			)
		}
		result.ExitStatus = -1
		return result, goerr.Wrap(outcome.err, "remote session broke during execution",
			goerr.T(types.ErrTagConn),
		)
	}
}

// Close closes the SSH connection and releases the scoped credential.
func (s *session) Close() error {
	s.cred.release()
	if err := s.client.Close(); err != nil {
		return goerr.Wrap(err, "failed to close ssh connection")
	}
	return nil
}

// buildCommand renders the fixed remote command for a target: change into
// the deploy path and run the update script fail-fast.
func buildCommand(target *model.Target) string {
	return fmt.Sprintf("cd %s && sh -e ./%s",
		shellQuote(target.DeployPath),
		shellQuote(target.ScriptName()),
	)
}

// shellQuote single-quotes s for POSIX sh, escaping embedded single quotes.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
