package usecase_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/athleteai/drover/pkg/domain/interfaces"
	"github.com/athleteai/drover/pkg/domain/model"
	"github.com/athleteai/drover/pkg/domain/types"
	"github.com/athleteai/drover/pkg/usecase"
	"github.com/m-mizutani/gt"
)

type mockSession struct {
	result   *model.ExecutionResult
	err      error
	block    chan struct{} // when set, Execute waits until closed
	executed atomic.Int32
	closed   atomic.Int32
}

func (s *mockSession) Execute(ctx context.Context) (*model.ExecutionResult, error) {
	s.executed.Add(1)
	if s.block != nil {
		<-s.block
	}
	return s.result, s.err
}

func (s *mockSession) Close() error {
	s.closed.Add(1)
	return nil
}

type mockRunner struct {
	session  *mockSession
	err      error
	connects atomic.Int32
}

func (r *mockRunner) Connect(ctx context.Context) (interfaces.RemoteSession, error) {
	r.connects.Add(1)
	if r.err != nil {
		return nil, r.err
	}
	return r.session, nil
}

type mockNotifier struct {
	mu   sync.Mutex
	runs []*model.DeploymentRun
	done chan struct{}
}

func (n *mockNotifier) NotifyResult(ctx context.Context, run *model.DeploymentRun) error {
	n.mu.Lock()
	n.runs = append(n.runs, run)
	n.mu.Unlock()
	if n.done != nil {
		n.done <- struct{}{}
	}
	return nil
}

func TestDeploy_Success(t *testing.T) {
	sess := &mockSession{result: &model.ExecutionResult{ExitStatus: 0, Output: "pulled\nrestarted\n"}}
	runner := &mockRunner{session: sess}
	uc := usecase.NewDeploy(runner)

	run, err := uc.Run(context.Background(), &model.PushEvent{Ref: "refs/heads/main"})
	gt.NoError(t, err)
	gt.True(t, run.Succeeded())
	gt.Value(t, run.State).Equal(model.StateSucceeded)
	gt.Value(t, run.Result.Output).Equal("pulled\nrestarted\n")

	// Exactly one connection per invocation, session released.
	gt.Number(t, runner.connects.Load()).Equal(1)
	gt.Number(t, sess.executed.Load()).Equal(1)
	gt.Number(t, sess.closed.Load()).Equal(1)
}

func TestDeploy_ConnectionFailure(t *testing.T) {
	sess := &mockSession{}
	runner := &mockRunner{session: sess, err: errors.New("dial tcp: connection refused")}
	uc := usecase.NewDeploy(runner)

	run, err := uc.Run(context.Background(), nil)
	gt.Error(t, err)
	gt.Value(t, run.State).Equal(model.StateFailed)

	// Nothing after the failing step runs.
	gt.Number(t, sess.executed.Load()).Equal(0)
}

func TestDeploy_ExecutionFailure(t *testing.T) {
	sess := &mockSession{
		result: &model.ExecutionResult{ExitStatus: 2, Output: "pull: ok\nmigrate: failed\n"},
		err:    errors.New("update script exited non-zero"),
	}
	runner := &mockRunner{session: sess}
	uc := usecase.NewDeploy(runner)

	run, err := uc.Run(context.Background(), nil)
	gt.Error(t, err)
	gt.Value(t, run.State).Equal(model.StateFailed)
	gt.Value(t, run.Result.ExitStatus).Equal(2)

	// The session is closed even on failure.
	gt.Number(t, sess.closed.Load()).Equal(1)
}

func TestDeploy_OverlapGate(t *testing.T) {
	block := make(chan struct{})
	sess := &mockSession{result: &model.ExecutionResult{}, block: block}
	runner := &mockRunner{session: sess}
	uc := usecase.NewDeploy(runner)

	firstDone := make(chan error, 1)
	go func() {
		_, err := uc.Run(context.Background(), nil)
		firstDone <- err
	}()

	// Wait until the first run holds the gate.
	deadline := time.After(time.Second)
	for sess.executed.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("first run never reached execution")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	run, err := uc.Run(context.Background(), nil)
	gt.Error(t, err)
	gt.True(t, errors.Is(err, types.ErrDeployInProgress))
	gt.Value(t, run.State).Equal(model.StateFailed)

	// The overlapping attempt never opened a second connection.
	gt.Number(t, runner.connects.Load()).Equal(1)

	close(block)
	gt.NoError(t, <-firstDone)
}

func TestDeploy_NotifierReceivesOutcome(t *testing.T) {
	sess := &mockSession{result: &model.ExecutionResult{}}
	runner := &mockRunner{session: sess}
	notifier := &mockNotifier{done: make(chan struct{}, 1)}
	uc := usecase.NewDeploy(runner, usecase.WithNotifier(notifier))

	run, err := uc.Run(context.Background(), &model.PushEvent{Ref: "refs/heads/main"})
	gt.NoError(t, err)

	select {
	case <-notifier.done:
	case <-time.After(time.Second):
		t.Fatal("notifier was not called")
	}

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	gt.Number(t, len(notifier.runs)).Equal(1)
	gt.Value(t, notifier.runs[0].ID).Equal(run.ID)
}
