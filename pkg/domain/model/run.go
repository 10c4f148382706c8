package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

// RunState is the state of a deployment run.
//
// The life cycle is strictly linear:
//
//	Idle → Triggered → Authenticating → Connected → Executing → Succeeded
//
// and every non-terminal state may transition to Failed. Succeeded and Failed
// are terminal; no state resumes.
type RunState string

const (
	StateIdle           RunState = "idle"
	StateTriggered      RunState = "triggered"
	StateAuthenticating RunState = "authenticating"
	StateConnected      RunState = "connected"
	StateExecuting      RunState = "executing"
	StateSucceeded      RunState = "succeeded"
	StateFailed         RunState = "failed"
)

// next maps each state to its single forward successor.
var next = map[RunState]RunState{
	StateIdle:           StateTriggered,
	StateTriggered:      StateAuthenticating,
	StateAuthenticating: StateConnected,
	StateConnected:      StateExecuting,
	StateExecuting:      StateSucceeded,
}

// Terminal reports whether the state accepts no further transitions.
func (s RunState) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// CanTransition reports whether a transition from s to to is legal.
func (s RunState) CanTransition(to RunState) bool {
	if s.Terminal() {
		return false
	}
	if to == StateFailed {
		return true
	}
	return next[s] == to
}

// ExecutionResult captures the outcome of the remote script.
type ExecutionResult struct {
	ExitStatus int           // Remote process exit status; 0 means success
	Output     string        // Combined stdout/stderr of the remote session
	Duration   time.Duration // Wall-clock time of the remote execution
}

// DeploymentRun tracks one trigger-to-outcome deployment flow.
type DeploymentRun struct {
	ID         string
	Trigger    *PushEvent
	State      RunState
	StartedAt  time.Time
	FinishedAt time.Time
	Result     *ExecutionResult
	Err        error
}

// NewDeploymentRun creates a run in the Idle state for the given trigger.
// Trigger may be nil for runs started from the CLI rather than a webhook.
func NewDeploymentRun(trigger *PushEvent) *DeploymentRun {
	return &DeploymentRun{
		ID:        uuid.NewString(),
		Trigger:   trigger,
		State:     StateIdle,
		StartedAt: time.Now(),
	}
}

// Transition advances the run to the given state, or returns an error when
// the transition is not legal from the current state.
func (r *DeploymentRun) Transition(to RunState) error {
	if !r.State.CanTransition(to) {
		return goerr.New("illegal run state transition",
			goerr.V("run_id", r.ID),
			goerr.V("from", r.State),
			goerr.V("to", to),
		)
	}
	r.State = to
	if to.Terminal() {
		r.FinishedAt = time.Now()
	}
	return nil
}

// Fail marks the run as failed with the given error. Calling Fail on an
// already-terminal run is a no-op so that error paths can call it
// unconditionally.
func (r *DeploymentRun) Fail(err error) {
	if r.State.Terminal() {
		return
	}
	r.Err = err
	_ = r.Transition(StateFailed)
}

// Succeeded reports whether the run finished in the Succeeded state.
func (r *DeploymentRun) Succeeded() bool {
	return r.State == StateSucceeded
}

// Duration returns the wall-clock duration of the run, or the elapsed time
// so far for a run still in flight.
func (r *DeploymentRun) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
