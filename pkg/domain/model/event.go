package model

import (
	"strings"
	"time"
)

// WebhookEventType represents the type of webhook event received
type WebhookEventType string

const (
	EventTypePush WebhookEventType = "push"
	EventTypePing WebhookEventType = "ping"
)

const branchRefPrefix = "refs/heads/"

// PushEvent represents a push event received from GitHub. It is consumed
// immediately after receipt and never persisted.
type PushEvent struct {
	DeliveryID string    // Retrieved from X-GitHub-Delivery header
	Ref        string    // Full git ref, e.g. "refs/heads/main"
	CommitSHA  string    // Head commit of the push
	Repository string    // Repository full name, e.g. "org/repo"
	Pusher     string    // User who pushed
	ReceivedAt time.Time // Time when the event was received
}

// Branch returns the branch name for a branch push, or "" when the ref is
// not a branch (tag pushes, etc.).
func (e *PushEvent) Branch() string {
	if !strings.HasPrefix(e.Ref, branchRefPrefix) {
		return ""
	}
	return strings.TrimPrefix(e.Ref, branchRefPrefix)
}

// IsBranchPush reports whether the event is a push to the given branch.
func (e *PushEvent) IsBranchPush(branch string) bool {
	return branch != "" && e.Branch() == branch
}
