package model_test

import (
	"testing"

	"github.com/athleteai/drover/pkg/domain/model"
)

func TestPushEvent_Branch(t *testing.T) {
	tests := []struct {
		name string
		ref  string
		want string
	}{
		{
			name: "Branch push",
			ref:  "refs/heads/main",
			want: "main",
		},
		{
			name: "Branch with slashes",
			ref:  "refs/heads/feature/login",
			want: "feature/login",
		},
		{
			name: "Tag push",
			ref:  "refs/tags/v1.2.0",
			want: "",
		},
		{
			name: "Empty ref",
			ref:  "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &model.PushEvent{Ref: tt.ref}
			if got := e.Branch(); got != tt.want {
				t.Errorf("Branch() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPushEvent_IsBranchPush(t *testing.T) {
	e := &model.PushEvent{Ref: "refs/heads/main"}

	if !e.IsBranchPush("main") {
		t.Error("push to refs/heads/main should match branch main")
	}
	if e.IsBranchPush("develop") {
		t.Error("push to refs/heads/main should not match branch develop")
	}
	if e.IsBranchPush("") {
		t.Error("empty designated branch should never match")
	}
}
