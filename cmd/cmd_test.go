package cmd

import (
	"bytes"
	"testing"

	"github.com/kilianp07/orchestrator/core/model"
)

func TestParseStatuses(t *testing.T) {
	got, err := parseStatuses([]string{"done", "ERROR"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(got) != 2 || got[0] != model.JobDone || got[1] != model.JobError {
		t.Fatalf("unexpected statuses %v", got)
	}
	if _, err := parseStatuses([]string{"PENDING"}); err == nil {
		t.Fatal("expected non-terminal status to be rejected")
	}
	if _, err := parseStatuses([]string{"bogus"}); err == nil {
		t.Fatal("expected unknown status to be rejected")
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	defer rootCmd.SetArgs(nil)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out.String() != Version+"\n" {
		t.Fatalf("unexpected output %q", out.String())
	}
}
