package main

import (
	"strings"
	"testing"
)

func TestRootCmd_Subcommands(t *testing.T) {
	t.Parallel()

	cmd := newRootCmd()
	for _, name := range []string{"up", "down", "version", "drop"} {
		sub, _, err := cmd.Find([]string{name})
		if err != nil || sub.Name() != name {
			t.Fatalf("subcommand %s not registered: %v", name, err)
		}
	}
}

func TestSourceURL(t *testing.T) {
	t.Parallel()

	got, err := sourceURL("assets/migrations")
	if err != nil {
		t.Fatalf("sourceURL returned error: %v", err)
	}
	if !strings.HasPrefix(got, "file://") || !strings.HasSuffix(got, "/assets/migrations") {
		t.Fatalf("unexpected source url: %s", got)
	}
}

func TestRunMigration_RejectsUnknownAction(t *testing.T) {
	t.Parallel()

	if _, err := runMigration("sideways", t.TempDir(), "postgres://u:p@127.0.0.1:1/none?sslmode=disable"); err == nil {
		t.Fatal("expected error")
	}
}
