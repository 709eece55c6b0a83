package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/papapumpkin/pacsea/internal/history"
)

func TestHistory(t *testing.T) {
	var buf bytes.Buffer
	p := NewWriter(&buf)
	code := 1
	p.History([]history.Transaction{
		{
			Action:        "remove",
			Status:        history.StatusFailed,
			ExitCode:      &code,
			FailedCommand: "pacman -Rns --noconfirm vim",
			Packages:      []history.Package{{Name: "vim"}},
			StartedAt:     time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			Action:   "install",
			Status:   history.StatusSucceeded,
			DryRun:   true,
			Packages: []history.Package{{Name: "ripgrep"}, {Name: "fd"}},
		},
	})
	output := buf.String()

	checks := []struct {
		name   string
		substr string
	}{
		{"failed symbol", "✗ remove"},
		{"exit code", "exit 1: pacman -Rns --noconfirm vim"},
		{"success symbol", "✓ install"},
		{"package list", "ripgrep fd"},
		{"dry run marker", "[dry run]"},
	}
	for _, c := range checks {
		if !strings.Contains(output, c.substr) {
			t.Errorf("expected output to contain %s (%q), got:\n%s", c.name, c.substr, output)
		}
	}
}

func TestHistoryEmpty(t *testing.T) {
	var buf bytes.Buffer
	NewWriter(&buf).History(nil)
	if !strings.Contains(buf.String(), "no transactions") {
		t.Errorf("empty history output = %q", buf.String())
	}
}

func TestIndexUpdated(t *testing.T) {
	var buf bytes.Buffer
	NewWriter(&buf).IndexUpdated(1234, []string{"core", "extra"}, "/tmp/official_index.json", 1500*time.Millisecond)
	out := buf.String()
	for _, want := range []string{"1234 package(s)", "core, extra", "1.5s", "/tmp/official_index.json"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestErrorAndWarn(t *testing.T) {
	var buf bytes.Buffer
	p := NewWriter(&buf)
	p.Error("boom")
	p.Warn("careful")
	if !strings.Contains(buf.String(), "error: ") || !strings.Contains(buf.String(), "careful") {
		t.Errorf("output = %q", buf.String())
	}
}
