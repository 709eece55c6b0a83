package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWritesToFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "pacsea.log")
	l, closeFn, err := New(Options{Path: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Named("search").Info("query sent", "id", 7)
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "pacsea.search: query sent: id=7") {
		t.Errorf("log line missing, got %q", data)
	}
}

func TestNewVerboseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		verbose bool
		want    bool
	}{
		{"info hides debug", false, false},
		{"verbose shows debug", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			l, _, err := New(Options{Output: &buf, Verbose: tt.verbose})
			if err != nil {
				t.Fatal(err)
			}
			l.Debug("detail")
			if got := strings.Contains(buf.String(), "detail"); got != tt.want {
				t.Errorf("debug emitted = %v, want %v", got, tt.want)
			}
		})
	}
}
