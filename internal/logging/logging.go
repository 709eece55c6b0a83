// Package logging builds the hclog logger used by every pacsea component.
// The TUI owns the terminal, so log output goes to a file.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"
)

// Options configures New.
type Options struct {
	Path    string // log file; empty writes to Output
	Output  io.Writer
	Verbose bool
}

// New opens (appending) the log file and returns a logger named "pacsea"
// together with a close function for the file.
func New(opts Options) (hclog.Logger, func() error, error) {
	out := opts.Output
	closeFn := func() error { return nil }
	if opts.Path != "" {
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("logging: create directory: %w", err)
		}
		f, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("logging: open %s: %w", opts.Path, err)
		}
		out = f
		closeFn = f.Close
	}
	if out == nil {
		out = io.Discard
	}

	level := "INFO"
	if opts.Verbose {
		level = "DEBUG"
	}
	l := hclog.New(&hclog.LoggerOptions{
		Name:   "pacsea",
		Level:  hclog.LevelFromString(level),
		Output: out,
	})
	return l, closeFn, nil
}
