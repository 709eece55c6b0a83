package tui

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/papapumpkin/pacsea/internal/state"
)

// Program is an alias for tea.Program, exposed so callers don't need
// to import bubbletea directly.
type Program = tea.Program

// HeadlessEnv disables mouse capture when set, for scripted terminals.
const HeadlessEnv = "PACSEA_TEST_HEADLESS"

// NewProgram creates a BubbleTea program over app.
// The program uses the alternate screen buffer for a clean TUI experience.
func NewProgram(ctx context.Context, app *state.App, opts Options, progOpts ...tea.ProgramOption) *Program {
	model := NewAppModel(ctx, app, opts)

	allOpts := []tea.ProgramOption{
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	}
	if os.Getenv(HeadlessEnv) == "" {
		allOpts = append(allOpts, tea.WithMouseCellMotion())
	}
	allOpts = append(allOpts, progOpts...)

	return tea.NewProgram(model, allOpts...)
}

// Run creates and runs a TUI program, blocking until it exits.
func Run(ctx context.Context, app *state.App, opts Options) error {
	p := NewProgram(ctx, app, opts)
	_, err := p.Run()
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// WithOutput returns a program option that directs TUI output to the given writer.
func WithOutput(w io.Writer) tea.ProgramOption {
	return tea.WithOutput(w)
}
