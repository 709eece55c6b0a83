// Package ui prints human-readable output for the non-interactive pacsea
// subcommands. The TUI never uses it.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/papapumpkin/pacsea/internal/ansi"
	"github.com/papapumpkin/pacsea/internal/history"
)

// Printer writes styled lines to stderr.
type Printer struct {
	w io.Writer
}

// New returns a Printer writing to os.Stderr.
func New() *Printer {
	return &Printer{w: os.Stderr}
}

// NewWriter returns a Printer writing to w.
func NewWriter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Error prints a red error line.
func (p *Printer) Error(msg string) {
	fmt.Fprintf(p.w, ansi.Red+ansi.Bold+"error: "+ansi.Reset+"%s\n", msg)
}

// Info prints a dimmed line.
func (p *Printer) Info(msg string) {
	fmt.Fprintf(p.w, ansi.Dim+"%s"+ansi.Reset+"\n", msg)
}

// Success prints a green check line.
func (p *Printer) Success(msg string) {
	fmt.Fprintf(p.w, ansi.Green+ansi.Bold+"✓ "+ansi.Reset+"%s\n", msg)
}

// Warn prints a yellow warning line.
func (p *Printer) Warn(msg string) {
	fmt.Fprintf(p.w, ansi.Yellow+ansi.Bold+"⚠ "+ansi.Reset+"%s\n", msg)
}

// ConfigWritten reports the result of `pacsea config init`.
func (p *Printer) ConfigWritten(path string) {
	p.Success("wrote default configuration to " + path)
}

// IndexUpdated reports the result of `pacsea index update`.
func (p *Printer) IndexUpdated(count int, repos []string, path string, took time.Duration) {
	fmt.Fprintf(p.w, ansi.Green+ansi.Bold+"✓ index updated"+ansi.Reset+" %d package(s) from %s "+ansi.Dim+"(%.1fs)"+ansi.Reset+"\n",
		count, strings.Join(repos, ", "), took.Seconds())
	fmt.Fprintf(p.w, ansi.Dim+"  %s"+ansi.Reset+"\n", path)
}

// History renders transactions newest first.
func (p *Printer) History(txs []history.Transaction) {
	if len(txs) == 0 {
		fmt.Fprintln(p.w, ansi.Dim+"(no transactions recorded)"+ansi.Reset)
		return
	}
	for _, tx := range txs {
		symbol, color := "…", ansi.Yellow
		switch tx.Status {
		case history.StatusSucceeded:
			symbol, color = "✓", ansi.Green
		case history.StatusFailed:
			symbol, color = "✗", ansi.Red
		}
		names := make([]string, len(tx.Packages))
		for i, pkg := range tx.Packages {
			names[i] = pkg.Name
		}
		dry := ""
		if tx.DryRun {
			dry = ansi.Dim + " [dry run]" + ansi.Reset
		}
		fmt.Fprintf(p.w, color+symbol+" %-9s"+ansi.Reset+" %s %s%s\n",
			tx.Action, tx.StartedAt.Local().Format("2006-01-02 15:04"), strings.Join(names, " "), dry)
		if tx.Status == history.StatusFailed {
			line := "  exit"
			if tx.ExitCode != nil {
				line += fmt.Sprintf(" %d", *tx.ExitCode)
			}
			if tx.FailedCommand != "" {
				line += ": " + tx.FailedCommand
			}
			fmt.Fprintln(p.w, ansi.Red+line+ansi.Reset)
		}
	}
}
