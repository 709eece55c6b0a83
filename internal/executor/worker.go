package executor

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/papapumpkin/pacsea/internal/bus"
	"github.com/papapumpkin/pacsea/internal/history"
)

// TestOutEnv names the file that receives commands instead of a PTY.
const TestOutEnv = "PACSEA_TEST_OUT"

// Cancelled is the Error text of a run stopped by its context.
const Cancelled = "cancelled"

// Runner executes a built command and emits its output stream.
type Runner interface {
	Run(ctx context.Context, id, cmd, display string, emit func(Output))
}

// Worker serves executor requests one at a time.
type Worker struct {
	Runner    Runner
	Installed InstalledFunc
	History   history.Store // optional
	TestOut   string        // when set, commands are appended here and not run

	l hclog.Logger
}

// NewWorker returns a worker running commands under a rows×cols PTY.
// TestOut is taken from PACSEA_TEST_OUT.
func NewWorker(rows, cols uint16, installed InstalledFunc, store history.Store, l hclog.Logger) *Worker {
	if l == nil {
		l = hclog.NewNullLogger()
	}
	return &Worker{
		Runner:    PTY{Rows: rows, Cols: cols},
		Installed: installed,
		History:   store,
		TestOut:   os.Getenv(TestOutEnv),
		l:         l.Named("executor"),
	}
}

// Run serves reqs until ctx is done or reqs is closed.
func (w *Worker) Run(ctx context.Context, reqs *bus.Queue[Request], out *bus.Queue[Output]) {
	for {
		req, err := reqs.Recv(ctx)
		if err != nil {
			return
		}
		w.Execute(ctx, req, func(o Output) {
			if !out.Send(o) {
				w.l.Debug("receiver shut down", "queue", "executor output")
			}
		})
	}
}

// Execute builds and runs one request.
func (w *Worker) Execute(ctx context.Context, req Request, emit func(Output)) {
	b, err := Build(req, w.Installed)
	if err != nil {
		w.l.Warn("build command", "kind", req.Kind, "err", err)
		emit(Error(req.ID, err.Error()))
		return
	}
	defer b.Cleanup()

	w.l.Info("executing", "id", req.ID, "kind", req.Kind, "dry_run", req.DryRun, "targets", len(req.Targets()))
	w.l.Debug("command", "id", req.ID, "cmd", b.Display)
	txID := w.begin(ctx, req, b)

	if w.TestOut != "" {
		if err := appendLine(w.TestOut, b.Display+HoldTail); err != nil {
			emit(Error(req.ID, err.Error()))
			return
		}
		emit(Line(req.ID, "Command recorded to "+w.TestOut))
		done := Finished(req.ID, 0, "")
		w.finish(ctx, txID, done)
		emit(done)
		return
	}

	w.Runner.Run(ctx, req.ID, b.Command, b.Display, func(o Output) {
		if o.Terminal() {
			// The outcome is recorded even when the run was cancelled.
			w.finish(context.WithoutCancel(ctx), txID, o)
			w.l.Info("finished", "id", req.ID, "success", o.Success, "error", o.Kind == OutputError)
		}
		emit(o)
	})
}

func (w *Worker) begin(ctx context.Context, req Request, b Built) string {
	if w.History == nil {
		return ""
	}
	tx := history.Transaction{
		ID:        req.ID,
		Action:    string(req.Kind),
		Command:   b.Display,
		DryRun:    req.DryRun,
		StartedAt: time.Now(),
	}
	for _, it := range req.Items {
		tx.Packages = append(tx.Packages, history.Package{Name: it.Name, Version: it.Version, Source: it.Source.Label()})
	}
	if len(req.Items) == 0 {
		for _, n := range req.Targets() {
			tx.Packages = append(tx.Packages, history.Package{Name: n})
		}
	}
	id, err := w.History.Begin(ctx, tx)
	if err != nil {
		w.l.Warn("record transaction", "err", err)
		return ""
	}
	return id
}

func (w *Worker) finish(ctx context.Context, txID string, o Output) {
	if w.History == nil || txID == "" {
		return
	}
	out := history.Outcome{Success: o.Kind == OutputFinished && o.Success, ExitCode: o.ExitCode}
	if o.FailedCommand != nil {
		out.FailedCommand = *o.FailedCommand
	} else if o.Kind == OutputError {
		out.FailedCommand = o.Text
	}
	if err := w.History.Finish(ctx, txID, out); err != nil {
		w.l.Warn("finish transaction", "id", txID, "err", err)
	}
}

func appendLine(path, line string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("executor: open %s: %w", path, err)
	}
	if _, err := fmt.Fprintln(f, line); err != nil {
		f.Close()
		return fmt.Errorf("executor: write %s: %w", path, err)
	}
	return f.Close()
}
