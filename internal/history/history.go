// Package history records package transactions started from the TUI: what
// was requested, the command that ran (with secrets masked) and how it ended.
// The store uses SQLite in WAL mode so the `pacsea history` command can read
// it while the TUI is writing.
package history

import (
	"context"
	"time"
)

// Transaction statuses.
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Package is one target of a transaction.
type Package struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Source  string `json:"source"`
}

// Transaction is one executor run.
type Transaction struct {
	ID            string     `json:"id"`
	Action        string     `json:"action"`
	Command       string     `json:"command"`
	DryRun        bool       `json:"dry_run"`
	Status        string     `json:"status"`
	ExitCode      *int       `json:"exit_code,omitempty"`
	FailedCommand string     `json:"failed_command,omitempty"`
	Packages      []Package  `json:"packages"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
}

// Outcome is how a transaction ended.
type Outcome struct {
	Success       bool
	ExitCode      *int
	FailedCommand string
}

// Store persists transactions.
type Store interface {
	// Begin records a running transaction. An empty ID is filled with a new UUID.
	Begin(ctx context.Context, tx Transaction) (string, error)

	// Finish marks a transaction as succeeded or failed.
	Finish(ctx context.Context, id string, out Outcome) error

	// Recent returns up to limit transactions, newest first.
	Recent(ctx context.Context, limit int) ([]Transaction, error)

	// ForPackage returns transactions that touched the named package, newest first.
	ForPackage(ctx context.Context, name string) ([]Transaction, error)

	// Close releases database resources.
	Close() error
}
