package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// ErrUnknownTransaction is returned by Finish for an id that was never begun.
var ErrUnknownTransaction = errors.New("history: unknown transaction")

// schema is executed on every open.
const schema = `
CREATE TABLE IF NOT EXISTS transactions (
    id             TEXT PRIMARY KEY,
    action         TEXT NOT NULL,
    command        TEXT NOT NULL DEFAULT '',
    dry_run        INTEGER NOT NULL DEFAULT 0,
    status         TEXT NOT NULL,
    exit_code      INTEGER,
    failed_command TEXT NOT NULL DEFAULT '',
    started_at     TIMESTAMP NOT NULL,
    finished_at    TIMESTAMP
);

CREATE TABLE IF NOT EXISTS transaction_packages (
    tx_id   TEXT NOT NULL REFERENCES transactions(id),
    name    TEXT NOT NULL,
    version TEXT NOT NULL DEFAULT '',
    source  TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (tx_id, name)
);

CREATE INDEX IF NOT EXISTS transaction_packages_name ON transaction_packages(name);
`

// SQLiteStore implements Store on a local SQLite database in WAL mode.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the history database at dbPath.
func Open(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("history: open database: %w", err)
	}

	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: set busy timeout: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: create schema: %w", err)
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Begin inserts the transaction and its packages in one SQL transaction.
func (s *SQLiteStore) Begin(ctx context.Context, t Transaction) (string, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.StartedAt.IsZero() {
		t.StartedAt = s.now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("history: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	const q = `INSERT INTO transactions (id, action, command, dry_run, status, started_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, q, t.ID, t.Action, t.Command, t.DryRun, StatusRunning, t.StartedAt.UTC().Format(time.RFC3339)); err != nil {
		return "", fmt.Errorf("history: insert transaction %s: %w", t.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO transaction_packages (tx_id, name, version, source)
		VALUES (?, ?, ?, ?) ON CONFLICT(tx_id, name) DO NOTHING`)
	if err != nil {
		return "", fmt.Errorf("history: prepare package insert: %w", err)
	}
	defer stmt.Close()
	for _, p := range t.Packages {
		if _, err := stmt.ExecContext(ctx, t.ID, p.Name, p.Version, p.Source); err != nil {
			return "", fmt.Errorf("history: insert package %q: %w", p.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("history: commit transaction: %w", err)
	}
	return t.ID, nil
}

// Finish records the outcome of a running transaction.
func (s *SQLiteStore) Finish(ctx context.Context, id string, out Outcome) error {
	status := StatusFailed
	if out.Success {
		status = StatusSucceeded
	}
	var code sql.NullInt64
	if out.ExitCode != nil {
		code = sql.NullInt64{Int64: int64(*out.ExitCode), Valid: true}
	}
	const q = `UPDATE transactions SET status = ?, exit_code = ?, failed_command = ?, finished_at = ?
		WHERE id = ?`
	res, err := s.db.ExecContext(ctx, q, status, code, out.FailedCommand, s.now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("history: finish %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("history: finish rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrUnknownTransaction, id)
	}
	return nil
}

const selectTransactions = `SELECT id, action, command, dry_run, status, exit_code, failed_command, started_at, finished_at
	FROM transactions`

// Recent returns the newest transactions.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.query(ctx, selectTransactions+` ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
}

// ForPackage returns the transactions that touched name.
func (s *SQLiteStore) ForPackage(ctx context.Context, name string) ([]Transaction, error) {
	return s.query(ctx, selectTransactions+`
		WHERE id IN (SELECT tx_id FROM transaction_packages WHERE name = ?)
		ORDER BY started_at DESC, rowid DESC`, name)
}

func (s *SQLiteStore) query(ctx context.Context, q string, args ...any) ([]Transaction, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("history: query transactions: %w", err)
	}
	var result []Transaction
	for rows.Next() {
		var (
			t        Transaction
			code     sql.NullInt64
			started  string
			finished sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.Action, &t.Command, &t.DryRun, &t.Status, &code, &t.FailedCommand, &started, &finished); err != nil {
			rows.Close()
			return nil, fmt.Errorf("history: scan transaction: %w", err)
		}
		if code.Valid {
			c := int(code.Int64)
			t.ExitCode = &c
		}
		if t.StartedAt, err = parseTimestamp(started); err != nil {
			rows.Close()
			return nil, fmt.Errorf("history: parse started_at: %w", err)
		}
		if finished.Valid {
			ft, err := parseTimestamp(finished.String)
			if err != nil {
				rows.Close()
				return nil, fmt.Errorf("history: parse finished_at: %w", err)
			}
			t.FinishedAt = &ft
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("history: iterate transactions: %w", err)
	}
	rows.Close()

	// Packages are loaded after the cursor is closed; the pool has a single connection.
	for i := range result {
		pkgs, err := s.packages(ctx, result[i].ID)
		if err != nil {
			return nil, err
		}
		result[i].Packages = pkgs
	}
	return result, nil
}

func (s *SQLiteStore) packages(ctx context.Context, id string) ([]Package, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, version, source FROM transaction_packages
		WHERE tx_id = ? ORDER BY name`, id)
	if err != nil {
		return nil, fmt.Errorf("history: packages for %s: %w", id, err)
	}
	defer rows.Close()
	var out []Package
	for rows.Next() {
		var p Package
		if err := rows.Scan(&p.Name, &p.Version, &p.Source); err != nil {
			return nil, fmt.Errorf("history: scan package: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterate packages: %w", err)
	}
	return out, nil
}

// timestampFormats lists the layouts SQLite may return for TIMESTAMP columns.
var timestampFormats = []string{
	time.RFC3339,
	time.DateTime,
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp format: %q", s)
}

// Close releases the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
