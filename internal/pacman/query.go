package pacman

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Client issues pacman queries through a Runner.
type Client struct {
	Runner Runner
}

// NewClient returns a Client backed by r, or by ExecRunner when r is nil.
func NewClient(r Runner) *Client {
	if r == nil {
		r = ExecRunner{}
	}
	return &Client{Runner: r}
}

func (c *Client) run(ctx context.Context, args ...string) (string, error) {
	return c.Runner.Run(ctx, "pacman", args...)
}

// Installed returns the names of all installed packages (`pacman -Qq`).
func (c *Client) Installed(ctx context.Context) (map[string]struct{}, error) {
	out, err := c.run(ctx, "-Qq")
	if err != nil {
		return nil, err
	}
	return ParseNames(out), nil
}

// Explicit returns the names of explicitly installed packages (`pacman -Qqe`).
func (c *Client) Explicit(ctx context.Context) (map[string]struct{}, error) {
	out, err := c.run(ctx, "-Qqe")
	if err != nil {
		return nil, err
	}
	return ParseNames(out), nil
}

// Provided returns every virtual name provided by installed packages, with
// version constraints stripped.
func (c *Client) Provided(ctx context.Context) (map[string]struct{}, error) {
	out, err := c.run(ctx, "-Qi")
	if err != nil {
		return nil, err
	}
	provided := make(map[string]struct{})
	for _, rec := range ParseRecords(out) {
		for _, p := range rec.List("Provides") {
			name, _, _ := strings.Cut(p, "=")
			provided[name] = struct{}{}
		}
	}
	return provided, nil
}

// Versions returns installed versions for names using `pacman -Q` in batches
// of BatchSize. A failed batch (one unknown name fails the whole call) is
// retried package by package; unknown packages are absent from the result.
func (c *Client) Versions(ctx context.Context, names []string) map[string]string {
	out := make(map[string]string, len(names))
	for _, chunk := range Chunk(names, BatchSize) {
		text, err := c.run(ctx, append([]string{"-Q"}, chunk...)...)
		if err == nil {
			for k, v := range ParseNameVersion(text) {
				out[k] = v
			}
			continue
		}
		for _, name := range chunk {
			if ctx.Err() != nil {
				return out
			}
			if text, err := c.run(ctx, "-Q", name); err == nil {
				for k, v := range ParseNameVersion(text) {
					out[k] = v
				}
			}
		}
	}
	return out
}

// LocalInfo returns `pacman -Qi` records keyed by package name, batched with
// per-package fallback.
func (c *Client) LocalInfo(ctx context.Context, names []string) map[string]Record {
	return c.info(ctx, "-Qi", names, BatchSize)
}

// SyncInfo returns `pacman -Si` records keyed by package name. Specs may be
// qualified as "repo/name".
func (c *Client) SyncInfo(ctx context.Context, specs []string) map[string]Record {
	return c.info(ctx, "-Si", specs, BatchSize)
}

// SyncInfoBatched is SyncInfo with a caller-chosen batch size.
func (c *Client) SyncInfoBatched(ctx context.Context, specs []string, size int) map[string]Record {
	return c.info(ctx, "-Si", specs, size)
}

func (c *Client) info(ctx context.Context, flag string, specs []string, size int) map[string]Record {
	out := make(map[string]Record, len(specs))
	collect := func(text string) {
		for _, rec := range ParseRecords(text) {
			if name := rec["Name"]; name != "" {
				out[name] = rec
			}
		}
	}
	for _, chunk := range Chunk(specs, size) {
		text, err := c.run(ctx, append([]string{flag}, chunk...)...)
		if err == nil {
			collect(text)
			continue
		}
		for _, spec := range chunk {
			if ctx.Err() != nil {
				return out
			}
			if text, err := c.run(ctx, flag, spec); err == nil {
				collect(text)
			}
		}
	}
	return out
}

// SyncList lists a repository (`pacman -Sl <repo>`).
func (c *Client) SyncList(ctx context.Context, repo string) (string, error) {
	return c.run(ctx, "-Sl", repo)
}

// RemoteFiles returns `pacman -Fl` file lists for specs (optionally
// "repo/name"), batched.
func (c *Client) RemoteFiles(ctx context.Context, specs []string) (map[string][]string, error) {
	out := make(map[string][]string)
	for _, chunk := range Chunk(specs, BatchSize) {
		text, err := c.run(ctx, append([]string{"-Fl"}, chunk...)...)
		if err != nil {
			return out, fmt.Errorf("pacman: file list: %w", err)
		}
		for k, v := range ParseFileList(text) {
			out[k] = v
		}
	}
	return out, nil
}

// LocalFiles returns the installed file list of name (`pacman -Ql`).
func (c *Client) LocalFiles(ctx context.Context, name string) ([]string, error) {
	text, err := c.run(ctx, "-Ql", name)
	if err != nil {
		return nil, err
	}
	return ParseFileList(text)[name], nil
}

// Backup returns the backup (config) files of an installed package from the
// "Backup Files" field of `pacman -Qii`.
func (c *Client) Backup(ctx context.Context, name string) ([]string, error) {
	text, err := c.run(ctx, "-Qii", name)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, rec := range ParseRecords(text) {
		for _, line := range rec.Lines("Backup Files") {
			path := strings.Fields(line)
			if len(path) > 0 && strings.HasPrefix(path[0], "/") {
				out = append(out, path[0])
			}
		}
	}
	return out, nil
}

// Upgradable returns packages with a pending upgrade and the new version.
// `pacman -Qu` exits 1 when nothing is upgradable, which is not an error here.
func (c *Client) Upgradable(ctx context.Context) map[string]string {
	text, _ := c.run(ctx, "-Qu")
	return ParseUpgrades(text)
}

// SyncDir is where pacman keeps its sync and file databases.
const SyncDir = "/var/lib/pacman/sync"

// FileDBAge returns how long ago the newest *.files database in dir was
// written. ok is false when no file database exists.
func FileDBAge(dir string, now time.Time) (age time.Duration, ok bool) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.files"))
	if err != nil || len(matches) == 0 {
		return 0, false
	}
	var newest time.Time
	for _, m := range matches {
		fi, err := os.Stat(m)
		if err != nil {
			continue
		}
		if fi.ModTime().After(newest) {
			newest = fi.ModTime()
		}
	}
	if newest.IsZero() {
		return 0, false
	}
	return now.Sub(newest), true
}
