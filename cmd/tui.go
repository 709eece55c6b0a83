package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/papapumpkin/pacsea/internal/aur"
	"github.com/papapumpkin/pacsea/internal/config"
	"github.com/papapumpkin/pacsea/internal/details"
	"github.com/papapumpkin/pacsea/internal/executor"
	"github.com/papapumpkin/pacsea/internal/faillock"
	"github.com/papapumpkin/pacsea/internal/history"
	"github.com/papapumpkin/pacsea/internal/index"
	"github.com/papapumpkin/pacsea/internal/installed"
	"github.com/papapumpkin/pacsea/internal/logging"
	"github.com/papapumpkin/pacsea/internal/pacman"
	"github.com/papapumpkin/pacsea/internal/persist"
	"github.com/papapumpkin/pacsea/internal/pkginfo"
	"github.com/papapumpkin/pacsea/internal/preflight"
	"github.com/papapumpkin/pacsea/internal/recent"
	"github.com/papapumpkin/pacsea/internal/search"
	"github.com/papapumpkin/pacsea/internal/state"
	"github.com/papapumpkin/pacsea/internal/tui"
)

// runTUI loads the session and runs the interactive browser until the user
// quits.
func runTUI(cmd *cobra.Command, _ []string) error {
	if !isStderrTTY() {
		return fmt.Errorf("pacsea requires a TTY (terminal)")
	}

	cfg, paths, err := loadSession()
	if err != nil {
		return err
	}
	logger, closeLog, err := logging.New(logging.Options{Path: paths.Log, Verbose: cfg.Verbose})
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := newSession(ctx, cfg, paths, logger)
	defer s.Close()

	logger.Info("starting", "dry_run", cfg.DryRun, "index", s.index.Len(), "config", paths.ConfigFile)
	return tui.Run(ctx, s.app, s.opts)
}

// session owns the workers and caches behind one TUI run.
type session struct {
	app     *state.App
	opts    tui.Options
	index   *index.Index
	store   *history.SQLiteStore
	watcher *installed.Watcher

	cancel context.CancelFunc
	wg     sync.WaitGroup
	l      hclog.Logger
}

// newSession restores persisted state and starts every background worker.
// Unreadable caches are logged and replaced with empty ones.
func newSession(parent context.Context, cfg config.Config, paths config.Paths, l hclog.Logger) *session {
	ctx, cancel := context.WithCancel(parent)
	s := &session{cancel: cancel, l: l}

	runner := pacman.ExecRunner{}
	client := pacman.NewClient(runner)
	aurClient := aur.New(cfg.AUR.BaseURL, time.Duration(cfg.AUR.TimeoutMS)*time.Millisecond, l)

	s.index = index.New(paths.OfficialIndex, client, l)
	if err := s.index.Load(); err != nil {
		l.Warn("official index unreadable", "path", paths.OfficialIndex, "err", err)
	}
	cache, err := details.Load(paths.DetailsCache)
	if err != nil {
		l.Warn("details cache unreadable", "path", paths.DetailsCache, "err", err)
	}
	caches, err := preflight.LoadCaches(paths.PreflightDir)
	if err != nil {
		l.Warn("preflight cache unreadable", "dir", paths.PreflightDir, "err", err)
	}

	var store history.Store
	if db, err := history.Open(ctx, paths.History); err != nil {
		l.Warn("history disabled", "path", paths.History, "err", err)
	} else {
		s.store = db
		store = db
	}

	sortMode, ok := state.ParseSortMode(cfg.SortMode)
	if !ok {
		l.Warn("unknown sort mode", "sort_mode", cfg.SortMode)
	}

	out := state.NewOutbox()
	in := tui.NewInbox()
	gate := details.NewGate()
	inst := installed.NewCache()

	recentItems, installList := s.restoreLists(paths)
	s.app = state.New(state.Options{
		SortMode:       sortMode,
		Filters:        state.FiltersFromConfig(cfg.Filters),
		InstalledOnly:  cfg.InstalledOnly,
		DryRun:         cfg.DryRun,
		RecentCapacity: cfg.RecentCapacity,
		Recent:         recentItems,
		Install:        installList,
		Cache:          cache,
		Gate:           gate,
		Installed:      inst,
		Preflight:      caches,
		Lookup:         s.lookup,
		Out:            out,
		Logger:         l,
	})

	sw := search.NewWorker(s.index, aurClient, l)
	if cfg.Search.DebounceMS > 0 {
		sw.Debounce = time.Duration(cfg.Search.DebounceMS) * time.Millisecond
	}
	if cfg.Search.MinIntervalMS > 0 {
		sw.MinInterval = time.Duration(cfg.Search.MinIntervalMS) * time.Millisecond
	}
	dw := details.NewWorker(client, aurClient, gate, l)
	res := preflight.NewResolver(client, runner, aurClient, l)
	if cfg.Preflight.FileDBMaxAgeDays > 0 {
		res.MaxFileDBAge = time.Duration(cfg.Preflight.FileDBMaxAgeDays) * 24 * time.Hour
	}
	ew := executor.NewWorker(uint16(cfg.Executor.Rows), uint16(cfg.Executor.Cols), inst.IsInstalled, store, l)

	s.spawn(func() { sw.Run(ctx, out.Query, in.Results) })
	s.spawn(func() { dw.Run(ctx, out.Details, in.Details) })
	s.spawn(func() { dw.RunPKGBUILD(ctx, out.PKGBUILD, in.PKGBUILD) })
	s.spawn(func() { dw.RunComments(ctx, out.Comments, in.Comments) })
	s.spawn(func() { s.index.RunEnricher(ctx, out.Enrich, in.Index) })
	s.spawn(func() { s.index.RunUpdate(ctx, index.AllRepos(), in.Index) })
	s.spawn(func() { res.Run(ctx, out.Preflight, in.Preflight) })
	s.spawn(func() { ew.Run(ctx, out.Executor, in.Exec) })

	var localDB <-chan struct{}
	if w, err := installed.NewWatcher(installed.LocalDB); err != nil {
		l.Warn("local database watcher unavailable", "err", err)
	} else if err := w.Start(); err != nil {
		l.Warn("local database watcher unavailable", "dir", installed.LocalDB, "err", err)
		w.Stop()
	} else {
		s.watcher = w
		localDB = w.Changes
	}

	snaps := []persist.Snapshot{
		s.app.Cache.Snapshot(paths.DetailsCache),
		s.app.Install.Snapshot("install list", paths.InstallList),
		recentSnapshot(s.app.Recent, paths.RecentSearch),
	}
	snaps = append(snaps, s.app.PreflightCaches.Snapshots()...)

	s.opts = tui.Options{
		Inbox: in,
		Services: &systemServices{
			runner:  runner,
			client:  client,
			checker: faillock.NewChecker(runner),
			user:    faillock.CurrentUser(),
		},
		Snapshots: snaps,
		LocalDB:   localDB,
		Logger:    l,
	}
	return s
}

// restoreLists loads the recent searches and the install list. Unreadable
// files start empty.
func (s *session) restoreLists(paths config.Paths) ([]string, *state.PackageList) {
	var items []string
	if _, err := persist.LoadJSON(paths.RecentSearch, &items); err != nil {
		s.l.Warn("recent searches unreadable", "path", paths.RecentSearch, "err", err)
	}
	list, err := state.LoadPackageList(paths.InstallList)
	if err != nil {
		s.l.Warn("install list unreadable", "path", paths.InstallList, "err", err)
		list = nil
	}
	return items, list
}

func (s *session) lookup(name string) (pkginfo.PackageItem, bool) {
	p, ok := s.index.Lookup(name)
	if !ok {
		return pkginfo.PackageItem{}, false
	}
	return p.Item(), true
}

func (s *session) spawn(fn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn()
	}()
}

// Close stops the workers, flushes dirty state and releases resources.
func (s *session) Close() {
	s.cancel()
	s.app.Out.Close()
	s.opts.Inbox.Close()
	s.wg.Wait()

	if err := persist.Flush(s.opts.Snapshots); err != nil {
		s.l.Error("final flush failed", "err", err)
	}
	if s.watcher != nil {
		s.watcher.Stop()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.l.Warn("close history", "err", err)
		}
	}
}

func recentSnapshot(l *recent.List, path string) persist.Snapshot {
	return persist.Snapshot{
		Name:  "recent searches",
		Path:  path,
		Dirty: l.Dirty,
		Value: func() any { return l.Items() },
		Clean: l.MarkClean,
	}
}

// systemServices answers the TUI's blocking queries against the live system.
type systemServices struct {
	runner  pacman.Runner
	client  *pacman.Client
	checker *faillock.Checker
	user    string
}

func (s *systemServices) FetchInstalled(ctx context.Context) (installed.Snapshot, error) {
	return installed.Fetch(ctx, s.client)
}

func (s *systemServices) CheckFaillock(ctx context.Context) (faillock.Status, string, bool) {
	return s.checker.Check(ctx, s.user), s.user, s.checker.Passwordless(ctx)
}

func (s *systemServices) ValidatePassword(ctx context.Context, pw string) error {
	return s.checker.ValidatePassword(ctx, pw)
}

func (s *systemServices) OpenURL(ctx context.Context, url string) error {
	_, err := s.runner.Run(ctx, "xdg-open", url)
	return err
}
