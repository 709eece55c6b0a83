// Package state holds the application state owned by the reducer and the
// pure transitions applied to it: query dispatch and staleness, filtering
// and sorting, selection with detail prefetch, the transaction lists,
// installed-state refresh, the preflight modal and the privileged
// execution state machine.
//
// Nothing in this package blocks or starts goroutines. Work for background
// workers is sent on the queues in Outbox; results come back through the
// Apply* methods.
package state

import (
	"net/url"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/papapumpkin/pacsea/internal/bus"
	"github.com/papapumpkin/pacsea/internal/details"
	"github.com/papapumpkin/pacsea/internal/executor"
	"github.com/papapumpkin/pacsea/internal/installed"
	"github.com/papapumpkin/pacsea/internal/pkginfo"
	"github.com/papapumpkin/pacsea/internal/preflight"
	"github.com/papapumpkin/pacsea/internal/recent"
	"github.com/papapumpkin/pacsea/internal/search"
)

// Timing of reducer-side debounces.
const (
	InputDebounce  = 250 * time.Millisecond
	ReloadDebounce = 250 * time.Millisecond
	RingResume     = 200 * time.Millisecond
	RingRadius     = 30
	FastScroll     = 5
	ToastDuration  = 3 * time.Second
)

// Focus is the pane receiving keys.
type Focus int

// Panes.
const (
	FocusSearch Focus = iota
	FocusRecent
	FocusInstall
)

// Next cycles Search → Recent → Install.
func (f Focus) Next() Focus { return (f + 1) % 3 }

// RightPane selects the list shown in the right-hand pane.
type RightPane int

// Right pane lists.
const (
	PaneInstall RightPane = iota
	PaneRemove
	PaneDowngrade
)

// Outbox holds the queues the reducer sends work on. A nil queue drops
// the work, which tests use to ignore a worker.
type Outbox struct {
	Query     *bus.Queue[search.Query]
	Details   *bus.Queue[pkginfo.PackageItem]
	PKGBUILD  *bus.Queue[pkginfo.PackageItem]
	Comments  *bus.Queue[string]
	Enrich    *bus.Queue[[]string]
	Preflight *bus.Queue[preflight.Request]
	Executor  *bus.Queue[executor.Request]
}

// NewOutbox allocates every queue.
func NewOutbox() Outbox {
	return Outbox{
		Query:     bus.NewQueue[search.Query](),
		Details:   bus.NewQueue[pkginfo.PackageItem](),
		PKGBUILD:  bus.NewQueue[pkginfo.PackageItem](),
		Comments:  bus.NewQueue[string](),
		Enrich:    bus.NewQueue[[]string](),
		Preflight: bus.NewQueue[preflight.Request](),
		Executor:  bus.NewQueue[executor.Request](),
	}
}

// Close closes every queue so workers stop.
func (o Outbox) Close() {
	closeQueue(o.Query)
	closeQueue(o.Details)
	closeQueue(o.PKGBUILD)
	closeQueue(o.Comments)
	closeQueue(o.Enrich)
	closeQueue(o.Preflight)
	closeQueue(o.Executor)
}

func closeQueue[T any](q *bus.Queue[T]) {
	if q != nil {
		q.Close()
	}
}

func send[T any](l hclog.Logger, q *bus.Queue[T], name string, v T) {
	if q == nil {
		return
	}
	if !q.Send(v) {
		l.Debug("receiver shut down", "queue", name)
	}
}

// Lookup resolves an official package from the index.
type Lookup func(name string) (pkginfo.PackageItem, bool)

// Options configure a new App.
type Options struct {
	SortMode       SortMode
	Filters        Filters
	InstalledOnly  bool
	DryRun         bool
	RecentCapacity int
	Recent         []string     // restored searches, most recent first
	Install        *PackageList // restored install list
	Cache          *details.Cache
	Gate           *details.Gate
	Installed      *installed.Cache
	Preflight      *preflight.Caches
	Lookup         Lookup
	Out            Outbox
	Now            func() time.Time
	Logger         hclog.Logger
}

// App is the whole interactive state. Only the reducer mutates it.
type App struct {
	// Search input and query coordination.
	Input           string
	LastInputChange time.Time
	LastSentInput   string
	NextQueryID     uint64
	LatestQueryID   uint64
	SearchErr       string

	// Results: AllResults is the last adopted set before filtering,
	// Results what is displayed.
	AllResults []pkginfo.PackageItem
	Results    []pkginfo.PackageItem
	Selected   int
	SortMode   SortMode
	Filters    Filters
	// InstalledOnly restricts results to explicitly installed packages.
	InstalledOnly bool

	// Details pane and prefetch.
	Details          pkginfo.PackageDetails
	Cache            *details.Cache
	Gate             *details.Gate
	NeedRingPrefetch bool
	RingResumeAt     time.Time
	ScrollMoves      int

	// PKGBUILD viewer and comments pane.
	PKGBUILDOpen     bool
	PKGBUILDName     string
	PKGBUILDText     string
	PKGBUILDReloadAt time.Time
	CommentsOpen     bool
	CommentsName     string
	Comments         []CommentLine
	CommentsReloadAt time.Time
	CommentsLoading  bool

	Recent         *recent.List
	RecentSelected int
	Install        *PackageList
	Remove         *PackageList
	Downgrade      *PackageList
	Focus          Focus
	Right          RightPane
	ListSelected   int

	// Installed-state refresh.
	Installed              *installed.Cache
	RefreshInstalledUntil  time.Time
	NextInstalledRefreshAt time.Time
	PendingInstall         []string
	PendingRemove          []string

	Preflight       *PreflightState
	PreflightCaches *preflight.Caches
	Exec            ExecState
	Cascade         executor.CascadeMode

	Toast      string
	ToastUntil time.Time
	DryRun     bool

	Out    Outbox
	lookup Lookup
	now    func() time.Time
	l      hclog.Logger

	// resultsQuery is the query text the adopted results answer.
	resultsQuery string
	enrichAsked  map[string]struct{}
}

// CommentLine is a rendered AUR comment.
type CommentLine struct {
	Author string
	Date   string
	Pinned bool
	Text   string
}

// New returns an App with empty results.
func New(opts Options) *App {
	if opts.Logger == nil {
		opts.Logger = hclog.NewNullLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Cache == nil {
		opts.Cache = details.NewCache()
	}
	if opts.Gate == nil {
		opts.Gate = details.NewGate()
	}
	if opts.Installed == nil {
		opts.Installed = installed.NewCache()
	}
	if opts.Preflight == nil {
		opts.Preflight = &preflight.Caches{}
	}
	if opts.Filters == (Filters{}) {
		opts.Filters = AllFilters()
	}
	if opts.SortMode == "" {
		opts.SortMode = SortBestMatches
	}
	if opts.Install == nil {
		opts.Install = NewPackageList()
	}
	return &App{
		NextQueryID:     1,
		SortMode:        opts.SortMode,
		Filters:         opts.Filters,
		InstalledOnly:   opts.InstalledOnly,
		DryRun:          opts.DryRun,
		Cache:           opts.Cache,
		Gate:            opts.Gate,
		Installed:       opts.Installed,
		PreflightCaches: opts.Preflight,
		Recent:          recent.FromSlice(opts.RecentCapacity, opts.Recent),
		Install:         opts.Install,
		Remove:          NewPackageList(),
		Downgrade:       NewPackageList(),
		Out:             opts.Out,
		lookup:          opts.Lookup,
		now:             opts.Now,
		l:               opts.Logger.Named("state"),
	}
}

// Now returns the App's clock reading.
func (a *App) Now() time.Time { return a.now() }

// SetToast shows msg for ToastDuration.
func (a *App) SetToast(msg string) {
	a.Toast = msg
	a.ToastUntil = a.now().Add(ToastDuration)
}

// SelectedItem returns the selected result row.
func (a *App) SelectedItem() (pkginfo.PackageItem, bool) {
	if a.Selected < 0 || a.Selected >= len(a.Results) {
		return pkginfo.PackageItem{}, false
	}
	return a.Results[a.Selected], true
}

// SelectedURL returns the web page of the selected package: the upstream
// URL when its details are loaded, else its AUR or archlinux.org page.
func (a *App) SelectedURL() string {
	it, ok := a.SelectedItem()
	if !ok {
		return ""
	}
	if a.Details.Name == it.Name && a.Details.URL != "" {
		return a.Details.URL
	}
	if it.Source.IsAUR() {
		return "https://aur.archlinux.org/packages/" + url.PathEscape(it.Name)
	}
	if it.Source.Repo == "" || it.Source.Arch == "" {
		return ""
	}
	return "https://archlinux.org/packages/" + it.Source.Repo + "/" + it.Source.Arch + "/" + url.PathEscape(it.Name) + "/"
}

// ListSelection is the selection as the list widget sees it: the index,
// or ok=false when there are no results.
func (a *App) ListSelection() (int, bool) {
	if len(a.Results) == 0 {
		return 0, false
	}
	return a.Selected, true
}

// RightList returns the list shown in the right pane.
func (a *App) RightList() *PackageList {
	switch a.Right {
	case PaneRemove:
		return a.Remove
	case PaneDowngrade:
		return a.Downgrade
	default:
		return a.Install
	}
}
