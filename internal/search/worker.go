package search

import (
	"context"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/papapumpkin/pacsea/internal/bus"
	"github.com/papapumpkin/pacsea/internal/pkginfo"
)

// Default pacing.
const (
	DefaultDebounce    = 250 * time.Millisecond
	DefaultMinInterval = 300 * time.Millisecond
)

// Query is one search request. IDs increase strictly.
type Query struct {
	ID   uint64
	Text string
}

// Results answers the query with the same ID. Err reports a partial
// failure (the AUR being unreachable); Items still holds what was found.
type Results struct {
	ID    uint64
	Items []pkginfo.PackageItem
	Err   error
}

// Index is the official package index.
type Index interface {
	Search(query string) []pkginfo.PackageItem
	All() []pkginfo.PackageItem
}

// AUR searches the AUR.
type AUR interface {
	Search(ctx context.Context, query string) ([]pkginfo.PackageItem, error)
}

// Worker coalesces queries and fans them out.
type Worker struct {
	Debounce    time.Duration
	MinInterval time.Duration

	index Index
	aur   AUR
	l     hclog.Logger
}

// NewWorker returns a worker with default pacing. aur may be nil for an
// offline session.
func NewWorker(index Index, aur AUR, l hclog.Logger) *Worker {
	if l == nil {
		l = hclog.NewNullLogger()
	}
	return &Worker{
		Debounce:    DefaultDebounce,
		MinInterval: DefaultMinInterval,
		index:       index,
		aur:         aur,
		l:           l.Named("search"),
	}
}

// Run serves queries until ctx is done or queries is closed. Queries that
// arrive within the debounce window replace the pending one. Non-empty
// queries run concurrently, at most one start per MinInterval; results are
// tagged with their query ID so the reducer can discard stale ones.
func (w *Worker) Run(ctx context.Context, queries *bus.Queue[Query], out *bus.Queue[Results]) {
	lastSent := time.Now().Add(-w.MinInterval)
	for {
		latest, err := queries.Recv(ctx)
		if err != nil {
			return
		}
		latest = w.coalesce(ctx, queries, latest)
		if ctx.Err() != nil {
			return
		}

		if strings.TrimSpace(latest.Text) == "" {
			w.send(out, Results{ID: latest.ID, Items: w.Empty()})
			continue
		}

		if wait := w.MinInterval - time.Since(lastSent); wait > 0 {
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return
			}
		}
		lastSent = time.Now()

		go func(q Query) {
			items, err := w.Search(ctx, q.Text)
			if err != nil {
				w.l.Warn("aur search failed", "err", err)
			}
			w.send(out, Results{ID: q.ID, Items: items, Err: err})
		}(latest)
	}
}

func (w *Worker) coalesce(ctx context.Context, queries *bus.Queue[Query], latest Query) Query {
	for {
		wctx, cancel := context.WithTimeout(ctx, w.Debounce)
		next, err := queries.Recv(wctx)
		cancel()
		if err != nil {
			return latest
		}
		latest = next
	}
}

func (w *Worker) send(out *bus.Queue[Results], r Results) {
	if !out.Send(r) {
		w.l.Debug("receiver shut down", "queue", "search results")
	}
}

// Empty returns the whole official index sorted by repository and name,
// deduplicated by lowercase name.
func (w *Worker) Empty() []pkginfo.PackageItem {
	items := w.index.All()
	SortByRepoName(items)
	return Dedupe(items)
}

// Search runs query against the index and the AUR and merges the results.
// An AUR failure is returned alongside the official matches.
func (w *Worker) Search(ctx context.Context, query string) ([]pkginfo.PackageItem, error) {
	items := w.index.Search(query)
	var err error
	if w.aur != nil {
		var remote []pkginfo.PackageItem
		remote, err = w.aur.Search(ctx, strings.TrimSpace(query))
		items = append(items, remote...)
	}
	SortByRelevance(items, query)
	return Dedupe(items), err
}
