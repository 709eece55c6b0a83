package details

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/papapumpkin/pacsea/internal/aur"
	"github.com/papapumpkin/pacsea/internal/bus"
	"github.com/papapumpkin/pacsea/internal/pacman"
	"github.com/papapumpkin/pacsea/internal/pkginfo"
)

// BatchWindow is how long the worker keeps collecting requests after the
// last one arrived.
const BatchWindow = 120 * time.Millisecond

// OfficialSource answers pacman info queries.
type OfficialSource interface {
	SyncInfo(ctx context.Context, specs []string) map[string]pacman.Record
	LocalInfo(ctx context.Context, names []string) map[string]pacman.Record
}

// AURSource answers AUR queries.
type AURSource interface {
	Info(ctx context.Context, names []string) (map[string]pkginfo.PackageDetails, error)
	PKGBUILD(ctx context.Context, name string) (string, error)
	OfficialPKGBUILD(ctx context.Context, name string) (string, error)
	Comments(ctx context.Context, name string) ([]aur.Comment, error)
}

// Result is one details response. Err is set when the package could not
// be resolved.
type Result struct {
	Name    string
	Details pkginfo.PackageDetails
	Err     error
}

// Text is a PKGBUILD response.
type Text struct {
	Name string
	Text string
	Err  error
}

// CommentsResult is an AUR comments response.
type CommentsResult struct {
	Name     string
	Comments []aur.Comment
	Err      error
}

// Worker resolves details for queued packages.
type Worker struct {
	official OfficialSource
	aur      AURSource
	gate     *Gate
	window   time.Duration
	l        hclog.Logger
}

// NewWorker returns a worker that consults gate before each fetch.
func NewWorker(official OfficialSource, aurSrc AURSource, gate *Gate, l hclog.Logger) *Worker {
	if l == nil {
		l = hclog.NewNullLogger()
	}
	if gate == nil {
		gate = NewGate()
	}
	return &Worker{official: official, aur: aurSrc, gate: gate, window: BatchWindow, l: l.Named("details")}
}

// Run serves detail requests until ctx is done or reqs is closed.
func (w *Worker) Run(ctx context.Context, reqs *bus.Queue[pkginfo.PackageItem], out *bus.Queue[Result]) {
	for {
		first, err := reqs.Recv(ctx)
		if err != nil {
			return
		}
		batch := w.collect(ctx, reqs, first)
		for _, r := range w.Fetch(ctx, batch) {
			if !out.Send(r) {
				w.l.Debug("receiver shut down", "queue", "details")
				return
			}
		}
	}
}

// collect gathers requests until the queue stays quiet for the batch
// window, deduplicating by name.
func (w *Worker) collect(ctx context.Context, reqs *bus.Queue[pkginfo.PackageItem], first pkginfo.PackageItem) []pkginfo.PackageItem {
	seen := map[string]struct{}{first.Name: {}}
	batch := []pkginfo.PackageItem{first}
	for {
		wctx, cancel := context.WithTimeout(ctx, w.window)
		next, err := reqs.Recv(wctx)
		cancel()
		if err != nil {
			return batch
		}
		if _, dup := seen[next.Name]; dup {
			continue
		}
		seen[next.Name] = struct{}{}
		batch = append(batch, next)
	}
}

// Fetch resolves items, skipping names the gate no longer allows.
func (w *Worker) Fetch(ctx context.Context, items []pkginfo.PackageItem) []Result {
	var official, aurNames []string
	bySpec := map[string]pkginfo.PackageItem{}
	for _, it := range items {
		if !w.gate.Allowed(it.Name) {
			continue
		}
		if it.Source.IsAUR() {
			aurNames = append(aurNames, it.Name)
		} else {
			official = append(official, it.Name)
		}
		bySpec[it.Name] = it
	}

	var out []Result
	if len(official) > 0 && w.official != nil {
		out = append(out, w.fetchOfficial(ctx, official, bySpec)...)
	}
	if len(aurNames) > 0 && w.aur != nil {
		out = append(out, w.fetchAUR(ctx, aurNames)...)
	}
	return out
}

func (w *Worker) fetchOfficial(ctx context.Context, names []string, items map[string]pkginfo.PackageItem) []Result {
	recs := w.official.SyncInfo(ctx, names)
	var missing []string
	for _, n := range names {
		if _, ok := recs[n]; !ok {
			missing = append(missing, n)
		}
	}
	// Locally installed packages that left the sync repos.
	if len(missing) > 0 {
		for name, rec := range w.official.LocalInfo(ctx, missing) {
			recs[name] = rec
		}
	}

	out := make([]Result, 0, len(names))
	for _, n := range names {
		rec, ok := recs[n]
		if !ok {
			w.l.Debug("official details unavailable", "name", n)
			out = append(out, Result{Name: n, Err: fmt.Errorf("official package details unavailable for %s", n)})
			continue
		}
		d := rec.Details()
		if d.Repository == "" {
			d.Repository = items[n].Source.Repo
		}
		out = append(out, Result{Name: n, Details: d})
	}
	return out
}

func (w *Worker) fetchAUR(ctx context.Context, names []string) []Result {
	found, err := w.aur.Info(ctx, names)
	out := make([]Result, 0, len(names))
	for _, n := range names {
		if d, ok := found[n]; ok {
			out = append(out, Result{Name: n, Details: d})
			continue
		}
		e := err
		if e == nil {
			e = aur.ErrNotFound
		}
		if !errors.Is(e, context.Canceled) {
			w.l.Debug("aur details unavailable", "name", n, "err", e)
		}
		out = append(out, Result{Name: n, Err: fmt.Errorf("AUR package details unavailable for %s: %w", n, e)})
	}
	return out
}

// RunPKGBUILD serves PKGBUILD requests one at a time.
func (w *Worker) RunPKGBUILD(ctx context.Context, reqs *bus.Queue[pkginfo.PackageItem], out *bus.Queue[Text]) {
	for {
		it, err := reqs.Recv(ctx)
		if err != nil {
			return
		}
		var text string
		if it.Source.IsAUR() {
			text, err = w.aur.PKGBUILD(ctx, it.Name)
		} else {
			text, err = w.aur.OfficialPKGBUILD(ctx, it.Name)
		}
		if err != nil {
			w.l.Debug("pkgbuild fetch failed", "name", it.Name, "err", err)
		}
		if !out.Send(Text{Name: it.Name, Text: text, Err: err}) {
			return
		}
	}
}

// RunComments serves AUR comments requests one at a time.
func (w *Worker) RunComments(ctx context.Context, reqs *bus.Queue[string], out *bus.Queue[CommentsResult]) {
	for {
		name, err := reqs.Recv(ctx)
		if err != nil {
			return
		}
		comments, err := w.aur.Comments(ctx, name)
		if err != nil {
			w.l.Debug("comments fetch failed", "name", name, "err", err)
		}
		if !out.Send(CommentsResult{Name: name, Comments: comments, Err: err}) {
			return
		}
	}
}
