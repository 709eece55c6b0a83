package index

import (
	"context"
	"errors"

	"github.com/papapumpkin/pacsea/internal/bus"
)

// Notice tells the reducer that the index changed.
type Notice struct {
	Updated int
	Err     error
}

// RunEnricher serves enrichment requests until ctx is done or reqs is closed.
// Requests queued while a batch runs are merged into the next one. A Notice
// is sent after every batch that changed the index or failed.
func (x *Index) RunEnricher(ctx context.Context, reqs *bus.Queue[[]string], notify *bus.Queue[Notice]) {
	for {
		first, err := reqs.Recv(ctx)
		if err != nil {
			return
		}
		names := first
		for _, more := range reqs.Drain() {
			names = append(names, more...)
		}
		names = x.MissingDescription(names)
		if len(names) == 0 {
			continue
		}
		n, err := x.Enrich(ctx, names)
		if errors.Is(err, context.Canceled) {
			return
		}
		if err != nil {
			x.l.Warn("enrich failed", "err", err)
		}
		if n > 0 || err != nil {
			if !notify.Send(Notice{Updated: n, Err: err}) {
				x.l.Debug("receiver shut down", "queue", "index notify")
			}
		}
	}
}

// RunUpdate refreshes the index from pacman once and reports the outcome.
// It is started in the background when the TUI opens.
func (x *Index) RunUpdate(ctx context.Context, repos []string, notify *bus.Queue[Notice]) {
	changed, err := x.Update(ctx, repos)
	if errors.Is(err, context.Canceled) {
		return
	}
	if err != nil {
		x.l.Warn("index refresh failed", "err", err)
		notify.Send(Notice{Err: err})
		return
	}
	if changed {
		notify.Send(Notice{Updated: x.Len()})
	}
}
