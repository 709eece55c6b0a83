package preflight

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/papapumpkin/pacsea/internal/bus"
	"github.com/papapumpkin/pacsea/internal/pkginfo"
)

// Request asks for one tab of a transaction to be resolved.
type Request struct {
	Tab       Tab
	Action    Action
	Items     []pkginfo.PackageItem
	Signature string
	Cancel    *atomic.Bool
}

// NewRequest builds a request whose signature is derived from action and
// the item names.
func NewRequest(tab Tab, action Action, items []pkginfo.PackageItem, cancel *atomic.Bool) Request {
	return Request{
		Tab:       tab,
		Action:    action,
		Items:     append([]pkginfo.PackageItem(nil), items...),
		Signature: Signature(action, pkginfo.Names(items)),
		Cancel:    cancel,
	}
}

// Result carries the payload of exactly one tab.
type Result struct {
	Tab       Tab
	Signature string
	Summary   Summary
	Deps      []DependencyInfo
	Files     FilesResult
	Services  []ServiceImpact
	Sandbox   []SandboxInfo
	Err       error
}

// Resolve runs the resolver for req.Tab.
func (r *Resolver) Resolve(ctx context.Context, req Request) Result {
	res := Result{Tab: req.Tab, Signature: req.Signature}
	switch req.Tab {
	case TabSummary:
		res.Summary, res.Err = r.Summary(ctx, req.Action, req.Items, req.Cancel)
	case TabDeps:
		if req.Action == ActionInstall {
			res.Deps, res.Err = r.Deps(ctx, req.Items, req.Cancel)
		}
	case TabFiles:
		res.Files, res.Err = r.Files(ctx, req.Action, req.Items, req.Cancel)
	case TabServices:
		res.Services, res.Err = r.Services(ctx, req.Action, req.Items, req.Cancel)
	case TabSandbox:
		res.Sandbox, res.Err = r.Sandbox(ctx, req.Items, req.Cancel)
	}
	return res
}

// Run resolves requests concurrently until ctx is done or reqs is closed.
// Cancelled resolutions are dropped without a result.
func (r *Resolver) Run(ctx context.Context, reqs *bus.Queue[Request], out *bus.Queue[Result]) {
	for {
		req, err := reqs.Recv(ctx)
		if err != nil {
			return
		}
		go func(req Request) {
			res := r.Resolve(ctx, req)
			if errors.Is(res.Err, ErrCancelled) || cancelled(req.Cancel) {
				r.l.Debug("resolution cancelled", "tab", req.Tab.String(), "signature", req.Signature)
				return
			}
			if res.Err != nil {
				r.l.Warn("resolution failed", "tab", req.Tab.String(), "err", res.Err)
			}
			if !out.Send(res) {
				r.l.Debug("receiver shut down", "queue", "preflight")
			}
		}(req)
	}
}
