package state

import (
	"sync/atomic"

	"github.com/papapumpkin/pacsea/internal/executor"
	"github.com/papapumpkin/pacsea/internal/pkginfo"
	"github.com/papapumpkin/pacsea/internal/preflight"
)

// TabState is the per-tab part of the preflight modal.
type TabState struct {
	Loading  bool
	Loaded   bool
	Err      string
	Selected int
	Expanded map[string]bool
}

// PreflightState is the open preflight modal.
type PreflightState struct {
	Action    preflight.Action
	Items     []pkginfo.PackageItem
	Signature string
	Tab       preflight.Tab
	Tabs      map[preflight.Tab]*TabState
	Cancel    *atomic.Bool
	Cascade   executor.CascadeMode

	Summary  preflight.Summary
	Deps     []preflight.DependencyInfo
	Files    preflight.FilesResult
	Services []preflight.ServiceImpact
	Sandbox  []preflight.SandboxInfo
}

// TabState returns the state of t.
func (p *PreflightState) TabState(t preflight.Tab) *TabState { return p.Tabs[t] }

// Current returns the state of the focused tab.
func (p *PreflightState) Current() *TabState { return p.Tabs[p.Tab] }

// Rows returns the number of selectable rows of t.
func (p *PreflightState) Rows(t preflight.Tab) int {
	switch t {
	case preflight.TabSummary:
		return len(p.Summary.Packages)
	case preflight.TabDeps:
		return len(p.Deps)
	case preflight.TabFiles:
		return len(p.Files.Packages)
	case preflight.TabServices:
		return len(p.Services)
	case preflight.TabSandbox:
		return len(p.Sandbox)
	}
	return 0
}

// aurItems returns the AUR subset of items.
func aurItems(items []pkginfo.PackageItem) []pkginfo.PackageItem {
	var out []pkginfo.PackageItem
	for _, it := range items {
		if it.Source.IsAUR() {
			out = append(out, it)
		}
	}
	return out
}

// OpenPreflight opens the modal for a transaction over items and starts
// resolving every tab that applies to action. Tabs with a cached result
// for the same transaction adopt it instead of resolving again.
func (a *App) OpenPreflight(action preflight.Action, items []pkginfo.PackageItem) {
	if len(items) == 0 {
		a.SetToast("Nothing to " + string(action))
		return
	}
	if a.Preflight != nil {
		a.ClosePreflight()
	}
	p := &PreflightState{
		Action:    action,
		Items:     append([]pkginfo.PackageItem(nil), items...),
		Signature: preflight.Signature(action, pkginfo.Names(items)),
		Tab:       preflight.TabSummary,
		Tabs:      make(map[preflight.Tab]*TabState),
		Cancel:    new(atomic.Bool),
		Cascade:   a.Cascade,
	}
	for _, t := range preflight.Tabs() {
		p.Tabs[t] = &TabState{Expanded: make(map[string]bool)}
	}
	a.Preflight = p

	for _, t := range preflight.Tabs() {
		switch {
		case t == preflight.TabDeps && action != preflight.ActionInstall,
			t == preflight.TabSandbox && len(aurItems(items)) == 0:
			p.Tabs[t].Loaded = true
		case a.adoptCached(t):
		default:
			a.requestTab(t)
		}
	}
}

// requestTab enqueues the resolution of t for the open modal.
func (a *App) requestTab(t preflight.Tab) {
	p := a.Preflight
	items := p.Items
	if t == preflight.TabSandbox {
		items = aurItems(items)
	}
	req := preflight.NewRequest(t, p.Action, items, p.Cancel)
	req.Signature = p.Signature
	ts := p.Tabs[t]
	ts.Loading, ts.Loaded, ts.Err = true, false, ""
	send(a.l, a.Out.Preflight, "preflight", req)
}

// adoptCached fills t from the persisted caches when they hold a result
// for the open transaction.
func (a *App) adoptCached(t preflight.Tab) bool {
	p := a.Preflight
	c := a.PreflightCaches
	var ok bool
	switch t {
	case preflight.TabDeps:
		p.Deps, ok = c.Deps.Get(p.Signature)
	case preflight.TabFiles:
		p.Files, ok = c.Files.Get(p.Signature)
	case preflight.TabServices:
		p.Services, ok = c.Services.Get(p.Signature)
	case preflight.TabSandbox:
		p.Sandbox, ok = c.Sandbox.Get(p.Signature)
	}
	if !ok {
		return false
	}
	ts := p.Tabs[t]
	ts.Loading, ts.Loaded, ts.Err = false, true, ""
	if t == preflight.TabServices {
		p.Services = append([]preflight.ServiceImpact(nil), p.Services...)
	}
	a.foldImpacts()
	return true
}

// foldImpacts recomputes the summary risk from the files and services
// results received so far.
func (a *App) foldImpacts() {
	p := a.Preflight
	if !p.Tabs[preflight.TabSummary].Loaded {
		return
	}
	p.Summary.ApplyImpacts(p.Files.Packages, p.Services)
}

// ApplyPreflightResult stores one resolved tab. Results for a transaction
// other than the open one are discarded and reported as false.
func (a *App) ApplyPreflightResult(res preflight.Result) bool {
	p := a.Preflight
	if p == nil || res.Signature != p.Signature {
		a.l.Debug("late preflight result dropped", "tab", res.Tab.String(), "signature", res.Signature)
		return false
	}
	ts := p.Tabs[res.Tab]
	ts.Loading = false
	if res.Err != nil {
		ts.Err = res.Err.Error()
		return true
	}
	ts.Loaded, ts.Err = true, ""

	c := a.PreflightCaches
	switch res.Tab {
	case preflight.TabSummary:
		p.Summary = res.Summary
	case preflight.TabDeps:
		p.Deps = res.Deps
		c.Deps.Put(p.Signature, res.Deps)
	case preflight.TabFiles:
		p.Files = res.Files
		c.Files.Put(p.Signature, res.Files)
	case preflight.TabServices:
		p.Services = res.Services
		c.Services.Put(p.Signature, append([]preflight.ServiceImpact(nil), res.Services...))
	case preflight.TabSandbox:
		p.Sandbox = res.Sandbox
		c.Sandbox.Put(p.Signature, res.Sandbox)
	}
	a.foldImpacts()
	return true
}

// ClosePreflight cancels outstanding resolutions and closes the modal.
func (a *App) ClosePreflight() {
	if a.Preflight == nil {
		return
	}
	a.Preflight.Cancel.Store(true)
	a.Preflight = nil
}

// FocusTab switches the modal to t, adopting a cached result on first
// focus.
func (a *App) FocusTab(t preflight.Tab) {
	p := a.Preflight
	if p == nil {
		return
	}
	p.Tab = t
	if ts := p.Tabs[t]; !ts.Loaded && !ts.Loading {
		a.adoptCached(t)
	}
}

// NextTab focuses the tab after the current one, wrapping around.
func (a *App) NextTab(delta int) {
	if a.Preflight == nil {
		return
	}
	n := len(preflight.Tabs())
	a.FocusTab(preflight.Tab((int(a.Preflight.Tab) + delta + n) % n))
}

// RetryTab re-resolves the focused tab after a failure.
func (a *App) RetryTab() {
	p := a.Preflight
	if p == nil || p.Current().Err == "" {
		return
	}
	a.requestTab(p.Tab)
}

// MoveTabSelection moves the row selection of the focused tab.
func (a *App) MoveTabSelection(delta int) {
	p := a.Preflight
	if p == nil {
		return
	}
	ts := p.Current()
	rows := p.Rows(p.Tab)
	if rows == 0 {
		ts.Selected = 0
		return
	}
	ts.Selected = min(max(ts.Selected+delta, 0), rows-1)
}

// ToggleExpanded expands or collapses the selected package of the focused
// tab.
func (a *App) ToggleExpanded() {
	p := a.Preflight
	if p == nil {
		return
	}
	ts := p.Current()
	var name string
	switch p.Tab {
	case preflight.TabDeps:
		if ts.Selected < len(p.Deps) {
			name = p.Deps[ts.Selected].Name
		}
	case preflight.TabFiles:
		if ts.Selected < len(p.Files.Packages) {
			name = p.Files.Packages[ts.Selected].Name
		}
	case preflight.TabSandbox:
		if ts.Selected < len(p.Sandbox) {
			name = p.Sandbox[ts.Selected].PackageName
		}
	}
	if name != "" {
		ts.Expanded[name] = !ts.Expanded[name]
	}
}

// ToggleService flips the restart decision of the selected service.
func (a *App) ToggleService() {
	p := a.Preflight
	if p == nil || p.Tab != preflight.TabServices {
		return
	}
	i := p.Current().Selected
	if i >= len(p.Services) {
		return
	}
	p.Services[i].Decision = p.Services[i].Decision.Toggle()
}

// CycleCascade advances the removal cascade mode of a remove preflight.
func (a *App) CycleCascade() {
	p := a.Preflight
	if p == nil || p.Action != preflight.ActionRemove {
		return
	}
	p.Cascade = p.Cascade.Next()
	a.Cascade = p.Cascade
	a.SetToast("Cascade: " + p.Cascade.Label())
}

// ConfirmPreflight closes the modal and starts executing its transaction.
func (a *App) ConfirmPreflight() {
	p := a.Preflight
	if p == nil {
		return
	}
	job := Job{
		Kind:   jobKind(p.Action),
		Items:  p.Items,
		Names:  pkginfo.Names(p.Items),
		Impact: impactOf(p),
	}
	job.Cascade = p.Cascade
	a.ClosePreflight()
	a.BeginExec(job)
}

func jobKind(action preflight.Action) executor.Kind {
	switch action {
	case preflight.ActionRemove:
		return executor.KindRemove
	case preflight.ActionDowngrade:
		return executor.KindDowngrade
	default:
		return executor.KindInstall
	}
}

// impactOf captures what the post-transaction summary reports.
func impactOf(p *PreflightState) Impact {
	var im Impact
	for _, f := range p.Files.Packages {
		im.ChangedFiles += f.Total
		im.Pacnew += f.PacnewCandidates
		im.Pacsave += f.PacsaveCandidates
	}
	for _, s := range p.Services {
		if !s.NeedsRestart {
			continue
		}
		if s.Decision == preflight.ServiceRestart {
			im.Restart = append(im.Restart, s.UnitName)
		} else {
			im.Deferred = append(im.Deferred, s.UnitName)
		}
	}
	return im
}
